// Package marketdata broadcasts book mutations to WebSocket subscribers.
// The Hub/Client split, ping/pong liveness and stale-connection pruning are
// carried over directly from the engine's existing WebSocket fan-out;
// Hub.broadcast is driven here by the Hub's policy.MarketDataPolicy methods
// (placed, cancelled, executed) instead of being called ad hoc.
package marketdata

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"fenrir/internal/book"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the JSON payload broadcast to every subscriber. Kind names which
// of the three observation points fired; only the fields relevant to Kind
// are populated.
type Event struct {
	Kind      string `json:"kind"`
	Market    string `json:"market,omitempty"`
	Side      string `json:"side,omitempty"`
	Price     uint64 `json:"price,omitempty"`
	Quantity  uint64 `json:"quantity,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub maintains the set of active WebSocket subscribers and broadcasts
// book events to all of them. It implements policy.MarketDataPolicy.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	stopCh  chan struct{}
	now     func() time.Time
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	lastPong time.Time
}

// NewHub builds a Hub and starts its stale-connection pruning loop. now is
// injectable for tests; pass time.Now in production.
func NewHub(now func() time.Time) *Hub {
	h := &Hub{
		clients: make(map[*Client]bool),
		stopCh:  make(chan struct{}),
		now:     now,
	}
	go h.cleanupLoop()
	return h
}

func (h *Hub) Stop() { close(h.stopCh) }

func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.pruneStaleClients()
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) pruneStaleClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	staleThreshold := h.now().Add(-pongWait - 10*time.Second)
	for client := range h.clients {
		if client.lastPong.Before(staleThreshold) {
			delete(h.clients, client)
			close(client.send)
			client.conn.Close()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("marshalling market data event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Warn().Msg("market data client buffer full, dropping event")
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and starts its
// read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrading websocket connection")
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16), lastPong: h.now()}
	h.register(client)
	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.lastPong = time.Now()
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		// Subscribers are read-only; anything they send is discarded.
	}
}

// HandleOrderPlaced implements policy.MarketDataPolicy.
func (h *Hub) HandleOrderPlaced(oq *book.OrderQuantity) {
	h.broadcast(Event{
		Kind:      "placed",
		Market:    oq.Order.Market.Symbol,
		Side:      oq.Order.Side.String(),
		Price:     oq.Order.LimitPrice,
		Quantity:  oq.Quantity,
		Timestamp: h.now().UnixNano(),
	})
}

// HandleOrderCancelled implements policy.MarketDataPolicy.
func (h *Hub) HandleOrderCancelled(oq *book.OrderQuantity) {
	h.broadcast(Event{
		Kind:      "cancelled",
		Market:    oq.Order.Market.Symbol,
		Side:      oq.Order.Side.String(),
		Price:     oq.Order.LimitPrice,
		Quantity:  oq.Quantity,
		Timestamp: h.now().UnixNano(),
	})
}

// HandleOrderExecuted implements policy.MarketDataPolicy, broadcasting one
// trade event per fill at the resting order's price.
func (h *Hub) HandleOrderExecuted(executedQuantity uint64, _, bookOrder *book.OrderQuantity) {
	h.broadcast(Event{
		Kind:      "trade",
		Market:    bookOrder.Order.Market.Symbol,
		Side:      bookOrder.Order.Side.String(),
		Price:     bookOrder.Order.LimitPrice,
		Quantity:  executedQuantity,
		Timestamp: h.now().UnixNano(),
	})
}
