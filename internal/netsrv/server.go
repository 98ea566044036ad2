// Package netsrv is the TCP front door to the matching engine: a worker
// pool of connection handlers feeding a single session handler goroutine,
// the shape the engine's predecessor server used, generalized from a
// username-keyed client table to one keyed by participant id and grown a
// Transfer path alongside New/Cancel order.
package netsrv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/wire"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var ErrClientDoesNotExist = errors.New("client does not exist")

// session is one connected TCP client. participantID is learned from the
// first message it sends that carries one; until then reports cannot be
// routed to it.
type session struct {
	conn          net.Conn
	participantID uint64
	known         bool
}

type clientMessage struct {
	address string
	message wire.Message
}

// MarketLookup resolves the market a wire message's ticker names, the one
// piece of context the engine's fixed-point Order needs that the wire
// format carries only as a string.
type MarketLookup func(ticker string) (*common.Market, bool)

// Server accepts TCP connections, decodes the wire protocol off each one
// through a bounded worker pool, and funnels every decoded message through
// a single session handler goroutine into the engine.
type Server struct {
	address  string
	port     int
	engine   *engine.Engine
	markets  MarketLookup
	pool     workerPool
	cancel   context.CancelFunc
	sessions map[string]*session
	byPart   map[uint64]*session
	mu       sync.Mutex
	inbox    chan clientMessage
}

// New builds a Server listening on address:port, resolving wire ticker
// strings to markets via markets. The engine to drive is supplied
// separately via SetEngine, since the Server itself is usually the engine's
// MarketDataPolicy and so must exist before the engine does.
func New(address string, port int, markets MarketLookup) *Server {
	return &Server{
		address:  address,
		port:     port,
		markets:  markets,
		pool:     newWorkerPool(defaultNWorkers),
		sessions: make(map[string]*session),
		byPart:   make(map[uint64]*session),
		inbox:    make(chan clientMessage, 1),
	}
}

// SetEngine wires the engine the server drives. It must be called before
// Run.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// Shutdown cancels the server's context, unwinding Run.
func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run listens for and services connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	// Closing the listener on cancellation unblocks Accept below.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("closing listener")
		}
	}()

	t.Go(func() error {
		s.pool.setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("accepting client")
				continue
			}
			log.Info().Str("address", conn.RemoteAddr().String()).Msg("client connected")
			s.addSession(conn)
			s.pool.addTask(conn)
		}
	}
}

func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("unexpected task type %T", task)
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("setting connection deadline")
		s.closeSession(conn)
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			log.Info().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			s.closeSession(conn)
			return nil
		}

		msg, err := wire.ParseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("parsing message")
			s.pool.addTask(conn)
			return nil
		}

		s.inbox <- clientMessage{address: conn.RemoteAddr().String(), message: msg}
		s.pool.addTask(conn)
	}
	return nil
}

func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cm := <-s.inbox:
			if err := s.handleMessage(cm); err != nil {
				log.Error().Err(err).Str("address", cm.address).Msg("handling message")
			}
		}
	}
}

func (s *Server) handleMessage(cm clientMessage) error {
	switch m := cm.message.(type) {
	case *wire.NewOrderMessage:
		return s.handleNewOrder(cm.address, m)
	case *wire.CancelOrderMessage:
		return s.handleCancelOrder(cm.address, m)
	case *wire.TransferMessage:
		return s.handleTransfer(cm.address, m)
	default:
		return fmt.Errorf("unhandled message type %T", m)
	}
}

func (s *Server) handleNewOrder(address string, m *wire.NewOrderMessage) error {
	s.learnParticipant(address, m.ParticipantID)
	market, ok := s.markets(m.Ticker)
	if !ok {
		return s.reportError(m.ParticipantID, m.OrderID, fmt.Errorf("unknown market %q", m.Ticker))
	}
	order := m.Order(market)
	if err := s.engine.PlaceOrder(order); err != nil {
		return s.reportError(m.ParticipantID, m.OrderID, err)
	}
	return nil
}

func (s *Server) handleCancelOrder(address string, m *wire.CancelOrderMessage) error {
	s.learnParticipant(address, m.ParticipantID)
	market, ok := s.markets(m.Ticker)
	if !ok {
		return s.reportError(m.ParticipantID, m.OrderID, fmt.Errorf("unknown market %q", m.Ticker))
	}
	cancel := &book.Order{Market: market, ParticipantID: m.ParticipantID, OrderID: m.OrderID, Kind: book.KindCancel}
	if err := s.engine.PlaceOrder(cancel); err != nil {
		return s.reportError(m.ParticipantID, m.OrderID, err)
	}
	return nil
}

func (s *Server) handleTransfer(address string, m *wire.TransferMessage) error {
	s.learnParticipant(address, m.ParticipantID)
	market, ok := s.markets(m.Ticker)
	if !ok {
		return s.reportError(m.ParticipantID, 0, fmt.Errorf("unknown market %q", m.Ticker))
	}
	order := &book.Order{Market: market, ParticipantID: m.ParticipantID, Kind: m.Kind, Quantity: m.Quantity}
	if err := s.engine.Transfer(order); err != nil {
		return s.reportError(m.ParticipantID, 0, err)
	}
	return nil
}

// reportError writes an error report back to participantID's connection,
// if it is known.
func (s *Server) reportError(participantID, orderID uint64, cause error) error {
	s.mu.Lock()
	sess, ok := s.byPart[participantID]
	s.mu.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}
	report := wire.NewErrorReport(participantID, orderID, cause)
	_, err := sess.conn.Write(report.Serialize())
	return err
}

func (s *Server) addSession(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = &session{conn: conn}
}

func (s *Server) closeSession(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address := conn.RemoteAddr().String()
	if sess, ok := s.sessions[address]; ok && sess.known {
		delete(s.byPart, sess.participantID)
	}
	delete(s.sessions, address)
	_ = conn.Close()
}

func (s *Server) learnParticipant(address string, participantID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[address]
	if !ok {
		return
	}
	sess.participantID = participantID
	sess.known = true
	s.byPart[participantID] = sess
}

// HandleOrderPlaced implements policy.MarketDataPolicy. Placement alone
// produces no report; a client only hears back once its order fills.
func (s *Server) HandleOrderPlaced(*book.OrderQuantity) {}

// HandleOrderCancelled implements policy.MarketDataPolicy.
func (s *Server) HandleOrderCancelled(*book.OrderQuantity) {}

// HandleOrderExecuted implements policy.MarketDataPolicy: it sends each
// side of a fill its own execution report, at the resting order's price.
func (s *Server) HandleOrderExecuted(executedQuantity uint64, aggressor, bookOrder *book.OrderQuantity) {
	price := bookOrder.Order.LimitPrice
	ticker := bookOrder.Order.Market.Symbol
	s.sendReport(aggressor.Order.ParticipantID, wire.NewTradeReport(
		aggressor.Order.ParticipantID, aggressor.Order.OrderID, aggressor.Order.Side, ticker, executedQuantity, price))
	s.sendReport(bookOrder.Order.ParticipantID, wire.NewTradeReport(
		bookOrder.Order.ParticipantID, bookOrder.Order.OrderID, bookOrder.Order.Side, ticker, executedQuantity, price))
}

func (s *Server) sendReport(participantID uint64, report wire.Report) {
	s.mu.Lock()
	sess, ok := s.byPart[participantID]
	s.mu.Unlock()
	if !ok {
		return
	}
	if _, err := sess.conn.Write(report.Serialize()); err != nil {
		log.Error().Err(err).Uint64("participantId", participantID).Msg("writing execution report")
	}
}
