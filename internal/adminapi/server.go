// Package adminapi is a read-only HTTP introspection surface over the
// matching engine, grounded on the engine's existing chi-based HTTP API:
// the router setup, middleware stack and CORS configuration are carried
// over directly; the routes themselves are narrowed to GET-only book and
// portfolio snapshots since this surface is for operators, not traders.
package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fenrir/internal/book"
	"fenrir/internal/engine"
	"fenrir/internal/margin"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server exposes the registered order books and margin accounts for
// introspection. It never mutates engine state.
type Server struct {
	registry *engine.BookRegistry
	accounts *margin.Manager
	origins  []string
}

// New builds a Server over registry and accounts. Pass an empty origins
// slice to allow all origins (development mode).
func New(registry *engine.BookRegistry, accounts *margin.Manager, origins []string) *Server {
	return &Server{registry: registry, accounts: accounts, origins: origins}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	allowedOrigins := s.origins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
	}))

	r.Route("/books", func(r chi.Router) {
		r.Get("/{symbol}", s.getBook)
	})
	r.Route("/participants", func(r chi.Router) {
		r.Get("/{id}/portfolio", s.getPortfolio)
	})
	return r
}

type levelView struct {
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
	Orders   int    `json:"orders"`
}

type bookView struct {
	Symbol string      `json:"symbol"`
	Bids   []levelView `json:"bids"`
	Asks   []levelView `json:"asks"`
}

func snapshotSide(side *book.BookSide) []levelView {
	levels := side.Levels()
	out := make([]levelView, 0, len(levels))
	for _, lvl := range levels {
		var qty uint64
		for _, oq := range lvl.Orders {
			qty += oq.Quantity
		}
		out = append(out, levelView{Price: lvl.Price, Quantity: qty, Orders: len(lvl.Orders)})
	}
	return out
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ob, ok := s.registry.Get(symbol)
	if !ok {
		http.Error(w, "unknown market", http.StatusNotFound)
		return
	}
	view := bookView{Symbol: symbol, Bids: snapshotSide(ob.Bids), Asks: snapshotSide(ob.Asks)}
	writeJSON(w, view)
}

type assetView struct {
	Symbol             string `json:"symbol"`
	ReceivedOpen       uint64 `json:"receivedOpen"`
	ReceivedLocked     uint64 `json:"receivedLocked"`
	ReceivedCommitted  uint64 `json:"receivedCommitted"`
	DeliveredOpen      uint64 `json:"deliveredOpen"`
	DeliveredLocked    uint64 `json:"deliveredLocked"`
	DeliveredCommitted uint64 `json:"deliveredCommitted"`
}

type portfolioView struct {
	ParticipantID uint64      `json:"participantId"`
	Assets        []assetView `json:"assets"`
}

func (s *Server) getPortfolio(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid participant id", http.StatusBadRequest)
		return
	}
	acc, err := s.accounts.Account(id)
	if err != nil {
		http.Error(w, "unknown participant", http.StatusNotFound)
		return
	}
	view := portfolioView{ParticipantID: id}
	for symbol, assetAccount := range acc.Portfolio {
		view.Assets = append(view.Assets, assetView{
			Symbol:             symbol,
			ReceivedOpen:       assetAccount.Received.QuantityOpen,
			ReceivedLocked:     assetAccount.Received.QuantityLocked,
			ReceivedCommitted:  assetAccount.Received.QuantityCommitted,
			DeliveredOpen:      assetAccount.Delivered.QuantityOpen,
			DeliveredLocked:    assetAccount.Delivered.QuantityLocked,
			DeliveredCommitted: assetAccount.Delivered.QuantityCommitted,
		})
	}
	writeJSON(w, view)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
