// Package engine ties the matching core and the margin ledger together: the
// BookRegistry maps a market symbol to its order book, OrderManager holds
// the authoritative live-order index used to resolve cancels, and Engine is
// the thin façade that wires a BookRegistry and a margin.Manager into
// something a transport layer can drive with a stream of orders.
package engine

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
)

// BookRegistry maps a market symbol to its order book. Markets are
// registered once at startup; the registry never removes one.
type BookRegistry struct {
	books map[string]*book.OrderBook
}

// NewBookRegistry builds an empty registry.
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{books: make(map[string]*book.OrderBook)}
}

// Register creates and indexes a fresh order book for market, returning it
// for immediate use.
func (r *BookRegistry) Register(market *common.Market) *book.OrderBook {
	ob := book.NewOrderBook(market)
	r.books[market.Symbol] = ob
	return ob
}

// Get looks up the order book for symbol.
func (r *BookRegistry) Get(symbol string) (*book.OrderBook, bool) {
	ob, ok := r.books[symbol]
	return ob, ok
}
