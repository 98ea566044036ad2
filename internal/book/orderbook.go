package book

import (
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
)

// OrderBook holds the two sides of a single market and routes an incoming
// order through match-then-rest. It never looks up orders by id itself —
// CancelOrder takes the already-resolved original Order, since only the
// caller (engine.OrderManager) maintains the (participantID, orderID)
// index across the book's lifetime.
type OrderBook struct {
	Market *common.Market
	Bids   *BookSide
	Asks   *BookSide
}

// NewOrderBook builds an empty book for market.
func NewOrderBook(market *common.Market) *OrderBook {
	return &OrderBook{
		Market: market,
		Bids:   newBookSide(common.Bid),
		Asks:   newBookSide(common.Ask),
	}
}

func (ob *OrderBook) sideFor(side common.Side) *BookSide {
	if side == common.Bid {
		return ob.Bids
	}
	return ob.Asks
}

// PlaceOrder dispatches order to the matching and resting logic appropriate
// to its Kind. Cancel, Deposit and Withdraw never reach the book and return
// ErrInvalidOrderType if routed here by mistake. rested reports whether any
// quantity is now resting in the book under order's own id — only true for
// a Limit order with quantity left after matching; the caller (OrderManager)
// uses it to decide whether the order is a future cancel target.
func (ob *OrderBook) PlaceOrder(order *Order, execPolicy executionPolicy, mdPolicy marketDataPolicy) (rested bool, err error) {
	switch order.Kind {
	case KindLimit:
		return ob.placeLimit(order, execPolicy, mdPolicy)
	case KindImmediateOrCancel:
		return false, ob.placeIOC(order, execPolicy, mdPolicy)
	case KindMarket:
		return false, ob.placeMarket(order, execPolicy, mdPolicy)
	default:
		return false, coreerr.ErrInvalidOrderType
	}
}

func (ob *OrderBook) placeLimit(order *Order, execPolicy executionPolicy, mdPolicy marketDataPolicy) (bool, error) {
	oq := NewOrderQuantity(order)
	opposite := ob.sideFor(order.Side.Opposite())
	if err := opposite.matchLimit(oq, order.LimitPrice, execPolicy, mdPolicy); err != nil {
		return false, err
	}
	if oq.Quantity == 0 {
		return false, nil
	}
	own := ob.sideFor(order.Side)
	if err := own.placeLimit(oq, order.LimitPrice, execPolicy, mdPolicy); err != nil {
		return false, err
	}
	return true, nil
}

func (ob *OrderBook) placeIOC(order *Order, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	oq := NewOrderQuantity(order)
	opposite := ob.sideFor(order.Side.Opposite())
	return opposite.matchLimit(oq, order.LimitPrice, execPolicy, mdPolicy)
}

func (ob *OrderBook) placeMarket(order *Order, execPolicy executionPolicy, mdPolicy marketDataPolicy) error {
	oq := NewOrderQuantity(order)
	opposite := ob.sideFor(order.Side.Opposite())
	return opposite.matchMarket(oq, execPolicy, mdPolicy)
}

// CancelOrder removes original (a resting Limit order already known to the
// caller) from its own side's FIFO at its own LimitPrice.
func (ob *OrderBook) CancelOrder(original *Order, execPolicy executionPolicy, mdPolicy marketDataPolicy) (*OrderQuantity, error) {
	own := ob.sideFor(original.Side)
	return own.cancel(original.LimitPrice, original.ParticipantID, original.OrderID, execPolicy, mdPolicy)
}
