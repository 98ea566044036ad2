package engine

import (
	"fenrir/internal/book"
	"fenrir/internal/coreerr"
	"fenrir/internal/policy"
)

type orderKey struct {
	participantID uint64
	orderID       uint64
}

// OrderManager keeps the (participant, order id) -> Order index across every
// market in a BookRegistry. It is the only component that resolves a Cancel
// to the order it targets; OrderBook itself never looks orders up by id.
type OrderManager struct {
	registry *BookRegistry
	orders   map[orderKey]*book.Order
}

// NewOrderManager builds an OrderManager over registry.
func NewOrderManager(registry *BookRegistry) *OrderManager {
	return &OrderManager{registry: registry, orders: make(map[orderKey]*book.Order)}
}

// PlaceOrder handles every OrderType: Limit/ImmediateOrCancel/Market route
// to the order's book, Cancel resolves against the live-order index first,
// and Deposit/Withdraw are rejected here (they are consumed out-of-band via
// margin.TradingAccount.Transfer).
func (m *OrderManager) PlaceOrder(order *book.Order, execPolicy policy.ExecutionPolicy, mdPolicy policy.MarketDataPolicy) error {
	ob, ok := m.registry.Get(order.Market.Symbol)
	if !ok {
		return coreerr.ErrUnknownOrderBook
	}

	if order.Kind == book.KindCancel {
		return m.cancel(order, ob, execPolicy, mdPolicy)
	}
	if order.Kind == book.KindDeposit || order.Kind == book.KindWithdraw {
		return coreerr.ErrInvalidOrderType
	}

	key := orderKey{order.ParticipantID, order.OrderID}
	if order.Kind == book.KindLimit {
		if _, exists := m.orders[key]; exists {
			return coreerr.ErrDuplicateOrder
		}
	}

	rested, err := ob.PlaceOrder(order, execPolicy, mdPolicy)
	if err != nil {
		return err
	}
	// A Limit order only needs a cancel target if it actually rested;
	// one that fully matched during PlaceOrder is already gone.
	if rested {
		m.orders[key] = order
	}
	return nil
}

func (m *OrderManager) cancel(cancelOrder *book.Order, ob *book.OrderBook, execPolicy policy.ExecutionPolicy, mdPolicy policy.MarketDataPolicy) error {
	key := orderKey{cancelOrder.ParticipantID, cancelOrder.OrderID}
	original, ok := m.orders[key]
	if !ok {
		return coreerr.ErrUnknownOrder
	}
	if _, err := ob.CancelOrder(original, execPolicy, mdPolicy); err != nil {
		return err
	}
	delete(m.orders, key)
	return nil
}
