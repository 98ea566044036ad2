package policy

import (
	"fenrir/internal/book"
	"fenrir/internal/common"

	"github.com/rs/zerolog"
)

// LogExecutions wraps any ExecutionPolicy and logs every call through it
// after delegating, at warn level with the inner policy's error when it
// failed, using the generic parameter to avoid the cost of an
// interface-boxed inner policy on the hot path.
type LogExecutions[T ExecutionPolicy] struct {
	Inner  T
	Logger zerolog.Logger
}

func (l LogExecutions[T]) PlaceOrder(oq *book.OrderQuantity) error {
	err := l.Inner.PlaceOrder(oq)
	event := l.Logger.Info()
	if err != nil {
		event = l.Logger.Warn().Err(err)
	}
	event.
		Uint64("participantId", oq.Order.ParticipantID).
		Uint64("orderId", oq.Order.OrderID).
		Str("side", common.SideName(oq.Order.Side)).
		Uint64("price", oq.Order.LimitPrice).
		Uint64("quantity", oq.Quantity).
		Msg("place order")
	return err
}

func (l LogExecutions[T]) CancelOrder(oq *book.OrderQuantity) error {
	err := l.Inner.CancelOrder(oq)
	event := l.Logger.Info()
	if err != nil {
		event = l.Logger.Warn().Err(err)
	}
	event.
		Uint64("participantId", oq.Order.ParticipantID).
		Uint64("orderId", oq.Order.OrderID).
		Msg("cancel order")
	return err
}

func (l LogExecutions[T]) ExecuteOrders(executedQuantity *uint64, aggressor, bookOrder *book.OrderQuantity) error {
	err := l.Inner.ExecuteOrders(executedQuantity, aggressor, bookOrder)
	event := l.Logger.Info()
	if err != nil {
		event = l.Logger.Warn().Err(err)
	}
	event.
		Uint64("aggressorParticipantId", aggressor.Order.ParticipantID).
		Uint64("bookParticipantId", bookOrder.Order.ParticipantID).
		Uint64("price", bookOrder.Order.LimitPrice).
		Uint64("executedQuantity", *executedQuantity).
		Msg("execute orders")
	return err
}

// LogMarketData wraps any MarketDataPolicy and logs every observation before
// delegating.
type LogMarketData[T MarketDataPolicy] struct {
	Inner  T
	Logger zerolog.Logger
}

func (l LogMarketData[T]) HandleOrderPlaced(oq *book.OrderQuantity) {
	l.Logger.Debug().
		Uint64("orderId", oq.Order.OrderID).
		Uint64("quantity", oq.Quantity).
		Msg("order placed")
	l.Inner.HandleOrderPlaced(oq)
}

func (l LogMarketData[T]) HandleOrderCancelled(oq *book.OrderQuantity) {
	l.Logger.Debug().
		Uint64("orderId", oq.Order.OrderID).
		Msg("order cancelled")
	l.Inner.HandleOrderCancelled(oq)
}

func (l LogMarketData[T]) HandleOrderExecuted(executedQuantity uint64, aggressor, bookOrder *book.OrderQuantity) {
	l.Logger.Debug().
		Uint64("aggressorOrderId", aggressor.Order.OrderID).
		Uint64("bookOrderId", bookOrder.Order.OrderID).
		Uint64("executedQuantity", executedQuantity).
		Msg("order executed")
	l.Inner.HandleOrderExecuted(executedQuantity, aggressor, bookOrder)
}
