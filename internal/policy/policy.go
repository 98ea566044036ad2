// Package policy defines the three observer seams the matching core
// consults at every mutation point: ExecutionPolicy, MarketDataPolicy and
// LotEventHandler. They decouple the book from margin accounting and from
// logging/market-data fan-out.
package policy

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
)

// ExecutionPolicy is consulted by the book at every order-lifetime mutation:
// placement, a single matched fill, and cancellation. A non-nil error from
// PlaceOrder or ExecuteOrders aborts the caller's current step; partial
// fills already applied before the error remain.
type ExecutionPolicy interface {
	PlaceOrder(orderQuantity *book.OrderQuantity) error
	CancelOrder(orderQuantity *book.OrderQuantity) error
	ExecuteOrders(executedQuantity *uint64, aggressor, bookOrder *book.OrderQuantity) error
}

// MarketDataPolicy is a fire-and-forget observer of book mutations; it
// never returns an error and must not be able to abort matching.
type MarketDataPolicy interface {
	HandleOrderPlaced(orderQuantity *book.OrderQuantity)
	HandleOrderCancelled(orderQuantity *book.OrderQuantity)
	HandleOrderExecuted(executedQuantity uint64, aggressor, bookOrder *book.OrderQuantity)
}

// LotEventHandler is invoked by the margin ledger whenever a margin lot is
// opened or fully consumed. The lot argument is the *margin.Lot, but
// that type is left as `any` here to avoid a margin->policy->margin import
// cycle; implementations type-assert it.
type LotEventHandler interface {
	HandleLotOpened(asset *common.Asset, lot any)
	HandleLotClosed(asset *common.Asset, lot any)
	HandleLotUpdated(asset *common.Asset, lot any)
}

// ExecuteAllways is the null ExecutionPolicy: it performs no accounting,
// only the quantity bookkeeping the match loop itself depends on. It is
// useful for tests of the book in isolation from the margin ledger.
type ExecuteAllways struct{}

func (ExecuteAllways) PlaceOrder(oq *book.OrderQuantity) error {
	if oq.Quantity == 0 {
		return coreerr.ErrNotEnoughQuantity
	}
	return nil
}

func (ExecuteAllways) CancelOrder(*book.OrderQuantity) error { return nil }

func (ExecuteAllways) ExecuteOrders(executed *uint64, aggressor, bookOrder *book.OrderQuantity) error {
	if *executed == 0 {
		return coreerr.ErrNotEnoughQuantity
	}
	aggressor.Quantity -= *executed
	bookOrder.Quantity -= *executed
	return nil
}

// MarketDataNull is the null MarketDataPolicy: it observes nothing.
type MarketDataNull struct{}

func (MarketDataNull) HandleOrderPlaced(*book.OrderQuantity)                             {}
func (MarketDataNull) HandleOrderCancelled(*book.OrderQuantity)                          {}
func (MarketDataNull) HandleOrderExecuted(uint64, *book.OrderQuantity, *book.OrderQuantity) {}

// LotEventNull is the null LotEventHandler.
type LotEventNull struct{}

func (LotEventNull) HandleLotOpened(*common.Asset, any) {}
func (LotEventNull) HandleLotClosed(*common.Asset, any) {}
func (LotEventNull) HandleLotUpdated(*common.Asset, any) {}
