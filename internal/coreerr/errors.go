// Package coreerr collects the sentinel errors shared across the matching
// core and margin ledger so that none of those packages need to import one
// another just to report a failure.
package coreerr

import "errors"

var (
	// ErrNotEnoughQuantity is returned when an order is placed or matched
	// with a zero remaining quantity.
	ErrNotEnoughQuantity = errors.New("not enough quantity")

	// ErrInvalidOrderType is returned when an order type is routed to a
	// component that cannot handle it (e.g. a Market order where a limit
	// is required, or a Deposit/Withdraw handed to the order book).
	ErrInvalidOrderType = errors.New("invalid order type")

	// ErrUnknownParticipant is returned when a participant has no margin
	// account registered.
	ErrUnknownParticipant = errors.New("unknown participant")

	// ErrUnknownAsset is returned when a trading account has no
	// sub-account for an asset a market requires.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrUnknownOrderBook is returned when a market symbol has no
	// registered order book.
	ErrUnknownOrderBook = errors.New("unknown order book")

	// ErrUnknownOrder is returned on a Cancel referencing an order id the
	// order manager has no record of, or that is no longer resting.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrDuplicateOrder is returned when an order is placed re-using a
	// (participant, order id) pair that is already live.
	ErrDuplicateOrder = errors.New("duplicate order")

	// ErrArithmeticOverflow is returned by the fixed-decimal helpers
	// whenever an intermediate or final result would not fit in a u64.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrMarginInsufficient is reserved for a future risk-limit policy.
	// The core never returns it today.
	ErrMarginInsufficient = errors.New("margin insufficient")
)
