// Package book implements the matching core: the Order/OrderQuantity
// working types, price levels, the two book sides, and the OrderBook that
// routes an incoming order through match-then-rest. Price levels are
// indexed with tidwall/btree and kept in strict price-time priority within
// each level. The book places limit, immediate-or-cancel and market orders
// and cancels resting ones; Deposit and Withdraw are carried as Kinds but
// the book rejects them.
package book

import "fenrir/internal/common"

// Kind tags which of the six order operations an Order carries.
type Kind int

const (
	KindLimit Kind = iota
	KindImmediateOrCancel
	KindMarket
	KindCancel
	KindDeposit
	KindWithdraw
)

func (k Kind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindImmediateOrCancel:
		return "ioc"
	case KindMarket:
		return "market"
	case KindCancel:
		return "cancel"
	case KindDeposit:
		return "deposit"
	case KindWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

// Order is an immutable, reference-shared descriptor of a single submitted
// operation. Side, LimitPrice and Quantity are meaningful for a subset of
// Kinds: Limit/ImmediateOrCancel use all three, Market uses Side+Quantity,
// Deposit/Withdraw use only Quantity, Cancel uses none (it references the
// same (ParticipantID, OrderID) pair as the order it cancels).
//
// Identity key is (ParticipantID, OrderID), unique across live orders in a
// market, enforced by engine.OrderManager.
type Order struct {
	Market        *common.Market
	ParticipantID uint64
	OrderID       uint64
	Kind          Kind
	Side          common.Side
	LimitPrice    uint64
	Quantity      uint64
}

// GetQuantityAndValue translates an executed quantity (in this order's
// market precision) and a trade price into the base-asset quantity and
// quote-asset value the margin ledger should move, applying CalculateValue
// then ChangeDecimals for both legs.
func (o *Order) GetQuantityAndValue(quantity, price uint64) (baseQty, quoteValue uint64, err error) {
	value, err := common.CalculateValue(quantity, price, o.Market.BaseDecimals, o.Market.QuoteDecimals)
	if err != nil {
		return 0, 0, err
	}
	baseQty, err = common.ChangeDecimals(quantity, o.Market.BaseDecimals, o.Market.BaseAsset.Decimals)
	if err != nil {
		return 0, 0, err
	}
	quoteValue, err = common.ChangeDecimals(value, o.Market.QuoteDecimals, o.Market.QuoteAsset.Decimals)
	if err != nil {
		return 0, 0, err
	}
	return baseQty, quoteValue, nil
}

// OrderQuantity is the mutable working-state companion to an Order: its
// remaining quantity while matching or resting in a FIFO. It is owned by
// whichever FIFO currently holds it.
type OrderQuantity struct {
	Order    *Order
	Quantity uint64
}

// NewOrderQuantity builds the working state for a Limit, ImmediateOrCancel
// or Market order, seeded with its full requested quantity.
func NewOrderQuantity(order *Order) *OrderQuantity {
	return &OrderQuantity{Order: order, Quantity: order.Quantity}
}
