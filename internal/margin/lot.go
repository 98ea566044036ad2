// Package margin implements the per-participant, per-asset lot-based ledger:
// Lot/Side track FIFO long/short positions and their partial-fill
// transaction history, AssetAccount nets receive/deliver flows for one
// asset, TradingAccount aggregates an account's whole portfolio, and
// Manager indexes accounts by participant and implements
// policy.ExecutionPolicy so it can be wired straight into an order book.
package margin

import "fenrir/internal/book"

// LotTransaction records one fill against a Lot: which order, at what price,
// for how much of the lot's quantity. A transaction with ExecutedQuantity
// zero is the synthetic marker recorded when the lot is first opened.
type LotTransaction struct {
	Order            *book.Order
	ExecutedPrice    uint64
	ExecutedQuantity uint64
}

// Lot is a single opened position: the quantity it started with, the
// quantity still outstanding, and the ordered history of fills against it.
// A Lot is closed once QuantityLeft reaches zero.
type Lot struct {
	QuantityOrig uint64
	QuantityLeft uint64
	Transactions []LotTransaction
}

func newLot(quantity uint64, order *book.Order, price uint64) *Lot {
	return &Lot{
		QuantityOrig: quantity,
		QuantityLeft: quantity,
		Transactions: []LotTransaction{{Order: order, ExecutedPrice: price, ExecutedQuantity: 0}},
	}
}

// Closed reports whether the lot has been fully consumed.
func (l *Lot) Closed() bool {
	return l.QuantityLeft == 0
}

// closeQuantity applies up to q units of execution against the lot. If q is
// smaller than what remains, the whole of q is absorbed and closed is false.
// Otherwise the lot is fully drained, closed is true, and remaining reports
// the portion of q left over for the next lot in the FIFO (or for opening a
// new one).
func (l *Lot) closeQuantity(q uint64, order *book.Order, price uint64) (remaining uint64, closed bool) {
	if q < l.QuantityLeft {
		l.QuantityLeft -= q
		l.Transactions = append(l.Transactions, LotTransaction{Order: order, ExecutedPrice: price, ExecutedQuantity: q})
		return 0, false
	}
	consumed := l.QuantityLeft
	l.Transactions = append(l.Transactions, LotTransaction{Order: order, ExecutedPrice: price, ExecutedQuantity: consumed})
	l.QuantityLeft = 0
	return q - consumed, true
}
