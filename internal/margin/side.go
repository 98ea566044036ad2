package margin

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/policy"
)

// Side is one flow (received or delivered) of an AssetAccount: the
// promised/locked/committed counters plus the FIFO of lots that flow has
// opened, open and closed.
type Side struct {
	QuantityOpen      uint64
	QuantityLocked    uint64
	QuantityCommitted uint64
	OpenLots          []*Lot
	ClosedLots        []*Lot
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// promiseTransaction records a new resting promise (a placed order).
func (s *Side) promiseTransaction(q uint64) {
	s.QuantityOpen += q
}

// cancelTransactionPromise reverses a promise that is being cancelled.
func (s *Side) cancelTransactionPromise(q uint64) {
	s.QuantityOpen = saturatingSub(s.QuantityOpen, q)
}

// beginTransaction moves q from open promise into in-flight lock, the first
// phase of executing a fill.
func (s *Side) beginTransaction(q uint64) {
	s.QuantityOpen = saturatingSub(s.QuantityOpen, q)
	s.QuantityLocked += q
}

// commitTransaction releases q from lock and adds committedDelta — the
// net-of-offset amount computed by the opposite side's willCommitOppositeSide
// — to the realised committed balance.
func (s *Side) commitTransaction(q, committedDelta uint64) {
	s.QuantityLocked = saturatingSub(s.QuantityLocked, q)
	s.QuantityCommitted += committedDelta
}

// willCommitOppositeSide is called on the opposite flow during a commit: it
// absorbs as much of q as it can out of its own committed balance (offsetting
// a short with a later buy, or vice versa) and returns whatever could not be
// absorbed, which the caller then adds to its own committed balance.
func (s *Side) willCommitOppositeSide(q uint64) uint64 {
	offset := min(q, s.QuantityCommitted)
	s.QuantityCommitted -= offset
	return q - offset
}

// matchLots consumes q against the head of open_lots, splicing each fully
// closed lot onto closed_lots and firing handler.HandleLotClosed for it.
// Returns whatever portion of q is left once open_lots is exhausted.
func (s *Side) matchLots(q uint64, order *book.Order, price uint64, asset *common.Asset, handler policy.LotEventHandler) uint64 {
	for q > 0 && len(s.OpenLots) > 0 {
		lot := s.OpenLots[0]
		remaining, closed := lot.closeQuantity(q, order, price)
		if !closed {
			return 0
		}
		s.OpenLots = s.OpenLots[1:]
		s.ClosedLots = append(s.ClosedLots, lot)
		handler.HandleLotClosed(asset, lot)
		q = remaining
	}
	return q
}

// createLot opens a new lot for the residual quantity that matchLots could
// not offset against the opposite side's open positions.
func (s *Side) createLot(q uint64, order *book.Order, price uint64, asset *common.Asset, handler policy.LotEventHandler) {
	lot := newLot(q, order, price)
	s.OpenLots = append(s.OpenLots, lot)
	handler.HandleLotOpened(asset, lot)
}
