package margin

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/policy"
)

// AssetAccount tracks one participant's position in one asset: everything
// received (long flow) and everything delivered (short flow). Committing to
// one side always nets against the other side's committed balance first, so
// a buy following an earlier sell closes out the short rather than
// accumulating an independent long.
type AssetAccount struct {
	Asset     *common.Asset
	Received  *Side
	Delivered *Side
}

func newAssetAccount(asset *common.Asset) *AssetAccount {
	return &AssetAccount{Asset: asset, Received: &Side{}, Delivered: &Side{}}
}

func (a *AssetAccount) promiseReceipt(q uint64)  { a.Received.promiseTransaction(q) }
func (a *AssetAccount) promiseDelivery(q uint64) { a.Delivered.promiseTransaction(q) }

func (a *AssetAccount) cancelReceiptPromise(q uint64)  { a.Received.cancelTransactionPromise(q) }
func (a *AssetAccount) cancelDeliveryPromise(q uint64) { a.Delivered.cancelTransactionPromise(q) }

func (a *AssetAccount) beginReceipt(q uint64)  { a.Received.beginTransaction(q) }
func (a *AssetAccount) beginDelivery(q uint64) { a.Delivered.beginTransaction(q) }

// commitReceipt nets q against delivered's open lots (closing shorts), opens
// a new received lot for whatever residual remains, then commits the
// transaction on the received side net of what the delivered side offset.
func (a *AssetAccount) commitReceipt(q uint64, order *book.Order, price uint64, handler policy.LotEventHandler) {
	residual := a.Delivered.matchLots(q, order, price, a.Asset, handler)
	if residual > 0 {
		a.Received.createLot(residual, order, price, a.Asset, handler)
	}
	committedDelta := a.Delivered.willCommitOppositeSide(q)
	a.Received.commitTransaction(q, committedDelta)
}

// commitDelivery is commitReceipt's mirror image on the delivered side.
func (a *AssetAccount) commitDelivery(q uint64, order *book.Order, price uint64, handler policy.LotEventHandler) {
	residual := a.Received.matchLots(q, order, price, a.Asset, handler)
	if residual > 0 {
		a.Delivered.createLot(residual, order, price, a.Asset, handler)
	}
	committedDelta := a.Received.willCommitOppositeSide(q)
	a.Delivered.commitTransaction(q, committedDelta)
}
