package margin

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
	"fenrir/internal/policy"
)

// TradingAccount is one participant's whole portfolio: a sub-account per
// asset symbol they hold a position or promise in. Asset sub-accounts are
// added idempotently and never removed.
type TradingAccount struct {
	AccountID uint64
	Portfolio map[string]*AssetAccount
}

func newTradingAccount(id uint64) *TradingAccount {
	return &TradingAccount{AccountID: id, Portfolio: make(map[string]*AssetAccount)}
}

// AddAssetAccount registers asset in the portfolio if it is not already
// present, and returns the account for chaining.
func (t *TradingAccount) AddAssetAccount(asset *common.Asset) *TradingAccount {
	if _, ok := t.Portfolio[asset.Symbol]; !ok {
		t.Portfolio[asset.Symbol] = newAssetAccount(asset)
	}
	return t
}

func (t *TradingAccount) assetAccount(symbol string) (*AssetAccount, error) {
	acc, ok := t.Portfolio[symbol]
	if !ok {
		return nil, coreerr.ErrUnknownAsset
	}
	return acc, nil
}

// Transfer applies a Deposit or Withdraw order's quantity (expressed at the
// order's market base precision) to the base asset's balance, translated to
// the asset's own canonical precision. Only ChangeDecimals is meaningful
// here: a deposit or withdrawal moves a single asset leg, with no quote
// value to compute.
func (t *TradingAccount) Transfer(order *book.Order, price uint64, handler policy.LotEventHandler) error {
	if order.Kind != book.KindDeposit && order.Kind != book.KindWithdraw {
		return coreerr.ErrInvalidOrderType
	}
	baseAccount, err := t.assetAccount(order.Market.BaseAsset.Symbol)
	if err != nil {
		return err
	}
	quantity, err := common.ChangeDecimals(order.Quantity, order.Market.BaseDecimals, order.Market.BaseAsset.Decimals)
	if err != nil {
		return err
	}

	switch order.Kind {
	case book.KindDeposit:
		baseAccount.beginReceipt(quantity)
		baseAccount.commitReceipt(quantity, order, price, handler)
	case book.KindWithdraw:
		baseAccount.beginDelivery(quantity)
		baseAccount.commitDelivery(quantity, order, price, handler)
	}
	return nil
}

// PlaceOrder promises the two legs of a resting limit order: on a Bid it
// promises base receipt and quote delivery (buying base with quote); on an
// Ask it promises base delivery and quote receipt.
func (t *TradingAccount) PlaceOrder(oq *book.OrderQuantity) error {
	order := oq.Order
	baseQty, quoteValue, err := order.GetQuantityAndValue(oq.Quantity, order.LimitPrice)
	if err != nil {
		return err
	}
	baseAccount, err := t.assetAccount(order.Market.BaseAsset.Symbol)
	if err != nil {
		return err
	}
	quoteAccount, err := t.assetAccount(order.Market.QuoteAsset.Symbol)
	if err != nil {
		return err
	}

	if order.Side == common.Bid {
		baseAccount.promiseReceipt(baseQty)
		quoteAccount.promiseDelivery(quoteValue)
	} else {
		baseAccount.promiseDelivery(baseQty)
		quoteAccount.promiseReceipt(quoteValue)
	}
	return nil
}

// CancelOrder reverses the promise PlaceOrder made for oq, symmetrically:
// a Bid cancels base receipt and quote delivery promises; an Ask cancels
// base delivery and quote receipt promises.
func (t *TradingAccount) CancelOrder(oq *book.OrderQuantity) error {
	order := oq.Order
	baseQty, quoteValue, err := order.GetQuantityAndValue(oq.Quantity, order.LimitPrice)
	if err != nil {
		return err
	}
	baseAccount, err := t.assetAccount(order.Market.BaseAsset.Symbol)
	if err != nil {
		return err
	}
	quoteAccount, err := t.assetAccount(order.Market.QuoteAsset.Symbol)
	if err != nil {
		return err
	}

	if order.Side == common.Bid {
		baseAccount.cancelReceiptPromise(baseQty)
		quoteAccount.cancelDeliveryPromise(quoteValue)
	} else {
		baseAccount.cancelDeliveryPromise(baseQty)
		quoteAccount.cancelReceiptPromise(quoteValue)
	}
	return nil
}

// ExecuteOrderBegin derives the base/quote legs of a fill at the resting
// book_order's price (trades always execute at the resting price) and moves
// them from promised into locked. A book-side fill (isAggressor false) was
// already promised at placement time, so its matching promise is cancelled
// first; an aggressor fill was never promised (IOC/Market/the crossing
// portion of a Limit), so nothing needs cancelling.
func (t *TradingAccount) ExecuteOrderBegin(order *book.Order, executedQuantity, bookOrderPrice uint64, isAggressor bool) error {
	baseQty, quoteValue, err := order.GetQuantityAndValue(executedQuantity, bookOrderPrice)
	if err != nil {
		return err
	}
	baseAccount, err := t.assetAccount(order.Market.BaseAsset.Symbol)
	if err != nil {
		return err
	}
	quoteAccount, err := t.assetAccount(order.Market.QuoteAsset.Symbol)
	if err != nil {
		return err
	}

	if order.Side == common.Bid {
		if !isAggressor {
			baseAccount.cancelReceiptPromise(baseQty)
			quoteAccount.cancelDeliveryPromise(quoteValue)
		}
		baseAccount.beginReceipt(baseQty)
		quoteAccount.beginDelivery(quoteValue)
	} else {
		if !isAggressor {
			baseAccount.cancelDeliveryPromise(baseQty)
			quoteAccount.cancelReceiptPromise(quoteValue)
		}
		baseAccount.beginDelivery(baseQty)
		quoteAccount.beginReceipt(quoteValue)
	}
	return nil
}

// ExecuteOrderCommit releases the locked legs booked by ExecuteOrderBegin
// and commits them through the asset accounts' two-phase lot accounting,
// which is where lot-opened/lot-closed events fire.
func (t *TradingAccount) ExecuteOrderCommit(order *book.Order, executedQuantity, bookOrderPrice uint64, handler policy.LotEventHandler) error {
	baseQty, quoteValue, err := order.GetQuantityAndValue(executedQuantity, bookOrderPrice)
	if err != nil {
		return err
	}
	baseAccount, err := t.assetAccount(order.Market.BaseAsset.Symbol)
	if err != nil {
		return err
	}
	quoteAccount, err := t.assetAccount(order.Market.QuoteAsset.Symbol)
	if err != nil {
		return err
	}

	if order.Side == common.Bid {
		baseAccount.commitReceipt(baseQty, order, bookOrderPrice, handler)
		quoteAccount.commitDelivery(quoteValue, order, bookOrderPrice, handler)
	} else {
		baseAccount.commitDelivery(baseQty, order, bookOrderPrice, handler)
		quoteAccount.commitReceipt(quoteValue, order, bookOrderPrice, handler)
	}
	return nil
}

// ExecuteOrderRollback is reserved for undoing a begin that never reaches
// commit. It must not be called once commit has succeeded.
func (t *TradingAccount) ExecuteOrderRollback(*book.Order, uint64, uint64) error {
	return nil
}
