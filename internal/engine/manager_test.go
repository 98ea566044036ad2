package engine_test

import (
	"testing"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
	"fenrir/internal/engine"
	"fenrir/internal/margin"
	"fenrir/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btcUsdt() *common.Market {
	return &common.Market{
		Symbol:        "BTC/USDT",
		BaseAsset:     &common.Asset{Symbol: "BTC", Decimals: 8},
		QuoteAsset:    &common.Asset{Symbol: "USDT", Decimals: 6},
		BaseDecimals:  5,
		QuoteDecimals: 2,
	}
}

func newHarness(t *testing.T) (*engine.OrderManager, *book.OrderBook, *margin.Manager) {
	t.Helper()
	market := btcUsdt()
	registry := engine.NewBookRegistry()
	ob := registry.Register(market)
	mgr := margin.New(policy.LotEventNull{})
	om := engine.NewOrderManager(registry)
	return om, ob, mgr
}

func fund(t *testing.T, mgr *margin.Manager, market *common.Market, participant, quantity uint64) {
	t.Helper()
	acc := mgr.AddAccount(participant)
	acc.AddAssetAccount(market.BaseAsset)
	acc.AddAssetAccount(market.QuoteAsset)
	deposit := &book.Order{
		Market:        market,
		ParticipantID: participant,
		Kind:          book.KindDeposit,
		Quantity:      quantity,
	}
	require.NoError(t, acc.Transfer(deposit, 0, policy.LotEventNull{}))
}

func limit(participant, orderID uint64, side common.Side, price, qty uint64, market *common.Market) *book.Order {
	return &book.Order{
		Market:        market,
		ParticipantID: participant,
		OrderID:       orderID,
		Kind:          book.KindLimit,
		Side:          side,
		LimitPrice:    price,
		Quantity:      qty,
	}
}

// TestOrderManager_PartialSweepAcrossLevels: an aggressive buy sweeps two
// resting ask levels and is fully filled, so nothing of it rests and it is
// not a cancel target; the second ask level keeps its unfilled remainder.
func TestOrderManager_PartialSweepAcrossLevels(t *testing.T) {
	om, ob, mgr := newHarness(t)
	market := btcUsdt()
	for _, p := range []uint64{1, 2, 3} {
		fund(t, mgr, market, p, 1_000_000)
	}

	require.NoError(t, om.PlaceOrder(limit(1, 1, common.Ask, 100, 5, market), mgr, policy.MarketDataNull{}))
	require.NoError(t, om.PlaceOrder(limit(2, 2, common.Ask, 105, 5, market), mgr, policy.MarketDataNull{}))

	buy := limit(3, 3, common.Bid, 110, 8, market)
	require.NoError(t, om.PlaceOrder(buy, mgr, policy.MarketDataNull{}))

	assert.Equal(t, 0, ob.Bids.Len(), "buy fully filled across both levels, nothing should rest")
	levels := ob.Asks.Levels()
	require.Len(t, levels, 1)
	assert.Equal(t, uint64(105), levels[0].Price)
	assert.Equal(t, uint64(2), levels[0].Orders[0].Quantity)

	// Remainder fully matched; the buy order must not be left cancellable.
	cancel := &book.Order{Market: market, ParticipantID: 3, OrderID: 3, Kind: book.KindCancel}
	err := om.PlaceOrder(cancel, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrUnknownOrder)
}

// TestOrderManager_IOCLeavesNoResidual exercises S3: an immediate-or-cancel
// that cannot be fully filled discards its remainder rather than resting,
// and is never registered as a cancel target.
func TestOrderManager_IOCLeavesNoResidual(t *testing.T) {
	om, ob, mgr := newHarness(t)
	market := btcUsdt()
	fund(t, mgr, market, 1, 1_000_000)
	fund(t, mgr, market, 2, 1_000_000)

	require.NoError(t, om.PlaceOrder(limit(1, 1, common.Ask, 100, 3, market), mgr, policy.MarketDataNull{}))

	ioc := &book.Order{
		Market:        market,
		ParticipantID: 2,
		OrderID:       2,
		Kind:          book.KindImmediateOrCancel,
		Side:          common.Bid,
		LimitPrice:    100,
		Quantity:      10,
	}
	require.NoError(t, om.PlaceOrder(ioc, mgr, policy.MarketDataNull{}))

	assert.Equal(t, 0, ob.Bids.Len())
	assert.Equal(t, 0, ob.Asks.Len())

	cancel := &book.Order{Market: market, ParticipantID: 2, OrderID: 2, Kind: book.KindCancel}
	err := om.PlaceOrder(cancel, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrUnknownOrder)
}

// TestOrderManager_CancelMidQueue exercises S4: cancelling an order resting
// behind the head of its price level's FIFO removes exactly that order and
// leaves the rest of the queue's priority intact.
func TestOrderManager_CancelMidQueue(t *testing.T) {
	om, ob, mgr := newHarness(t)
	market := btcUsdt()
	for _, p := range []uint64{1, 2, 3, 4} {
		fund(t, mgr, market, p, 1_000_000)
	}

	require.NoError(t, om.PlaceOrder(limit(1, 1, common.Bid, 100, 5, market), mgr, policy.MarketDataNull{}))
	second := limit(2, 2, common.Bid, 100, 5, market)
	require.NoError(t, om.PlaceOrder(second, mgr, policy.MarketDataNull{}))
	require.NoError(t, om.PlaceOrder(limit(3, 3, common.Bid, 100, 5, market), mgr, policy.MarketDataNull{}))

	cancel := &book.Order{Market: market, ParticipantID: 2, OrderID: 2, Kind: book.KindCancel}
	require.NoError(t, om.PlaceOrder(cancel, mgr, policy.MarketDataNull{}))

	levels := ob.Bids.Levels()
	require.Len(t, levels, 1)
	require.Len(t, levels[0].Orders, 2)
	assert.Equal(t, uint64(1), levels[0].Orders[0].Order.ParticipantID)
	assert.Equal(t, uint64(3), levels[0].Orders[1].Order.ParticipantID)

	// Cancelling the same order twice must fail; it is no longer live.
	err := om.PlaceOrder(cancel, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrUnknownOrder)

	// The sweep that follows should still respect time priority among the
	// two orders left in the queue.
	sell := limit(4, 4, common.Ask, 100, 7, market)
	require.NoError(t, om.PlaceOrder(sell, mgr, policy.MarketDataNull{}))
	levels = ob.Bids.Levels()
	require.Len(t, levels, 1)
	require.Len(t, levels[0].Orders, 1)
	assert.Equal(t, uint64(3), levels[0].Orders[0].Order.ParticipantID)
	assert.Equal(t, uint64(3), levels[0].Orders[0].Quantity)
}

func TestOrderManager_DuplicateOrderRejected(t *testing.T) {
	om, _, mgr := newHarness(t)
	market := btcUsdt()
	fund(t, mgr, market, 1, 1_000_000)

	order := limit(1, 1, common.Bid, 100, 5, market)
	require.NoError(t, om.PlaceOrder(order, mgr, policy.MarketDataNull{}))

	dup := limit(1, 1, common.Bid, 101, 5, market)
	err := om.PlaceOrder(dup, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrDuplicateOrder)
}

func TestOrderManager_UnknownOrderBook(t *testing.T) {
	om, _, mgr := newHarness(t)
	other := &common.Market{Symbol: "ETH/USDT", BaseAsset: &common.Asset{Symbol: "ETH"}, QuoteAsset: &common.Asset{Symbol: "USDT"}}
	order := limit(1, 1, common.Bid, 100, 5, other)
	err := om.PlaceOrder(order, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrUnknownOrderBook)
}

func TestOrderManager_DepositWithdrawRejectedByOrderManager(t *testing.T) {
	om, _, mgr := newHarness(t)
	market := btcUsdt()
	fund(t, mgr, market, 1, 1_000_000)

	deposit := &book.Order{Market: market, ParticipantID: 1, Kind: book.KindDeposit, Quantity: 10}
	err := om.PlaceOrder(deposit, mgr, policy.MarketDataNull{})
	assert.ErrorIs(t, err, coreerr.ErrInvalidOrderType)
}
