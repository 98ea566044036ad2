package margin_test

import (
	"testing"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
	"fenrir/internal/margin"
	"fenrir/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btcUsdt() *common.Market {
	return &common.Market{
		Symbol:        "BTC/USDT",
		BaseAsset:     &common.Asset{Symbol: "BTC", Decimals: 7},
		QuoteAsset:    &common.Asset{Symbol: "USDT", Decimals: 2},
		BaseDecimals:  5,
		QuoteDecimals: 2,
	}
}

func newFundedAccount(t *testing.T, mgr *margin.Manager, market *common.Market, participant uint64) {
	t.Helper()
	acc := mgr.AddAccount(participant)
	acc.AddAssetAccount(market.BaseAsset).AddAssetAccount(market.QuoteAsset)
	require.NoError(t, acc.Transfer(&book.Order{
		Market:        market,
		ParticipantID: participant,
		Kind:          book.KindDeposit,
		Quantity:      10_000_000,
	}, 0, policy.LotEventNull{}))
}

func TestManager_AddAccountIdempotent(t *testing.T) {
	mgr := margin.New(policy.LotEventNull{})
	a := mgr.AddAccount(1)
	a.AddAssetAccount(&common.Asset{Symbol: "BTC", Decimals: 7})
	b := mgr.AddAccount(1)
	assert.Same(t, a, b)
	assert.Len(t, b.Portfolio, 1)
}

func TestManager_SimpleCross(t *testing.T) {
	market := btcUsdt()
	mgr := margin.New(policy.LotEventNull{})
	newFundedAccount(t, mgr, market, 1) // A
	newFundedAccount(t, mgr, market, 2) // B

	ob := book.NewOrderBook(market)

	askOrder := &book.Order{
		Market: market, ParticipantID: 2, OrderID: 1,
		Kind: book.KindLimit, Side: common.Ask, LimitPrice: 1_000_000, Quantity: 100000,
	}
	_, err := ob.PlaceOrder(askOrder, mgr, policy.MarketDataNull{})
	require.NoError(t, err)

	bidOrder := &book.Order{
		Market: market, ParticipantID: 1, OrderID: 2,
		Kind: book.KindLimit, Side: common.Bid, LimitPrice: 1_000_000, Quantity: 60000,
	}
	_, err = ob.PlaceOrder(bidOrder, mgr, policy.MarketDataNull{})
	require.NoError(t, err)

	levels := ob.Asks.Levels()
	require.Len(t, levels, 1)
	assert.Equal(t, uint64(40000), levels[0].Orders[0].Quantity)

	// The deposit opened the first received lot; the fill opens the second.
	accA := mgr.AddAccount(1)
	btcA := accA.Portfolio["BTC"]
	require.Len(t, btcA.Received.OpenLots, 2)
	assert.Equal(t, uint64(6000000), btcA.Received.OpenLots[1].QuantityOrig)

	accB := mgr.AddAccount(2)
	usdtB := accB.Portfolio["USDT"]
	assert.Equal(t, uint64(600000), usdtB.Received.QuantityCommitted)
}

func TestManager_LotOffset(t *testing.T) {
	market := btcUsdt()
	mgr := margin.New(policy.LotEventNull{})
	newFundedAccount(t, mgr, market, 1)
	newFundedAccount(t, mgr, market, 2)
	newFundedAccount(t, mgr, market, 3)

	ob := book.NewOrderBook(market)

	// Participant 1 buys 10 BTC (market precision, 1000 at the asset's own
	// precision) from participant 2. The deposit already opened a received
	// lot of 1_000_000_000, so the purchase is the second lot in the FIFO.
	_, err := ob.PlaceOrder(&book.Order{
		Market: market, ParticipantID: 2, OrderID: 1,
		Kind: book.KindLimit, Side: common.Ask, LimitPrice: 1_000_000, Quantity: 10,
	}, mgr, policy.MarketDataNull{})
	require.NoError(t, err)
	_, err = ob.PlaceOrder(&book.Order{
		Market: market, ParticipantID: 1, OrderID: 2,
		Kind: book.KindLimit, Side: common.Bid, LimitPrice: 1_000_000, Quantity: 10,
	}, mgr, policy.MarketDataNull{})
	require.NoError(t, err)

	acc1 := mgr.AddAccount(1)
	btc1 := acc1.Portfolio["BTC"]
	require.Len(t, btc1.Received.OpenLots, 2)
	assert.Equal(t, uint64(1000), btc1.Received.OpenLots[1].QuantityOrig)

	// Participant 1 later sells 6 BTC (600 at asset precision) at a different
	// price to participant 3. The sale offsets the oldest long lot (the
	// deposit's) in FIFO order and opens no short lot.
	_, err = ob.PlaceOrder(&book.Order{
		Market: market, ParticipantID: 1, OrderID: 3,
		Kind: book.KindLimit, Side: common.Ask, LimitPrice: 1_100_000, Quantity: 6,
	}, mgr, policy.MarketDataNull{})
	require.NoError(t, err)
	_, err = ob.PlaceOrder(&book.Order{
		Market: market, ParticipantID: 3, OrderID: 4,
		Kind: book.KindLimit, Side: common.Bid, LimitPrice: 1_100_000, Quantity: 6,
	}, mgr, policy.MarketDataNull{})
	require.NoError(t, err)

	require.Len(t, btc1.Received.OpenLots, 2)
	assert.Equal(t, uint64(999_999_400), btc1.Received.OpenLots[0].QuantityLeft)
	assert.Empty(t, btc1.Delivered.OpenLots)
}

func TestManager_PlaceCancelIsNoOpOnCounters(t *testing.T) {
	market := btcUsdt()
	mgr := margin.New(policy.LotEventNull{})
	newFundedAccount(t, mgr, market, 1)

	order := &book.Order{
		Market: market, ParticipantID: 1, OrderID: 1,
		Kind: book.KindLimit, Side: common.Bid, LimitPrice: 1_000_000, Quantity: 5000,
	}
	oq := book.NewOrderQuantity(order)

	require.NoError(t, mgr.PlaceOrder(oq))
	acc := mgr.AddAccount(1)
	btcAcc := acc.Portfolio["BTC"]
	usdtAcc := acc.Portfolio["USDT"]
	assert.NotZero(t, btcAcc.Received.QuantityOpen)
	assert.NotZero(t, usdtAcc.Delivered.QuantityOpen)

	require.NoError(t, mgr.CancelOrder(oq))
	assert.Zero(t, btcAcc.Received.QuantityOpen)
	assert.Zero(t, usdtAcc.Delivered.QuantityOpen)
}

func TestManager_UnknownParticipant(t *testing.T) {
	mgr := margin.New(policy.LotEventNull{})
	oq := book.NewOrderQuantity(&book.Order{
		Market: btcUsdt(), ParticipantID: 99, OrderID: 1,
		Kind: book.KindLimit, Side: common.Bid, LimitPrice: 100, Quantity: 1,
	})
	assert.ErrorIs(t, mgr.PlaceOrder(oq), coreerr.ErrUnknownParticipant)
}
