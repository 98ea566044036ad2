package book_test

import (
	"testing"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMarket() *common.Market {
	return &common.Market{
		Symbol:        "BTC/USDT",
		BaseAsset:     &common.Asset{Symbol: "BTC", Decimals: 8},
		QuoteAsset:    &common.Asset{Symbol: "USDT", Decimals: 6},
		BaseDecimals:  5,
		QuoteDecimals: 2,
	}
}

func limitOrder(participant, orderID uint64, side common.Side, price, qty uint64) *book.Order {
	return &book.Order{
		Market:        testMarket(),
		ParticipantID: participant,
		OrderID:       orderID,
		Kind:          book.KindLimit,
		Side:          side,
		LimitPrice:    price,
		Quantity:      qty,
	}
}

func TestOrderBook_RestsWhenNoCross(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	rested, err := ob.PlaceOrder(limitOrder(1, 1, common.Bid, 100, 10), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	assert.True(t, rested)
	assert.Equal(t, 1, ob.Bids.Len())
	assert.Equal(t, 0, ob.Asks.Len())
}

func TestOrderBook_PriceTimePriority(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	_, err := ob.PlaceOrder(limitOrder(1, 1, common.Bid, 100, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	_, err = ob.PlaceOrder(limitOrder(2, 2, common.Bid, 100, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	// An aggressive ask for 7 should consume participant 1's order fully
	// (time priority) then partially fill participant 2's.
	ask := limitOrder(3, 3, common.Ask, 100, 7)
	_, err = ob.PlaceOrder(ask, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	levels := ob.Bids.Levels()
	require.Len(t, levels, 1)
	require.Len(t, levels[0].Orders, 1)
	assert.Equal(t, uint64(2), levels[0].Orders[0].Order.ParticipantID)
	assert.Equal(t, uint64(3), levels[0].Orders[0].Quantity)
}

func TestOrderBook_PricePriority(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	_, err := ob.PlaceOrder(limitOrder(1, 1, common.Bid, 99, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	_, err = ob.PlaceOrder(limitOrder(2, 2, common.Bid, 100, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	ask := limitOrder(3, 3, common.Ask, 99, 5)
	_, err = ob.PlaceOrder(ask, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	levels := ob.Bids.Levels()
	require.Len(t, levels, 1)
	assert.Equal(t, uint64(99), levels[0].Price)
}

func TestOrderBook_IOCDoesNotRest(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	ioc := &book.Order{
		Market:     testMarket(),
		OrderID:    1,
		Kind:       book.KindImmediateOrCancel,
		Side:       common.Bid,
		LimitPrice: 100,
		Quantity:   10,
	}
	_, err := ob.PlaceOrder(ioc, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	assert.Equal(t, 0, ob.Bids.Len())
}

func TestOrderBook_MarketOrderSweepsWithoutBound(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	_, err := ob.PlaceOrder(limitOrder(1, 1, common.Ask, 100, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	_, err = ob.PlaceOrder(limitOrder(2, 2, common.Ask, 105, 5), policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	market := &book.Order{
		Market:   testMarket(),
		OrderID:  3,
		Kind:     book.KindMarket,
		Side:     common.Bid,
		Quantity: 8,
	}
	_, err = ob.PlaceOrder(market, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	levels := ob.Asks.Levels()
	require.Len(t, levels, 1)
	assert.Equal(t, uint64(105), levels[0].Price)
	assert.Equal(t, uint64(2), levels[0].Orders[0].Quantity)
}

func TestOrderBook_CancelRemovesRestingOrder(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	order := limitOrder(1, 1, common.Bid, 100, 10)
	_, err := ob.PlaceOrder(order, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)

	removed, err := ob.CancelOrder(order, policy.ExecuteAllways{}, policy.MarketDataNull{})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), removed.Quantity)
	assert.Equal(t, 0, ob.Bids.Len())
}

func TestOrderBook_CancelUnknownOrder(t *testing.T) {
	ob := book.NewOrderBook(testMarket())
	order := limitOrder(1, 1, common.Bid, 100, 10)
	_, err := ob.CancelOrder(order, policy.ExecuteAllways{}, policy.MarketDataNull{})
	assert.Error(t, err)
}
