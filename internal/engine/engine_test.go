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

func newEngine() *engine.Engine {
	registry := engine.NewBookRegistry()
	mgr := margin.New(policy.LotEventNull{})
	return engine.New(registry, mgr, mgr, policy.MarketDataNull{}, policy.LotEventNull{})
}

func TestEngine_DepositThenPlaceThenCancel(t *testing.T) {
	e := newEngine()
	market := btcUsdt()
	e.RegisterMarket(market)
	e.AddParticipant(1, market)

	deposit := &book.Order{Market: market, ParticipantID: 1, Kind: book.KindDeposit, Quantity: 1_000_000}
	require.NoError(t, e.Transfer(deposit))

	order := limit(1, 1, common.Bid, 100, 5, market)
	require.NoError(t, e.PlaceOrder(order))

	cancel := &book.Order{Market: market, ParticipantID: 1, OrderID: 1, Kind: book.KindCancel}
	require.NoError(t, e.PlaceOrder(cancel))

	err := e.PlaceOrder(cancel)
	assert.ErrorIs(t, err, coreerr.ErrUnknownOrder)
}

func TestEngine_TransferRejectsNonTransferKind(t *testing.T) {
	e := newEngine()
	market := btcUsdt()
	e.RegisterMarket(market)
	e.AddParticipant(1, market)

	order := limit(1, 1, common.Bid, 100, 5, market)
	err := e.Transfer(order)
	assert.ErrorIs(t, err, coreerr.ErrInvalidOrderType)
}

func TestEngine_TransferUnknownParticipant(t *testing.T) {
	e := newEngine()
	market := btcUsdt()
	e.RegisterMarket(market)

	deposit := &book.Order{Market: market, ParticipantID: 99, Kind: book.KindDeposit, Quantity: 10}
	err := e.Transfer(deposit)
	assert.ErrorIs(t, err, coreerr.ErrUnknownParticipant)
}
