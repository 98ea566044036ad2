package engine

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/coreerr"
	"fenrir/internal/margin"
	"fenrir/internal/policy"
)

// Engine is the façade a transport layer drives: it owns the book registry,
// the order index and the margin ledger, and passes every order through the
// execution and market-data policies exactly as the caller supplied them; it
// adds no logging decorators of its own.
type Engine struct {
	registry   *BookRegistry
	orders     *OrderManager
	margin     *margin.Manager
	execPolicy policy.ExecutionPolicy
	md         policy.MarketDataPolicy
	lotHandler policy.LotEventHandler
}

// New builds an Engine over registry. accounts is the margin ledger used
// directly for account lookups and Transfer; execPolicy is what the order
// manager actually calls on every placement, match and cancel — ordinarily
// accounts itself, but a caller may pass a policy.LogExecutions wrapping it
// to add logging without the ledger needing to know. md is the market-data
// fan-out every mutation is reported to, and lotHandler fires when a
// Deposit/Withdraw opens or closes a lot.
func New(registry *BookRegistry, accounts *margin.Manager, execPolicy policy.ExecutionPolicy, md policy.MarketDataPolicy, lotHandler policy.LotEventHandler) *Engine {
	return &Engine{
		registry:   registry,
		orders:     NewOrderManager(registry),
		margin:     accounts,
		execPolicy: execPolicy,
		md:         md,
		lotHandler: lotHandler,
	}
}

// RegisterMarket creates a fresh order book for market and returns it.
func (e *Engine) RegisterMarket(market *common.Market) *book.OrderBook {
	return e.registry.Register(market)
}

// AddParticipant registers participantID with the margin ledger, ensuring a
// sub-account exists for market's base and quote assets.
func (e *Engine) AddParticipant(participantID uint64, market *common.Market) *margin.TradingAccount {
	acc := e.margin.AddAccount(participantID)
	acc.AddAssetAccount(market.BaseAsset)
	acc.AddAssetAccount(market.QuoteAsset)
	return acc
}

// PlaceOrder routes a Limit, ImmediateOrCancel, Market or Cancel order
// through the order manager against the margin ledger.
func (e *Engine) PlaceOrder(order *book.Order) error {
	return e.orders.PlaceOrder(order, e.execPolicy, e.md)
}

// Transfer applies a Deposit or Withdraw directly against the margin
// ledger; these never touch an order book or the live-order index.
func (e *Engine) Transfer(order *book.Order) error {
	if order.Kind != book.KindDeposit && order.Kind != book.KindWithdraw {
		return coreerr.ErrInvalidOrderType
	}
	acc, err := e.margin.Account(order.ParticipantID)
	if err != nil {
		return err
	}
	return acc.Transfer(order, 0, e.lotHandler)
}
