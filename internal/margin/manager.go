package margin

import (
	"iter"

	"fenrir/internal/book"
	"fenrir/internal/coreerr"
	"fenrir/internal/policy"
)

// Manager indexes a TradingAccount per participant and implements
// policy.ExecutionPolicy, so it can be handed straight to an order book (or
// wrapped by policy.LogExecutions) as the thing that actually moves money
// when orders place, cancel and fill. Accounts are created once and never
// destroyed; AddAccount is idempotent.
type Manager struct {
	lotHandler policy.LotEventHandler
	accounts   map[uint64]*TradingAccount
}

// New builds a Manager that fires lotHandler whenever a lot opens or closes.
func New(lotHandler policy.LotEventHandler) *Manager {
	return &Manager{lotHandler: lotHandler, accounts: make(map[uint64]*TradingAccount)}
}

// AddAccount registers participantID if it is not already known and returns
// its TradingAccount either way.
func (m *Manager) AddAccount(participantID uint64) *TradingAccount {
	acc, ok := m.accounts[participantID]
	if !ok {
		acc = newTradingAccount(participantID)
		m.accounts[participantID] = acc
	}
	return acc
}

func (m *Manager) account(participantID uint64) (*TradingAccount, error) {
	acc, ok := m.accounts[participantID]
	if !ok {
		return nil, coreerr.ErrUnknownParticipant
	}
	return acc, nil
}

// Account looks up the TradingAccount for participantID. It is the public
// counterpart of account, for callers outside the package (e.g. engine.Engine
// applying a Deposit/Withdraw outside the order-placement path).
func (m *Manager) Account(participantID uint64) (*TradingAccount, error) {
	return m.account(participantID)
}

// GetParticipants iterates every (participant id, account) pair currently
// registered.
func (m *Manager) GetParticipants() iter.Seq2[uint64, *TradingAccount] {
	return func(yield func(uint64, *TradingAccount) bool) {
		for id, acc := range m.accounts {
			if !yield(id, acc) {
				return
			}
		}
	}
}

// PlaceOrder implements policy.ExecutionPolicy.
func (m *Manager) PlaceOrder(oq *book.OrderQuantity) error {
	if oq.Quantity == 0 {
		return coreerr.ErrNotEnoughQuantity
	}
	acc, err := m.account(oq.Order.ParticipantID)
	if err != nil {
		return err
	}
	return acc.PlaceOrder(oq)
}

// CancelOrder implements policy.ExecutionPolicy.
func (m *Manager) CancelOrder(oq *book.OrderQuantity) error {
	if oq.Quantity == 0 {
		return coreerr.ErrNotEnoughQuantity
	}
	acc, err := m.account(oq.Order.ParticipantID)
	if err != nil {
		return err
	}
	return acc.CancelOrder(oq)
}

// ExecuteOrders implements policy.ExecutionPolicy as a two-phase fill:
// both sides begin (lock) before either commits, so a failure to lock the
// book side aborts before anything is realised. A trade always executes at
// the resting book order's price. On success both working quantities are
// decremented by the executed amount — the match loop's FIFO-head removal
// depends on book_order.Quantity reaching zero here.
func (m *Manager) ExecuteOrders(executedQuantity *uint64, aggressor, bookOrder *book.OrderQuantity) error {
	if *executedQuantity == 0 {
		return coreerr.ErrNotEnoughQuantity
	}

	aggressorAccount, err := m.account(aggressor.Order.ParticipantID)
	if err != nil {
		return err
	}
	bookAccount, err := m.account(bookOrder.Order.ParticipantID)
	if err != nil {
		return err
	}

	price := bookOrder.Order.LimitPrice

	if err := aggressorAccount.ExecuteOrderBegin(aggressor.Order, *executedQuantity, price, true); err != nil {
		return err
	}
	if err := bookAccount.ExecuteOrderBegin(bookOrder.Order, *executedQuantity, price, false); err != nil {
		return err
	}
	if err := aggressorAccount.ExecuteOrderCommit(aggressor.Order, *executedQuantity, price, m.lotHandler); err != nil {
		_ = aggressorAccount.ExecuteOrderRollback(aggressor.Order, *executedQuantity, price)
		return err
	}
	if err := bookAccount.ExecuteOrderCommit(bookOrder.Order, *executedQuantity, price, m.lotHandler); err != nil {
		return err
	}

	aggressor.Quantity -= *executedQuantity
	bookOrder.Quantity -= *executedQuantity
	return nil
}
