// Package wire defines the binary protocol spoken between a client and the
// matching engine over a single TCP connection: fixed-width headers built
// by hand with encoding/binary, the same way the engine's predecessor
// protocol did it, generalized from float64 prices and username strings to
// the fixed-point uint64 quantities and integer participant/order ids the
// engine now uses internally. Markets are still named by a ticker string.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"fenrir/internal/book"
	"fenrir/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for its declared fields")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	Transfer
)

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

const (
	baseHeaderLen     = 2
	newOrderHeaderLen = 2 + 16 + 8 + 8 + 1 + 1 + 1 + 8 + 8 // type + requestID + participant + order + kind + side + tickerLen + price + qty
	cancelHeaderLen   = 2 + 16 + 8 + 8 + 1
	transferHeaderLen = 2 + 16 + 8 + 1 + 8 + 1 // type + requestID + participant + kind + qty + tickerLen
)

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

// ParseMessage reads the 2-byte type tag off the front of buf and dispatches
// to the matching decoder.
func ParseMessage(buf []byte) (Message, error) {
	if len(buf) < baseHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	switch typeOf {
	case NewOrder:
		return parseNewOrder(buf)
	case CancelOrder:
		return parseCancelOrder(buf)
	case Transfer:
		return parseTransfer(buf)
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage carries a Limit, ImmediateOrCancel or Market order.
// RequestID is a client-generated idempotency token, logged alongside the
// engine's own (ParticipantID, OrderID) identity but never used to key
// anything internally.
type NewOrderMessage struct {
	BaseMessage
	RequestID    uuid.UUID
	ParticipantID uint64
	OrderID      uint64
	Kind         book.Kind
	Side         common.Side
	Ticker       string
	LimitPrice   uint64
	Quantity     uint64
}

func (m *NewOrderMessage) Order(market *common.Market) *book.Order {
	return &book.Order{
		Market:        market,
		ParticipantID: m.ParticipantID,
		OrderID:       m.OrderID,
		Kind:          m.Kind,
		Side:          m.Side,
		LimitPrice:    m.LimitPrice,
		Quantity:      m.Quantity,
	}
}

func (m *NewOrderMessage) Encode() []byte {
	buf := make([]byte, newOrderHeaderLen+len(m.Ticker))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	copy(buf[2:18], m.RequestID[:])
	binary.BigEndian.PutUint64(buf[18:26], m.ParticipantID)
	binary.BigEndian.PutUint64(buf[26:34], m.OrderID)
	buf[34] = byte(m.Kind)
	buf[35] = byte(m.Side)
	buf[36] = byte(len(m.Ticker))
	binary.BigEndian.PutUint64(buf[37:45], m.LimitPrice)
	binary.BigEndian.PutUint64(buf[45:53], m.Quantity)
	copy(buf[53:], m.Ticker)
	return buf
}

func parseNewOrder(buf []byte) (*NewOrderMessage, error) {
	if len(buf) < newOrderHeaderLen {
		return nil, ErrMessageTooShort
	}
	m := &NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	requestID, err := uuid.FromBytes(buf[2:18])
	if err != nil {
		return nil, fmt.Errorf("parsing request id: %w", err)
	}
	m.RequestID = requestID
	m.ParticipantID = binary.BigEndian.Uint64(buf[18:26])
	m.OrderID = binary.BigEndian.Uint64(buf[26:34])
	m.Kind = book.Kind(buf[34])
	m.Side = common.Side(buf[35])
	tickerLen := int(buf[36])
	m.LimitPrice = binary.BigEndian.Uint64(buf[37:45])
	m.Quantity = binary.BigEndian.Uint64(buf[45:53])
	if len(buf) < newOrderHeaderLen+tickerLen {
		return nil, ErrMessageTooShort
	}
	m.Ticker = string(buf[53 : 53+tickerLen])
	return m, nil
}

// CancelOrderMessage targets a live order by the same identity pair the
// engine's OrderManager indexes it under.
type CancelOrderMessage struct {
	BaseMessage
	RequestID     uuid.UUID
	ParticipantID uint64
	OrderID       uint64
	Ticker        string
}

func (m *CancelOrderMessage) Encode() []byte {
	buf := make([]byte, cancelHeaderLen+len(m.Ticker))
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	copy(buf[2:18], m.RequestID[:])
	binary.BigEndian.PutUint64(buf[18:26], m.ParticipantID)
	binary.BigEndian.PutUint64(buf[26:34], m.OrderID)
	buf[34] = byte(len(m.Ticker))
	copy(buf[35:], m.Ticker)
	return buf
}

func parseCancelOrder(buf []byte) (*CancelOrderMessage, error) {
	if len(buf) < cancelHeaderLen {
		return nil, ErrMessageTooShort
	}
	requestID, err := uuid.FromBytes(buf[2:18])
	if err != nil {
		return nil, fmt.Errorf("parsing request id: %w", err)
	}
	m := &CancelOrderMessage{
		BaseMessage:   BaseMessage{TypeOf: CancelOrder},
		RequestID:     requestID,
		ParticipantID: binary.BigEndian.Uint64(buf[18:26]),
		OrderID:       binary.BigEndian.Uint64(buf[26:34]),
	}
	tickerLen := int(buf[34])
	if len(buf) < cancelHeaderLen+tickerLen {
		return nil, ErrMessageTooShort
	}
	m.Ticker = string(buf[35 : 35+tickerLen])
	return m, nil
}

// TransferMessage carries a Deposit or Withdraw of the named market's base
// asset. Kind must be book.KindDeposit or book.KindWithdraw.
type TransferMessage struct {
	BaseMessage
	RequestID     uuid.UUID
	ParticipantID uint64
	Kind          book.Kind
	Quantity      uint64
	Ticker        string
}

func (m *TransferMessage) Encode() []byte {
	buf := make([]byte, transferHeaderLen+len(m.Ticker))
	binary.BigEndian.PutUint16(buf[0:2], uint16(Transfer))
	copy(buf[2:18], m.RequestID[:])
	binary.BigEndian.PutUint64(buf[18:26], m.ParticipantID)
	buf[26] = byte(m.Kind)
	binary.BigEndian.PutUint64(buf[27:35], m.Quantity)
	buf[35] = byte(len(m.Ticker))
	copy(buf[36:], m.Ticker)
	return buf
}

func parseTransfer(buf []byte) (*TransferMessage, error) {
	if len(buf) < transferHeaderLen {
		return nil, ErrMessageTooShort
	}
	requestID, err := uuid.FromBytes(buf[2:18])
	if err != nil {
		return nil, fmt.Errorf("parsing request id: %w", err)
	}
	m := &TransferMessage{
		BaseMessage:   BaseMessage{TypeOf: Transfer},
		RequestID:     requestID,
		ParticipantID: binary.BigEndian.Uint64(buf[18:26]),
		Kind:          book.Kind(buf[26]),
		Quantity:      binary.BigEndian.Uint64(buf[27:35]),
	}
	tickerLen := int(buf[35])
	if len(buf) < transferHeaderLen+tickerLen {
		return nil, ErrMessageTooShort
	}
	m.Ticker = string(buf[36 : 36+tickerLen])
	return m, nil
}

const reportFixedHeaderLen = 1 + 8 + 8 + 8 + 8 + 1 + 4 + 4

// Report is sent back to a client for every fill or error. Quantity and
// Price stay in the market's own fixed-point precision on the wire;
// HumanString renders them as decimal.Decimal for logs and error messages.
type Report struct {
	MessageType   ReportMessageType
	ParticipantID uint64
	OrderID       uint64
	Quantity      uint64
	Price         uint64
	Side          common.Side
	Ticker        string
	Err           string
}

func (r *Report) Serialize() []byte {
	totalSize := reportFixedHeaderLen + len(r.Ticker) + len(r.Err)
	buf := make([]byte, totalSize)
	buf[0] = byte(r.MessageType)
	binary.BigEndian.PutUint64(buf[1:9], r.ParticipantID)
	binary.BigEndian.PutUint64(buf[9:17], r.OrderID)
	binary.BigEndian.PutUint64(buf[17:25], r.Quantity)
	binary.BigEndian.PutUint64(buf[25:33], r.Price)
	buf[33] = byte(r.Side)
	binary.BigEndian.PutUint32(buf[34:38], uint32(len(r.Ticker)))
	binary.BigEndian.PutUint32(buf[38:42], uint32(len(r.Err)))
	offset := reportFixedHeaderLen
	copy(buf[offset:], r.Ticker)
	offset += len(r.Ticker)
	copy(buf[offset:], r.Err)
	return buf
}

// HumanString renders a report the way an operator reading logs would want
// to see it, decimal-shifted by decimals rather than as a raw fixed-point
// integer.
func (r *Report) HumanString(decimals int32) string {
	qty := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Quantity), -decimals)
	price := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Price), -decimals)
	if r.MessageType == ErrorReport {
		return fmt.Sprintf("error participant=%d order=%d: %s", r.ParticipantID, r.OrderID, r.Err)
	}
	return fmt.Sprintf("fill participant=%d order=%d %s %s@%s %s",
		r.ParticipantID, r.OrderID, common.SideName(r.Side), qty.String(), price.String(), r.Ticker)
}

// NewTradeReport builds the execution report addressed to one side of a
// fill; the caller builds one per side, at the resting order's price.
func NewTradeReport(participantID, orderID uint64, side common.Side, ticker string, quantity, price uint64) Report {
	return Report{
		MessageType:   ExecutionReport,
		ParticipantID: participantID,
		OrderID:       orderID,
		Quantity:      quantity,
		Price:         price,
		Side:          side,
		Ticker:        ticker,
	}
}

// NewErrorReport builds the report sent back when an order is rejected.
func NewErrorReport(participantID, orderID uint64, err error) Report {
	return Report{
		MessageType:   ErrorReport,
		ParticipantID: participantID,
		OrderID:       orderID,
		Err:           err.Error(),
	}
}
