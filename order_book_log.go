package match

import (
	"sync"
	"time"

	"github.com/alphalab/matching-core/protocol"
	"github.com/shopspring/decimal"
)

// BookLog represents an event in the order book.
// SequenceID is an increasing ID for every event, used for ordering,
// deduplication, and rebuild synchronization in downstream consumers.
// Use LogType to determine if the event affects order book state:
// - Open, Match, Cancel, Amend: affect order book state
// - Reject: does not affect order book state
type BookLog struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"` // Sequential trade ID, only set for Match events
	Type         LogType         `json:"type"`
	Symbol       string          `json:"symbol"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         decimal.Decimal `json:"size"`
	Amount       decimal.Decimal `json:"amount,omitempty"` // Price * Size, only set for Match events
	OldPrice     decimal.Decimal `json:"old_price,omitempty"`
	OldSize      decimal.Decimal `json:"old_size,omitempty"`
	OrderID      string          `json:"order_id"`
	OrderType    OrderType       `json:"order_type,omitempty"`
	MakerOrderID string          `json:"maker_order_id,omitempty"`
	RejectReason RejectReason    `json:"reject_reason,omitempty"` // Only set for Reject events
	CreatedAt    time.Time       `json:"created_at"`
}

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeAmend  LogType = protocol.LogTypeAmend
	LogTypeReject LogType = protocol.LogTypeReject
)

type RejectReason = protocol.RejectReason

const (
	RejectReasonNone             RejectReason = protocol.RejectReasonNone
	RejectReasonNoLiquidity      RejectReason = protocol.RejectReasonNoLiquidity
	RejectReasonPriceMismatch    RejectReason = protocol.RejectReasonPriceMismatch
	RejectReasonInsufficientSize RejectReason = protocol.RejectReasonInsufficientSize
	RejectReasonOrderNotFound    RejectReason = protocol.RejectReasonOrderNotFound
)

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	// Reset structure to zero values.
	// For decimal.Decimal, the zero value represents 0, which is valid.
	*log = BookLog{}
	bookLogPool.Put(log)
}

func newOpenLog(seqID uint64, symbol string, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Size
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

func newMatchLog(seqID uint64, tradeID uint64, symbol string, taker *Order, maker *Order, size decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = tradeID
	log.Type = LogTypeMatch
	log.Symbol = symbol
	log.Side = taker.Side
	log.Price = maker.Price
	log.Size = size
	log.Amount = maker.Price.Mul(size)
	log.OrderID = taker.ID
	log.OrderType = taker.Type
	log.MakerOrderID = maker.ID
	log.CreatedAt = time.Now().UTC()
	return log
}

func newCancelLog(seqID uint64, symbol string, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Size
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

func newAmendLog(seqID uint64, symbol string, order *Order, oldPrice decimal.Decimal, oldSize decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeAmend
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Size
	log.OldPrice = oldPrice
	log.OldSize = oldSize
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

func newRejectLog(seqID uint64, symbol string, order *Order, reason RejectReason) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Size
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.RejectReason = reason
	log.CreatedAt = time.Now().UTC()
	return log
}
