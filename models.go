package match

import (
	"github.com/alphalab/matching-core/protocol"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	Market  OrderType = protocol.OrderTypeMarket
	Limit   OrderType = protocol.OrderTypeLimit
	FOK     OrderType = protocol.OrderTypeFOK
	IOC     OrderType = protocol.OrderTypeIOC
	Iceberg OrderType = protocol.OrderTypeIceberg
)

// Order represents the state of an order in the order book.
// Size is the remaining visible quantity; for iceberg orders TotalSize is
// the remaining total (visible clip included) and DisplaySize the clip
// bound, so Size == min(TotalSize, DisplaySize) holds at rest.
// Sequence is assigned once by the owning book and never reused; within a
// price level lower sequence means earlier time priority.
type Order struct {
	ID        string          `json:"id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Type      OrderType       `json:"type"`
	Sequence  uint64          `json:"sequence"`
	Timestamp int64           `json:"timestamp"` // Unix nano, creation time

	// Iceberg fields
	DisplaySize decimal.Decimal `json:"display_size,omitempty"`
	TotalSize   decimal.Decimal `json:"total_size,omitempty"`

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// OutcomeKind is the closed set of result shapes a command can produce.
type OutcomeKind int8

const (
	// OutcomeNone means the command produces no output at all (cancel).
	OutcomeNone OutcomeKind = iota
	// OutcomeTradeCost carries the executed notional of a submit command.
	OutcomeTradeCost
	// OutcomeEmpty is a present-but-empty output (replace).
	OutcomeEmpty
	// OutcomeReport carries the drained book report (end).
	OutcomeReport
)

// Outcome is the dispatch result of one command. The three output shapes
// (value, nothing, empty-but-present) are distinct on purpose and the I/O
// boundary must preserve them verbatim.
type Outcome struct {
	Kind      OutcomeKind
	TradeCost decimal.Decimal
	Report    *protocol.BookReport
}

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff decimal.Decimal
}

// DepthItem is one aggregated price level.
type DepthItem struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
	Count int64           `json:"count"`
}

// Depth is a non-destructive view of the top of the book.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// BookStats contains statistics about the order book queues.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	BidDepthCount int64
	BidOrderCount int64
}
