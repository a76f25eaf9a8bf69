package protocol

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeMarket  OrderType = "market"
	OrderTypeLimit   OrderType = "limit"
	OrderTypeFOK     OrderType = "fok"     // Fill Or Kill
	OrderTypeIOC     OrderType = "ioc"     // Immediate Or Cancel
	OrderTypeIceberg OrderType = "iceberg" // Visible clip backed by a hidden reserve
)

// LogType represents the type of event log.
type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
	LogTypeReject LogType = "reject"
)

// RejectReason represents the reason why a command produced no book change.
type RejectReason string

const (
	RejectReasonNone             RejectReason = ""
	RejectReasonNoLiquidity      RejectReason = "no_liquidity"      // Market/IOC: no orders available to match
	RejectReasonPriceMismatch    RejectReason = "price_mismatch"    // IOC: price does not meet requirements
	RejectReasonInsufficientSize RejectReason = "insufficient_size" // FOK: cannot be fully filled
	RejectReasonOrderNotFound    RejectReason = "order_not_found"   // Cancel/Replace: unknown identifier
)

// CommandType defines the type of the command.
type CommandType uint8

const (
	CmdUnknown CommandType = 0
	CmdSubmit  CommandType = 1
	CmdCancel  CommandType = 2
	CmdReplace CommandType = 3
	CmdEnd     CommandType = 4
)

// Wire vocabulary of the line protocol.
const (
	KeywordSubmit  = "SUB"
	KeywordCancel  = "CXL"
	KeywordReplace = "CRP"
	KeywordEnd     = "END"

	TokenLimit   = "LO"
	TokenMarket  = "MO"
	TokenIOC     = "IOC"
	TokenFOK     = "FOK"
	TokenIceberg = "ICE"

	TokenBuy  = "B"
	TokenSell = "S"
)

// Command is the carrier for commands entering the matching core.
// The parser produces one Command per input line; fields not relevant to
// the command type stay at their zero values. Quantities and prices are
// integers by contract (the core has no fractional ticks).
type Command struct {
	Type      CommandType `json:"type"`
	OrderType OrderType   `json:"order_type,omitempty"`
	Side      Side        `json:"side,omitempty"`
	OrderID   string      `json:"order_id,omitempty"`
	Quantity  int64       `json:"quantity,omitempty"` // total quantity for iceberg orders
	Price     int64       `json:"price,omitempty"`
	Display   int64       `json:"display,omitempty"` // iceberg clip size
}

// ReportEntry is one resting order in a book report.
// TotalQuantity is only set for iceberg orders.
type ReportEntry struct {
	OrderID       string `json:"order_id"`
	Quantity      string `json:"quantity"`
	TotalQuantity string `json:"total_quantity,omitempty"`
	Price         string `json:"price"`
}

// BookReport is the full book in priority order, bids then asks.
type BookReport struct {
	Bids []*ReportEntry `json:"bids"`
	Asks []*ReportEntry `json:"asks"`
}
