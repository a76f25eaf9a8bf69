package match

import (
	"github.com/alphalab/matching-core/protocol"
	"github.com/shopspring/decimal"
)

// OrderBook is the single-instrument matching core. It is a strictly
// sequential state machine: exactly one command mutates it at a time and
// every command runs to completion before the next one starts. Engine
// provides that discipline; the book itself performs no synchronization.
//
// The book owns three counters, all starting at zero when the book is
// constructed: the order sequence (time-priority tie-break), the BookLog
// sequence, and the trade ID. Replaying the same command stream against a
// fresh book therefore reproduces identical state and identical logs.
type OrderBook struct {
	symbol   string
	bidQueue *queue
	askQueue *queue

	seq      uint64 // last assigned order sequence number
	logSeq   uint64 // last assigned BookLog sequence ID
	tradeSeq uint64 // last assigned trade ID

	// tradeCost accumulates fill_size * maker_price over all fills of the
	// command currently being applied. Reset by Submit.
	tradeCost decimal.Decimal
}

// NewOrderBook creates an empty book for one instrument.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:    symbol,
		bidQueue:  NewBuyerQueue(),
		askQueue:  NewSellerQueue(),
		tradeCost: decimal.Zero,
	}
}

// Symbol returns the instrument this book trades.
func (book *OrderBook) Symbol() string {
	return book.symbol
}

func (book *OrderBook) nextSequence() uint64 {
	book.seq++
	return book.seq
}

func (book *OrderBook) nextLogSeq() uint64 {
	book.logSeq++
	return book.logSeq
}

func (book *OrderBook) nextTradeID() uint64 {
	book.tradeSeq++
	return book.tradeSeq
}

func (book *OrderBook) sameQueue(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

func (book *OrderBook) oppositeQueue(side Side) *queue {
	if side == Buy {
		return book.askQueue
	}
	return book.bidQueue
}

// crosses reports whether a taker at takerPrice may trade against a maker
// at makerPrice: buy price >= ask, sell price <= bid.
func crosses(takerSide Side, takerPrice, makerPrice decimal.Decimal) bool {
	if takerSide == Buy {
		return takerPrice.GreaterThanOrEqual(makerPrice)
	}
	return takerPrice.LessThanOrEqual(makerPrice)
}

// Submit applies one submit-family order and returns the executed
// notional (sum of fill_size * maker_price over every fill the command
// generated, zero if nothing traded) together with the emitted logs.
// The order's sequence number is assigned here, once.
func (book *OrderBook) Submit(order *Order) (decimal.Decimal, []*BookLog) {
	book.tradeCost = decimal.Zero
	order.Sequence = book.nextSequence()

	var logs []*BookLog

	switch order.Type {
	case Limit:
		logs = book.handleLimitOrder(order)
	case Market:
		logs = book.handleMarketOrder(order)
	case IOC:
		logs = book.handleIOCOrder(order)
	case FOK:
		logs = book.handleFOKOrder(order)
	case Iceberg:
		logs = book.handleIcebergOrder(order)
	}

	return book.tradeCost, logs
}

// matchLoop runs the shared matching sweep against the opposite side.
// Makers are consumed best price first, earliest sequence first. A maker
// that is only partially filled keeps its priority slot with the reduced
// size; the loop then stops because the taker is fully consumed.
// When priceCheck is set the loop stops at the first maker the taker does
// not cross; book ordering guarantees no later maker can cross either.
func (book *OrderBook) matchLoop(order *Order, priceCheck bool, logs []*BookLog) []*BookLog {
	targetQueue := book.oppositeQueue(order.Side)

	for order.Size.GreaterThan(decimal.Zero) {
		maker := targetQueue.peekHeadOrder()
		if maker == nil {
			break
		}

		if priceCheck && !crosses(order.Side, order.Price, maker.Price) {
			break
		}

		if order.Size.GreaterThanOrEqual(maker.Size) {
			// Maker fully consumed: remove it from the book and keep sweeping.
			maker = targetQueue.popHeadOrder()
			fill := maker.Size
			book.tradeCost = book.tradeCost.Add(fill.Mul(maker.Price))
			logs = append(logs, newMatchLog(book.nextLogSeq(), book.nextTradeID(), book.symbol, order, maker, fill))
			order.Size = order.Size.Sub(fill)
		} else {
			// Taker fully consumed: maker rests on with reduced size.
			fill := order.Size
			book.tradeCost = book.tradeCost.Add(fill.Mul(maker.Price))
			logs = append(logs, newMatchLog(book.nextLogSeq(), book.nextTradeID(), book.symbol, order, maker, fill))
			targetQueue.updateOrderSize(maker.ID, maker.Size.Sub(fill))
			order.Size = decimal.Zero
		}
	}

	return logs
}

// handleLimitOrder matches against the opposite queue and rests the
// remaining size, keeping the sequence assigned at submission.
func (book *OrderBook) handleLimitOrder(order *Order) []*BookLog {
	logs := make([]*BookLog, 0, 8)

	logs = book.matchLoop(order, true, logs)

	if order.Size.GreaterThan(decimal.Zero) {
		book.sameQueue(order.Side).insertOrder(order, false)
		logs = append(logs, newOpenLog(book.nextLogSeq(), book.symbol, order))
	}

	return logs
}

// handleMarketOrder crosses at any resting price and never rests; any
// size left when the opposite side is exhausted is discarded.
func (book *OrderBook) handleMarketOrder(order *Order) []*BookLog {
	logs := make([]*BookLog, 0, 8)

	logs = book.matchLoop(order, false, logs)

	if order.Size.GreaterThan(decimal.Zero) {
		logs = append(logs, newRejectLog(book.nextLogSeq(), book.symbol, order, RejectReasonNoLiquidity))
	}

	return logs
}

// handleIOCOrder matches as much as the price allows and discards the rest.
func (book *OrderBook) handleIOCOrder(order *Order) []*BookLog {
	logs := make([]*BookLog, 0, 8)

	logs = book.matchLoop(order, true, logs)

	if order.Size.GreaterThan(decimal.Zero) {
		reason := RejectReasonPriceMismatch
		if book.oppositeQueue(order.Side).peekHeadOrder() == nil {
			reason = RejectReasonNoLiquidity
		}
		logs = append(logs, newRejectLog(book.nextLogSeq(), book.symbol, order, reason))
	}

	return logs
}

// handleFOKOrder checks crossing liquidity before touching the book.
// If the sum of crossing resting sizes is short of the order size the
// whole command is a no-op; otherwise the sweep is guaranteed to consume
// the order completely, so nothing can rest.
func (book *OrderBook) handleFOKOrder(order *Order) []*BookLog {
	logs := make([]*BookLog, 0, 8)

	targetQueue := book.oppositeQueue(order.Side)
	if targetQueue.satisfiedSize(order.Price).LessThan(order.Size) {
		logs = append(logs, newRejectLog(book.nextLogSeq(), book.symbol, order, RejectReasonInsufficientSize))
		return logs
	}

	return book.matchLoop(order, true, logs)
}

// handleIcebergOrder performs at most one fill event against the single
// best-priority maker, then re-clips: the hidden total is reduced by the
// filled amount and a fresh clip of min(total, display) rests with a new
// sequence number, giving up its time priority. A submission that crosses
// nothing simply rests its first clip with the original sequence.
func (book *OrderBook) handleIcebergOrder(order *Order) []*BookLog {
	logs := make([]*BookLog, 0, 2)

	targetQueue := book.oppositeQueue(order.Side)

	maker := targetQueue.peekHeadOrder()
	if maker == nil || !crosses(order.Side, order.Price, maker.Price) {
		book.sameQueue(order.Side).insertOrder(order, false)
		logs = append(logs, newOpenLog(book.nextLogSeq(), book.symbol, order))
		return logs
	}

	fill := decimal.Min(order.Size, maker.Size)
	book.tradeCost = book.tradeCost.Add(fill.Mul(maker.Price))
	logs = append(logs, newMatchLog(book.nextLogSeq(), book.nextTradeID(), book.symbol, order, maker, fill))

	if fill.Equal(maker.Size) {
		targetQueue.popHeadOrder()
	} else {
		targetQueue.updateOrderSize(maker.ID, maker.Size.Sub(fill))
	}

	order.TotalSize = order.TotalSize.Sub(fill)
	if order.TotalSize.GreaterThan(decimal.Zero) {
		order.Size = decimal.Min(order.TotalSize, order.DisplaySize)
		order.Sequence = book.nextSequence()
		book.sameQueue(order.Side).insertOrder(order, false)
		logs = append(logs, newOpenLog(book.nextLogSeq(), book.symbol, order))
	}

	return logs
}

// Cancel removes the resting order with the given identifier from
// whichever side holds it. An unknown identifier is a silent no-op; the
// reject log exists for downstream observability only.
func (book *OrderBook) Cancel(id string) []*BookLog {
	logs := make([]*BookLog, 0, 1)

	order := book.askQueue.order(id)
	myQueue := book.askQueue
	if order == nil {
		order = book.bidQueue.order(id)
		myQueue = book.bidQueue
	}

	if order == nil {
		logs = append(logs, newRejectLog(book.nextLogSeq(), book.symbol, &Order{ID: id}, RejectReasonOrderNotFound))
		return logs
	}

	myQueue.removeOrder(order.Price, order.ID)
	logs = append(logs, newCancelLog(book.nextLogSeq(), book.symbol, order))
	return logs
}

// Replace amends the resting order with the given identifier.
// Reducing the size at an unchanged price mutates the order in place and
// keeps its priority slot. Any price change or size increase removes the
// old order and rests a brand-new limit order with a later sequence
// number; the replacement is inserted directly and never matches.
// An unknown identifier is a silent no-op.
func (book *OrderBook) Replace(id string, newSize decimal.Decimal, newPrice decimal.Decimal) []*BookLog {
	logs := make([]*BookLog, 0, 1)

	order := book.askQueue.order(id)
	myQueue := book.askQueue
	if order == nil {
		order = book.bidQueue.order(id)
		myQueue = book.bidQueue
	}

	if order == nil {
		logs = append(logs, newRejectLog(book.nextLogSeq(), book.symbol, &Order{ID: id}, RejectReasonOrderNotFound))
		return logs
	}

	oldPrice := order.Price
	oldSize := order.Size

	if oldPrice.Equal(newPrice) && newSize.LessThanOrEqual(oldSize) {
		if !newSize.IsPositive() {
			// Size-0 orders never rest.
			myQueue.removeOrder(oldPrice, id)
			logs = append(logs, newCancelLog(book.nextLogSeq(), book.symbol, order))
			return logs
		}
		myQueue.updateOrderSize(id, newSize)
		logs = append(logs, newAmendLog(book.nextLogSeq(), book.symbol, order, oldPrice, oldSize))
		return logs
	}

	myQueue.removeOrder(oldPrice, id)

	replacement := &Order{
		ID:        id,
		Side:      order.Side,
		Price:     newPrice,
		Size:      newSize,
		Type:      Limit,
		Sequence:  book.nextSequence(),
		Timestamp: order.Timestamp,
	}
	logs = append(logs, newAmendLog(book.nextLogSeq(), book.symbol, replacement, oldPrice, oldSize))
	if newSize.IsPositive() {
		book.sameQueue(replacement.Side).insertOrder(replacement, false)
		logs = append(logs, newOpenLog(book.nextLogSeq(), book.symbol, replacement))
	}
	return logs
}

// Report drains the book into its final report: bid side then ask side,
// each in full priority order. The book is empty afterwards; the drain is
// destructive by contract.
func (book *OrderBook) Report() *protocol.BookReport {
	bids := book.bidQueue.drain()
	asks := book.askQueue.drain()

	report := &protocol.BookReport{
		Bids: make([]*protocol.ReportEntry, 0, len(bids)),
		Asks: make([]*protocol.ReportEntry, 0, len(asks)),
	}
	for _, o := range bids {
		report.Bids = append(report.Bids, reportEntry(o))
	}
	for _, o := range asks {
		report.Asks = append(report.Asks, reportEntry(o))
	}
	return report
}

func reportEntry(o *Order) *protocol.ReportEntry {
	e := &protocol.ReportEntry{
		OrderID:  o.ID,
		Quantity: o.Size.String(),
		Price:    o.Price.String(),
	}
	if o.Type == Iceberg {
		e.TotalQuantity = o.TotalSize.String()
	}
	return e
}

// Depth returns a non-destructive view of the aggregated book up to limit
// price levels per side.
func (book *OrderBook) Depth(limit uint32) *Depth {
	return &Depth{
		UpdateID: book.logSeq,
		Asks:     book.askQueue.depth(limit),
		Bids:     book.bidQueue.depth(limit),
	}
}

// Stats returns usage statistics for the order book.
func (book *OrderBook) Stats() *BookStats {
	return &BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}
