package match

// BookSnapshot contains the full state of an OrderBook: every resting
// order in priority order plus the three counters. It is a plain value;
// nothing is written to disk.
type BookSnapshot struct {
	Symbol        string   `json:"symbol"`
	Sequence      uint64   `json:"sequence"`       // last assigned order sequence
	LogSequence   uint64   `json:"log_sequence"`   // last assigned BookLog sequence ID
	TradeSequence uint64   `json:"trade_sequence"` // last assigned trade ID
	Bids          []*Order `json:"bids"`           // best price first
	Asks          []*Order `json:"asks"`           // best price first
}

// Snapshot captures the current book state without mutating it.
func (book *OrderBook) Snapshot() *BookSnapshot {
	snap := &BookSnapshot{
		Symbol:        book.symbol,
		Sequence:      book.seq,
		LogSequence:   book.logSeq,
		TradeSequence: book.tradeSeq,
		Bids:          make([]*Order, 0),
		Asks:          make([]*Order, 0),
	}

	bids := book.bidQueue.toSnapshot()
	for i := range bids {
		snap.Bids = append(snap.Bids, &bids[i])
	}

	asks := book.askQueue.toSnapshot()
	for i := range asks {
		snap.Asks = append(snap.Asks, &asks[i])
	}

	return snap
}

// Restore rebuilds the book from a snapshot, replacing all current state.
// Orders are re-inserted in snapshot order, which preserves price-time
// priority because the snapshot is already sorted.
func (book *OrderBook) Restore(snap *BookSnapshot) {
	book.seq = snap.Sequence
	book.logSeq = snap.LogSequence
	book.tradeSeq = snap.TradeSequence

	book.bidQueue = NewBuyerQueue()
	book.askQueue = NewSellerQueue()

	restoreOrders := func(orders []*Order, q *queue) {
		for _, o := range orders {
			q.insertOrder(o, false)
		}
	}

	restoreOrders(snap.Bids, book.bidQueue)
	restoreOrders(snap.Asks, book.askQueue)
}
