package match

import (
	"sync"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated sizes (depth). It is rebuilt
// from the BookLog stream and is designed for consumers that sit behind
// an asynchronous publish stage, so it implements PublishLog and can be
// wrapped directly by a RingPublishLog.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // last applied SequenceID, for deduplication
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// NewAggregatedBook creates a new AggregatedBook with empty sides.
// Both trees iterate best price first: descending for bids, ascending
// for asks.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.GreaterThan(b)
		}),
	}
}

// SequenceID returns the last applied BookLog sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Publish applies logs in order. Implements PublishLog; the logs are
// consumed synchronously, so no cloning is required of the caller.
func (ab *AggregatedBook) Publish(logs ...*BookLog) {
	for _, log := range logs {
		ab.Replay(log)
	}
}

// Replay applies one BookLog to the aggregated state. Events at or below
// the last applied sequence ID are duplicates and are skipped. Reject
// events advance the sequence ID without touching the book.
func (ab *AggregatedBook) Replay(log *BookLog) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if log.SequenceID <= ab.seqID {
		return
	}
	ab.seqID = log.SequenceID

	change := CalculateDepthChange(log)
	if change.SizeDiff.IsZero() {
		return
	}

	tree := ab.bid
	if change.Side == Sell {
		tree = ab.ask
	}

	size, ok := tree.Get(change.Price)
	if !ok {
		size = decimal.Zero
	}

	size = size.Add(change.SizeDiff)
	if size.IsPositive() {
		tree.Set(change.Price, size)
	} else {
		tree.Del(change.Price)
	}
}

// Depth returns the aggregated size at a specific price level for the
// given side, or zero if the level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) decimal.Decimal {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	tree := ab.bid
	if side == Sell {
		tree = ab.ask
	}

	size, ok := tree.Get(price)
	if !ok {
		return decimal.Zero
	}
	return size
}

// TopLevels returns up to limit price levels for the given side, best
// price first.
func (ab *AggregatedBook) TopLevels(side Side, limit int) []*DepthItem {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	tree := ab.bid
	if side == Sell {
		tree = ab.ask
	}

	result := make([]*DepthItem, 0, limit)
	for it := tree.Iterator(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, &DepthItem{
			Price: it.Key(),
			Size:  it.Value(),
		})
	}
	return result
}
