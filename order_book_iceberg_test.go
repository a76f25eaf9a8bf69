package match

import (
	"testing"

	"github.com/alphalab/matching-core/protocol"
	"github.com/stretchr/testify/assert"
)

func TestIcebergRestsFirstClip(t *testing.T) {
	book := NewOrderBook("TEST")

	// nothing to cross: the first clip rests, hidden size stays hidden
	cost, logs := book.Submit(icebergOrder("ICE1", Sell, 100, 100, 10))
	assert.Equal(t, "0", cost.String())
	assert.Len(t, logs, 1)
	assert.Equal(t, LogTypeOpen, logs[0].Type)

	rest := book.askQueue.order("ICE1")
	assert.NotNil(t, rest)
	assert.Equal(t, "10", rest.Size.String())
	assert.Equal(t, "100", rest.TotalSize.String())

	// depth shows only the visible clip
	depth := book.Depth(1)
	assert.Len(t, depth.Asks, 1)
	assert.Equal(t, "10", depth.Asks[0].Size.String())
}

func TestIcebergSmallTotalClipsToTotal(t *testing.T) {
	book := NewOrderBook("TEST")

	// total below display: the clip is the whole order
	book.Submit(icebergOrder("ICE1", Buy, 4, 100, 10))

	rest := book.bidQueue.order("ICE1")
	assert.Equal(t, "4", rest.Size.String())
	assert.Equal(t, "4", rest.TotalSize.String())
}

func TestIcebergSingleFillThenReclip(t *testing.T) {
	book := NewOrderBook("TEST")

	book.Submit(limitOrder("B1", Buy, 5, 100))

	// 1. one fill against the best maker, then the next clip rests
	cost, logs := book.Submit(icebergOrder("ICE1", Sell, 20, 100, 8))
	assert.Equal(t, "500", cost.String())
	assert.Len(t, logs, 2)
	assert.Equal(t, LogTypeMatch, logs[0].Type)
	assert.Equal(t, "B1", logs[0].MakerOrderID)
	assert.Equal(t, "5", logs[0].Size.String())
	assert.Equal(t, LogTypeOpen, logs[1].Type)

	// 2. the maker is gone even though more bids could have followed;
	// matching stops after the one fill event
	assert.Equal(t, int64(0), book.Stats().BidOrderCount)

	rest := book.askQueue.order("ICE1")
	assert.NotNil(t, rest)
	assert.Equal(t, "8", rest.Size.String())
	assert.Equal(t, "15", rest.TotalSize.String())
}

func TestIcebergOneShotLeavesRemainingMakers(t *testing.T) {
	book := NewOrderBook("TEST")

	book.Submit(limitOrder("B1", Buy, 3, 100))
	book.Submit(limitOrder("B2", Buy, 3, 100))

	// only the first maker trades; the sweep does not continue to B2
	cost, logs := book.Submit(icebergOrder("ICE1", Sell, 20, 100, 8))
	assert.Equal(t, "300", cost.String())
	assert.Len(t, logs, 2)
	assert.Equal(t, "B1", logs[0].MakerOrderID)

	assert.Equal(t, "3", book.bidQueue.order("B2").Size.String())
	assert.Equal(t, "17", book.askQueue.order("ICE1").TotalSize.String())
}

func TestIcebergFillExhaustsTotal(t *testing.T) {
	book := NewOrderBook("TEST")

	book.Submit(limitOrder("B1", Buy, 20, 100))

	// the single fill consumes the whole hidden total; nothing re-rests
	cost, logs := book.Submit(icebergOrder("ICE1", Sell, 8, 100, 10))
	assert.Equal(t, "800", cost.String())
	assert.Len(t, logs, 1)
	assert.Equal(t, LogTypeMatch, logs[0].Type)

	assert.Nil(t, book.askQueue.order("ICE1"))
	assert.Equal(t, "12", book.bidQueue.order("B1").Size.String())
}

func TestIcebergReclipGetsNewSequence(t *testing.T) {
	book := NewOrderBook("TEST")

	book.Submit(limitOrder("B1", Buy, 2, 100))

	ice := icebergOrder("ICE1", Sell, 10, 100, 4)
	book.Submit(ice)

	// the re-clipped order re-entered the queue with a later sequence than
	// the one assigned at submission, so it queues behind anything that
	// arrived in between
	assert.Equal(t, uint64(3), ice.Sequence)

	book.Submit(limitOrder("S2", Sell, 4, 100))
	_, logs := book.Submit(limitOrder("B2", Buy, 4, 100))
	assert.Len(t, logs, 1)
	assert.Equal(t, "ICE1", logs[0].MakerOrderID)
}

func TestIcebergReportRendering(t *testing.T) {
	book := NewOrderBook("TEST")

	book.Submit(limitOrder("B1", Buy, 10, 90))
	book.Submit(icebergOrder("ICE1", Sell, 50, 100, 10))
	book.Submit(limitOrder("S1", Sell, 5, 100))

	report := book.Report()
	out := protocol.FormatBookReport(report)
	assert.Equal(t, "B: 10@90#B1 \nS: 10(50)@100#ICE1 5@100#S1 ", out)
}
