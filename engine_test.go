package match

import (
	"context"
	"testing"
	"time"

	"github.com/alphalab/matching-core/protocol"
	"github.com/stretchr/testify/assert"
)

func startTestEngine(t *testing.T, publish PublishLog) *Engine {
	t.Helper()

	engine := NewEngine("TEST", publish)
	go func() {
		_ = engine.Start()
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	})

	return engine
}

func submitCmd(orderType OrderType, side Side, id string, qty, price int64) *protocol.Command {
	return &protocol.Command{
		Type:      protocol.CmdSubmit,
		OrderType: orderType,
		Side:      side,
		OrderID:   id,
		Quantity:  qty,
		Price:     price,
	}
}

func TestEngineOutcomeShapes(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryPublishLog()
	engine := startTestEngine(t, memory)

	// 1. submit always yields a trade cost, zero when nothing trades
	out, err := engine.Process(ctx, submitCmd(Limit, Sell, "S1", 10, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeTradeCost, out.Kind)
	assert.Equal(t, "0", out.TradeCost.String())

	out, err = engine.Process(ctx, submitCmd(Limit, Buy, "B1", 4, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeTradeCost, out.Kind)
	assert.Equal(t, "400", out.TradeCost.String())

	// 2. cancel yields nothing at all
	out, err = engine.Process(ctx, &protocol.Command{Type: protocol.CmdCancel, OrderID: "S1"})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeNone, out.Kind)

	// 3. replace yields a present-but-empty outcome, even for unknown IDs
	out, err = engine.Process(ctx, &protocol.Command{Type: protocol.CmdReplace, OrderID: "missing", Quantity: 5, Price: 100})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, out.Kind)

	// 4. end yields the drained report
	out, err = engine.Process(ctx, &protocol.Command{Type: protocol.CmdEnd})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeReport, out.Kind)
	assert.NotNil(t, out.Report)
	assert.Empty(t, out.Report.Bids)
	assert.Empty(t, out.Report.Asks)

	// every book event reached the publisher:
	// open(S1), match(B1/S1), cancel(S1), reject(missing)
	assert.Equal(t, 4, memory.Count())
	assert.Equal(t, LogTypeOpen, memory.Get(0).Type)
	assert.Equal(t, LogTypeMatch, memory.Get(1).Type)
	assert.Equal(t, LogTypeCancel, memory.Get(2).Type)
	assert.Equal(t, LogTypeReject, memory.Get(3).Type)
}

func TestEngineIcebergCommand(t *testing.T) {
	ctx := context.Background()
	engine := startTestEngine(t, NewDiscardPublishLog())

	cmd := submitCmd(Iceberg, Sell, "ICE1", 50, 100)
	cmd.Display = 10

	out, err := engine.Process(ctx, cmd)
	assert.NoError(t, err)
	assert.Equal(t, "0", out.TradeCost.String())

	// only the clip is visible in the depth
	depth, err := engine.Depth(1)
	assert.NoError(t, err)
	assert.Len(t, depth.Asks, 1)
	assert.Equal(t, "10", depth.Asks[0].Size.String())
}

func TestEngineValidation(t *testing.T) {
	ctx := context.Background()
	engine := startTestEngine(t, NewDiscardPublishLog())

	cases := []*protocol.Command{
		nil,
		{Type: protocol.CmdSubmit, OrderType: Limit, Side: Buy, OrderID: "", Quantity: 1, Price: 1},
		{Type: protocol.CmdSubmit, OrderType: Limit, Side: Buy, OrderID: "B1", Quantity: 0, Price: 1},
		{Type: protocol.CmdSubmit, OrderType: Limit, Side: Buy, OrderID: "B1", Quantity: 1, Price: 0},
		{Type: protocol.CmdSubmit, OrderType: Iceberg, Side: Buy, OrderID: "B1", Quantity: 10, Price: 100, Display: 0},
		{Type: protocol.CmdCancel, OrderID: ""},
		{Type: protocol.CmdReplace, OrderID: "B1", Quantity: -1, Price: 100},
		{Type: protocol.CmdReplace, OrderID: "B1", Quantity: 1, Price: 0},
	}

	for _, cmd := range cases {
		_, err := engine.Process(ctx, cmd)
		assert.ErrorIs(t, err, ErrInvalidParam)
	}

	// market orders carry no price and are still valid
	_, err := engine.Process(ctx, &protocol.Command{Type: protocol.CmdSubmit, OrderType: Market, Side: Buy, OrderID: "M1", Quantity: 1})
	assert.NoError(t, err)
}

func TestEngineShutdown(t *testing.T) {
	engine := NewEngine("TEST", NewDiscardPublishLog())
	go func() {
		_ = engine.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, engine.Shutdown(ctx))

	_, err := engine.Process(context.Background(), submitCmd(Limit, Buy, "B1", 1, 1))
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestEngineDeterministicReplay(t *testing.T) {
	ctx := context.Background()

	commands := []*protocol.Command{
		submitCmd(Limit, Sell, "S1", 10, 100),
		submitCmd(Limit, Sell, "S2", 5, 105),
		submitCmd(Limit, Buy, "B1", 4, 100),
		{Type: protocol.CmdReplace, OrderID: "S2", Quantity: 3, Price: 105},
		submitCmd(Market, Buy, "B2", 7, 0),
		{Type: protocol.CmdCancel, OrderID: "S1"},
		submitCmd(FOK, Buy, "B3", 3, 105),
		submitCmd(Limit, Buy, "B4", 2, 99),
		{Type: protocol.CmdEnd},
	}

	run := func() string {
		engine := startTestEngine(t, NewDiscardPublishLog())

		transcript := ""
		for _, cmd := range commands {
			out, err := engine.Process(ctx, cmd)
			assert.NoError(t, err)

			switch out.Kind {
			case OutcomeTradeCost:
				transcript += out.TradeCost.String() + "\n"
			case OutcomeEmpty:
				transcript += "\n"
			case OutcomeReport:
				transcript += protocol.FormatBookReport(out.Report) + "\n"
			}
		}
		return transcript
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}
