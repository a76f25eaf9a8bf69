package match

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/alphalab/matching-core/protocol"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

type loopCommandType uint8

const (
	loopProcess loopCommandType = iota
	loopDepth
	loopStats
	loopSnapshot
)

// loopCommand is the unified carrier for everything entering the engine
// loop: trading commands and read requests share one channel so that all
// observations are ordered against mutations.
type loopCommand struct {
	typ   loopCommandType
	cmd   *protocol.Command
	limit uint32
	resp  chan any
}

// Engine runs one OrderBook as a single-writer actor: a lone goroutine
// owns the book and applies commands strictly in arrival order, one at a
// time, to completion. Callers get their outcome synchronously through a
// per-command response channel, so the asynchronous loop never reorders
// or overlaps work.
type Engine struct {
	runID            string
	book             *OrderBook
	publish          PublishLog
	isShutdown       atomic.Bool
	cmdChan          chan loopCommand
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewEngine creates an engine for one instrument. The run ID is a fresh
// xid per engine instance, used to correlate log lines across restarts.
func NewEngine(symbol string, publish PublishLog) *Engine {
	return &Engine{
		runID:            xid.New().String(),
		book:             NewOrderBook(symbol),
		publish:          publish,
		cmdChan:          make(chan loopCommand, DefaultCommandBuffer),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// RunID returns the engine instance identifier.
func (e *Engine) RunID() string {
	return e.runID
}

// Process submits one command and blocks until the engine loop has
// applied it, returning the command's outcome. Commands from concurrent
// callers are serialized in channel arrival order.
func (e *Engine) Process(ctx context.Context, cmd *protocol.Command) (Outcome, error) {
	if e.isShutdown.Load() {
		return Outcome{}, ErrShutdown
	}

	if err := validateCommand(cmd); err != nil {
		return Outcome{}, err
	}

	resp := make(chan any, 1)

	select {
	case e.cmdChan <- loopCommand{typ: loopProcess, cmd: cmd, resp: resp}:
	case <-ctx.Done():
		return Outcome{}, ErrTimeout
	}

	select {
	case res := <-resp:
		out, _ := res.(Outcome)
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ErrTimeout
	}
}

// Depth returns the current book depth up to limit levels per side.
// It goes through the engine loop so the view is consistent with the
// command stream.
func (e *Engine) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	res, err := e.roundTrip(loopCommand{typ: loopDepth, limit: limit})
	if err != nil {
		return nil, err
	}
	depth, _ := res.(*Depth)
	return depth, nil
}

// Stats returns usage statistics for the book.
func (e *Engine) Stats() (*BookStats, error) {
	res, err := e.roundTrip(loopCommand{typ: loopStats})
	if err != nil {
		return nil, err
	}
	stats, _ := res.(*BookStats)
	return stats, nil
}

// TakeSnapshot captures the current book state through the engine loop.
func (e *Engine) TakeSnapshot() (*BookSnapshot, error) {
	res, err := e.roundTrip(loopCommand{typ: loopSnapshot})
	if err != nil {
		return nil, err
	}
	snap, _ := res.(*BookSnapshot)
	return snap, nil
}

// Restore rebuilds the book from a snapshot. Must be called before
// Start; the engine loop does not guard against concurrent restores.
func (e *Engine) Restore(snap *BookSnapshot) {
	e.book.Restore(snap)
}

func (e *Engine) roundTrip(c loopCommand) (any, error) {
	c.resp = make(chan any, 1)

	select {
	case e.cmdChan <- c:
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-c.resp:
		return res, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Start runs the engine loop until Shutdown. Returns nil once all
// pending commands have been drained.
func (e *Engine) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	logger.Info("engine started",
		"run_id", e.runID,
		"symbol", e.book.Symbol(),
		"version", EngineVersion)

	for {
		select {
		case <-e.done:
			return e.drain()
		case c := <-e.cmdChan:
			e.apply(c)
		}
	}
}

// Shutdown signals the loop to stop accepting commands and waits for the
// pending ones to be processed, or for the context to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.isShutdown.CompareAndSwap(false, true) {
		close(e.done)
	}

	select {
	case <-e.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes everything left in the command channel before
// returning.
func (e *Engine) drain() error {
	defer close(e.shutdownComplete)

	for {
		select {
		case c := <-e.cmdChan:
			e.apply(c)
		default:
			return nil
		}
	}
}

func (e *Engine) apply(c loopCommand) {
	switch c.typ {
	case loopProcess:
		respond(c.resp, e.applyCommand(c.cmd))
	case loopDepth:
		respond(c.resp, e.book.Depth(c.limit))
	case loopStats:
		respond(c.resp, e.book.Stats())
	case loopSnapshot:
		respond(c.resp, e.book.Snapshot())
	}
}

func respond(resp chan any, v any) {
	if resp == nil {
		return
	}
	select {
	case resp <- v:
	default:
		// Non-blocking send; if no one is listening, drop it.
	}
}

// applyCommand mutates the book for one trading command and publishes
// the resulting logs.
func (e *Engine) applyCommand(cmd *protocol.Command) Outcome {
	switch cmd.Type {
	case protocol.CmdSubmit:
		cost, logs := e.book.Submit(orderFromCommand(cmd))
		e.publishLogs(logs)
		return Outcome{Kind: OutcomeTradeCost, TradeCost: cost}
	case protocol.CmdCancel:
		e.publishLogs(e.book.Cancel(cmd.OrderID))
		return Outcome{Kind: OutcomeNone}
	case protocol.CmdReplace:
		logs := e.book.Replace(cmd.OrderID, decimal.NewFromInt(cmd.Quantity), decimal.NewFromInt(cmd.Price))
		e.publishLogs(logs)
		return Outcome{Kind: OutcomeEmpty}
	case protocol.CmdEnd:
		return Outcome{Kind: OutcomeReport, Report: e.book.Report()}
	default:
		logger.Warn("unknown command type", "run_id", e.runID, "type", cmd.Type)
		return Outcome{Kind: OutcomeNone}
	}
}

func (e *Engine) publishLogs(logs []*BookLog) {
	if len(logs) == 0 {
		return
	}
	e.publish.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}

// orderFromCommand converts a validated protocol command into book state.
// For icebergs the command quantity is the hidden total and the resting
// size starts at min(total, display).
func orderFromCommand(cmd *protocol.Command) *Order {
	order := &Order{
		ID:        cmd.OrderID,
		Side:      cmd.Side,
		Type:      cmd.OrderType,
		Price:     decimal.NewFromInt(cmd.Price),
		Size:      decimal.NewFromInt(cmd.Quantity),
		Timestamp: time.Now().UnixNano(),
	}

	if cmd.OrderType == Iceberg {
		order.TotalSize = decimal.NewFromInt(cmd.Quantity)
		order.DisplaySize = decimal.NewFromInt(cmd.Display)
		order.Size = decimal.Min(order.TotalSize, order.DisplaySize)
	}

	return order
}

// validateCommand checks the structural contract: commands reaching the
// matching loop are well-formed. Violations are caller bugs, reported as
// ErrInvalidParam.
func validateCommand(cmd *protocol.Command) error {
	if cmd == nil {
		return ErrInvalidParam
	}

	switch cmd.Type {
	case protocol.CmdSubmit:
		if cmd.OrderID == "" || cmd.Quantity <= 0 {
			return ErrInvalidParam
		}
		switch cmd.OrderType {
		case Market:
			return nil
		case Limit, IOC, FOK:
			if cmd.Price <= 0 {
				return ErrInvalidParam
			}
			return nil
		case Iceberg:
			if cmd.Price <= 0 || cmd.Display <= 0 {
				return ErrInvalidParam
			}
			return nil
		default:
			return ErrInvalidParam
		}
	case protocol.CmdCancel:
		if cmd.OrderID == "" {
			return ErrInvalidParam
		}
		return nil
	case protocol.CmdReplace:
		if cmd.OrderID == "" || cmd.Quantity < 0 || cmd.Price <= 0 {
			return ErrInvalidParam
		}
		return nil
	case protocol.CmdEnd:
		return nil
	default:
		return ErrInvalidParam
	}
}
