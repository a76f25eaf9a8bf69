package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	match "github.com/alphalab/matching-core"
	"github.com/alphalab/matching-core/protocol"
)

// matching-engine reads one command per line from stdin and writes each
// command's result to stdout:
//
//	SUB  -> total cost of the trades it triggered
//	CXL  -> nothing
//	CRP  -> an empty line
//	END  -> the remaining book, then exit
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// stdout carries the command results; everything else goes to stderr.
	match.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	aggregated := match.NewAggregatedBook()
	publish := match.NewRingPublishLog(aggregated, match.DefaultRingCapacity)

	engine := match.NewEngine("BOOK", publish)
	go func() {
		_ = engine.Start()
	}()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := protocol.Parse(line)
		if err != nil {
			return fmt.Errorf("parse %q: %w", line, err)
		}

		outcome, err := engine.Process(context.Background(), cmd)
		if err != nil {
			return fmt.Errorf("process %q: %w", line, err)
		}

		switch outcome.Kind {
		case match.OutcomeTradeCost:
			fmt.Fprintln(out, outcome.TradeCost.String())
		case match.OutcomeEmpty:
			fmt.Fprintln(out)
		case match.OutcomeReport:
			fmt.Fprintln(out, protocol.FormatBookReport(outcome.Report))
			out.Flush()
			return shutdown(engine, publish)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	// Input ended without an END command.
	return shutdown(engine, publish)
}

func shutdown(engine *match.Engine, publish *match.RingPublishLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := engine.Shutdown(ctx); err != nil {
		return err
	}
	return publish.Shutdown(ctx)
}
