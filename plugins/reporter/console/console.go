// Package console implements the console reporter. It prints one line per
// decoded record to stdout for interactive use.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/lanescope/lanescope/pkg/models"
	"github.com/lanescope/lanescope/pkg/plugin"
)

// ConsoleReporter outputs decoded records to stdout.
type ConsoleReporter struct {
	name          string
	format        string // "json" or "text"
	reportedCount atomic.Uint64
}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() plugin.Reporter {
	return &ConsoleReporter{
		name:   "console",
		format: "text",
	}
}

// Name returns the plugin name.
func (r *ConsoleReporter) Name() string {
	return r.name
}

// Init initializes the reporter with configuration.
func (r *ConsoleReporter) Init(cfg map[string]any) error {
	if cfg == nil {
		return nil
	}
	if format, ok := cfg["format"].(string); ok {
		if format != "json" && format != "text" {
			return fmt.Errorf("invalid format %q, must be json or text", format)
		}
		r.format = format
	}
	return nil
}

// Start starts the reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	slog.Debug("console reporter started", "format", r.format)
	return nil
}

// Stop stops the reporter.
func (r *ConsoleReporter) Stop(ctx context.Context) error {
	slog.Debug("console reporter stopped", "total_reported", r.reportedCount.Load())
	return nil
}

// Report outputs one record to stdout.
func (r *ConsoleReporter) Report(ctx context.Context, rep *models.Report) error {
	if rep == nil {
		return fmt.Errorf("nil report")
	}
	r.reportedCount.Add(1)

	if r.format == "json" {
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("json marshal failed: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%6d %14d %-6s %-18s %-18s %s",
		rep.Record, rep.TimestampNS, rep.Protocol, rep.Src, rep.Dst, rep.Info)
	if rep.RequestRecord != nil {
		fmt.Printf("  [req #%d, %d ns]", *rep.RequestRecord, rep.CompletionTimeNS)
	}
	if len(rep.Warnings) > 0 {
		fmt.Printf("  !%s", strings.Join(rep.Warnings, "; "))
	}
	fmt.Println()
	return nil
}

// Flush is a no-op; stdout is unbuffered here.
func (r *ConsoleReporter) Flush(ctx context.Context) error {
	return nil
}
