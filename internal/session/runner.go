package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/gopacket"

	"github.com/lanescope/lanescope/internal/capture"
	"github.com/lanescope/lanescope/internal/core"
	"github.com/lanescope/lanescope/pkg/plugin"
)

// Runner reads a capture file, decodes every packet through a Session, and
// hands the results to the configured reporters.
type Runner struct {
	opts      Options
	replay    bool
	reporters []plugin.Reporter

	stats          Stats
	totalLatencyNS uint64
}

// Stats counts what a run decoded.
type Stats struct {
	Records     uint64
	TLPs        uint64
	DLLPs       uint64
	OrderedSets uint64
	Unknown     uint64
	Errors      uint64
	Warnings    uint64

	// Completion latency over matched request/completion pairs.
	Completions  uint64
	AvgLatencyNS uint64
	MaxLatencyNS uint64
}

func NewRunner(opts Options, replay bool, reporters []plugin.Reporter) *Runner {
	return &Runner{opts: opts, replay: replay, reporters: reporters}
}

// Stats returns counters from the last Run.
func (r *Runner) Stats() Stats {
	s := r.stats
	if s.Completions > 0 {
		s.AvgLatencyNS = r.totalLatencyNS / s.Completions
	}
	return s
}

// Run decodes one capture file end to end. With replay enabled the file is
// read twice: the first pass fills the transaction tracker, the second pass
// reports, so requests carry links to completions seen later in the file.
func (r *Runner) Run(ctx context.Context, path string) error {
	for _, rep := range r.reporters {
		if err := rep.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reporter %s: %w", rep.Name(), err)
		}
	}
	defer func() {
		for _, rep := range r.reporters {
			if err := rep.Stop(ctx); err != nil {
				slog.Warn("reporter stop failed", "reporter", rep.Name(), "error", err)
			}
		}
	}()

	sess := New(r.opts)
	if r.replay {
		if err := r.pass(ctx, path, sess, false, false); err != nil {
			return err
		}
		return r.pass(ctx, path, sess, true, true)
	}
	return r.pass(ctx, path, sess, false, true)
}

func (r *Runner) pass(ctx context.Context, path string, sess *Session, revisit, report bool) error {
	reader, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	kind, err := reader.Kind()
	if err != nil {
		return err
	}

	var packetNum uint32
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, ci, err := reader.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		packetNum++

		d, err := r.decodeOne(sess, kind, data, ci, packetNum, revisit)
		if err != nil {
			if report {
				r.stats.Errors++
			}
			slog.Debug("packet decode failed", "packet", packetNum, "error", err)
			continue
		}
		if d == nil || !report {
			continue
		}
		r.count(d)
		rep := FromDecoded(d)
		for _, out := range r.reporters {
			if err := out.Report(ctx, rep); err != nil {
				slog.Warn("report failed", "reporter", out.Name(), "error", err)
			}
		}
	}
}

func (r *Runner) decodeOne(sess *Session, kind capture.Kind, data []byte, ci gopacket.CaptureInfo, packetNum uint32, revisit bool) (*Decoded, error) {
	switch kind {
	case capture.KindRecord:
		return sess.DecodeRecord(data, revisit)
	case capture.KindNetTLP:
		payload, ok := capture.NetTLPPayload(data)
		if !ok {
			return nil, nil
		}
		return sess.DecodeNetTLP(payload, packetNum, uint64(ci.Timestamp.UnixNano()), revisit)
	}
	return nil, nil
}

func (r *Runner) count(d *Decoded) {
	r.stats.Records++
	if d.Frame == nil {
		r.stats.Unknown++
		return
	}
	switch d.Frame.Kind {
	case core.FrameTLP:
		r.stats.TLPs++
	case core.FrameDLLP:
		r.stats.DLLPs++
	case core.FrameOrderedSet:
		r.stats.OrderedSets++
	default:
		r.stats.Unknown++
	}
	if d.Record != nil {
		r.stats.Warnings += uint64(len(d.Record.Warnings))
	}
	r.stats.Warnings += uint64(len(d.Frame.Warnings))
	if d.Frame.TLP != nil {
		r.stats.Warnings += uint64(len(d.Frame.TLP.Warnings))
	}
	if d.Frame.DLLP != nil {
		r.stats.Warnings += uint64(len(d.Frame.DLLP.Warnings))
	}
	if d.Link != nil && d.Link.HasRequest {
		r.stats.Completions++
		r.totalLatencyNS += d.Link.CompletionTimeNS
		if d.Link.CompletionTimeNS > r.stats.MaxLatencyNS {
			r.stats.MaxLatencyNS = d.Link.CompletionTimeNS
		}
	}
}
