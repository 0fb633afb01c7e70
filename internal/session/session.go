// Package session drives record decoding and transaction correlation for
// one capture.
package session

import (
	"fmt"
	"sync"

	"github.com/lanescope/lanescope/internal/core"
	"github.com/lanescope/lanescope/internal/core/decoder"
	"github.com/lanescope/lanescope/internal/core/track"
)

// Link describes how a decoded TLP relates to the rest of its transaction.
type Link struct {
	CompletionRecords []uint32

	HasRequest         bool
	RequestRecord      uint32
	CompletionTimeNS   uint64
	SiblingCompletions []uint32
}

// Decoded is the full decode result for one capture record.
type Decoded struct {
	Number      uint32
	TimestampNS uint64

	Record  *core.CaptureRecord
	Frame   *core.Frame
	Link    *Link
	Summary core.Summary
}

// Options control optional decode stages.
type Options struct {
	// Track enables request/completion correlation.
	Track bool
	// Meta keeps the decoded symbol metadata region on each record.
	Meta bool
}

// DefaultOptions enables every decode stage.
func DefaultOptions() Options {
	return Options{Track: true, Meta: true}
}

// Session decodes records from one capture and correlates transactions
// across them. It is safe for concurrent use.
type Session struct {
	opts  Options
	mu    sync.Mutex
	table *track.Table
}

func New(opts Options) *Session {
	return &Session{opts: opts, table: track.NewTable()}
}

// DecodeRecord decodes one capture record. Set revisit when the record has
// already been through the session once; revisits resolve transaction links
// without changing tracker state.
func (s *Session) DecodeRecord(data []byte, revisit bool) (*Decoded, error) {
	rec, err := decoder.DecodeRecord(data)
	if err != nil {
		return nil, err
	}

	if !s.opts.Meta {
		rec.Meta = nil
	}

	d := &Decoded{Number: rec.Number, TimestampNS: rec.TimestampNS, Record: rec}
	if len(rec.Payload) > 0 {
		frame, err := decoder.DecodeFrame(rec.Payload)
		if err != nil {
			rec.Warnings = append(rec.Warnings, core.Warning{
				Field: "frame", Offset: 20, Len: len(rec.Payload),
				Msg: fmt.Sprintf("frame decode failed: %v", err),
			})
		}
		d.Frame = frame
	}

	if d.Frame != nil && d.Frame.Kind == core.FrameTLP && d.Frame.TLP != nil {
		d.Link = s.observe(rec.Number, rec.TimestampNS, d.Frame.TLP, revisit)
	}

	d.Summary = core.Summarize(rec, d.Frame)
	return d, nil
}

// DecodeNetTLP decodes one tunneled TLP. The record number and timestamp
// come from the enclosing packet capture rather than a record envelope.
func (s *Session) DecodeNetTLP(data []byte, recordNum uint32, timestampNS uint64, revisit bool) (*Decoded, error) {
	hdr, tlp, err := decoder.DecodeNetTLP(data)
	if err != nil {
		return nil, err
	}

	d := &Decoded{
		Number:      recordNum,
		TimestampNS: timestampNS,
		Frame:       &core.Frame{Kind: core.FrameTLP, Raw: data, Seq: hdr.Sequence, TLP: tlp},
	}
	d.Link = s.observe(recordNum, timestampNS, tlp, revisit)
	d.Summary = core.Summary{
		Protocol: "NetTLP",
		Info:     core.Summarize(&core.CaptureRecord{}, d.Frame).Info,
	}
	return d, nil
}

func (s *Session) observe(recordNum uint32, timestampNS uint64, tlp *core.TLP, revisit bool) *Link {
	if !s.opts.Track {
		return nil
	}
	s.mu.Lock()
	trans := s.table.Observe(recordNum, timestampNS, tlp, revisit)
	s.mu.Unlock()
	if trans == nil {
		return nil
	}

	link := &Link{}
	if core.IsCompletion(tlp.FmtType) {
		link.HasRequest = true
		link.RequestRecord = trans.ReqRecord
		if timestampNS >= trans.ReqTimestampNS {
			link.CompletionTimeNS = timestampNS - trans.ReqTimestampNS
		}
		for _, num := range trans.Completions {
			if num == recordNum {
				continue
			}
			link.SiblingCompletions = append(link.SiblingCompletions, num)
		}
	} else {
		link.CompletionRecords = append(link.CompletionRecords, trans.Completions...)
	}
	return link
}
