// Package track correlates transaction layer requests with their
// completions across a capture.
package track

import (
	"sync"

	"github.com/lanescope/lanescope/internal/core"
)

// Transaction is the correlation state for one outstanding request.
type Transaction struct {
	ReqRecord      uint32
	ReqTimestampNS uint64
	ReqFmtType     uint8
	Completions    []uint32
}

// Table tracks in-flight transactions keyed by transaction ID and keeps a
// per-record index so revisits resolve without mutating state.
type Table struct {
	mu       sync.Mutex
	byTxID   map[uint32]*Transaction
	byRecord map[uint32]*Transaction
}

func NewTable() *Table {
	return &Table{
		byTxID:   make(map[uint32]*Transaction),
		byRecord: make(map[uint32]*Transaction),
	}
}

// txID combines the 10-bit tag and the requester ID into the transaction
// identifier completions are matched on.
func txID(t *core.TLP) uint32 {
	var requester core.DeviceID
	switch h := t.Header.(type) {
	case core.MemRequest:
		requester = h.Requester
	case core.IORequest:
		requester = h.Requester
	case core.CfgRequest:
		requester = h.Requester
	case core.MsgRequest:
		requester = h.Requester
	case core.Completion:
		requester = h.Requester
	}
	return uint32(t.Tag)<<16 | uint32(requester)
}

// Observe feeds one decoded TLP through the tracker and returns the
// transaction it belongs to, or nil for posted requests, unmatched
// completions, and TLPs without a decodable header.
//
// The first pass over a capture mutates the table; a revisit of an
// already-seen record resolves purely through the per-record index, so
// replaying records in any order yields the same associations.
func (tb *Table) Observe(recordNum uint32, timestampNS uint64, t *core.TLP, revisit bool) *Transaction {
	if t == nil || t.Header == nil {
		return nil
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	if revisit {
		return tb.byRecord[recordNum]
	}

	switch {
	case core.IsCompletion(t.FmtType):
		return tb.observeCompletion(recordNum, t)
	case core.IsPostedRequest(t.FmtType):
		return nil
	default:
		trans := &Transaction{
			ReqRecord:      recordNum,
			ReqTimestampNS: timestampNS,
			ReqFmtType:     t.FmtType,
		}
		tb.byTxID[txID(t)] = trans
		tb.byRecord[recordNum] = trans
		return trans
	}
}

func (tb *Table) observeCompletion(recordNum uint32, t *core.TLP) *Transaction {
	id := txID(t)
	trans := tb.byTxID[id]
	if trans == nil {
		return nil
	}
	tb.byRecord[recordNum] = trans
	trans.Completions = append(trans.Completions, recordNum)

	cpl, ok := t.Header.(core.Completion)
	if ok && tb.settled(trans, t, cpl) {
		delete(tb.byTxID, id)
	}
	return trans
}

// settled reports whether no further completions can follow for the
// transaction: config requests complete exactly once, any unsuccessful
// status terminates the exchange, and otherwise the completion must carry
// at least the dword count implied by its byte count and lower address.
func (tb *Table) settled(trans *Transaction, t *core.TLP, cpl core.Completion) bool {
	if core.IsConfigRequest(trans.ReqFmtType) {
		return true
	}
	if cpl.Status != core.StatusSuccessful {
		return true
	}
	expectedDW := (uint32(cpl.LowerAddr&0x3) + uint32(cpl.ByteCount) + 3) / 4
	return uint32(t.Length) >= expectedDW
}
