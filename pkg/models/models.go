// Package models re-exports core types for external use.
package models

import (
	"github.com/lanescope/lanescope/internal/core"
)

// Re-export core record types for plugins
type (
	CaptureRecord = core.CaptureRecord
	Frame         = core.Frame
	TLP           = core.TLP
	DLLP          = core.DLLP
	Summary       = core.Summary
	Warning       = core.Warning
)

// Report is the flattened per-record view handed to reporter plugins.
type Report struct {
	Record      uint32   `json:"record"`
	TimestampNS uint64   `json:"timestamp_ns"`
	Protocol    string   `json:"protocol"`
	Src         string   `json:"src"`
	Dst         string   `json:"dst"`
	Info        string   `json:"info"`
	Warnings    []string `json:"warnings,omitempty"`

	CompletionRecords  []uint32 `json:"completion_records,omitempty"`
	RequestRecord      *uint32  `json:"request_record,omitempty"`
	CompletionTimeNS   uint64   `json:"completion_time_ns,omitempty"`
	SiblingCompletions []uint32 `json:"sibling_completions,omitempty"`
}
