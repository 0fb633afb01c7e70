package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lanescope/lanescope/pkg/models"
)

func TestJSONLReporterInit(t *testing.T) {
	r := NewJSONLReporter()
	if err := r.Init(map[string]any{}); err == nil {
		t.Error("Expected an error without a path option")
	}
	if err := r.Init(map[string]any{"path": ""}); err == nil {
		t.Error("Expected an error for an empty path")
	}
	if err := r.Init(map[string]any{"path": "/tmp/out.jsonl"}); err != nil {
		t.Errorf("Init failed: %v", err)
	}
}

func TestJSONLReporterWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	ctx := context.Background()

	r := NewJSONLReporter()
	if err := r.Init(map[string]any{"path": path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reqRecord := uint32(1)
	reports := []*models.Report{
		{Record: 1, TimestampNS: 100, Protocol: "PCIe", Info: "MRd @ 0x00001000"},
		{
			Record: 2, TimestampNS: 2500, Protocol: "PCIe", Info: "CplD, 1 dw, SC",
			RequestRecord: &reqRecord, CompletionTimeNS: 2400,
		},
	}
	for _, rep := range reports {
		if err := r.Report(ctx, rep); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
	}
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()

	var lines []models.Report
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rep models.Report
		if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
			t.Fatalf("Line does not parse as JSON: %v", err)
		}
		lines = append(lines, rep)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Record != 1 || lines[0].Info != "MRd @ 0x00001000" {
		t.Errorf("Unexpected first line: %+v", lines[0])
	}
	if lines[1].RequestRecord == nil || *lines[1].RequestRecord != 1 {
		t.Errorf("Expected request record 1 on the completion line, got %+v", lines[1].RequestRecord)
	}
	if lines[1].CompletionTimeNS != 2400 {
		t.Errorf("Expected completion time 2400, got %d", lines[1].CompletionTimeNS)
	}
}

func TestJSONLReporterNotStarted(t *testing.T) {
	r := NewJSONLReporter()
	if err := r.Init(map[string]any{"path": "/tmp/out.jsonl"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := r.Report(context.Background(), &models.Report{}); err == nil {
		t.Error("Expected an error before Start")
	}
}
