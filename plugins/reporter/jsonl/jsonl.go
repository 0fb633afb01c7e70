// Package jsonl implements a reporter that appends decoded records to a
// file as JSON lines.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/lanescope/lanescope/pkg/models"
	"github.com/lanescope/lanescope/pkg/plugin"
)

type options struct {
	Path string `mapstructure:"path"`
}

// JSONLReporter writes one JSON object per record to a file.
type JSONLReporter struct {
	name string
	path string
	log  *logrus.Entry

	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
	enc  *json.Encoder
}

// NewJSONLReporter creates a new JSON lines reporter.
func NewJSONLReporter() plugin.Reporter {
	return &JSONLReporter{
		name: "jsonl",
		log:  logrus.WithField("reporter", "jsonl"),
	}
}

// Name returns the plugin name.
func (r *JSONLReporter) Name() string {
	return r.name
}

// Init initializes the reporter with configuration.
func (r *JSONLReporter) Init(cfg map[string]any) error {
	var opts options
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return fmt.Errorf("invalid jsonl reporter options: %w", err)
	}
	if opts.Path == "" {
		return fmt.Errorf("jsonl reporter requires 'path' option")
	}
	r.path = opts.Path
	return nil
}

// Start opens the output file.
func (r *JSONLReporter) Start(ctx context.Context) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file %s: %w", r.path, err)
	}
	r.mu.Lock()
	r.file = f
	r.w = bufio.NewWriter(f)
	r.enc = json.NewEncoder(r.w)
	r.mu.Unlock()
	r.log.WithField("path", r.path).Debug("jsonl reporter started")
	return nil
}

// Stop flushes and closes the output file.
func (r *JSONLReporter) Stop(ctx context.Context) error {
	if err := r.Flush(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Report appends one record to the file.
func (r *JSONLReporter) Report(ctx context.Context, rep *models.Report) error {
	if rep == nil {
		return fmt.Errorf("nil report")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return fmt.Errorf("jsonl reporter not started")
	}
	return r.enc.Encode(rep)
}

// Flush writes buffered lines out.
func (r *JSONLReporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	return r.w.Flush()
}
