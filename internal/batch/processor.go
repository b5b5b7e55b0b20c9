// Package batch runs the migration pipeline over directories of PDFs.
// Documents are independent, so a bounded worker pool may process them in
// parallel with no ordering guarantee between documents.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rogerboy38/amb-print-app/internal/migrate"
)

// Runner processes a single document job. Satisfied by *migrate.Service.
type Runner interface {
	Run(ctx context.Context, job migrate.Job) (*migrate.Outcome, error)
}

// DocError records a per-document failure.
type DocError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Results aggregates a batch run.
type Results struct {
	Processed int        `json:"processed"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []DocError `json:"errors"`
}

// Processor fans documents out to a Runner.
type Processor struct {
	runner  Runner
	docType string
	upload  bool
	workers int
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers bounds the number of documents processed concurrently.
// Defaults to 1 (fully sequential).
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithUpload enables uploading rendered templates for every document.
func WithUpload(upload bool) ProcessorOption {
	return func(p *Processor) { p.upload = upload }
}

// WithProcessorLogger sets a custom logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor creates a Processor targeting one DocType.
func NewProcessor(runner Runner, docType string, opts ...ProcessorOption) *Processor {
	p := &Processor{
		runner:  runner,
		docType: docType,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes every PDF in dir. Per-document failures are collected, not
// fatal; the batch keeps going. Partially completed uploads are left as-is.
func (p *Processor) Run(ctx context.Context, dir string) (*Results, error) {
	sources, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}

	res := &Results{Errors: []DocError{}}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)

	for _, source := range sources {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(source string) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := p.process(ctx, source)
			mu.Lock()
			defer mu.Unlock()
			res.Processed++
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, DocError{Source: source, Error: err.Error()})
				return
			}
			res.Succeeded++
		}(source)
	}
	wg.Wait()

	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Source < res.Errors[j].Source })

	p.logger.Info("batch completed",
		"dir", dir, "processed", res.Processed,
		"succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

// Process runs a single source through the pipeline with a fresh job ID.
func (p *Processor) Process(ctx context.Context, source string) (*migrate.Outcome, error) {
	return p.process(ctx, source)
}

func (p *Processor) process(ctx context.Context, source string) (*migrate.Outcome, error) {
	job := migrate.Job{
		ID:      uuid.NewString(),
		Source:  source,
		DocType: p.docType,
		Upload:  p.upload,
	}
	p.logger.Debug("processing document", "job", job.ID, "source", source)
	return p.runner.Run(ctx, job)
}

// listPDFs returns the PDF files directly under dir, sorted by name.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: read input directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
