// Package migrate wires the pipeline stages together: extract, map, validate,
// export, upload. Each document is processed start to finish; stages hand off
// through JSON stage files in the workspace store.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rogerboy38/amb-print-app/internal/export"
	"github.com/rogerboy38/amb-print-app/internal/extract"
	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/schema"
	"github.com/rogerboy38/amb-print-app/internal/store"
)

// Uploader pushes rendered artifacts to the target platform. Satisfied by
// *erpnext.Client.
type Uploader interface {
	UploadPrintFormat(ctx context.Context, a *export.Artifact) error
}

// Job describes one document migration.
type Job struct {
	ID            string
	Source        string        // path to the source PDF
	DocType       string        // target DocType name
	Name          string        // target print format name; defaults from the source file
	OverridesPath string        // optional JSON file with operator overrides
	Formats       []export.Kind // render targets; defaults to HTML and JSON
	Upload        bool
}

// Outcome reports what happened to a single job.
type Outcome struct {
	JobID      string             `json:"job_id"`
	Source     string             `json:"source"`
	Name       string             `json:"name"`
	Validation mapping.Result     `json:"validation"`
	Artifacts  []*export.Artifact `json:"artifacts,omitempty"`
	Uploaded   bool               `json:"uploaded"`
}

// Service runs jobs through the pipeline.
type Service struct {
	extractor *extract.Extractor
	mapper    *mapping.Mapper
	registry  *schema.Registry
	store     *store.Store
	uploader  Uploader
	expOpts   export.Options
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithUploader sets the upload client; without one, jobs requesting upload
// fail.
func WithUploader(u Uploader) ServiceOption {
	return func(s *Service) { s.uploader = u }
}

// WithExportOptions sets the metadata stamped on artifacts.
func WithExportOptions(o export.Options) ServiceOption {
	return func(s *Service) { s.expOpts = o }
}

// WithServiceLogger sets a custom logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service with the given collaborators.
func NewService(ex *extract.Extractor, mp *mapping.Mapper, reg *schema.Registry,
	st *store.Store, opts ...ServiceOption,
) *Service {
	s := &Service{
		extractor: ex,
		mapper:    mp,
		registry:  reg,
		store:     st,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run processes one job end to end: extract the source PDF, then hand off to
// Process.
func (s *Service) Run(ctx context.Context, job Job) (*Outcome, error) {
	doc, err := s.extractor.Extract(job.Source)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, job, doc)
}

// Process runs the post-extraction stages on an already extracted document.
// Validation gates export: an invalid mapping stops the job and the outcome
// carries the per-field errors.
func (s *Service) Process(ctx context.Context, job Job, doc *extract.Document) (*Outcome, error) {
	if job.Name == "" {
		job.Name = defaultName(job.Source)
	}
	if len(job.Formats) == 0 {
		job.Formats = []export.Kind{export.KindHTML, export.KindJSON}
	}

	dt, err := s.registry.Get(job.DocType)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveDocument(job.Name, doc); err != nil {
		return nil, err
	}

	m := s.mapper.Propose(doc, dt)
	if job.OverridesPath != "" {
		overrides, err := LoadOverrides(job.OverridesPath)
		if err != nil {
			return nil, err
		}
		m.Apply(overrides)
	}
	if err := s.store.SaveMapping(job.Name, m); err != nil {
		return nil, err
	}

	outcome := &Outcome{JobID: job.ID, Source: job.Source, Name: job.Name}
	outcome.Validation = mapping.Validate(m, dt)
	if !outcome.Validation.Valid {
		s.logger.Warn("mapping failed validation",
			"source", job.Source, "doctype", dt.Name,
			"errors", strings.Join(outcome.Validation.Errors, "; "))
		return outcome, fmt.Errorf("mapping for %s failed validation: %s",
			job.Source, strings.Join(outcome.Validation.Errors, "; "))
	}

	for _, kind := range job.Formats {
		exp, err := export.New(kind, s.expOpts)
		if err != nil {
			return outcome, err
		}
		a, err := exp.Render(job.Name, m, dt)
		if err != nil {
			return outcome, err
		}
		if err := s.store.SaveArtifact(job.Name, a); err != nil {
			return outcome, err
		}
		outcome.Artifacts = append(outcome.Artifacts, a)
	}

	if job.Upload {
		if s.uploader == nil {
			return outcome, fmt.Errorf("job %s requests upload but no upload client is configured", job.Name)
		}
		for _, a := range outcome.Artifacts {
			if a.Format != export.KindHTML.String() {
				continue
			}
			if err := s.uploader.UploadPrintFormat(ctx, a); err != nil {
				return outcome, err
			}
			outcome.Uploaded = true
		}
	}

	s.logger.Info("job completed",
		"job", job.ID, "source", job.Source, "name", job.Name,
		"artifacts", len(outcome.Artifacts), "uploaded", outcome.Uploaded)
	return outcome, nil
}

// LoadOverrides reads an operator override mapping from a JSON file.
func LoadOverrides(path string) (mapping.Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}
	m := mapping.New()
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	return m, nil
}

// defaultName derives the print format name from the source file name.
func defaultName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
