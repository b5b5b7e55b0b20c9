// Package store persists intermediate pipeline state as JSON files keyed by
// source document name. This is the sole persistence mechanism between
// stages; there is no database and no schema versioning beyond the embedded
// format version string.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rogerboy38/amb-print-app/internal/export"
	"github.com/rogerboy38/amb-print-app/internal/extract"
	"github.com/rogerboy38/amb-print-app/internal/mapping"
)

const (
	// FormatVersion is embedded in every stage file.
	FormatVersion = "1.0"

	dirPerm  = 0o750
	filePerm = 0o600

	extractSuffix  = ".extract.json"
	mappingSuffix  = ".mapping.json"
	artifactSuffix = ".artifact."
)

// envelope wraps every stage payload with its provenance.
type envelope struct {
	Version string          `json:"version"`
	Source  string          `json:"source"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Store reads and writes stage files under a workspace directory.
type Store struct {
	dir string
}

// New opens a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store: workspace directory cannot be empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("store: create workspace %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the workspace directory.
func (s *Store) Dir() string { return s.dir }

// SaveDocument persists an extracted document under the given source name.
func (s *Store) SaveDocument(name string, doc *extract.Document) error {
	return s.save(name, extractSuffix, name, doc)
}

// LoadDocument reads a previously saved extraction for the source name.
func (s *Store) LoadDocument(name string) (*extract.Document, error) {
	var doc extract.Document
	if err := s.load(name, extractSuffix, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveMapping persists a mapping under the given source name.
func (s *Store) SaveMapping(name string, m mapping.Mapping) error {
	return s.save(name, mappingSuffix, name, m)
}

// LoadMapping reads a previously saved mapping for the source name.
func (s *Store) LoadMapping(name string) (mapping.Mapping, error) {
	m := mapping.New()
	if err := s.load(name, mappingSuffix, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveArtifact persists a rendered artifact: the full artifact envelope plus
// the raw content next to it for direct inspection.
func (s *Store) SaveArtifact(name string, a *export.Artifact) error {
	if err := s.save(name, artifactSuffix+a.Format+".meta.json", name, a); err != nil {
		return err
	}
	raw := filepath.Join(s.dir, safeName(name)+artifactSuffix+a.Format)
	return atomicWrite(raw, []byte(a.Content))
}

// LoadArtifact reads a previously saved artifact in the given format.
func (s *Store) LoadArtifact(name, format string) (*export.Artifact, error) {
	var a export.Artifact
	if err := s.load(name, artifactSuffix+format+".meta.json", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) save(name, suffix, source string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: marshal %s%s: %w", name, suffix, err)
	}
	env := envelope{
		Version: FormatVersion,
		Source:  source,
		SavedAt: time.Now().UTC(),
		Data:    data,
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal envelope %s%s: %w", name, suffix, err)
	}
	return atomicWrite(filepath.Join(s.dir, safeName(name)+suffix), out)
}

func (s *Store) load(name, suffix string, payload any) error {
	path := filepath.Join(s.dir, safeName(name)+suffix)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, err)
	}
	if env.Version != FormatVersion {
		return fmt.Errorf("store: %s has format version %q, want %q", path, env.Version, FormatVersion)
	}
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return fmt.Errorf("store: decode payload of %s: %w", path, err)
	}
	return nil
}

// atomicWrite writes via a temp file and rename so readers never observe a
// partially written stage file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename to %s: %w", path, err)
	}
	return nil
}

// safeName flattens a document name into a filesystem-safe key.
func safeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(name)
}
