// Package export renders a validated Mapping into upload-ready artifacts: a
// Jinja-style HTML print-format template and a structured JSON document.
package export

import (
	"fmt"

	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/schema"
)

// Kind is the closed set of render targets.
type Kind int

const (
	KindHTML Kind = iota
	KindJSON
)

// String returns the artifact format name for the kind.
func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a format name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "html":
		return KindHTML, nil
	case "json":
		return KindJSON, nil
	default:
		return 0, fmt.Errorf("unknown export format %q (want html or json)", s)
	}
}

// Exporter renders a Mapping into an Artifact for one target format. Every
// implementation re-checks validity and refuses to render an invalid mapping.
type Exporter interface {
	Kind() Kind
	Render(name string, m mapping.Mapping, dt *schema.DocType) (*Artifact, error)
}

// Options carries the metadata stamped on rendered artifacts.
type Options struct {
	Version string
	Author  string
}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = "1.0.0"
	}
	return o
}

// New returns the exporter for the given kind.
func New(kind Kind, opts Options) (Exporter, error) {
	opts = opts.withDefaults()
	switch kind {
	case KindHTML:
		return &HTMLExporter{opts: opts}, nil
	case KindJSON:
		return &JSONExporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown exporter kind %d", int(kind))
	}
}

// checkValid gates rendering on a fresh validation run. A caller's prior
// validation is never trusted.
func checkValid(name string, m mapping.Mapping, dt *schema.DocType) (mapping.Result, error) {
	res := mapping.Validate(m, dt)
	if !res.Valid {
		return res, &RenderError{Name: name, DocType: dt.Name, Errors: res.Errors}
	}
	return res, nil
}
