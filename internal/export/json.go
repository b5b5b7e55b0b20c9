package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/schema"
)

// printFormatDoc is the ERPNext "Print Format" resource document, mirroring
// the mapping plus field metadata. Field order is fixed by the struct so the
// rendered document is byte-identical across calls.
type printFormatDoc struct {
	Doctype         string           `json:"doctype"`
	Name            string           `json:"name"`
	DocTypeTarget   string           `json:"doc_type"`
	Module          string           `json:"module"`
	PrintFormatType string           `json:"print_format_type"`
	Standard        string           `json:"standard"`
	Version         string           `json:"version"`
	Author          string           `json:"author,omitempty"`
	Fields          []printFieldDoc  `json:"fields"`
	Mapping         mapping.Mapping  `json:"mapping"`
}

type printFieldDoc struct {
	Fieldname string   `json:"fieldname"`
	Label     string   `json:"label"`
	Fieldtype string   `json:"fieldtype"`
	Mandatory bool     `json:"mandatory"`
	Mapped    bool     `json:"mapped"`
	Columns   []string `json:"columns,omitempty"`
}

// JSONExporter renders the structured JSON artifact.
type JSONExporter struct {
	opts Options
}

// Kind returns KindJSON.
func (e *JSONExporter) Kind() Kind { return KindJSON }

// Render produces the JSON artifact for the mapping. It fails with
// *RenderError when the mapping does not pass validation.
func (e *JSONExporter) Render(name string, m mapping.Mapping, dt *schema.DocType) (*Artifact, error) {
	res, err := checkValid(name, m, dt)
	if err != nil {
		return nil, err
	}

	doc := printFormatDoc{
		Doctype:         "Print Format",
		Name:            name,
		DocTypeTarget:   dt.Name,
		Module:          "Custom",
		PrintFormatType: "Jinja",
		Standard:        "No",
		Version:         e.opts.Version,
		Author:          e.opts.Author,
		Fields:          make([]printFieldDoc, 0, len(dt.Fields)),
		Mapping:         m,
	}
	for _, f := range dt.Fields {
		doc.Fields = append(doc.Fields, printFieldDoc{
			Fieldname: f.Fieldname,
			Label:     f.Label,
			Fieldtype: string(f.Type),
			Mandatory: f.Mandatory,
			Mapped:    m.Has(f.Fieldname),
			Columns:   f.Columns,
		})
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal print format %q: %w", name, err)
	}

	return &Artifact{
		Name:        name,
		DocType:     dt.Name,
		Format:      KindJSON.String(),
		Version:     e.opts.Version,
		Author:      e.opts.Author,
		Content:     string(content) + "\n",
		GeneratedAt: time.Now().UTC(),
		Status:      StatusSuccess,
		Errors:      []string{},
		Warnings:    res.Warnings,
	}, nil
}
