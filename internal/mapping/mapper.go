package mapping

import (
	"log/slog"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/rogerboy38/amb-print-app/internal/extract"
	"github.com/rogerboy38/amb-print-app/internal/schema"
)

const (
	// defaultMinSimilarity is the label match threshold below which no
	// proposal is made for a field.
	defaultMinSimilarity = 0.75

	// sameRowTolerance bounds the vertical distance between a label span
	// and a value span considered to sit on the same line.
	sameRowTolerance = 6.0

	// sameColumnTolerance bounds the horizontal offset between a label
	// span and a value span directly below it.
	sameColumnTolerance = 30.0
)

// Mapper proposes a Mapping from extracted elements. Proposals are a
// convenience, not a guarantee: the authoritative mapping is whatever the
// operator asserts via overrides. No field is asserted without a concrete
// value.
type Mapper struct {
	minSimilarity float64
	params        *levenshtein.Params
	logger        *slog.Logger
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithMinSimilarity overrides the label match threshold (0..1).
func WithMinSimilarity(s float64) MapperOption {
	return func(m *Mapper) { m.minSimilarity = s }
}

// WithMapperLogger sets a custom logger.
func WithMapperLogger(l *slog.Logger) MapperOption {
	return func(m *Mapper) { m.logger = l }
}

// NewMapper creates a Mapper with the given options.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		minSimilarity: defaultMinSimilarity,
		params:        levenshtein.NewParams(),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Propose pre-populates a Mapping for the DocType from the extracted
// document. Scalar fields match by label similarity against text spans, with
// the nearest span to the right or below as the candidate value. Table fields
// match detected tables by header row. Fields with no confident candidate are
// left absent.
func (m *Mapper) Propose(doc *extract.Document, dt *schema.DocType) Mapping {
	out := New()
	texts := doc.TextElements()
	tables := doc.TableElements()

	for _, f := range dt.Fields {
		if f.IsTable() {
			if rows, ok := m.matchTable(tables, f); ok {
				out.SetRows(f.Fieldname, rows)
			}
			continue
		}
		if value, ok := m.matchScalar(texts, f); ok {
			out.Set(f.Fieldname, value)
		}
	}

	m.logger.Debug("proposed mapping",
		"doctype", dt.Name, "source", doc.Source,
		"mapped", len(out), "fields", len(dt.Fields))
	return out
}

// matchScalar finds the best label span for the field and takes the nearest
// span to its right on the same line, or directly below it, as the value.
func (m *Mapper) matchScalar(texts []extract.Element, f schema.Field) (string, bool) {
	labelIdx := -1
	best := m.minSimilarity
	want := normalizeLabel(f.Label)

	for i, e := range texts {
		got := normalizeLabel(e.Text)
		if got == "" {
			continue
		}
		if sim := levenshtein.Similarity(want, got, m.params); sim >= best {
			best = sim
			labelIdx = i
		}
	}
	if labelIdx < 0 {
		return "", false
	}

	label := texts[labelIdx]

	// A value to the right on the same line wins over one below the label.
	valueIdx := nearest(texts, labelIdx, func(e extract.Element) (float64, bool) {
		if sameRow(label, e) && e.BBox.X0 > label.BBox.X1-1 {
			return e.BBox.X0 - label.BBox.X1, true
		}
		return 0, false
	})
	if valueIdx < 0 {
		valueIdx = nearest(texts, labelIdx, func(e extract.Element) (float64, bool) {
			if sameColumn(label, e) && e.BBox.Y1 < label.BBox.Y0+1 {
				return label.BBox.Y0 - e.BBox.Y1, true
			}
			return 0, false
		})
	}
	if valueIdx < 0 {
		return "", false
	}

	value := strings.TrimSpace(trimLabelArtifacts(texts[valueIdx].Text))
	if value == "" {
		return "", false
	}
	return value, true
}

// nearest returns the index of the span minimizing the distance reported by
// accept, skipping the label span and other pages.
func nearest(texts []extract.Element, labelIdx int, accept func(extract.Element) (float64, bool)) int {
	label := texts[labelIdx]
	best := -1
	var bestDist float64
	for i, e := range texts {
		if i == labelIdx || e.Page != label.Page {
			continue
		}
		dist, ok := accept(e)
		if !ok {
			continue
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// matchTable returns the data rows of the first detected table whose header
// matches at least half of the field's column names.
func (m *Mapper) matchTable(tables []extract.Element, f schema.Field) ([]Row, bool) {
	if len(f.Columns) == 0 {
		return nil, false
	}
	for _, t := range tables {
		if len(t.Table) < 2 {
			continue
		}
		if m.headerMatches(t.Table[0], f.Columns) {
			rows := make([]Row, 0, len(t.Table)-1)
			for _, cells := range t.Table[1:] {
				rows = append(rows, Row(cells))
			}
			return rows, true
		}
	}
	return nil, false
}

// headerMatches counts header cells similar to the expected column names.
func (m *Mapper) headerMatches(header, columns []string) bool {
	matched := 0
	for _, col := range columns {
		want := normalizeLabel(schema.Labelize(col))
		for _, cell := range header {
			if levenshtein.Similarity(want, normalizeLabel(cell), m.params) >= m.minSimilarity {
				matched++
				break
			}
		}
	}
	return matched*2 >= len(columns)
}

func sameRow(a, b extract.Element) bool {
	return abs(a.BBox.Y0-b.BBox.Y0) <= sameRowTolerance
}

func sameColumn(a, b extract.Element) bool {
	return abs(a.BBox.X0-b.BBox.X0) <= sameColumnTolerance
}

// normalizeLabel lowercases and strips label punctuation so "Batch No.:"
// compares equal to "batch no".
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ":.#*")
	return strings.Join(strings.Fields(s), " ")
}

// trimLabelArtifacts drops a leading colon left over when a span carries both
// the label separator and the value.
func trimLabelArtifacts(s string) string {
	return strings.TrimLeft(s, ": ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
