package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerboy38/amb-print-app/internal/export"
	"github.com/rogerboy38/amb-print-app/internal/extract"
	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/schema"
	"github.com/rogerboy38/amb-print-app/internal/store"
)

type fakeUploader struct {
	uploaded []*export.Artifact
	err      error
}

func (f *fakeUploader) UploadPrintFormat(_ context.Context, a *export.Artifact) error {
	if f.err != nil {
		return f.err
	}
	f.uploaded = append(f.uploaded, a)
	return nil
}

// coaDocument is an extracted certificate with both mandatory labels and a
// matching test-parameter table.
func coaDocument() *extract.Document {
	text := func(t string, x, y, w float64) extract.Element {
		return extract.Element{
			Kind: extract.KindText, Page: 1,
			BBox: extract.BoundingBox{X0: x, Y0: y, X1: x + w, Y1: y + 12},
			Text: t,
		}
	}
	return &extract.Document{
		Source:   "coa.pdf",
		Metadata: extract.Metadata{Pages: 1, Version: "1.4"},
		Elements: []extract.Element{
			text("Product Item:", 72, 700, 70),
			text("ITEM-001", 200, 700, 60),
			text("Batch No:", 72, 680, 50),
			text("25-0004", 200, 680, 50),
			{
				Kind: extract.KindTable, Page: 1,
				Table: [][]string{
					{"Parameter", "Value", "Unit", "Status", "Notes"},
					{"Moisture", "5", "%", "Pass", ""},
				},
			},
		},
	}
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *store.Store) {
	t.Helper()
	reg, err := schema.Load()
	require.NoError(t, err)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	svc := NewService(extract.NewExtractor(), mapping.NewMapper(), reg, st, opts...)
	return svc, st
}

func TestProcessFullPipeline(t *testing.T) {
	up := &fakeUploader{}
	svc, st := newTestService(t, WithUploader(up))

	job := Job{
		ID:      "job-1",
		Source:  "coa.pdf",
		DocType: "COA AMB",
		Name:    "COA - Certificate of Analysis",
		Upload:  true,
	}
	outcome, err := svc.Process(context.Background(), job, coaDocument())
	require.NoError(t, err)

	assert.True(t, outcome.Validation.Valid)
	require.Len(t, outcome.Artifacts, 2)
	assert.True(t, outcome.Uploaded)

	// Only the HTML template is pushed to the platform.
	require.Len(t, up.uploaded, 1)
	assert.Equal(t, "html", up.uploaded[0].Format)
	assert.Contains(t, up.uploaded[0].Content, "{{ doc.product_item }}")

	// Stage files landed in the workspace.
	_, err = st.LoadDocument(job.Name)
	assert.NoError(t, err)
	saved, err := st.LoadMapping(job.Name)
	require.NoError(t, err)
	assert.Equal(t, "ITEM-001", saved["product_item"].Scalar)
}

func TestProcessValidationGateStopsExport(t *testing.T) {
	svc, st := newTestService(t)

	// Document with no recognizable labels: mapping stays empty.
	doc := &extract.Document{
		Source:   "blank.pdf",
		Elements: []extract.Element{{Kind: extract.KindText, Page: 1, Text: "lorem ipsum"}},
	}
	job := Job{Source: "blank.pdf", DocType: "COA AMB", Name: "blank"}

	outcome, err := svc.Process(context.Background(), job, doc)
	require.Error(t, err)
	require.NotNil(t, outcome)

	assert.False(t, outcome.Validation.Valid)
	assert.Empty(t, outcome.Artifacts)
	assert.Contains(t, err.Error(), `"product_item"`)

	// No artifact stage files were written.
	_, loadErr := st.LoadArtifact("blank", "html")
	assert.Error(t, loadErr)
}

func TestProcessAppliesOverrides(t *testing.T) {
	svc, _ := newTestService(t)

	overrides := filepath.Join(t.TempDir(), "overrides.json")
	require.NoError(t, os.WriteFile(overrides, []byte(`{
		"product_item": "OVERRIDE-9",
		"batch_no": "B-1",
		"child_table": [["Ash", "2", "%", "Pass", ""]]
	}`), 0o600))

	doc := &extract.Document{
		Source:   "bare.pdf",
		Elements: []extract.Element{{Kind: extract.KindText, Page: 1, Text: "bare"}},
	}
	job := Job{
		Source:        "bare.pdf",
		DocType:       "COA AMB",
		Name:          "bare",
		OverridesPath: overrides,
		Formats:       []export.Kind{export.KindJSON},
	}

	outcome, err := svc.Process(context.Background(), job, doc)
	require.NoError(t, err)

	assert.True(t, outcome.Validation.Valid)
	require.Len(t, outcome.Artifacts, 1)
	assert.Contains(t, outcome.Artifacts[0].Content, "OVERRIDE-9")
}

func TestProcessUnknownDocType(t *testing.T) {
	svc, _ := newTestService(t)

	job := Job{Source: "x.pdf", DocType: "Invoice", Name: "x"}
	_, err := svc.Process(context.Background(), job, coaDocument())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Invoice"`)
}

func TestProcessUploadWithoutClient(t *testing.T) {
	svc, _ := newTestService(t)

	job := Job{Source: "coa.pdf", DocType: "COA AMB", Name: "coa", Upload: true}
	outcome, err := svc.Process(context.Background(), job, coaDocument())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no upload client")
	assert.False(t, outcome.Uploaded)
}

func TestDefaultNameFromSource(t *testing.T) {
	assert.Equal(t, "COA TRUROOTS", defaultName("pdf_files/COA TRUROOTS.pdf"))
}

func TestLoadOverridesErrors(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadOverrides(bad)
	assert.Error(t, err)
}
