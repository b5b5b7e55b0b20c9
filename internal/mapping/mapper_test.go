package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerboy38/amb-print-app/internal/extract"
)

func textAt(text string, x, y, w float64) extract.Element {
	return extract.Element{
		Kind: extract.KindText,
		Page: 1,
		BBox: extract.BoundingBox{X0: x, Y0: y, X1: x + w, Y1: y + 12},
		Text: text,
	}
}

func coaDocument() *extract.Document {
	return &extract.Document{
		Source: "coa.pdf",
		Elements: []extract.Element{
			textAt("Certificate of Analysis", 72, 740, 200),
			// Label with value to the right on the same line.
			textAt("Product Item:", 72, 700, 70),
			textAt("ITEM-001", 200, 700, 60),
			// Label with value directly below it.
			textAt("Batch No", 72, 660, 50),
			textAt("25-0004", 72, 640, 50),
			{
				Kind: extract.KindTable,
				Page: 1,
				BBox: extract.BoundingBox{X0: 72, Y0: 400, X1: 500, Y1: 560},
				Table: [][]string{
					{"Parameter", "Value", "Unit", "Status", "Notes"},
					{"Moisture", "5", "%", "Pass", ""},
					{"Ash", "2", "%", "Pass", ""},
				},
			},
		},
	}
}

func TestProposeMatchesLabelsAndTable(t *testing.T) {
	dt := coaDocType(t)
	m := NewMapper()

	got := m.Propose(coaDocument(), dt)

	assert.Equal(t, "ITEM-001", got["product_item"].Scalar)
	assert.Equal(t, "25-0004", got["batch_no"].Scalar)
	require.True(t, got.Has("child_table"))
	assert.Equal(t, []Row{
		{"Moisture", "5", "%", "Pass", ""},
		{"Ash", "2", "%", "Pass", ""},
	}, got["child_table"].Rows)
}

func TestProposeLeavesUnmatchedFieldsAbsent(t *testing.T) {
	dt := coaDocType(t)
	m := NewMapper()

	got := m.Propose(coaDocument(), dt)

	// No customer or date labels in the document: fields stay absent so the
	// validator can flag them precisely.
	assert.False(t, got.Has("customer"))
	assert.False(t, got.Has("expiry_date"))
}

func TestProposeEmptyDocument(t *testing.T) {
	dt := coaDocType(t)
	m := NewMapper()

	got := m.Propose(&extract.Document{Source: "empty.pdf"}, dt)
	assert.Empty(t, got)
}

func TestProposeIgnoresTableWithForeignHeader(t *testing.T) {
	dt := coaDocType(t)
	m := NewMapper()

	doc := &extract.Document{
		Source: "other.pdf",
		Elements: []extract.Element{
			{
				Kind: extract.KindTable,
				Page: 1,
				Table: [][]string{
					{"Account", "Debit", "Credit"},
					{"Sales", "0", "100"},
				},
			},
		},
	}

	got := m.Propose(doc, dt)
	assert.False(t, got.Has("child_table"))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "batch no", normalizeLabel("Batch No.:"))
	assert.Equal(t, "product item", normalizeLabel("  Product   Item "))
}
