package extract

import "sort"

// Table detection constants. Tolerances are in PDF points.
const (
	rowTolerance    = 5.0
	colTolerance    = 20.0
	minTableColumns = 2
	minTableRows    = 2
)

// textRow is a horizontal band of spans sharing a baseline.
type textRow struct {
	y     float64
	cells []Element
}

// detectTables scans the text spans of a single page for grid-like regions.
// Consecutive rows with matching column positions become one table element
// whose cell matrix holds the span text. The underlying text elements are
// kept in the document as well; a table references the same content.
func detectTables(spans []Element, pageNum int) []Element {
	rows := groupRows(spans)
	if len(rows) < minTableRows {
		return nil
	}

	var tables []Element
	var run []textRow
	for _, row := range rows {
		if len(row.cells) >= minTableColumns && (len(run) == 0 || columnsAligned(run[len(run)-1], row)) {
			run = append(run, row)
			continue
		}
		if t, ok := buildTable(run, pageNum); ok {
			tables = append(tables, t)
		}
		run = nil
		if len(row.cells) >= minTableColumns {
			run = append(run, row)
		}
	}
	if t, ok := buildTable(run, pageNum); ok {
		tables = append(tables, t)
	}
	return tables
}

// groupRows buckets spans into rows by baseline proximity, ordered top to
// bottom with cells ordered left to right.
func groupRows(spans []Element) []textRow {
	sorted := make([]Element, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y0 != sorted[j].BBox.Y0 {
			return sorted[i].BBox.Y0 > sorted[j].BBox.Y0
		}
		return sorted[i].BBox.X0 < sorted[j].BBox.X0
	})

	var rows []textRow
	for _, s := range sorted {
		placed := false
		for i := range rows {
			if abs(rows[i].y-s.BBox.Y0) <= rowTolerance {
				rows[i].cells = append(rows[i].cells, s)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: s.BBox.Y0, cells: []Element{s}})
		}
	}
	for i := range rows {
		cells := rows[i].cells
		sort.SliceStable(cells, func(a, b int) bool { return cells[a].BBox.X0 < cells[b].BBox.X0 })
	}
	return rows
}

// columnsAligned reports whether two rows share the same column layout: equal
// cell counts with left edges within colTolerance of each other.
func columnsAligned(a, b textRow) bool {
	if len(a.cells) != len(b.cells) {
		return false
	}
	for i := range a.cells {
		if abs(a.cells[i].BBox.X0-b.cells[i].BBox.X0) > colTolerance {
			return false
		}
	}
	return true
}

// buildTable turns a run of aligned rows into a table element.
func buildTable(run []textRow, pageNum int) (Element, bool) {
	if len(run) < minTableRows {
		return Element{}, false
	}

	matrix := make([][]string, 0, len(run))
	bbox := run[0].cells[0].BBox
	for _, row := range run {
		cells := make([]string, 0, len(row.cells))
		for _, c := range row.cells {
			cells = append(cells, c.Text)
			bbox = bbox.union(c.BBox)
		}
		matrix = append(matrix, cells)
	}

	return Element{
		Kind:       KindTable,
		Page:       pageNum,
		BBox:       bbox,
		Table:      matrix,
		Confidence: 0.7,
	}, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
