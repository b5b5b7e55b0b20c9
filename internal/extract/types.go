package extract

// ElementKind identifies the kind of content an extracted element carries.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindTable ElementKind = "table"
)

// BoundingBox is a rectangle in PDF coordinate space. The origin is the lower
// left corner of the page, so larger Y means further up the page.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y1 - b.Y0 }

// union grows the box to cover other.
func (b BoundingBox) union(other BoundingBox) BoundingBox {
	if other.X0 < b.X0 {
		b.X0 = other.X0
	}
	if other.Y0 < b.Y0 {
		b.Y0 = other.Y0
	}
	if other.X1 > b.X1 {
		b.X1 = other.X1
	}
	if other.Y1 > b.Y1 {
		b.Y1 = other.Y1
	}
	return b
}

// Element is a single positioned piece of content extracted from a PDF.
// Elements are immutable once produced; downstream stages consume them
// read-only.
type Element struct {
	Kind       ElementKind `json:"kind"`
	Page       int         `json:"page"` // 1-based
	BBox       BoundingBox `json:"bbox"`
	Text       string      `json:"text,omitempty"`
	Font       string      `json:"font,omitempty"`
	FontSize   float64     `json:"font_size,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`

	// Table holds the cell matrix for table elements, one slice per row.
	Table [][]string `json:"table,omitempty"`
}

// Metadata carries document-level information read from the PDF.
type Metadata struct {
	Pages   int    `json:"pages"`
	Version string `json:"version,omitempty"`
}

// Document is the extractor's output for a single source PDF: an ordered
// sequence of elements, page by page, top to bottom, left to right.
type Document struct {
	Source   string    `json:"source"`
	Metadata Metadata  `json:"metadata"`
	Elements []Element `json:"elements"`
}

// PageElements returns the elements belonging to the given 1-based page.
func (d *Document) PageElements(page int) []Element {
	var out []Element
	for _, e := range d.Elements {
		if e.Page == page {
			out = append(out, e)
		}
	}
	return out
}

// TextElements returns only the text elements of the document.
func (d *Document) TextElements() []Element {
	var out []Element
	for _, e := range d.Elements {
		if e.Kind == KindText {
			out = append(out, e)
		}
	}
	return out
}

// TableElements returns only the table elements of the document.
func (d *Document) TableElements() []Element {
	var out []Element
	for _, e := range d.Elements {
		if e.Kind == KindTable {
			out = append(out, e)
		}
	}
	return out
}
