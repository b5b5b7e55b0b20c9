package extract

import (
	"log/slog"
	"os"
	"sort"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// DefaultMaxFileSize bounds source PDFs to 50MB.
	DefaultMaxFileSize = 50 * 1024 * 1024

	defaultFontSize = 12.0
)

// Extractor reads a PDF file and produces a Document of positioned elements.
// Extraction is read-only and idempotent: re-extracting the same file yields
// the same elements.
type Extractor struct {
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxFileSize overrides the maximum accepted file size in bytes.
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) { e.maxFileSize = n }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract reads the PDF at path and returns its positioned text and table
// elements in document order. It fails with *ExtractionError when the file is
// missing, not a PDF, oversized, corrupt, or password-protected.
func (e *Extractor) Extract(path string) (*Document, error) {
	if err := e.validateFile(path); err != nil {
		return nil, err
	}

	meta, err := e.readMetadata(path)
	if err != nil {
		return nil, err
	}

	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Reason: ReasonCorrupt, Err: err}
	}
	defer f.Close()

	var elements []Element
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		spans := pageSpans(page, pageNum)
		elements = append(elements, spans...)
		elements = append(elements, detectTables(spans, pageNum)...)
	}

	if len(elements) == 0 {
		return nil, &ExtractionError{Path: path, Reason: ReasonEmpty}
	}

	sortElements(elements)

	e.logger.Debug("extracted document",
		"path", path, "pages", meta.Pages, "elements", len(elements))

	return &Document{
		Source:   path,
		Metadata: meta,
		Elements: elements,
	}, nil
}

// validateFile performs basic checks before any PDF engine touches the file.
func (e *Extractor) validateFile(path string) error {
	if path == "" {
		return &ExtractionError{Path: path, Reason: ReasonNotFound}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &ExtractionError{Path: path, Reason: ReasonNotFound}
	}
	if err != nil {
		return &ExtractionError{Path: path, Reason: ReasonNotFound, Err: err}
	}
	if info.IsDir() {
		return &ExtractionError{Path: path, Reason: ReasonDirectory}
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return &ExtractionError{Path: path, Reason: ReasonNotPDF}
	}
	if info.Size() > e.maxFileSize {
		return &ExtractionError{Path: path, Reason: ReasonTooLarge}
	}
	return nil
}

// readMetadata opens the file with pdfcpu to reject corrupt or encrypted
// documents up front and to collect page count and version.
func (e *Extractor) readMetadata(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, &ExtractionError{Path: path, Reason: ReasonNotFound, Err: err}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return Metadata{}, &ExtractionError{Path: path, Reason: ReasonCorrupt, Err: err}
	}
	if ctx.Encrypt != nil {
		return Metadata{}, &ExtractionError{Path: path, Reason: ReasonEncrypted}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Metadata{}, &ExtractionError{Path: path, Reason: ReasonCorrupt, Err: err}
	}

	return Metadata{
		Pages:   ctx.PageCount,
		Version: ctx.HeaderVersion.String(),
	}, nil
}

// pageSpans converts the positioned text of a page into text elements.
func pageSpans(page ledongthuc.Page, pageNum int) []Element {
	content := page.Content()

	var elements []Element
	for _, t := range content.Text {
		text := strings.TrimSpace(t.S)
		if text == "" {
			continue
		}
		height := t.FontSize
		if height == 0 {
			height = defaultFontSize
		}
		elements = append(elements, Element{
			Kind: KindText,
			Page: pageNum,
			BBox: BoundingBox{
				X0: t.X,
				Y0: t.Y,
				X1: t.X + t.W,
				Y1: t.Y + height,
			},
			Text:       text,
			Font:       t.Font,
			FontSize:   t.FontSize,
			Confidence: 1.0,
		})
	}
	return elements
}

// sortElements orders elements by page, then top to bottom, then left to
// right. Tables sort by their upper edge like any other element.
func sortElements(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i], elements[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.BBox.Y1 != b.BBox.Y1 {
			return a.BBox.Y1 > b.BBox.Y1
		}
		return a.BBox.X0 < b.BBox.X0
	})
}
