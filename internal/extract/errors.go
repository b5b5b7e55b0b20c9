package extract

import "fmt"

// Extraction failure reasons.
const (
	ReasonNotFound  = "file not found"
	ReasonNotPDF    = "not a PDF file"
	ReasonDirectory = "path is a directory"
	ReasonTooLarge  = "file too large"
	ReasonCorrupt   = "corrupt or unreadable PDF"
	ReasonEncrypted = "password-protected PDF"
	ReasonEmpty     = "no extractable content"
)

// ExtractionError reports a source PDF that could not be extracted. It always
// names the offending file so the failure is actionable.
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
