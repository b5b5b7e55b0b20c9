package export

import (
	"fmt"
	"strings"
)

// RenderError reports an export attempted on a mapping that does not satisfy
// the DocType schema. It carries the individual validation errors so the
// operator sees the offending fields.
type RenderError struct {
	Name    string
	DocType string
	Errors  []string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q (%s): mapping failed validation: %s",
		e.Name, e.DocType, strings.Join(e.Errors, "; "))
}
