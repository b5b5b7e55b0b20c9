package mapping

import (
	"fmt"

	"github.com/rogerboy38/amb-print-app/internal/schema"
)

// Result is the outcome of validating a Mapping against a DocType. Identical
// inputs always yield identical results.
type Result struct {
	Valid    bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidationError reports a single schema constraint violation. It always
// carries the offending fieldname so the fix is actionable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Validate checks the mapping against the DocType schema. Rules, in order:
// every mandatory field must be present and non-empty; every table field must
// contain at least one row; any other absent field is a warning. Validation
// is pure and never auto-corrects.
func Validate(m Mapping, dt *schema.DocType) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	for _, f := range dt.Fields {
		if !f.Mandatory || f.IsTable() {
			continue
		}
		if v, ok := m[f.Fieldname]; !ok || v.Empty() {
			res.Errors = append(res.Errors,
				fmt.Sprintf("mandatory field %q is missing or empty", f.Fieldname))
		}
	}

	for _, f := range dt.TableFields() {
		v, ok := m[f.Fieldname]
		if !ok || len(v.Rows) == 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("child table %q requires at least one row", f.Fieldname))
		}
	}

	for _, f := range dt.Fields {
		if f.Mandatory || f.IsTable() {
			continue
		}
		if _, ok := m[f.Fieldname]; !ok {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field %q is not mapped", f.Fieldname))
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}
