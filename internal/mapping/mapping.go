// Package mapping associates DocType schema fields with values derived from
// an extracted PDF, and validates that association against the schema before
// export is permitted.
package mapping

import (
	"encoding/json"
	"fmt"
)

// Row is one child-table row, cell values in column order.
type Row []string

// Value is either a scalar string or a set of child-table rows. Exactly one
// of the two is populated.
type Value struct {
	Scalar string
	Rows   []Row
}

// IsTable reports whether the value carries child-table rows.
func (v Value) IsTable() bool { return v.Rows != nil }

// Empty reports whether the value carries no data at all.
func (v Value) Empty() bool { return v.Scalar == "" && len(v.Rows) == 0 }

// MarshalJSON encodes a scalar as a JSON string and rows as an array of
// arrays, matching the stage-file wire format.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsTable() {
		return json.Marshal(v.Rows)
	}
	return json.Marshal(v.Scalar)
}

// UnmarshalJSON accepts either form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{Scalar: s}
		return nil
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err == nil {
		if rows == nil {
			rows = []Row{}
		}
		*v = Value{Rows: rows}
		return nil
	}
	return fmt.Errorf("mapping value must be a string or an array of rows: %s", data)
}

// Mapping is the working association between schema fieldnames and assigned
// values. Unmapped fields are absent, never defaulted, so validation can
// detect missing mandatory fields precisely.
type Mapping map[string]Value

// New returns an empty Mapping.
func New() Mapping { return make(Mapping) }

// Set assigns a scalar value to a field.
func (m Mapping) Set(field, value string) {
	m[field] = Value{Scalar: value}
}

// SetRows assigns child-table rows to a field.
func (m Mapping) SetRows(field string, rows []Row) {
	if rows == nil {
		rows = []Row{}
	}
	m[field] = Value{Rows: rows}
}

// Has reports whether the field has an assignment, empty or not.
func (m Mapping) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Apply merges operator-supplied overrides into the mapping. Overrides are
// authoritative: an override with an empty value removes the assignment so the
// field reads as unmapped again.
func (m Mapping) Apply(overrides Mapping) {
	for field, v := range overrides {
		if v.Empty() {
			delete(m, field)
			continue
		}
		m[field] = v
	}
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for field, v := range m {
		if v.IsTable() {
			rows := make([]Row, len(v.Rows))
			for i, r := range v.Rows {
				rows[i] = append(Row(nil), r...)
			}
			out[field] = Value{Rows: rows}
			continue
		}
		out[field] = v
	}
	return out
}
