// Package schema holds the target platform's DocType field definitions used
// to drive field mapping, validation, and template rendering.
package schema

import "strings"

// FieldType enumerates the supported ERPNext field types.
type FieldType string

const (
	TypeData  FieldType = "data"
	TypeLink  FieldType = "link"
	TypeDate  FieldType = "date"
	TypeTable FieldType = "table"
)

// Field describes a single DocType field.
type Field struct {
	Fieldname string    `json:"fieldname"`
	Label     string    `json:"label"`
	Type      FieldType `json:"fieldtype"`
	Mandatory bool      `json:"mandatory"`

	// Columns lists the sub-column fieldnames of a table field.
	Columns []string `json:"columns,omitempty"`
}

// IsTable reports whether the field is a child table.
func (f Field) IsTable() bool { return f.Type == TypeTable }

// DocType is a named record type with its ordered field definitions.
type DocType struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field returns the field with the given fieldname.
func (d *DocType) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Fieldname == name {
			return f, true
		}
	}
	return Field{}, false
}

// MandatoryFields returns the fields that must be populated before export.
func (d *DocType) MandatoryFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Mandatory {
			out = append(out, f)
		}
	}
	return out
}

// TableFields returns the child-table fields of the DocType.
func (d *DocType) TableFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.IsTable() {
			out = append(out, f)
		}
	}
	return out
}

// Labelize derives a display label from a fieldname, e.g. "item_code"
// becomes "Item Code".
func Labelize(fieldname string) string {
	parts := strings.Split(fieldname, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
