package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed doctypes/*.json
var doctypeFS embed.FS

// doctypeSchema constrains the embedded DocType definition files. Table
// fields must declare their columns; every field needs a name, label, and a
// known type.
const doctypeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "fields"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "fields": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["fieldname", "label", "fieldtype"],
        "properties": {
          "fieldname": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "label": {"type": "string", "minLength": 1},
          "fieldtype": {"enum": ["data", "link", "date", "table"]},
          "mandatory": {"type": "boolean"},
          "columns": {
            "type": "array",
            "items": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"}
          }
        },
        "if": {"properties": {"fieldtype": {"const": "table"}}},
        "then": {"required": ["columns"]}
      }
    }
  }
}`

// Registry holds the built-in DocType definitions, loaded once from the
// embedded JSON files and read-only thereafter.
type Registry struct {
	byName map[string]*DocType
}

// Load parses and validates the embedded DocType definitions.
func Load() (*Registry, error) {
	compiled, err := jsonschema.CompileString("doctype.schema.json", doctypeSchema)
	if err != nil {
		return nil, fmt.Errorf("compile doctype schema: %w", err)
	}

	entries, err := doctypeFS.ReadDir("doctypes")
	if err != nil {
		return nil, fmt.Errorf("read doctype definitions: %w", err)
	}

	reg := &Registry{byName: make(map[string]*DocType, len(entries))}
	for _, entry := range entries {
		name := "doctypes/" + entry.Name()
		raw, err := doctypeFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if err := compiled.Validate(generic); err != nil {
			return nil, fmt.Errorf("invalid doctype definition %s: %w", name, err)
		}

		var dt DocType
		if err := json.Unmarshal(raw, &dt); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if _, dup := reg.byName[dt.Name]; dup {
			return nil, fmt.Errorf("duplicate doctype %q in %s", dt.Name, name)
		}
		reg.byName[dt.Name] = &dt
	}

	return reg, nil
}

// Get returns the DocType with the given name.
func (r *Registry) Get(name string) (*DocType, error) {
	dt, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown doctype %q (known: %v)", name, r.Names())
	}
	return dt, nil
}

// Names lists the registered DocType names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
