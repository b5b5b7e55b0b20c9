package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/schema"
)

// htmlSkeleton is the print-format shell. The body placeholder is replaced
// with the generated field and table markup; everything inside the template
// uses Jinja syntax evaluated later by the target platform.
const htmlSkeleton = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { font-size: 18px; font-weight: bold; margin-bottom: 20px; }
.section { margin-top: 15px; margin-bottom: 15px; page-break-inside: avoid; }
.field-label { font-weight: bold; display: inline-block; width: 150px; }
table { width: 100%%; border-collapse: collapse; margin-top: 10px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
</style>
</head>
<body>
<div class="header">{{ doc.name }}</div>
%s
</body>
</html>
`

// HTMLExporter renders a reusable Jinja HTML template. Placeholders are bound
// to schema fieldnames ({{ doc.<fieldname> }}); mapped values never appear in
// the output, since the template is evaluated per document by the target
// platform.
type HTMLExporter struct {
	opts Options
}

// Kind returns KindHTML.
func (e *HTMLExporter) Kind() Kind { return KindHTML }

// Render produces the HTML artifact for the mapping. It fails with
// *RenderError when the mapping does not pass validation.
func (e *HTMLExporter) Render(name string, m mapping.Mapping, dt *schema.DocType) (*Artifact, error) {
	res, err := checkValid(name, m, dt)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`<div class="section">` + "\n")
	for _, f := range dt.Fields {
		if f.IsTable() || !m.Has(f.Fieldname) {
			continue
		}
		fmt.Fprintf(&b, `<div><span class="field-label">%s:</span> <span>{{ doc.%s }}</span></div>`+"\n",
			html.EscapeString(f.Label), f.Fieldname)
	}
	b.WriteString(`</div>`)

	for _, f := range dt.TableFields() {
		if !m.Has(f.Fieldname) {
			continue
		}
		b.WriteString("\n")
		writeTableBlock(&b, f)
	}

	content := fmt.Sprintf(htmlSkeleton, b.String())

	return &Artifact{
		Name:        name,
		DocType:     dt.Name,
		Format:      KindHTML.String(),
		Version:     e.opts.Version,
		Author:      e.opts.Author,
		Content:     content,
		GeneratedAt: time.Now().UTC(),
		Status:      StatusSuccess,
		Errors:      []string{},
		Warnings:    res.Warnings,
	}, nil
}

// writeTableBlock emits a header row from the schema columns and a Jinja
// repeated-row construct iterating the table field.
func writeTableBlock(b *strings.Builder, f schema.Field) {
	fmt.Fprintf(b, `<div class="section"><b>%s</b>`+"\n", html.EscapeString(f.Label))
	b.WriteString("<table>\n<thead><tr>")
	for _, col := range f.Columns {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(schema.Labelize(col)))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	fmt.Fprintf(b, "{%% for row in doc.%s %%}<tr>", f.Fieldname)
	for _, col := range f.Columns {
		fmt.Fprintf(b, "<td>{{ row.%s }}</td>", col)
	}
	b.WriteString("</tr>{% endfor %}\n</tbody></table></div>")
}
