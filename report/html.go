package report

import (
	"html"
	"strings"
)

// Document is a printable report: a titled header, optional summary lines and
// one or more tables. It renders to self-contained HTML that Gotenberg
// converts to PDF.
type Document struct {
	Title    string
	Subtitle string
	Summary  []string
	Tables   []Table
}

// Table is one tabular section of a Document.
type Table struct {
	Caption string
	Headers []string
	Rows    [][]string
	// NumericCols marks right-aligned columns by index.
	NumericCols []int
}

const documentStyle = `
body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; color: #1a1a1a; margin: 28px; }
h1 { font-size: 18px; margin-bottom: 2px; }
h2 { font-size: 13px; margin: 18px 0 6px; }
.subtitle { color: #666; margin-bottom: 14px; }
.summary { background: #f4f6f8; padding: 10px 14px; margin-bottom: 14px; border-left: 3px solid #2b6cb0; }
.summary div { margin: 2px 0; }
table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
th { background: #2b6cb0; color: #fff; text-align: left; padding: 5px 7px; }
td { border-bottom: 1px solid #e0e0e0; padding: 4px 7px; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
tr:nth-child(even) td { background: #fafbfc; }
`

// HTML renders the document.
func (d Document) HTML() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>")
	b.WriteString(documentStyle)
	b.WriteString("</style></head><body>")
	b.WriteString("<h1>" + html.EscapeString(d.Title) + "</h1>")
	if d.Subtitle != "" {
		b.WriteString("<div class=\"subtitle\">" + html.EscapeString(d.Subtitle) + "</div>")
	}
	if len(d.Summary) > 0 {
		b.WriteString("<div class=\"summary\">")
		for _, line := range d.Summary {
			b.WriteString("<div>" + html.EscapeString(line) + "</div>")
		}
		b.WriteString("</div>")
	}
	for _, t := range d.Tables {
		numeric := make(map[int]bool, len(t.NumericCols))
		for _, i := range t.NumericCols {
			numeric[i] = true
		}
		if t.Caption != "" {
			b.WriteString("<h2>" + html.EscapeString(t.Caption) + "</h2>")
		}
		b.WriteString("<table><thead><tr>")
		for _, h := range t.Headers {
			b.WriteString("<th>" + html.EscapeString(h) + "</th>")
		}
		b.WriteString("</tr></thead><tbody>")
		for _, row := range t.Rows {
			b.WriteString("<tr>")
			for i, cell := range row {
				if numeric[i] {
					b.WriteString("<td class=\"num\">" + html.EscapeString(cell) + "</td>")
				} else {
					b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
				}
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
