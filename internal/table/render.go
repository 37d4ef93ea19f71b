package table

import (
	"html"
	"math"
	"strconv"
	"strings"
)

// HTML renders the table. formatCell converts cell content to HTML; nil
// escapes it.
func (t Table) HTML(formatCell func(string) string) string {
	if formatCell == nil {
		formatCell = html.EscapeString
	}
	var b strings.Builder
	b.WriteString(`<div class="table-wrap"><table class="latex-table`)
	if t.hasWidths() {
		b.WriteString(` layout-fixed`)
	}
	b.WriteString(`">`)
	if t.Caption != "" {
		b.WriteString("<caption>" + formatCell(t.Caption) + "</caption>")
	}
	t.writeColgroup(&b)

	inHead := false
	for i, row := range t.Rows {
		switch {
		case i == 0 && row.Header:
			b.WriteString("<thead>")
			inHead = true
		case inHead && !row.Header:
			b.WriteString("</thead><tbody>")
			inHead = false
		case i == 0:
			b.WriteString("<tbody>")
		}
		b.WriteString("<tr>")
		tag := "td"
		if row.Header {
			tag = "th"
		}
		for _, c := range row.Cells {
			writeCell(&b, tag, c, formatCell)
		}
		b.WriteString("</tr>")
	}
	switch {
	case inHead:
		b.WriteString("</thead>")
	case len(t.Rows) > 0:
		b.WriteString("</tbody>")
	}
	b.WriteString("</table></div>")
	return b.String()
}

func writeCell(b *strings.Builder, tag string, c Cell, formatCell func(string) string) {
	b.WriteString("<" + tag)
	if c.ColSpan > 1 {
		b.WriteString(` colspan="` + strconv.Itoa(c.ColSpan) + `"`)
	}
	if c.RowSpan > 1 {
		b.WriteString(` rowspan="` + strconv.Itoa(c.RowSpan) + `"`)
	}
	var classes []string
	if c.Align != "" {
		classes = append(classes, "align-"+string(c.Align))
	}
	for _, border := range []struct {
		on   bool
		name string
	}{
		{c.BorderTop, "border-top"},
		{c.BorderBottom, "border-bottom"},
		{c.BorderLeft, "border-left"},
		{c.BorderRight, "border-right"},
	} {
		if border.on {
			classes = append(classes, border.name)
		}
	}
	if len(classes) > 0 {
		b.WriteString(` class="` + strings.Join(classes, " ") + `"`)
	}
	b.WriteString(">")
	b.WriteString(formatCell(c.Content))
	b.WriteString("</" + tag + ">")
}

// hasWidths reports whether any column fixes its width.
func (t Table) hasWidths() bool {
	for _, c := range t.Columns {
		if c.Width != "" || c.Flex {
			return true
		}
	}
	return false
}

// writeColgroup emits per-column minimum widths for p{} and X columns.
func (t Table) writeColgroup(b *strings.Builder) {
	if !t.hasWidths() {
		return
	}
	b.WriteString("<colgroup>")
	for _, c := range t.Columns {
		switch {
		case c.Width != "" && CSSLength(c.Width) != "":
			b.WriteString(`<col style="min-width:` + CSSLength(c.Width) + `">`)
		default:
			b.WriteString("<col>")
		}
	}
	b.WriteString("</colgroup>")
}

// CSSLength converts an absolute TeX length to CSS. Relative lengths such
// as 0.3\linewidth become percentages; anything else yields "".
func CSSLength(w string) string {
	w = strings.TrimSpace(w)
	for _, rel := range []string{`\linewidth`, `\textwidth`, `\columnwidth`, `\hsize`} {
		if f, ok := strings.CutSuffix(w, rel); ok {
			f = strings.TrimSpace(f)
			if f == "" {
				f = "1"
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return ""
			}
			return strconv.FormatFloat(math.Round(v*1000)/10, 'f', -1, 64) + "%"
		}
	}
	for _, unit := range []string{"cm", "mm", "in", "pt", "em", "ex"} {
		if f, ok := strings.CutSuffix(w, unit); ok {
			if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
				return strings.TrimSpace(f) + unit
			}
		}
	}
	return ""
}
