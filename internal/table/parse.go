package table

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Cell is one table cell. Col is its 0-based starting column.
type Cell struct {
	Content      string
	Col          int
	ColSpan      int
	RowSpan      int
	Align        Align
	BorderTop    bool
	BorderBottom bool
	BorderLeft   bool
	BorderRight  bool
}

// Row is one table row.
type Row struct {
	Cells  []Cell
	Header bool
}

// Table is a parsed tabular environment.
type Table struct {
	Env     string
	Columns []Column
	Rows    []Row
	Caption string // longtable \caption, raw
}

// rule is a horizontal rule found between rows. cols is nil for full-width
// rules; otherwise it holds a 1-based inclusive column range.
type rule struct {
	cols   *[2]int
	midway bool // \midrule, used to detect header rows
}

var (
	trailingRule   = regexp.MustCompile(`(?:\\(?:hline|bottomrule|midrule)\s*)+$`)
	rangePattern   = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)
	spacingPattern = regexp.MustCompile(`^\[\s*-?\d*\.?\d+\s*(?:pt|mm|cm|em|ex|in|bp)?\s*\]`)
)

// noopCommands are dropped from table bodies.
var noopCommands = map[string]int{
	"endhead": 0, "endfirsthead": 0, "endfoot": 0, "endlastfoot": 0,
	"centering": 0, "addlinespace": 0, "morecmidrules": 0,
	"rowcolor": 1, "arrayrulecolor": 1, "noalign": 1,
}

// Parse parses a tabular body: the text after \begin{env} up to \end{env},
// starting with the column specification. ok is false when no column
// specification can be read.
func Parse(env, body string) (t Table, ok bool) {
	t.Env = env
	rest := body
	if env == "tabular*" || env == "tabularx" {
		// Total width argument.
		if _, end, found := texscan.ReadGroup(rest, 0); found {
			rest = rest[end:]
		}
	}
	if _, end, found := texscan.ReadOptional(rest, 0); found {
		rest = rest[end:]
	}
	spec, end, found := texscan.ReadGroup(rest, 0)
	if !found {
		return t, false
	}
	t.Columns = ParseSpec(spec)
	rest = stripNoops(rest[end:])

	segments := splitRows(rest)
	carry := make(map[int]int)
	var pendingTop []rule
	headerDone := false
	for _, seg := range segments {
		rules, content := leadingRules(seg)
		if len(t.Rows) == 0 {
			pendingTop = append(pendingTop, rules...)
		} else {
			prev := &t.Rows[len(t.Rows)-1]
			applyBottom(prev, rules)
			if !headerDone && hasMidrule(rules) && len(t.Rows) == 1 {
				prev.Header = true
				headerDone = true
			}
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		content, trailing := trailingRules(content)
		row := t.parseRow(content, carry)
		if len(t.Rows) == 0 {
			applyTop(&row, pendingTop)
		}
		applyBottom(&row, trailing)
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// stripNoops removes commands with no effect on the preview table.
func stripNoops(s string) string {
	for name, nargs := range noopCommands {
		s = texscan.ReplaceCommand(s, name, nargs, func(string, []string) string { return "" })
	}
	return s
}

// splitRows splits on \\ (and \tabularnewline) at brace depth zero. A
// following [length] spacing argument is dropped. "\\&" is a row break
// followed by a cell separator; "\&" never breaks.
func splitRows(s string) []string {
	s = strings.ReplaceAll(s, `\tabularnewline`, `\\`)
	var rows []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if !texscan.IsEscaped(s, i) {
				depth++
			}
		case '}':
			if !texscan.IsEscaped(s, i) && depth > 0 {
				depth--
			}
		case '\\':
			if depth != 0 || i+1 >= len(s) || s[i+1] != '\\' || texscan.IsEscaped(s, i) {
				continue
			}
			rows = append(rows, s[last:i])
			i++
			next := i + 1
			if m := spacingPattern.FindStringIndex(s[next:]); m != nil {
				next += m[1]
			}
			last = next
			i = next - 1
		}
	}
	return append(rows, s[last:])
}

// leadingRules consumes rule commands at the start of a row segment.
func leadingRules(seg string) ([]rule, string) {
	var rules []rule
	pos := 0
	for range texscan.MaxIterations {
		p := texscan.SkipSpace(seg, pos)
		if p >= len(seg) || seg[p] != '\\' {
			return rules, seg[p:]
		}
		name, end := texscan.ReadCommandName(seg, p)
		switch name {
		case "hline", "toprule", "bottomrule", "hhline", "Xhline":
			if name == "hhline" || name == "Xhline" {
				if _, e, ok := texscan.ReadGroup(seg, end); ok {
					end = e
				}
			}
			if _, e, ok := texscan.ReadOptional(seg, end); ok {
				end = e
			}
			rules = append(rules, rule{})
		case "midrule":
			if _, e, ok := texscan.ReadOptional(seg, end); ok {
				end = e
			}
			rules = append(rules, rule{midway: true})
		case "specialrule":
			if _, e, ok := texscan.ReadArgs(seg, end, 3); ok {
				end = e
			}
			rules = append(rules, rule{})
		case "cline", "cmidrule":
			if _, e, ok := texscan.ReadOptional(seg, end); ok {
				end = e
			}
			// \cmidrule(lr){a-b}
			if p2 := texscan.SkipSpace(seg, end); p2 < len(seg) && seg[p2] == '(' {
				if c := strings.IndexByte(seg[p2:], ')'); c >= 0 {
					end = p2 + c + 1
				}
			}
			arg, e, ok := texscan.ReadGroup(seg, end)
			if !ok {
				return rules, seg[p:]
			}
			end = e
			if m := rangePattern.FindStringSubmatch(arg); m != nil {
				a, _ := strconv.Atoi(m[1])
				b, _ := strconv.Atoi(m[2])
				rules = append(rules, rule{cols: &[2]int{a, b}, midway: name == "cmidrule"})
			}
		default:
			return rules, seg[p:]
		}
		pos = end
	}
	return rules, seg[pos:]
}

// trailingRules strips full-width rules written after the last cell of a
// row that has no closing \\.
func trailingRules(content string) (string, []rule) {
	loc := trailingRule.FindStringIndex(content)
	if loc == nil || texscan.IsEscaped(content, loc[0]) {
		return content, nil
	}
	n := strings.Count(content[loc[0]:], `\`)
	return content[:loc[0]], make([]rule, n)
}

func hasMidrule(rules []rule) bool {
	for _, r := range rules {
		if r.midway && r.cols == nil {
			return true
		}
	}
	return false
}

// covers reports whether a rule touches a cell spanning [col, col+span).
func (r rule) covers(c Cell) bool {
	if r.cols == nil {
		return true
	}
	first, last := c.Col+1, c.Col+c.ColSpan
	return first <= r.cols[1] && last >= r.cols[0]
}

func applyBottom(row *Row, rules []rule) {
	for _, r := range rules {
		for i := range row.Cells {
			if r.covers(row.Cells[i]) {
				row.Cells[i].BorderBottom = true
			}
		}
	}
}

func applyTop(row *Row, rules []rule) {
	for _, r := range rules {
		for i := range row.Cells {
			if r.covers(row.Cells[i]) {
				row.Cells[i].BorderTop = true
			}
		}
	}
}

// parseRow splits a row on cell separators and resolves spans. carry holds
// the remaining row span per column and is updated in place.
func (t *Table) parseRow(content string, carry map[int]int) Row {
	var row Row
	col := 0
	skipCovered := func() {
		for carry[col] > 0 {
			col++
		}
	}
	for _, raw := range texscan.SplitTopLevel(content, '&') {
		text := strings.TrimSpace(raw)
		if text == "" && carry[col] > 0 {
			// Shadow cell under an active \multirow.
			col++
			continue
		}
		skipCovered()
		cell := t.parseCell(text, col)
		if cell.RowSpan > 1 {
			for c := col; c < col+cell.ColSpan; c++ {
				carry[c] = cell.RowSpan
			}
		}
		row.Cells = append(row.Cells, cell)
		col += cell.ColSpan
	}
	// Every active span covers this row once.
	for c, n := range carry {
		if n--; n <= 0 {
			delete(carry, c)
		} else {
			carry[c] = n
		}
	}
	return row
}

// parseCell resolves \multicolumn and \multirow wrappers.
func (t *Table) parseCell(text string, col int) Cell {
	cell := Cell{Col: col, ColSpan: 1, RowSpan: 1}
	if col < len(t.Columns) {
		cell.Align = t.Columns[col].Align
		cell.BorderLeft = t.Columns[col].BorderLeft
	}

	if strings.HasPrefix(text, `\multicolumn`) {
		if args, end, ok := texscan.ReadArgs(text, len(`\multicolumn`), 3); ok && strings.TrimSpace(text[end:]) == "" {
			if n, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil && n > 0 {
				cell.ColSpan = n
			}
			spec := ParseSpec(args[1])
			if len(spec) > 0 {
				cell.Align = spec[0].Align
				cell.BorderLeft = spec[0].BorderLeft
				cell.BorderRight = spec[len(spec)-1].BorderRight
			}
			text = strings.TrimSpace(args[2])
		}
	} else if last := col + cell.ColSpan - 1; last < len(t.Columns) {
		cell.BorderRight = t.Columns[last].BorderRight
	}

	if strings.HasPrefix(text, `\multirow`) {
		p := len(`\multirow`)
		if _, e, ok := texscan.ReadOptional(text, p); ok {
			p = e
		}
		if args, end, ok := texscan.ReadArgs(text, p, 3); ok && strings.TrimSpace(text[end:]) == "" {
			if n, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil && n != 0 {
				cell.RowSpan = max(n, -n)
			}
			text = strings.TrimSpace(args[2])
		}
	}
	cell.Content = text
	return cell
}
