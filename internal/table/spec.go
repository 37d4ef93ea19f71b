package table

import (
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// maxSpecExpansion bounds *{n}{spec} repetition.
const maxSpecExpansion = 64

// Align is the horizontal alignment of a column or cell.
type Align string

// Alignments.
const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Column is one entry of a column specification.
type Column struct {
	Align       Align
	Width       string // p{}, m{} or b{} width, empty otherwise
	Flex        bool   // tabularx X column
	BorderLeft  bool
	BorderRight bool
}

// ParseSpec parses a column specification such as "|l|c|p{3cm}|" or
// "@{}l*{3}{r}@{}". Unknown letters become centered columns.
func ParseSpec(spec string) []Column {
	var cols []Column
	pendingLeft := false
	expanded := expandRepeats(spec, 0)
	for i := 0; i < len(expanded); i++ {
		c := expanded[i]
		switch c {
		case ' ', '\t', '\n':
		case '|':
			if len(cols) == 0 || pendingLeft {
				pendingLeft = true
			} else {
				cols[len(cols)-1].BorderRight = true
			}
		case '@', '!', '>', '<':
			// Inter-column material and column hooks take one argument.
			if _, end, ok := texscan.ReadGroup(expanded, i+1); ok {
				i = end - 1
			}
		case 'l', 'c', 'r', 'X', 'p', 'm', 'b', 'S', 'D':
			col := Column{BorderLeft: pendingLeft}
			pendingLeft = false
			switch c {
			case 'l':
				col.Align = AlignLeft
			case 'r':
				col.Align = AlignRight
			case 'X':
				col.Align, col.Flex = AlignJustify, true
			case 'p', 'm', 'b':
				col.Align = AlignJustify
				if w, end, ok := texscan.ReadGroup(expanded, i+1); ok {
					col.Width = strings.TrimSpace(w)
					i = end - 1
				}
			case 'D':
				// dcolumn D{sep}{sep}{places}
				col.Align = AlignRight
				if _, end, ok := texscan.ReadArgs(expanded, i+1, 3); ok {
					i = end - 1
				}
			case 'S':
				col.Align = AlignRight
				if _, end, ok := texscan.ReadOptional(expanded, i+1); ok {
					i = end - 1
				}
			default:
				col.Align = AlignCenter
			}
			cols = append(cols, col)
		case '{', '}':
		default:
			cols = append(cols, Column{Align: AlignCenter, BorderLeft: pendingLeft})
			pendingLeft = false
		}
	}
	return cols
}

// expandRepeats rewrites *{n}{spec} as n copies of spec.
func expandRepeats(spec string, depth int) string {
	if depth > 4 || !strings.Contains(spec, "*") {
		return spec
	}
	var b strings.Builder
	for i := 0; i < len(spec); i++ {
		if spec[i] != '*' {
			b.WriteByte(spec[i])
			continue
		}
		args, end, ok := texscan.ReadArgs(spec, i+1, 2)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || n < 0 {
			i = end - 1
			continue
		}
		inner := expandRepeats(args[1], depth+1)
		for range min(n, maxSpecExpansion) {
			b.WriteString(inner)
		}
		i = end - 1
	}
	return b.String()
}
