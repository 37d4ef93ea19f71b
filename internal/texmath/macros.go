package texmath

import (
	"sort"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Macros maps a macro name, backslash included, to its single-level
// expansion. Parameterized bodies keep their #1 references.
type Macros map[string]string

// Names returns the macro names in sorted order.
func (m Macros) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// definition is one macro definition found in the source.
type definition struct {
	at, end int
	name    string
	value   string
}

// newcommandForms are the \newcommand-shaped definition commands.
var newcommandForms = []string{
	"newcommand", "newcommand*", "renewcommand", "renewcommand*",
	"providecommand", "providecommand*",
}

// ExtractMacros harvests simple macro definitions. It recognizes
// \newcommand{\name}[n]{value} and \newcommand\name{value} with their
// \renewcommand and \providecommand variants, \def\name{value} and
// \DeclareMathOperator{\name}{Op}. The last definition of a name wins. The
// text is not modified.
func ExtractMacros(text string) Macros {
	defs := findDefinitions(text)
	m := make(Macros, len(defs))
	for _, d := range defs {
		m[d.name] = d.value
	}
	return m
}

// RemoveDefinitions deletes every definition ExtractMacros recognizes.
func RemoveDefinitions(text string) string {
	defs := findDefinitions(text)
	if len(defs) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, d := range defs {
		if d.at < pos {
			continue
		}
		b.WriteString(text[pos:d.at])
		pos = d.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// findDefinitions returns every definition ordered by position.
func findDefinitions(text string) []definition {
	var defs []definition
	for _, cmd := range newcommandForms {
		defs = append(defs, findNewcommands(text, cmd)...)
	}
	defs = append(defs, findDefs(text)...)
	defs = append(defs, findOperators(text, "DeclareMathOperator", `\operatorname`)...)
	defs = append(defs, findOperators(text, "DeclareMathOperator*", `\operatorname*`)...)
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].at < defs[j].at })
	return defs
}

// readMacroName reads "{\name}" or "\name" at pos.
func readMacroName(s string, pos int) (name string, end int, ok bool) {
	if g, e, found := texscan.ReadGroup(s, pos); found {
		g = strings.TrimSpace(g)
		if n, ne := texscan.ReadCommandName(g, 0); n != "" && ne == len(g) {
			return `\` + n, e, true
		}
		return "", pos, false
	}
	p := texscan.SkipSpace(s, pos)
	n, e := texscan.ReadCommandName(s, p)
	if n == "" {
		return "", pos, false
	}
	return `\` + n, e, true
}

func findNewcommands(s, cmd string) []definition {
	var out []definition
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, cmd, pos)
		if i < 0 {
			break
		}
		pos = i + 1
		name, p, ok := readMacroName(s, i+len(cmd)+1)
		if !ok {
			continue
		}
		// [n] parameter count, then an optional default for #1.
		for range 2 {
			if _, e, found := texscan.ReadOptional(s, p); found {
				p = e
			}
		}
		value, e, ok := texscan.ReadGroup(s, p)
		if !ok {
			continue
		}
		out = append(out, definition{at: i, end: e, name: name, value: strings.TrimSpace(value)})
		pos = e
	}
	return out
}

// findDefs reads \def\name{value} and \def\name#1#2{value}.
func findDefs(s string) []definition {
	var out []definition
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, "def", pos)
		if i < 0 {
			break
		}
		pos = i + 1
		p := texscan.SkipSpace(s, i+len(`\def`))
		n, p := texscan.ReadCommandName(s, p)
		if n == "" {
			continue
		}
		for p+1 < len(s) && s[p] == '#' && s[p+1] >= '1' && s[p+1] <= '9' {
			p += 2
		}
		value, e, ok := texscan.ReadGroup(s, p)
		if !ok {
			continue
		}
		out = append(out, definition{at: i, end: e, name: `\` + n, value: strings.TrimSpace(value)})
		pos = e
	}
	return out
}

func findOperators(s, cmd, op string) []definition {
	var out []definition
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, cmd, pos)
		if i < 0 {
			break
		}
		pos = i + 1
		name, p, ok := readMacroName(s, i+len(cmd)+1)
		if !ok {
			continue
		}
		value, e, ok := texscan.ReadGroup(s, p)
		if !ok {
			continue
		}
		out = append(out, definition{at: i, end: e, name: name, value: op + "{" + strings.TrimSpace(value) + "}"})
		pos = e
	}
	return out
}
