package pipeline

import (
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// listEnvironments maps list environments to their HTML element.
var listEnvironments = map[string]string{
	"itemize":     "ul",
	"enumerate":   "ol",
	"description": "dl",
	"compactitem": "ul",
	"compactenum": "ol",
}

// listNames is listEnvironments in a fixed scan order.
var listNames = []string{"itemize", "enumerate", "description", "compactitem", "compactenum"}

// enumerateTypes maps enumitem/enumerate label counters to <ol type>.
var enumerateTypes = []struct {
	marker, typ string
}{
	{`\alph`, "a"}, {`\Alph`, "A"}, {`\roman`, "i"}, {`\Roman`, "I"}, {`\arabic`, "1"},
	{"(a)", "a"}, {"(i)", "i"}, {"a)", "a"}, {"i)", "i"}, {"A.", "A"}, {"I.", "I"},
}

// item is one \item of a list.
type item struct {
	label    string
	hasLabel bool
	body     string
}

// lists renders every top-level list environment in document order.
// Nested lists are rendered while rendering their parent item.
func (p *Processor) lists(st *state, text string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		env, ok := nextEnv(text, listNames, pos)
		if !ok {
			break
		}
		b.WriteString(text[pos:env.Start])
		b.WriteString(st.block(p.renderList(st, env.Name, env.Body(text))))
		pos = env.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// nextEnv returns the earliest environment among names at or after pos.
func nextEnv(text string, names []string, pos int) (texscan.Env, bool) {
	var best texscan.Env
	found := false
	for _, name := range names {
		env, ok := texscan.FindEnv(text, name, pos)
		if ok && (!found || env.Start < best.Start) {
			best, found = env, true
		}
	}
	return best, found
}

func (p *Processor) renderList(st *state, name, body string) string {
	tag := listEnvironments[name]
	opt, end, hasOpt := texscan.ReadOptional(body, 0)
	if hasOpt {
		body = body[end:]
	}

	var b strings.Builder
	b.WriteString("<" + tag + ` class="latex-list"`)
	if tag == "ol" {
		if typ := enumerateType(opt, st.listDepth); typ != "1" {
			b.WriteString(` type="` + typ + `"`)
		}
	}
	b.WriteString(">")
	st.listDepth++
	defer func() { st.listDepth-- }()
	for _, it := range splitItems(body) {
		content := p.nested(st, it.body, hasParagraphs(it.body))
		switch {
		case tag == "dl":
			b.WriteString("<dt>" + formatInline(st, it.label) + "</dt><dd>" + content + "</dd>")
		case it.hasLabel:
			b.WriteString(`<li class="labeled"><span class="item-label">` + formatInline(st, it.label) + "</span> " + content + "</li>")
		default:
			b.WriteString("<li>" + content + "</li>")
		}
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// enumerateType picks the <ol type> from an enumerate optional argument,
// falling back to the LaTeX default for the nesting depth.
func enumerateType(opt string, depth int) string {
	for _, t := range enumerateTypes {
		if strings.Contains(opt, t.marker) {
			return t.typ
		}
	}
	switch depth % 4 {
	case 1:
		return "a"
	case 2:
		return "i"
	case 3:
		return "A"
	}
	return "1"
}

// splitItems walks body and cuts it at every \item that belongs to this
// list: not inside braces and not inside a nested environment. Text before
// the first \item is dropped.
func splitItems(body string) []item {
	var items []item
	depth, envDepth := 0, 0
	start := -1
	var cur item
	closeItem := func(end int) {
		if start >= 0 {
			cur.body = body[start:end]
			items = append(items, cur)
		}
	}
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			if !texscan.IsEscaped(body, i) {
				depth++
			}
		case '}':
			if !texscan.IsEscaped(body, i) && depth > 0 {
				depth--
			}
		case '\\':
			if texscan.IsEscaped(body, i) {
				continue
			}
			name, end := texscan.ReadCommandName(body, i)
			switch {
			case name == "begin":
				envDepth++
			case name == "end" && envDepth > 0:
				envDepth--
			case name == "item" && depth == 0 && envDepth == 0:
				closeItem(i)
				cur = item{}
				if label, e, ok := texscan.ReadOptional(body, end); ok {
					cur.label, cur.hasLabel = strings.TrimSpace(label), true
					end = e
				}
				start = end
			}
			if end > i+1 {
				i = end - 1
			}
		}
	}
	closeItem(len(body))
	return items
}
