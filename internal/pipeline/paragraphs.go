package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/alnah/go-tex2html/internal/placeholder"
)

// blockAtoms are elements that must not sit inside a paragraph.
var blockAtoms = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Details: true, atom.Div: true, atom.Dl: true, atom.Fieldset: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Ul: true,
}

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)
	leadingTag     = regexp.MustCompile(`^\s*<([a-zA-Z][a-zA-Z0-9]*)`)
)

// isBlockHTML reports whether fragment starts with a block-level element.
func isBlockHTML(fragment string) bool {
	m := leadingTag.FindStringSubmatch(fragment)
	if m == nil {
		return false
	}
	return blockAtoms[atom.Lookup([]byte(strings.ToLower(m[1])))]
}

// paragraphs splits text on blank-line runs and wraps each run of inline
// content in <p>. Block-level fragments, whether raw or behind a token,
// stand alone.
func (p *Processor) paragraphs(st *state, text string) string {
	var out []string
	for _, seg := range paragraphBreak.Split(text, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if isBlockHTML(seg) && !strings.Contains(seg, "\n\n") {
			out = append(out, seg)
			continue
		}
		out = append(out, splitBlocks(st, seg)...)
	}
	return strings.Join(out, "\n")
}

// splitBlocks separates block-level tokens from the inline text around
// them.
func splitBlocks(st *state, seg string) []string {
	var out []string
	var pending strings.Builder
	flush := func() {
		if text := strings.TrimSpace(pending.String()); text != "" {
			out = append(out, "<p>"+text+"</p>")
		}
		pending.Reset()
	}
	pos := 0
	for _, tok := range placeholder.Find(seg) {
		i := pos + strings.Index(seg[pos:], tok)
		fragment, ok := st.reg.Get(tok)
		if !ok || !isBlockHTML(fragment) {
			continue
		}
		pending.WriteString(seg[pos:i])
		flush()
		out = append(out, tok)
		pos = i + len(tok)
	}
	pending.WriteString(seg[pos:])
	flush()
	return out
}
