package pipeline

import (
	"regexp"
	"strings"

	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texmath"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// metadataStage reads the title block, preamble macro definitions and
// theorem declarations while the preamble is still present.
func (p *Processor) metadataStage(st *state) {
	if i := preambleEnd(st.text); i >= 0 {
		// Preamble definitions go away with the preamble in cleanup. Body
		// definitions are dropped without being harvested.
		st.doc.Macros = texmath.ExtractMacros(st.text[:i])
		st.text = st.text[:i] + texmath.RemoveDefinitions(st.text[i:])
	} else {
		st.doc.Macros = texmath.ExtractMacros(st.text)
		st.text = texmath.RemoveDefinitions(st.text)
	}
	st.text = readTheorems(st, st.text)

	var meta Metadata
	for _, field := range []struct {
		cmd string
		dst *string
	}{
		{"title", &meta.Title},
		{"author", &meta.Author},
		{"date", &meta.Date},
	} {
		st.text = texscan.ReplaceCommand(st.text, field.cmd, 1, func(_ string, args []string) string {
			*field.dst = args[0]
			return ""
		})
	}
	meta.Title = plainText(meta.Title)
	meta.Author = plainText(authorSeparator.ReplaceAllString(meta.Author, ", "))
	meta.Date = p.resolveDate(meta.Date)
	st.doc.Metadata = meta
}

// preambleEnd returns the offset of \begin{document}, or -1 for a fragment.
func preambleEnd(text string) int {
	i := strings.Index(text, beginDocument)
	if i < 0 || texscan.IsEscaped(text, i) {
		return -1
	}
	return i
}

// authorSeparator matches \and and line breaks between author names.
var authorSeparator = regexp.MustCompile(`\s*(?:\\and\b|\\\\)\s*`)

// readTheorems records \newtheorem{env}[counter]{Name}[within]
// declarations and removes them.
func readTheorems(st *state, text string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(text, "newtheorem", pos)
		if i < 0 {
			break
		}
		at := i + len(`\newtheorem`)
		if at < len(text) && text[at] == '*' {
			at++
		}
		env, e, ok := texscan.ReadGroup(text, at)
		if !ok {
			b.WriteString(text[pos : i+1])
			pos = i + 1
			continue
		}
		at = e
		if _, e, ok := texscan.ReadOptional(text, at); ok {
			at = e
		}
		display, e, ok := texscan.ReadGroup(text, at)
		if !ok {
			b.WriteString(text[pos : i+1])
			pos = i + 1
			continue
		}
		at = e
		if _, e, ok := texscan.ReadOptional(text, at); ok {
			at = e
		}
		st.theorems[strings.TrimSpace(env)] = strings.TrimSpace(display)
		b.WriteString(text[pos:i])
		pos = at
	}
	b.WriteString(text[pos:])
	return b.String()
}

// resolveDate expands \today and trims the date field.
func (p *Processor) resolveDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if texscan.IndexCommand(raw, "today", 0) >= 0 {
		today, err := dateutil.Today(p.opts.DateFormat, p.opts.Now())
		if err != nil {
			p.logger.Warn("invalid date format, using default", "format", p.opts.DateFormat, "error", err)
			today, _ = dateutil.Today("", p.opts.Now())
		}
		raw = texscan.ReplaceCommand(raw, "today", 0, func(string, []string) string { return today })
	}
	return plainText(raw)
}

// plainText renders a short LaTeX fragment to text without markup.
func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	for _, cmd := range []string{"thanks", "footnote", "label"} {
		s = texscan.ReplaceCommand(s, cmd, 1, func(string, []string) string { return "" })
	}
	st := newState(s)
	out := st.reg.Resolve(formatInline(st, st.text))
	for _, tok := range placeholder.Find(out) {
		out = strings.ReplaceAll(out, tok, "")
	}
	return strings.Join(strings.Fields(stripHTMLTags(out)), " ")
}
