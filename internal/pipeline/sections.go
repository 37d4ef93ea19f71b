package pipeline

import (
	"html"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// sectionLevels maps sectioning commands to their depth. Depths above
// maxNumberedLevel are not numbered, as with the LaTeX default secnumdepth.
var sectionLevels = map[string]int{
	"part": 1, "chapter": 1, "section": 2, "subsection": 3,
	"subsubsection": 4, "paragraph": 5, "subparagraph": 6,
}

const maxNumberedLevel = 4

// tocMarker marks where \tableofcontents stood. The page renderer replaces
// it with the generated table of contents.
const tocMarker = `<div class="toc-placeholder" data-toc></div>`

// sections renders headings in document order, plus \maketitle and
// \tableofcontents.
func (p *Processor) sections(st *state, text string) string {
	var b strings.Builder
	pos := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || texscan.IsEscaped(text, i) {
			continue
		}
		name, end := texscan.ReadCommandName(text, i)
		var out string
		switch base := strings.TrimSuffix(name, "*"); {
		case base == "maketitle":
			out = st.block(titleBlock(st.doc.Metadata))
			st.doc.TitleRendered = true
		case base == "tableofcontents":
			out = st.block(tocMarker)
			st.doc.HasTOC = true
		case sectionLevels[base] > 0:
			heading, e, ok := p.heading(st, text, base, name != base, end)
			if !ok {
				continue
			}
			out, end = st.block(heading), e
		default:
			continue
		}
		b.WriteString(text[pos:i])
		b.WriteString(out)
		pos = end
		i = end - 1
	}
	b.WriteString(text[pos:])
	return b.String()
}

// heading reads "[short]{title}" after a sectioning command and a \label
// directly following it.
func (p *Processor) heading(st *state, text, name string, starred bool, pos int) (string, int, bool) {
	_, pos, _ = texscan.ReadOptional(text, pos)
	title, end, ok := texscan.ReadGroup(text, pos)
	if !ok {
		return "", pos, false
	}
	var key string
	if at := texscan.SkipSpace(text, end); texscan.IndexCommand(text, "label", at) == at {
		if args, e, ok := texscan.ReadArgs(text, at+len(`\label`), 1); ok {
			key, end = strings.TrimSpace(args[0]), e
		}
	}

	level := sectionLevels[name]
	id := st.slug(plainText(title))
	var number string
	if !starred && level <= maxNumberedLevel && name != "part" {
		number, _ = st.sections.next(level)
		number = strings.TrimSuffix(number, ".")
	}
	if key != "" {
		st.labels[key] = label{Number: number, Anchor: id}
	}

	tag := "h" + strconv.Itoa(min(max(level, 2), 6))
	var b strings.Builder
	b.WriteString("<" + tag + ` id="` + id + `"`)
	if name == "part" || name == "chapter" {
		b.WriteString(` class="` + name + `"`)
	}
	b.WriteString(">")
	if number != "" {
		b.WriteString(`<span class="section-number">` + number + "</span> ")
	}
	b.WriteString(formatInline(st, strings.TrimSpace(title)))
	b.WriteString("</" + tag + ">")
	return b.String(), end, true
}

// titleBlock renders \maketitle from the document metadata.
func titleBlock(m Metadata) string {
	var b strings.Builder
	b.WriteString(`<header class="title-block">`)
	if m.Title != "" {
		b.WriteString(`<h1 class="doc-title">` + html.EscapeString(m.Title) + "</h1>")
	}
	if m.Author != "" {
		b.WriteString(`<p class="doc-author">` + html.EscapeString(m.Author) + "</p>")
	}
	if m.Date != "" {
		b.WriteString(`<p class="doc-date">` + html.EscapeString(m.Date) + "</p>")
	}
	b.WriteString("</header>")
	return b.String()
}

// slugFold drops diacritics before slugging.
var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slug returns a unique heading id derived from text.
func (st *state) slug(text string) string {
	folded, _, err := transform.String(slugFold, text)
	if err != nil {
		folded = text
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		s = "section"
	}
	st.slugs[s]++
	if n := st.slugs[s]; n > 1 {
		s += "-" + strconv.Itoa(n)
	}
	return s
}

// anchorID turns a \label key into an id attribute value.
func anchorID(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_', r == ':', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
