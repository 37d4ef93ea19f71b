package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// ErrHighlight indicates a code listing could not be highlighted.
var ErrHighlight = errors.New("code highlighting failed")

// codeStyle is the chroma style used for listings and by CSS.
const codeStyle = "github"

// CodeHighlighter renders code listings with chroma. Markdown fences that
// leak into the source go through goldmark with the same style.
type CodeHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
	md        goldmark.Markdown
}

// NewCodeHighlighter creates a highlighter emitting CSS classes rather
// than inline styles, so one stylesheet serves every listing.
func NewCodeHighlighter() *CodeHighlighter {
	return &CodeHighlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(codeStyle),
		md: goldmark.New(
			goldmark.WithExtensions(
				highlighting.NewHighlighting(
					highlighting.WithStyle(codeStyle),
					highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
				),
			),
			// No WithUnsafe: fence bodies are always escaped.
		),
	}
}

// Highlight renders source as a <pre> block. An unknown or empty language
// yields escaped plain text.
func (c *CodeHighlighter) Highlight(source, language string) (string, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		return "<pre><code>" + html.EscapeString(source) + "</code></pre>", nil
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}

// CSS returns the stylesheet for highlighted listings.
func (c *CodeHighlighter) CSS() (string, error) {
	var buf bytes.Buffer
	if err := c.formatter.WriteCSS(&buf, c.style); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}

// markdownFence renders one fenced block through goldmark.
func (c *CodeHighlighter) markdownFence(fence string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(fence), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// listing is one extracted code block.
type listing struct {
	source   string
	language string
	caption  string
	label    string
}

var verbatimNames = []string{"verbatim", "verbatim*", "Verbatim", "lstlisting", "minted", "code"}

// extract replaces code environments, Markdown fences and inline verbatim
// with CODE tokens so later stages never see their content.
func (c *CodeHighlighter) extract(st *state, text string) string {
	text = texscan.ReplaceEnvs(text, verbatimNames, func(name, body string) string {
		return c.register(st, parseListing(name, body))
	})
	text = c.fences(st, text)
	return c.inline(st, text)
}

// parseListing reads the options of a code environment.
func parseListing(name, body string) listing {
	var l listing
	switch name {
	case "minted":
		_, end, _ := texscan.ReadOptional(body, 0)
		if lang, e, ok := texscan.ReadGroup(body, end); ok {
			l.language, body = lang, body[e:]
		}
	case "lstlisting", "Verbatim":
		if opt, end, ok := texscan.ReadOptional(body, 0); ok {
			body = body[end:]
			for _, kv := range texscan.SplitTopLevel(opt, ',') {
				k, v, _ := strings.Cut(kv, "=")
				v = strings.Trim(strings.TrimSpace(v), "{}")
				switch strings.TrimSpace(k) {
				case "language":
					l.language = strings.TrimPrefix(v, "[")
					if i := strings.IndexByte(l.language, ']'); i >= 0 {
						// [Sharp]C style dialects
						l.language = l.language[i+1:]
					}
				case "caption", "title":
					l.caption = v
				case "label":
					l.label = v
				}
			}
		}
	}
	l.source = trimCodeNewlines(body)
	return l
}

// trimCodeNewlines drops the newline after \begin and before \end while
// keeping indentation.
func trimCodeNewlines(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "\r"), "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 && strings.TrimSpace(s[i:]) == "" {
		s = s[:i]
	}
	return s
}

// register highlights a listing and returns its padded token.
func (c *CodeHighlighter) register(st *state, l listing) string {
	body, err := c.Highlight(l.source, l.language)
	if err != nil {
		body = "<pre><code>" + html.EscapeString(l.source) + "</code></pre>"
	}
	return c.wrap(st, body, l)
}

func (c *CodeHighlighter) wrap(st *state, body string, l listing) string {
	st.doc.Stats.CodeBlocks++
	var b strings.Builder
	b.WriteString(`<div class="code-block"`)
	if l.language != "" {
		b.WriteString(` data-language="` + html.EscapeString(l.language) + `"`)
	}
	if l.caption != "" {
		n := strconv.Itoa(st.next("float:Listing"))
		anchor := "listing-" + n
		if l.label != "" {
			anchor = anchorID(l.label)
			st.labels[l.label] = label{Number: n, Anchor: anchor}
		}
		b.WriteString(` id="` + anchor + `"><div class="code-caption"><span class="caption-label">Listing ` + n + ":</span> " +
			formatInline(st, l.caption) + "</div>")
	} else {
		b.WriteString(">")
	}
	b.WriteString(body + "</div>")
	return "\n\n" + st.reg.Add(placeholder.Code, b.String()) + "\n\n"
}

// fences replaces Markdown code fences. An unterminated fence is left as
// text.
func (c *CodeHighlighter) fences(st *state, text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for i := 0; i < len(lines); i++ {
		open := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(open, "```") {
			b.WriteString(lines[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				end = j
				break
			}
		}
		if end < 0 {
			b.WriteString(lines[i])
			continue
		}
		fence := strings.Join(lines[i:end+1], "")
		lang := strings.TrimSpace(strings.TrimLeft(open, "`"))
		out, err := c.markdownFence(strings.TrimSpace(fence))
		if err != nil {
			out = "<pre><code>" + html.EscapeString(strings.Join(lines[i+1:end], "")) + "</code></pre>"
		}
		b.WriteString(c.wrap(st, out, listing{language: lang}))
		i = end
	}
	return b.String()
}

// inline replaces \verb|x|, \lstinline|x| and \mintinline{lang}{x}.
func (c *CodeHighlighter) inline(st *state, text string) string {
	for _, name := range []string{"verb", "lstinline", "mintinline"} {
		text = replaceInlineCode(st, text, name)
	}
	return text
}

func replaceInlineCode(st *state, text, name string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(text, name, pos)
		if i < 0 {
			break
		}
		at := i + len(name) + 1
		if at < len(text) && text[at] == '*' {
			at++
		}
		if name == "lstinline" {
			_, at, _ = texscan.ReadOptional(text, at)
		}
		if name == "mintinline" {
			_, e, ok := texscan.ReadGroup(text, at)
			if !ok {
				b.WriteString(text[pos : i+1])
				pos = i + 1
				continue
			}
			at = e
		}
		code, end, ok := readDelimited(text, at)
		if !ok {
			b.WriteString(text[pos : i+1])
			pos = i + 1
			continue
		}
		b.WriteString(text[pos:i])
		b.WriteString(st.reg.Add(placeholder.Code, `<code class="verb">`+html.EscapeString(code)+"</code>"))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// readDelimited reads "|code|" or "{code}" at pos, on one line.
func readDelimited(s string, pos int) (string, int, bool) {
	if pos >= len(s) {
		return "", pos, false
	}
	open := s[pos]
	if open == '{' {
		if end := texscan.MatchingBrace(s, pos); end > 0 {
			return s[pos+1 : end], end + 1, true
		}
		return "", pos, false
	}
	if open == ' ' || open == '\n' || open == '\t' || isASCIILetter(open) {
		return "", pos, false
	}
	for j := pos + 1; j < len(s); j++ {
		switch s[j] {
		case open:
			return s[pos+1 : j], j + 1, true
		case '\n':
			return "", pos, false
		}
	}
	return "", pos, false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
