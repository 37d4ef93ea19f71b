package pipeline

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// pendingRef is a \ref whose number is filled once every label is known.
type pendingRef struct {
	tok   string
	key   string
	paren bool
}

// pendingNote is a footnote marker numbered in document order at the end.
type pendingNote struct {
	tok  string
	html string
}

var (
	markdownBold   = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	symbolAccent   = regexp.MustCompile("\\\\([`'^\"~=.])(?:\\{([A-Za-z])\\}|([A-Za-z]))")
	letterAccent   = regexp.MustCompile(`\\([cvuHrk])\{([A-Za-z])\}`)
	residualCmd    = regexp.MustCompile(`\\[A-Za-z]+\*?`)
	colorName      = regexp.MustCompile(`^#?[A-Za-z0-9]+$`)
	safeLinkScheme = regexp.MustCompile(`^(?i)(https?|mailto|ftp):`)
)

// accents maps accent commands to combining marks.
var accents = map[string]string{
	"`": "\u0300", "'": "\u0301", "^": "\u0302", "~": "\u0303", "=": "\u0304",
	"u": "\u0306", ".": "\u0307", `"`: "\u0308", "r": "\u030A", "H": "\u030B",
	"v": "\u030C", "c": "\u0327", "k": "\u0328",
}

// wrapCommands map one-argument formatting commands to HTML tags. An empty
// tag keeps the content only.
var wrapCommands = []struct {
	name, open, close string
}{
	{"textbf", "<strong>", "</strong>"},
	{"textit", "<em>", "</em>"},
	{"textsl", "<em>", "</em>"},
	{"emph", "<em>", "</em>"},
	{"underline", "<u>", "</u>"},
	{"uline", "<u>", "</u>"},
	{"sout", "<s>", "</s>"},
	{"texttt", "<code>", "</code>"},
	{"textsc", `<span class="smallcaps">`, "</span>"},
	{"textsuperscript", "<sup>", "</sup>"},
	{"textsubscript", "<sub>", "</sub>"},
	{"textrm", "", ""},
	{"textsf", "", ""},
	{"textup", "", ""},
	{"textmd", "", ""},
	{"textnormal", "", ""},
	{"mbox", "", ""},
	{"hbox", "", ""},
	{"text", "", ""},
	{"enquote", "“", "”"},
}

// declarations are font switches written as {\bf text}.
var declarations = []struct {
	name, open, close string
}{
	{"bfseries", "<strong>", "</strong>"},
	{"bf", "<strong>", "</strong>"},
	{"itshape", "<em>", "</em>"},
	{"it", "<em>", "</em>"},
	{"em", "<em>", "</em>"},
	{"slshape", "<em>", "</em>"},
	{"ttfamily", "<code>", "</code>"},
	{"tt", "<code>", "</code>"},
	{"scshape", `<span class="smallcaps">`, "</span>"},
}

// symbols are argument-free commands with a fixed rendering.
var symbols = []struct {
	name, out string
}{
	{"ldots", "…"}, {"dots", "…"}, {"textellipsis", "…"},
	{"textbackslash", "&#92;"}, {"textasciitilde", "~"}, {"textasciicircum", "^"},
	{"textendash", "–"}, {"textemdash", "—"}, {"textbullet", "•"},
	{"textdegree", "°"}, {"textregistered", "®"}, {"texttrademark", "™"},
	{"copyright", "©"}, {"textcopyright", "©"}, {"pounds", "£"}, {"euro", "€"},
	{"S", "§"}, {"P", "¶"}, {"dag", "†"}, {"ddag", "‡"},
	{"ss", "ß"}, {"o", "ø"}, {"O", "Ø"}, {"ae", "æ"}, {"AE", "Æ"}, {"oe", "œ"}, {"OE", "Œ"},
	{"aa", "å"}, {"AA", "Å"}, {"l", "ł"}, {"L", "Ł"}, {"i", "ı"},
	{"LaTeX", "LaTeX"}, {"TeX", "TeX"}, {"LaTeXe", "LaTeX2ε"},
	{"newline", "<br>"}, {"linebreak", "<br>"}, {"quad", "\u2003"}, {"qquad", "\u2003\u2003"},
	{"textquoteleft", "‘"}, {"textquoteright", "’"},
	{"textquotedblleft", "“"}, {"textquotedblright", "”"},
}

// escapes replaces control symbols. Longer sequences come first.
var escapes = strings.NewReplacer(
	`\\`, "<br>",
	`\&amp;`, "&amp;",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	`\{`, "&#123;",
	`\}`, "&#125;",
	`\,`, "\u2009",
	`\;`, " ",
	`\:`, " ",
	`\ `, " ",
	`\!`, "",
	`\@`, "",
	`\/`, "",
	`\-`, "",
)

// textEscaper escapes HTML in prose. Quotes stay literal in text nodes.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// refCommands resolve to label numbers. eqref adds parentheses.
var refCommands = []string{"ref", "eqref", "autoref", "cref", "Cref", "pageref", "nameref", "vref"}

// formatInline converts running text to HTML: escapes, typography, font
// commands, links, footnotes and cross-references. Placeholder tokens pass
// through untouched.
func formatInline(st *state, s string) string {
	if strings.TrimSpace(s) == "" {
		return strings.TrimSpace(s)
	}
	s = protectLinks(st, s)
	s = stripComments(s)
	s = stripNoopCommands(s)
	s = applyAccents(s)
	s = textEscaper.Replace(s)
	s = typography(s)
	s = escapes.Replace(s)
	for _, sym := range symbols {
		s = replaceSymbol(s, sym.name, sym.out)
	}
	for _, c := range wrapCommands {
		s = texscan.ReplaceCommand(s, c.name, 1, func(_ string, args []string) string {
			return c.open + args[0] + c.close
		})
	}
	for _, d := range declarations {
		s = replaceDeclaration(s, d.name, d.open, d.close)
	}
	s = texscan.ReplaceCommand(s, "textcolor", 2, func(_ string, args []string) string {
		c := strings.TrimSpace(args[0])
		if !colorName.MatchString(c) {
			return args[1]
		}
		return `<span style="color:` + c + `">` + args[1] + "</span>"
	})
	s = texscan.ReplaceCommand(s, "hyperref", 1, func(_ string, args []string) string { return args[0] })
	s = texscan.ReplaceCommand(s, "label", 1, func(string, []string) string { return "" })
	s = reserveRefs(st, s)
	s = markdownBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = texscan.ReplaceCommand(s, "footnote", 1, func(_ string, args []string) string {
		tok := st.reg.Reserve(placeholder.Block)
		st.notes = append(st.notes, pendingNote{tok: tok, html: stripResidual(strings.TrimSpace(args[0]))})
		return tok
	})
	return stripResidual(s)
}

// protectLinks registers \url and \href as fragments so later text
// transformations cannot alter their targets.
func protectLinks(st *state, s string) string {
	s = texscan.ReplaceCommand(s, "url", 1, func(_ string, args []string) string {
		u := linkTarget.Replace(strings.TrimSpace(args[0]))
		return st.reg.Add(placeholder.Block, link(u, html.EscapeString(u)))
	})
	s = texscan.ReplaceCommand(s, "href", 2, func(_ string, args []string) string {
		u := linkTarget.Replace(strings.TrimSpace(args[0]))
		return st.reg.Add(placeholder.Block, link(u, formatInline(st, args[1])))
	})
	return s
}

// linkTarget unescapes characters TeX requires escaping in link targets.
var linkTarget = strings.NewReplacer(`\%`, "%", `\#`, "#", `\_`, "_", `\&`, "&", `\~`, "~")

// link builds an anchor. Targets with an unexpected scheme keep the text
// only.
func link(target, text string) string {
	if u, err := url.Parse(target); err != nil || (u.Scheme != "" && !safeLinkScheme.MatchString(target)) {
		return text
	}
	return `<a href="` + html.EscapeString(target) + `">` + text + "</a>"
}

// stripComments removes "%" comments. A line holding only a comment is
// removed together with its newline.
func stripComments(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		i := texscan.IndexUnescaped(line, '%', 0)
		if i < 0 {
			out = append(out, line)
			continue
		}
		if strings.TrimSpace(line[:i]) == "" {
			continue
		}
		out = append(out, strings.TrimRight(line[:i], " \t"))
	}
	return strings.Join(out, "\n")
}

func applyAccents(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	s = symbolAccent.ReplaceAllStringFunc(s, func(m string) string {
		sub := symbolAccent.FindStringSubmatch(m)
		return norm.NFC.String(sub[2] + sub[3] + accents[sub[1]])
	})
	return letterAccent.ReplaceAllStringFunc(s, func(m string) string {
		sub := letterAccent.FindStringSubmatch(m)
		return norm.NFC.String(sub[2] + accents[sub[1]])
	})
}

// typography converts TeX quotes, dashes and ties.
func typography(s string) string {
	s = strings.NewReplacer("``", "“", "''", "”", "---", "—", "--", "–").Replace(s)
	if !strings.Contains(s, "~") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '~' && !texscan.IsEscaped(s, i) {
			b.WriteString("\u00A0")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// replaceSymbol replaces an argument-free command, consuming an empty
// "{}" that follows it.
func replaceSymbol(s, name, out string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, name, pos)
		if i < 0 {
			break
		}
		end := i + len(name) + 1
		if strings.HasPrefix(s[end:], "{}") {
			end += 2
		}
		b.WriteString(s[pos:i])
		b.WriteString(out)
		pos = end
	}
	if pos == 0 {
		return s
	}
	b.WriteString(s[pos:])
	return b.String()
}

// replaceDeclaration rewrites "{\name text}" as open+text+close. A bare
// declaration outside a group is dropped.
func replaceDeclaration(s, name, open, closeTag string) string {
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, name, 0)
		if i < 0 {
			return s
		}
		end := i + len(name) + 1
		if i > 0 && s[i-1] == '{' && !texscan.IsEscaped(s, i-1) {
			if c := texscan.MatchingBrace(s, i-1); c > 0 {
				s = s[:i-1] + open + strings.TrimSpace(s[end:c]) + closeTag + s[c+1:]
				continue
			}
		}
		s = s[:i] + s[end:]
	}
	return s
}

// reserveRefs replaces cross-references with tokens filled after every
// label is known.
func reserveRefs(st *state, s string) string {
	for _, cmd := range refCommands {
		s = texscan.ReplaceCommand(s, cmd, 1, func(_ string, args []string) string {
			tok := st.reg.Reserve(placeholder.Block)
			st.refs = append(st.refs, pendingRef{tok: tok, key: strings.TrimSpace(args[0]), paren: cmd == "eqref"})
			return tok
		})
	}
	return s
}

// stripResidual drops unknown commands and grouping braces, keeping their
// content.
func stripResidual(s string) string {
	s = residualCmd.ReplaceAllString(s, "")
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if (s[i] == '{' || s[i] == '}') && !texscan.IsEscaped(s, i) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// resolveRefs fills cross-reference tokens from the collected labels.
func (p *Processor) resolveRefs(st *state) {
	for _, r := range st.refs {
		out := "??"
		l, ok := st.labels[r.key]
		if ok {
			out = l.Number
		} else {
			p.logger.Debug("unresolved reference", "label", r.key)
		}
		if r.paren {
			out = "(" + out + ")"
		}
		if ok && l.Anchor != "" {
			out = `<a class="ref" href="#` + html.EscapeString(l.Anchor) + `">` + out + "</a>"
		}
		if err := st.reg.Fill(r.tok, out); err != nil {
			p.logger.Debug("reference already filled", "label", r.key, "error", err)
		}
	}
	st.refs = nil
}
