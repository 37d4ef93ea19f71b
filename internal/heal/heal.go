// Package heal repairs malformed, machine-generated LaTeX-like text before
// any structural parsing happens.
//
// Heal is pure and never fails: every repair either applies or leaves the
// text as it was. Running it twice yields the same text as running it once.
package heal

import (
	"regexp"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// DefaultSafePhrases are literal phrases whose ampersand is prose, not a
// table separator.
var DefaultSafePhrases = []string{"R&D", "Q&A", "AT&T", "P&L", "M&A", "S&P"}

// Options tunes the healer.
type Options struct {
	// SafePhrases are escaped in addition to DefaultSafePhrases.
	SafePhrases []string
}

// maxRounds bounds the repair loop. A repair can expose input for an
// earlier one, so Heal reruns the sequence until the text stops changing.
const maxRounds = 8

// Heal runs every repair in a fixed order and returns the repaired text.
func Heal(text string, opts Options) string {
	if text == "" {
		return text
	}
	phrases := mergePhrases(DefaultSafePhrases, opts.SafePhrases)
	for range maxRounds {
		next := healOnce(text, phrases)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func healOnce(text string, phrases []string) string {
	text = NormalizeLineEndings(text)
	text = StripCodeFence(text)
	text = ConvertLiteralNewlines(text)
	text = StripLayoutCommands(text)
	text = RemoveReferenceHeadings(text)
	text = MergeInlineOperators(text)
	text = StripNestedDollars(text)
	text = AttachOrphanScripts(text)
	// Attached scripts can expose new "$a_i$ = $b$" pairs.
	text = MergeInlineOperators(text)
	return EscapeSafePhrases(text, phrases)
}

// mergePhrases appends extra to base, skipping duplicates and empties.
func mergePhrases(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, p := range append(append([]string{}, base...), extra...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// NormalizeLineEndings converts CRLF and lone CR to LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

var fenceOpen = regexp.MustCompile("^\\s*```[A-Za-z]*[ \\t]*\n")

// StripCodeFence removes a Markdown code fence wrapping the whole document,
// as in "```latex ... ```".
func StripCodeFence(s string) string {
	loc := fenceOpen.FindStringIndex(s)
	if loc == nil {
		return s
	}
	s = s[loc[1]:]
	trimmed := strings.TrimRight(s, " \t\n")
	if strings.HasSuffix(trimmed, "```") {
		s = strings.TrimRight(strings.TrimSuffix(trimmed, "```"), " \t\n") + "\n"
	}
	return s
}

// protectedN lists real commands that begin with "\n" and must not be read
// as an escaped newline.
var protectedN = map[string]bool{
	"newcommand": true, "renewcommand": true, "providecommand": true,
	"newenvironment": true, "renewenvironment": true, "newtheorem": true,
	"newcounter": true, "newlength": true, "newif": true, "newline": true,
	"newpage": true, "noindent": true, "nonumber": true, "nolimits": true,
	"normalsize": true, "normalfont": true, "nobreak": true, "nopagebreak": true,
	"nolinebreak": true, "numberwithin": true, "nocite": true, "nameref": true,
	"node": true, "nabla": true, "natural": true, "ne": true, "neq": true,
	"neg": true, "nearrow": true, "nwarrow": true, "nexists": true, "ni": true,
	"nmid": true, "not": true, "notin": true, "nu": true, "nleq": true,
	"ngeq": true, "nless": true, "ngtr": true, "nsim": true, "ncong": true,
	"nparallel": true, "nsubseteq": true, "nsupseteq": true, "nvdash": true,
	"nleftarrow": true, "nrightarrow": true, "nleftrightarrow": true,
	"nLeftarrow": true, "nRightarrow": true, "norm": true, "nobreakspace": true,
}

var definedName = regexp.MustCompile(`\\(?:re)?newcommand\*?\s*\{?\\([A-Za-z]+)|\\def\s*\\([A-Za-z]+)|\\DeclareMathOperator\*?\s*\{\\([A-Za-z]+)`)

// ConvertLiteralNewlines turns the two characters "\n" into a line break
// unless they start a known command or a macro defined in the same text.
// A backslash that is itself escaped ("\\n") is left alone.
func ConvertLiteralNewlines(s string) string {
	if !strings.Contains(s, `\n`) {
		return s
	}
	defined := make(map[string]bool)
	for _, m := range definedName.FindAllStringSubmatch(s, -1) {
		for _, name := range m[1:] {
			if name != "" {
				defined[name] = true
			}
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) || s[i+1] != 'n' || texscan.IsEscaped(s, i) {
			b.WriteByte(s[i])
			continue
		}
		name, _ := texscan.ReadCommandName(s, i)
		name = strings.TrimSuffix(name, "*")
		if protectedN[name] || defined[name] {
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte('\n')
		i++
	}
	return b.String()
}

var referenceHeading = regexp.MustCompile(`(?im)^[ \t]*\\(?:section|subsection|chapter)\*?\s*\{\s*(?:references|bibliography|reference list|works cited)\s*\}[ \t]*\n?`)

// RemoveReferenceHeadings deletes section headings titled References or
// Bibliography; the bibliography supplies its own heading.
func RemoveReferenceHeadings(s string) string {
	return referenceHeading.ReplaceAllString(s, "")
}

// EscapeSafePhrases escapes the ampersand in each phrase that stands as a
// whole word. Phrases already escaped are left as they are.
func EscapeSafePhrases(s string, phrases []string) string {
	for _, p := range phrases {
		if !strings.Contains(p, "&") || !strings.Contains(s, p) {
			continue
		}
		s = escapePhrase(s, p, strings.ReplaceAll(p, "&", `\&`))
	}
	return s
}

func escapePhrase(s, phrase, escaped string) string {
	var b strings.Builder
	pos := 0
	for pos < len(s) {
		i := strings.Index(s[pos:], phrase)
		if i < 0 {
			break
		}
		i += pos
		end := i + len(phrase)
		if !wordBoundary(s, i-1) || !wordBoundary(s, end) {
			b.WriteString(s[pos : i+1])
			pos = i + 1
			continue
		}
		b.WriteString(s[pos:i])
		b.WriteString(escaped)
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

// wordBoundary reports whether the byte at i cannot extend a word.
func wordBoundary(s string, i int) bool {
	return i < 0 || i >= len(s) || !isAlnum(s[i])
}

// Page layout commands that have no meaning in a web preview.
var (
	layoutNoArg = []string{
		"newpage", "clearpage", "cleardoublepage", "pagebreak", "vfill",
		"FloatBarrier", "smallskip", "medskip", "bigskip", "noindent",
	}
	layoutOneArg = []string{"vspace*", "vspace", "thispagestyle", "pagestyle", "enlargethispage"}
)

// StripLayoutCommands removes page layout no-ops along with the spaces that
// follow them on the same line.
func StripLayoutCommands(s string) string {
	for _, name := range layoutOneArg {
		s = texscan.ReplaceCommand(s, name, 1, func(string, []string) string { return "" })
	}
	for _, name := range layoutNoArg {
		s = removeCommand(s, name)
	}
	return s
}

func removeCommand(s, name string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, name, pos)
		if i < 0 {
			break
		}
		b.WriteString(s[pos:i])
		end := i + len(name) + 1
		for end < len(s) && (s[end] == ' ' || s[end] == '\t') {
			end++
		}
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}
