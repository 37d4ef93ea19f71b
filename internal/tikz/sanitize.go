package tikz

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// symbolReplacer maps the typographic symbols generated text puts in labels
// to TeX the in-browser engine understands. It runs before ASCII folding,
// which would otherwise drop them.
var symbolReplacer = strings.NewReplacer(
	"→", `$\rightarrow$`,
	"←", `$\leftarrow$`,
	"↔", `$\leftrightarrow$`,
	"⇒", `$\Rightarrow$`,
	"≤", `$\leq$`,
	"≥", `$\geq$`,
	"≠", `$\neq$`,
	"≈", `$\approx$`,
	"×", `$\times$`,
	"·", `$\cdot$`,
	"±", `$\pm$`,
	"°", `$^\circ$`,
	"–", "--",
	"—", "---",
	"“", "``",
	"”", "''",
	"‘", "`",
	"’", "'",
	"…", `\ldots{}`,
	"\u00a0", "~",
)

// FoldASCII replaces known symbols with TeX equivalents, decomposes
// accented letters and drops whatever is still outside ASCII.
func FoldASCII(s string) string {
	s = symbolReplacer.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// listEnvs are rewritten to line-broken node text.
var listEnvs = []string{"itemize", "enumerate"}

// RewriteNodeLists turns list environments, which the browser TeX engine
// cannot typeset inside a node, into "$\bullet$ a \\ $\bullet$ b" or
// "1. a \\ 2. b".
func RewriteNodeLists(s string) string {
	return texscan.ReplaceEnvs(s, listEnvs, func(name, body string) string {
		items := splitItems(RewriteNodeLists(body))
		parts := make([]string, 0, len(items))
		for i, it := range items {
			bullet := `$\bullet$ `
			if name == "enumerate" {
				bullet = strconv.Itoa(i+1) + ". "
			}
			parts = append(parts, bullet+it)
		}
		return strings.Join(parts, ` \\ `)
	})
}

// splitItems returns the trimmed text of each \item in a list body.
func splitItems(body string) []string {
	var out []string
	pos := texscan.IndexCommand(body, "item", 0)
	for range texscan.MaxIterations {
		if pos < 0 {
			break
		}
		start := pos + len(`\item`)
		if _, end, ok := texscan.ReadOptional(body, start); ok {
			start = end
		}
		next := texscan.IndexCommand(body, "item", start)
		end := next
		if end < 0 {
			end = len(body)
		}
		if it := strings.TrimSpace(body[start:end]); it != "" {
			out = append(out, it)
		}
		pos = next
	}
	return out
}

// EscapeAmpersands escapes unescaped "&" everywhere except inside matrix
// bodies, where it separates cells.
func EscapeAmpersands(s string) string {
	var b strings.Builder
	pos := 0
	for _, r := range matrixRegions(s) {
		b.WriteString(escapeAmps(s[pos:r[0]]))
		b.WriteString(s[r[0]:r[1]])
		pos = r[1]
	}
	b.WriteString(escapeAmps(s[pos:]))
	return b.String()
}

func escapeAmps(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !texscan.IsEscaped(s, i) {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// cellEnvs use "&" as a column separator.
var cellEnvs = []string{"matrix", "pmatrix", "bmatrix", "tabular", "array", "aligned", "cases"}

// matrixRegions returns the [start, end) spans where "&" separates cells:
// \matrix bodies and the cellEnvs environments.
func matrixRegions(s string) [][2]int {
	var out [][2]int
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, "matrix", pos)
		if i < 0 {
			break
		}
		pos = i + 1
		// \matrix (m) [opts] {...}
		j := i + len(`\matrix`)
		for j < len(s) && s[j] != '{' && s[j] != ';' {
			j++
		}
		if j >= len(s) || s[j] != '{' {
			continue
		}
		end := texscan.MatchingBrace(s, j)
		if end < 0 {
			continue
		}
		out = append(out, [2]int{i, end + 1})
		pos = end + 1
	}
	for _, name := range cellEnvs {
		pos := 0
		for range texscan.MaxIterations {
			env, ok := texscan.FindEnv(s, name, pos)
			if !ok {
				break
			}
			out = append(out, [2]int{env.Start, env.End})
			pos = env.End
		}
	}
	return mergeRegions(out)
}

// mergeRegions sorts regions and drops those overlapping an earlier one.
func mergeRegions(rs [][2]int) [][2]int {
	sort.Slice(rs, func(i, j int) bool { return rs[i][0] < rs[j][0] })
	var out [][2]int
	last := -1
	for _, r := range rs {
		if r[0] < last {
			continue
		}
		out = append(out, r)
		last = r[1]
	}
	return out
}

// Sanitize applies every source repair in order.
func Sanitize(s string) string {
	s = FoldASCII(s)
	s = RewriteNodeLists(s)
	return EscapeAmpersands(s)
}
