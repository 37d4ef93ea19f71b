package heal

import (
	"sort"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// MathEnvironments lists display math environments, starred variants
// included. Order matters to callers that extract by priority.
var MathEnvironments = []string{
	"equation", "equation*",
	"align", "align*",
	"gather", "gather*",
	"multline", "multline*",
	"eqnarray", "eqnarray*",
	"flalign", "flalign*",
	"alignat", "alignat*",
	"displaymath",
}

// region is a half-open byte range [start, end) with the delimiters
// excluded from [bodyStart, bodyEnd).
type region struct {
	start, end         int
	bodyStart, bodyEnd int
}

// span is an inline $...$ pair; open and close index the dollar signs.
type span struct {
	open, close int
}

// delimited finds unescaped open...close pairs, such as \[ and \].
func delimited(s, open, close string) []region {
	var out []region
	pos := 0
	for range texscan.MaxIterations {
		i := indexUnescapedSeq(s, open, pos)
		if i < 0 {
			break
		}
		j := indexUnescapedSeq(s, close, i+len(open))
		if j < 0 {
			break
		}
		out = append(out, region{start: i, end: j + len(close), bodyStart: i + len(open), bodyEnd: j})
		pos = j + len(close)
	}
	return out
}

// indexUnescapedSeq finds seq at or after from where its first byte is not
// escaped by a preceding backslash.
func indexUnescapedSeq(s, seq string, from int) int {
	for pos := from; pos < len(s); {
		i := strings.Index(s[pos:], seq)
		if i < 0 {
			return -1
		}
		i += pos
		if !texscan.IsEscaped(s, i) {
			return i
		}
		pos = i + 1
	}
	return -1
}

// displayRegions returns all non-dollar-inline math regions, sorted by start
// and with overlaps removed (the earlier region wins).
func displayRegions(s string) []region {
	var all []region
	for _, name := range MathEnvironments {
		pos := 0
		for range texscan.MaxIterations {
			env, ok := texscan.FindEnv(s, name, pos)
			if !ok {
				break
			}
			all = append(all, region{start: env.Start, end: env.End, bodyStart: env.BodyStart, bodyEnd: env.BodyEnd})
			pos = env.End
		}
	}
	all = append(all, delimited(s, `\[`, `\]`)...)
	all = append(all, delimited(s, `\(`, `\)`)...)
	all = append(all, delimited(s, "$$", "$$")...)

	sort.SliceStable(all, func(i, j int) bool { return all[i].start < all[j].start })
	var out []region
	lastEnd := -1
	for _, r := range all {
		if r.start < lastEnd {
			continue
		}
		out = append(out, r)
		lastEnd = r.end
	}
	return out
}

// inlineSpans pairs unescaped single dollars outside display regions. A pair
// may not cross a blank line; an opener left alone by one is dropped.
func inlineSpans(s string) []span {
	regions := displayRegions(s)
	var spans []span
	open := -1
	ri := 0
	for i := 0; i < len(s); i++ {
		for ri < len(regions) && regions[ri].end <= i {
			ri++
		}
		if ri < len(regions) && i >= regions[ri].start {
			i = regions[ri].end - 1
			continue
		}
		if s[i] != '$' || texscan.IsEscaped(s, i) {
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			i++
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		if strings.Contains(s[open:i], "\n\n") {
			open = i
			continue
		}
		spans = append(spans, span{open: open, close: i})
		open = -1
	}
	return spans
}

// mergeOperators lists relation and arithmetic operators that join two
// adjacent inline math spans.
var mergeOperators = map[string]bool{
	"=": true, "+": true, "-": true, "<": true, ">": true,
	`\times`: true, `\cdot`: true, `\leq`: true, `\geq`: true,
	`\le`: true, `\ge`: true, `\approx`: true, `\neq`: true, `\to`: true,
}

// MergeInlineOperators joins "$a$ op $b$" into "$a op b$", repeating until no
// such pair remains.
func MergeInlineOperators(s string) string {
	for range texscan.MaxIterations {
		spans := inlineSpans(s)
		merged := false
		for k := 0; k+1 < len(spans); k++ {
			a, b := spans[k], spans[k+1]
			gap := s[a.close+1 : b.open]
			if strings.Contains(gap, "\n") || !mergeOperators[strings.TrimSpace(gap)] {
				continue
			}
			s = s[:a.close] + gap + s[b.open+1:]
			merged = true
			break
		}
		if !merged {
			return s
		}
	}
	return s
}

// StripNestedDollars removes single dollar signs that sit inside display or
// parenthesized math, where they are redundant and break rendering.
func StripNestedDollars(s string) string {
	regions := displayRegions(s)
	for k := len(regions) - 1; k >= 0; k-- {
		r := regions[k]
		body := s[r.bodyStart:r.bodyEnd]
		if !strings.Contains(body, "$") {
			continue
		}
		var b strings.Builder
		for i := 0; i < len(body); i++ {
			if body[i] == '$' && !texscan.IsEscaped(body, i) {
				continue
			}
			b.WriteByte(body[i])
		}
		s = s[:r.bodyStart] + b.String() + s[r.bodyEnd:]
	}
	return s
}

// AttachOrphanScripts moves a sub- or superscript written just after a
// closing dollar back inside the span: "$x$_i" becomes "$x_i$".
func AttachOrphanScripts(s string) string {
	for range 10 {
		spans := inlineSpans(s)
		changed := false
		for k := len(spans) - 1; k >= 0; k-- {
			c := spans[k].close
			end := scriptEnd(s, c+1)
			if end < 0 {
				continue
			}
			s = s[:c] + s[c+1:end] + "$" + s[end:]
			changed = true
		}
		if !changed {
			return s
		}
	}
	return s
}

// scriptEnd returns the index past a "_x", "_{..}", "^x", "^{..}" or
// "_\cmd" script starting at i, or -1 if none starts there.
func scriptEnd(s string, i int) int {
	if i+1 >= len(s) || (s[i] != '_' && s[i] != '^') {
		return -1
	}
	j := i + 1
	switch c := s[j]; {
	case c == '{':
		if m := texscan.MatchingBrace(s, j); m >= 0 {
			return m + 1
		}
		return -1
	case c == '\\':
		name, end := texscan.ReadCommandName(s, j)
		if name == "" {
			return -1
		}
		return end
	case isAlnum(c):
		return j + 1
	}
	return -1
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
