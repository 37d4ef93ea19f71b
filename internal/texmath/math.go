// Package texmath extracts math from LaTeX-like text, renders each
// expression through a pluggable Renderer and registers the result as a
// placeholder block.
//
// Extraction follows a fixed priority so that outer constructs claim their
// content first: named display environments, then \[..\], \(..\), $$..$$
// and finally $..$.
package texmath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/heal"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// Expression describes one extracted math expression.
type Expression struct {
	Token   string
	Source  string // TeX passed to the renderer
	Env     string // environment name, empty for delimiters
	Display bool
	Number  string // "(3)" or "(3)–(5)" for numbered environments
	Scale   float64
	Err     error
}

// Result is the outcome of math processing.
type Result struct {
	Text        string
	Expressions []Expression
	// Labels maps \label keys found in numbered environments to their
	// displayed number, without parentheses.
	Labels map[string]string
}

// Failed counts expressions rendered as error markers.
func (r Result) Failed() int {
	n := 0
	for _, e := range r.Expressions {
		if e.Err != nil {
			n++
		}
	}
	return n
}

// multiRow maps environments to the KaTeX environment that renders their
// rows inside display math. An empty value means single-row.
var multiRow = map[string]string{
	"equation":    "",
	"displaymath": "",
	"align":       "aligned",
	"flalign":     "aligned",
	"eqnarray":    "aligned",
	"gather":      "gathered",
	"multline":    "gathered",
	"alignat":     "alignedat",
}

var (
	labelPattern  = regexp.MustCompile(`\\label\s*\{([^{}]*)\}`)
	noNumber      = regexp.MustCompile(`\\(?:nonumber|notag)\b`)
	eqnarrayAlign = regexp.MustCompile(`&\s*([=<>]|\\[a-z]+)\s*&`)
)

// processor carries per-document math state.
type processor struct {
	reg      *placeholder.Registry
	renderer Renderer
	macros   Macros
	params   Params
	number   int
	res      Result
}

// Process replaces every math expression in text with a MATH placeholder.
// Rendering failures and renderer panics become inline error markers; the
// call itself never fails.
func Process(text string, macros Macros, reg *placeholder.Registry, r Renderer, p Params) Result {
	if r == nil {
		r = MarkupRenderer{}
	}
	pr := &processor{
		reg:      reg,
		renderer: r,
		macros:   macros,
		params:   p.withDefaults(),
		res:      Result{Labels: make(map[string]string)},
	}

	text = heal.StripNestedDollars(text)
	text = heal.MergeInlineOperators(text)

	text = pr.replaceEnvs(text)
	text = pr.replaceDelimited(text, `\[`, `\]`, true)
	text = pr.replaceDelimited(text, `\(`, `\)`, false)
	text = pr.replaceDelimited(text, `$$`, `$$`, true)
	text = pr.replaceInline(text)

	pr.res.Text = text
	return pr.res
}

// replaceEnvs extracts named environments in document order so equation
// numbers follow the text.
func (pr *processor) replaceEnvs(text string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		var next texscan.Env
		found := false
		for _, name := range heal.MathEnvironments {
			env, ok := texscan.FindEnv(text, name, pos)
			if ok && (!found || env.Start < next.Start) {
				next, found = env, true
			}
		}
		if !found {
			break
		}
		b.WriteString(text[pos:next.Start])
		b.WriteString(pr.envExpression(next.Name, next.Body(text), text[next.Start:next.End]))
		pos = next.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// envExpression converts a named environment to display math.
func (pr *processor) envExpression(name, body, original string) string {
	base := strings.TrimSuffix(name, "*")
	starred := base != name || base == "displaymath"
	inner := multiRow[base]

	var labels []string
	for _, m := range labelPattern.FindAllStringSubmatch(body, -1) {
		labels = append(labels, strings.TrimSpace(m[1]))
	}
	body = labelPattern.ReplaceAllString(body, "")

	// Row numbering follows LaTeX: one number per row not marked
	// \nonumber or \notag.
	rows := 1
	if inner != "" && base != "multline" {
		rows = 0
		for _, row := range splitRows(body) {
			if strings.TrimSpace(row) != "" && !noNumber.MatchString(row) {
				rows++
			}
		}
	} else if noNumber.MatchString(body) {
		rows = 0
	}
	body = noNumber.ReplaceAllString(body, "")

	src := strings.TrimSpace(body)
	switch {
	case base == "alignat":
		// alignat{n} keeps its column count argument.
		cols, end, ok := texscan.ReadGroup(src, 0)
		if ok {
			src = `\begin{alignedat}{` + cols + `}` + src[end:] + `\end{alignedat}`
		} else {
			src = `\begin{aligned}` + src + `\end{aligned}`
		}
	case base == "eqnarray":
		src = `\begin{aligned}` + eqnarrayAlign.ReplaceAllString(src, "&$1 ") + `\end{aligned}`
	case inner != "":
		src = `\begin{` + inner + `}` + src + `\end{` + inner + `}`
	}

	number := ""
	if !starred && rows > 0 {
		first := pr.number + 1
		pr.number += rows
		number = "(" + strconv.Itoa(first) + ")"
		if rows > 1 {
			number += "–(" + strconv.Itoa(pr.number) + ")"
		}
		for i, l := range labels {
			n := first + min(i, rows-1)
			pr.res.Labels[l] = strconv.Itoa(n)
		}
	}
	return pr.emit(Expression{Source: src, Env: name, Display: true, Number: number}, original, inner != "")
}

// splitRows splits on unescaped \\ at brace depth zero.
func splitRows(body string) []string {
	var rows []string
	depth, last := 0, 0
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
			if depth == 0 && i+1 < len(body) && body[i+1] == '\\' && !texscan.IsEscaped(body, i) {
				rows = append(rows, body[last:i])
				i++
				last = i + 1
			}
		}
	}
	return append(rows, body[last:])
}

// replaceDelimited extracts open...close pairs. Unclosed openers are left
// as text.
func (pr *processor) replaceDelimited(text, open, close string, display bool) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := indexUnescaped(text, open, pos)
		if i < 0 {
			break
		}
		j := indexUnescaped(text, close, i+len(open))
		if j < 0 {
			break
		}
		b.WriteString(text[pos:i])
		src := strings.TrimSpace(text[i+len(open) : j])
		b.WriteString(pr.emit(Expression{Source: labelPattern.ReplaceAllString(src, ""), Display: display}, text[i:j+len(close)], false))
		pos = j + len(close)
	}
	b.WriteString(text[pos:])
	return b.String()
}

// replaceInline extracts $..$ pairs. A pair never spans a blank line, so a
// stray dollar cannot swallow the following paragraphs.
func (pr *processor) replaceInline(text string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations * 4 {
		i := texscan.IndexUnescaped(text, '$', pos)
		if i < 0 {
			break
		}
		j := texscan.IndexUnescaped(text, '$', i+1)
		if j < 0 {
			break
		}
		if strings.Contains(text[i:j], "\n\n") || j == i+1 {
			// Leave the stray dollar and retry from the next one.
			b.WriteString(text[pos : i+1])
			pos = i + 1
			continue
		}
		b.WriteString(text[pos:i])
		b.WriteString(pr.emit(Expression{Source: strings.TrimSpace(text[i+1 : j])}, text[i:j+1], false))
		pos = j + 1
	}
	b.WriteString(text[pos:])
	return b.String()
}

func indexUnescaped(s, seq string, from int) int {
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

// emit renders e, registers the HTML and returns the token.
func (pr *processor) emit(e Expression, original string, multi bool) string {
	opts := RenderOptions{Display: e.Display, Macros: pr.macros}
	out, err := safeRender(pr.renderer, e.Source, original, opts)
	e.Err = err
	e.Scale = 1

	if e.Display {
		class := "math-display"
		var inner strings.Builder
		if err == nil {
			e.Scale = Scale(e.Source, multi, pr.params)
		}
		if e.Scale < 1 {
			class += " math-scaled"
			fmt.Fprintf(&inner, `<span class="math-scale" style="display:inline-block;transform:scale(%.3f);transform-origin:center">%s</span>`, e.Scale, out)
		} else {
			inner.WriteString(out)
		}
		if e.Number != "" {
			class += " numbered"
			inner.WriteString(`<span class="math-number">` + e.Number + `</span>`)
		}
		out = `<div class="` + class + `">` + inner.String() + `</div>`
	}

	e.Token = pr.reg.Add(placeholder.Math, out)
	pr.res.Expressions = append(pr.res.Expressions, e)
	return e.Token
}
