// Package table parses tabular-family environments into a cell model with
// row and column spans and renders it as an HTML table.
package table

import (
	"strings"

	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// Environments lists the tabular environments handled.
var Environments = []string{"tabular", "tabular*", "tabularx", "longtable", "array"}

// maxNesting bounds tables inside table cells.
const maxNesting = 4

// Result is the outcome of table processing.
type Result struct {
	Text   string
	Tables []Table
	// Abandoned counts environments left verbatim because they could not
	// be parsed.
	Abandoned int
}

type processor struct {
	reg        *placeholder.Registry
	formatCell func(string) string
	res        Result
}

// Process replaces every tabular environment in text with a TABLE
// placeholder. formatCell renders cell content; nil escapes it. Tables that
// cannot be parsed are left as they are.
func Process(text string, reg *placeholder.Registry, formatCell func(string) string) Result {
	p := &processor{reg: reg, formatCell: formatCell}
	p.res.Text = p.replace(text, 0)
	return p.res
}

func (p *processor) replace(text string, depth int) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		var next texscan.Env
		found := false
		for _, name := range Environments {
			env, ok := texscan.FindEnv(text, name, pos)
			if ok && (!found || env.Start < next.Start) {
				next, found = env, true
			}
		}
		if !found {
			break
		}
		b.WriteString(text[pos:next.Start])
		body := next.Body(text)
		if depth < maxNesting {
			body = p.replace(body, depth+1)
		}
		b.WriteString(p.render(next.Name, body, text[next.Start:next.End]))
		pos = next.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// render parses and registers one table, falling back to the original
// source on any failure.
func (p *processor) render(env, body, original string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			p.res.Abandoned++
			out = original
		}
	}()

	caption := ""
	if env == "longtable" {
		body = texscan.ReplaceCommand(body, "caption", 1, func(_ string, args []string) string {
			caption = strings.TrimSpace(args[0])
			return ""
		})
	}
	t, ok := Parse(env, body)
	if !ok || len(t.Rows) == 0 {
		p.res.Abandoned++
		return original
	}
	t.Caption = caption
	p.res.Tables = append(p.res.Tables, t)
	return p.reg.Add(placeholder.Table, t.HTML(p.formatCell))
}
