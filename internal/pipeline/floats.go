package pipeline

import (
	"html"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/table"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// floatKinds maps float environments to the caption prefix they number
// under.
var floatKinds = map[string]string{
	"figure": "Figure", "figure*": "Figure", "wrapfigure": "Figure",
	"table": "Table", "table*": "Table", "wraptable": "Table",
	"algorithm": "Algorithm", "algorithm*": "Algorithm",
	"listing": "Listing",
}

var floatNames = []string{
	"figure", "figure*", "wrapfigure", "table", "table*", "wraptable",
	"algorithm", "algorithm*", "listing",
}

// floats renders float environments as <figure> with a numbered caption,
// then any \includegraphics left outside them.
func (p *Processor) floats(st *state, text string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		env, ok := nextEnv(text, floatNames, pos)
		if !ok {
			break
		}
		b.WriteString(text[pos:env.Start])
		b.WriteString(st.block(p.renderFloat(st, env.Name, env.Body(text))))
		pos = env.End
	}
	b.WriteString(text[pos:])
	return images(st, b.String())
}

func (p *Processor) renderFloat(st *state, name, body string) string {
	kind := floatKinds[name]
	if _, end, ok := texscan.ReadOptional(body, 0); ok {
		body = body[end:]
	}
	if strings.HasPrefix(name, "wrap") {
		// \begin{wrapfigure}{r}{0.4\textwidth}
		if _, end, ok := texscan.ReadArgs(body, 0, 2); ok {
			body = body[end:]
		}
	}

	var caption, key string
	captionFirst := false
	if i := texscan.IndexCommand(body, "caption", 0); i >= 0 {
		captionFirst = strings.TrimSpace(stripNoopCommands(body[:i])) == ""
	}
	body = texscan.ReplaceCommand(body, "caption", 1, func(_ string, args []string) string {
		if caption == "" {
			caption = strings.TrimSpace(args[0])
		}
		return ""
	})
	body = texscan.ReplaceCommand(body, "label", 1, func(_ string, args []string) string {
		if key == "" {
			key = strings.TrimSpace(args[0])
		}
		return ""
	})

	anchor := ""
	var figcaption string
	if caption != "" {
		n := strconv.Itoa(st.next("float:" + kind))
		anchor = strings.ToLower(kind) + "-" + n
		if key != "" {
			anchor = anchorID(key)
		}
		figcaption = `<figcaption><span class="caption-label">` + kind + " " + n + ":</span> " +
			formatInline(st, caption) + "</figcaption>"
		if key != "" {
			st.labels[key] = label{Number: n, Anchor: anchor}
		}
	}

	var b strings.Builder
	b.WriteString(`<figure class="float float-` + strings.ToLower(kind) + `"`)
	if anchor != "" {
		b.WriteString(` id="` + anchor + `"`)
	}
	b.WriteString(">")
	content := p.nested(st, body, hasParagraphs(body))
	if captionFirst {
		b.WriteString(figcaption + content)
	} else {
		b.WriteString(content + figcaption)
	}
	b.WriteString("</figure>")
	return b.String()
}

// images replaces \includegraphics with a placeholder box naming the file.
// Image files are not part of the input, so nothing is loaded.
func images(st *state, text string) string {
	return texscan.ReplaceCommand(text, "includegraphics", 1, func(opt string, args []string) string {
		src := strings.TrimSpace(args[0])
		var b strings.Builder
		b.WriteString(`<span class="image-placeholder" data-src="` + html.EscapeString(src) + `"`)
		if w := imageWidth(opt); w != "" {
			b.WriteString(` style="width:` + w + `"`)
		}
		b.WriteString(">" + html.EscapeString(src) + "</span>")
		return st.reg.Add(placeholder.Block, b.String())
	})
}

// imageWidth reads width= from \includegraphics options.
func imageWidth(opt string) string {
	for _, kv := range texscan.SplitTopLevel(opt, ',') {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.TrimSpace(k) == "width" {
			return table.CSSLength(v)
		}
	}
	return ""
}
