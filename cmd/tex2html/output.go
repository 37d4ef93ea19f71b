package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/config"
)

// jsonDocument is the --format json payload: the resolved fragment plus
// everything a host page needs to embed it.
type jsonDocument struct {
	HTML            string             `json:"html"`
	Bibliography    string             `json:"bibliography,omitempty"`
	HasBibliography bool               `json:"hasBibliography"`
	Metadata        tex2html.Metadata  `json:"metadata"`
	TitleRendered   bool               `json:"titleRendered"`
	HasTOC          bool               `json:"hasTOC"`
	Macros          map[string]string  `json:"macros,omitempty"`
	Diagrams        []tex2html.Diagram `json:"diagrams,omitempty"`
	Stats           tex2html.Stats     `json:"stats"`
}

// renderOutput encodes a conversion result in the requested format.
func renderOutput(ctx context.Context, res *tex2html.ConvertResult, format string, page tex2html.PageOptions) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		return renderJSON(res)
	case config.FormatMarkdown:
		return renderMarkdown(res)
	default:
		return tex2html.RenderPage(ctx, res, page)
	}
}

func renderJSON(res *tex2html.ConvertResult) ([]byte, error) {
	doc := jsonDocument{
		HTML:            res.Resolve(),
		Bibliography:    res.Bibliography,
		HasBibliography: res.HasBibliography,
		Metadata:        res.Metadata,
		TitleRendered:   res.TitleRendered,
		HasTOC:          res.HasTOC,
		Macros:          res.Macros,
		Diagrams:        res.Diagrams,
		Stats:           res.Stats,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// renderMarkdown converts the resolved fragment, with its title and
// bibliography, to Markdown.
func renderMarkdown(res *tex2html.ConvertResult) ([]byte, error) {
	var b strings.Builder
	if res.Metadata.Title != "" && !res.TitleRendered {
		b.WriteString("<h1>" + html.EscapeString(res.Metadata.Title) + "</h1>\n")
	}
	b.WriteString(res.Resolve())
	if res.HasBibliography {
		b.WriteString("\n" + res.Bibliography)
	}

	md, err := htmltomarkdown.ConvertString(b.String())
	if err != nil {
		return nil, fmt.Errorf("converting to markdown: %w", err)
	}
	return []byte(strings.TrimSpace(md) + "\n"), nil
}
