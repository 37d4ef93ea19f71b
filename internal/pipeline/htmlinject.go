package pipeline

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	if ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if insertPos := afterBodyTag(htmlContent, lowerHTML); insertPos != -1 {
		return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
	}

	return styleBlock + htmlContent
}

// afterBodyTag returns the index just past the opening <body ...> tag, or -1.
func afterBodyTag(htmlContent, lowerHTML string) int {
	idx := strings.Index(lowerHTML, "<body")
	if idx == -1 {
		return -1
	}
	closeIdx := strings.Index(htmlContent[idx:], ">")
	if closeIdx == -1 {
		return -1
	}
	return idx + closeIdx + 1
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// TOCData holds TOC configuration for injection.
type TOCData struct {
	Title    string
	MinDepth int // Minimum heading level (default: 2, skips the document title)
	MaxDepth int // Maximum heading level (default: 3)
}

// TOCInjector defines the contract for TOC injection into HTML.
type TOCInjector interface {
	InjectTOC(ctx context.Context, htmlContent string, data *TOCData) (string, error)
}

// headingInfo represents an extracted heading from HTML.
type headingInfo struct {
	Level int    // 1-6
	ID    string // anchor ID
	Text  string // heading text content, section number included
}

// headingPattern matches h1-h6 tags with id attribute.
// Captures: 1=level, 2=id, 3=inner HTML (may contain inline tags)
var headingPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*\bid="([^"]*)"[^>]*>(.*?)</h[1-6]>`)

// htmlTagPattern matches HTML tags for stripping from heading text.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// tocMarkerPattern matches the marker left by \tableofcontents.
var tocMarkerPattern = regexp.MustCompile(`(?i)<div[^>]*\bdata-toc\b[^>]*>\s*</div>`)

// titleBlockEnd matches the end of the \maketitle header.
var titleBlockEnd = regexp.MustCompile(`(?is)<header class="title-block">.*?</header>`)

// stripHTMLTags removes HTML tags from a string, decodes HTML entities,
// and trims whitespace. Decoding entities avoids double-encoding when the
// text is escaped again for output.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// extractHeadings parses HTML and returns headings between minDepth and maxDepth.
// Headings without IDs are skipped.
func extractHeadings(htmlContent string, minDepth, maxDepth int) []headingInfo {
	matches := headingPattern.FindAllStringSubmatch(htmlContent, -1)
	if len(matches) == 0 {
		return nil
	}

	var headings []headingInfo
	for _, m := range matches {
		level, _ := strconv.Atoi(m[1])
		if level < minDepth || level > maxDepth {
			continue
		}
		headings = append(headings, headingInfo{
			Level: level,
			ID:    m[2],
			Text:  strings.Join(strings.Fields(stripHTMLTags(m[3])), " "),
		})
	}
	return headings
}

// numberingState tracks hierarchical section numbering. The first heading
// is depth 1 whatever its level, and skipped levels do not leave gaps.
type numberingState struct {
	counters [6]int // counters[0] = depth 1 count, etc.
	open     []int  // levels of the enclosing headings, innermost last
}

func newNumberingState() *numberingState {
	return &numberingState{}
}

// next returns the number string ("1.2.") and depth of a heading at level.
func (n *numberingState) next(level int) (numStr string, effectiveDepth int) {
	for len(n.open) > 0 && n.open[len(n.open)-1] >= level {
		n.open = n.open[:len(n.open)-1]
	}
	n.open = append(n.open, level)
	effectiveDepth = min(len(n.open), len(n.counters))

	for i := effectiveDepth; i < len(n.counters); i++ {
		n.counters[i] = 0
	}
	n.counters[effectiveDepth-1]++

	parts := make([]string, 0, effectiveDepth)
	for i := range effectiveDepth {
		parts = append(parts, strconv.Itoa(n.counters[i]))
	}
	return strings.Join(parts, ".") + ".", effectiveDepth
}

// generateTOC creates HTML for a table of contents. Heading text already
// carries its section number, so entries are only indented by depth.
// Uses <div> elements instead of <ul>/<li> to avoid CSS list-style conflicts.
func generateTOC(headings []headingInfo, title string) string {
	if len(headings) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="toc">`)

	if title != "" {
		buf.WriteString(`<h2 class="toc-title">`)
		buf.WriteString(html.EscapeString(title))
		buf.WriteString(`</h2>`)
	}

	buf.WriteString(`<div class="toc-list">`)

	minLevel := headings[0].Level
	for _, h := range headings {
		minLevel = min(minLevel, h.Level)
	}
	for _, h := range headings {
		indent := float64(h.Level-minLevel) * indentStep

		buf.WriteString(`<div class="toc-item"`)
		if indent > 0 {
			buf.WriteString(fmt.Sprintf(` style="padding-left:%.1fem"`, indent))
		}
		buf.WriteString(`><a href="#`)
		buf.WriteString(html.EscapeString(h.ID))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(h.Text))
		buf.WriteString(`</a></div>`)
	}

	buf.WriteString(`</div></nav>`)
	return buf.String()
}

// TOCInjection implements TOCInjector.
type TOCInjection struct{}

// NewTOCInjection creates a new TOC injector.
func NewTOCInjection() *TOCInjection {
	return &TOCInjection{}
}

// InjectTOC extracts headings and injects a table of contents where
// \tableofcontents stood; without a marker, after the title block, then
// after <body>. If data is nil, only removes the marker.
func (t *TOCInjection) InjectTOC(ctx context.Context, htmlContent string, data *TOCData) (string, error) {
	if data == nil {
		return tocMarkerPattern.ReplaceAllString(htmlContent, ""), nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	minDepth, maxDepth := data.MinDepth, data.MaxDepth
	if minDepth == 0 {
		minDepth = 2
	}
	if maxDepth == 0 {
		maxDepth = 3
	}

	tocHTML := generateTOC(extractHeadings(htmlContent, minDepth, maxDepth), data.Title)

	if loc := tocMarkerPattern.FindStringIndex(htmlContent); loc != nil {
		return htmlContent[:loc[0]] + tocHTML + tocMarkerPattern.ReplaceAllString(htmlContent[loc[1]:], ""), nil
	}
	if tocHTML == "" {
		return htmlContent, nil
	}

	if loc := titleBlockEnd.FindStringIndex(htmlContent); loc != nil {
		return htmlContent[:loc[1]] + tocHTML + htmlContent[loc[1]:], nil
	}

	if insertPos := afterBodyTag(htmlContent, strings.ToLower(htmlContent)); insertPos != -1 {
		return htmlContent[:insertPos] + tocHTML + htmlContent[insertPos:], nil
	}

	return tocHTML + htmlContent, nil
}
