package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-tex2html/internal/fileutil"
)

// imageExtensions are tried, in order, for \includegraphics names without
// an extension or with one browsers cannot display.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".gif", ".webp"}

// ResolveImages turns image placeholders whose file exists under sourceDir
// into <img> elements with file:// URLs, and rewrites relative link and
// image paths the same way. exists reports whether a file is present; nil
// checks the filesystem.
// If sourceDir is empty, returns the HTML unchanged.
//
// Does NOT rewrite:
//   - placeholders whose file cannot be found (they stay as labeled boxes)
//   - absolute paths or URLs (already resolved)
//   - paths escaping sourceDir
func ResolveImages(htmlContent, sourceDir string, exists func(string) bool) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	if exists == nil {
		exists = fileutil.FileExists
	}
	r := &pathRewriter{dir: absSourceDir, exists: exists}
	r.rewriteNode(doc)

	return renderHTML(doc, isFragment)
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type pathRewriter struct {
	dir    string
	exists func(string) bool
}

// rewriteNode traverses the DOM and rewrites relative paths.
func (r *pathRewriter) rewriteNode(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			r.rewriteAttr(n, "src")
		case atom.A:
			r.rewriteAttr(n, "href")
		case atom.Span:
			if hasClass(n, "image-placeholder") {
				r.resolvePlaceholder(n)
				return
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.rewriteNode(c)
	}
}

// rewriteAttr rewrites a single attribute if it's a relative path.
func (r *pathRewriter) rewriteAttr(n *html.Node, attrName string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}
		absPath := filepath.Join(r.dir, attr.Val)
		if !isPathUnderDir(absPath, r.dir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(absPath)
	}
}

// resolvePlaceholder replaces a placeholder span with an <img> when its
// file is found.
func (r *pathRewriter) resolvePlaceholder(n *html.Node) {
	src := attrValue(n, "data-src")
	if !isRelativePath(src) {
		return
	}
	absPath, ok := r.findImage(src)
	if !ok {
		return
	}
	attrs := []html.Attribute{
		{Key: "src", Val: pathToFileURL(absPath)},
		{Key: "alt", Val: src},
		{Key: "class", Val: "latex-image"},
	}
	if style := attrValue(n, "style"); style != "" {
		attrs = append(attrs, html.Attribute{Key: "style", Val: style})
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.Data, n.DataAtom, n.Attr = "img", atom.Img, attrs
}

// findImage looks for src under the source directory, trying displayable
// extensions the way \includegraphics tries its search list.
func (r *pathRewriter) findImage(src string) (string, bool) {
	base := filepath.Join(r.dir, src)
	if !isPathUnderDir(base, r.dir) {
		return "", false
	}
	candidates := []string{base}
	switch strings.ToLower(filepath.Ext(base)) {
	case "", ".pdf", ".eps", ".ps":
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		candidates = candidates[:0]
		for _, e := range imageExtensions {
			candidates = append(candidates, stem+e)
		}
	}
	for _, c := range candidates {
		if r.exists(c) {
			return c, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	// Skip URLs (http, https, file, data, protocol-relative)
	if fileutil.IsURL(path) ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "mailto:") ||
		strings.HasPrefix(path, "data:") ||
		strings.HasPrefix(path, "//") {
		return false
	}

	if strings.HasPrefix(path, "#") {
		return false
	}

	return !filepath.IsAbs(path)
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
