package texmath

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Sentinel errors for math rendering.
var (
	ErrUnbalancedBraces = errors.New("unbalanced braces")
	ErrUnbalancedEnv    = errors.New("unbalanced environment")
	ErrRendererPanic    = errors.New("math renderer panicked")
)

// RenderOptions configures one Render call.
type RenderOptions struct {
	Display bool
	Macros  Macros
}

// Renderer converts one TeX math expression, delimiters excluded, to HTML.
// Implementations may fail; the engine turns failures into error markers.
type Renderer interface {
	Render(src string, opts RenderOptions) (string, error)
}

// MarkupRenderer emits delimiter-wrapped, HTML-escaped TeX for KaTeX
// auto-render in the browser. It checks structure only, so it rejects
// expressions the browser would fail on anyway.
type MarkupRenderer struct{}

// Compile-time interface check.
var _ Renderer = MarkupRenderer{}

// Render implements Renderer.
func (MarkupRenderer) Render(src string, opts RenderOptions) (string, error) {
	if err := Validate(src); err != nil {
		return "", err
	}
	if opts.Display {
		return `<span class="math math-display-body">\[` + html.EscapeString(src) + `\]</span>`, nil
	}
	return `<span class="math math-inline">\(` + html.EscapeString(src) + `\)</span>`, nil
}

// Validate reports unbalanced braces and \begin/\end pairs.
func Validate(src string) error {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '{':
			if !texscan.IsEscaped(src, i) {
				depth++
			}
		case '}':
			if !texscan.IsEscaped(src, i) {
				depth--
				if depth < 0 {
					return fmt.Errorf("%w: unexpected '}' at %d", ErrUnbalancedBraces, i)
				}
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '{'", ErrUnbalancedBraces, depth)
	}

	var stack []string
	for i := 0; i < len(src); i++ {
		if src[i] != '\\' || texscan.IsEscaped(src, i) {
			continue
		}
		name, end := texscan.ReadCommandName(src, i)
		if name != "begin" && name != "end" {
			continue
		}
		env, _, ok := texscan.ReadGroup(src, end)
		if !ok {
			return fmt.Errorf("%w: \\%s without a name", ErrUnbalancedEnv, name)
		}
		if name == "begin" {
			stack = append(stack, env)
			continue
		}
		if len(stack) == 0 || stack[len(stack)-1] != env {
			return fmt.Errorf("%w: unexpected \\end{%s}", ErrUnbalancedEnv, env)
		}
		stack = stack[:len(stack)-1]
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: \\begin{%s} not closed", ErrUnbalancedEnv, stack[len(stack)-1])
	}
	return nil
}

// safeRender calls r and converts errors and panics into an error marker
// that shows the original source.
func safeRender(r Renderer, src, original string, opts RenderOptions) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRendererPanic, rec)
			out = errorMarker(original, err)
		}
	}()
	out, err = r.Render(src, opts)
	if err != nil {
		return errorMarker(original, err), err
	}
	return out, nil
}

// errorMarker shows the escaped source of an expression that failed.
func errorMarker(original string, err error) string {
	return `<span class="math-error" title="` + html.EscapeString(err.Error()) + `">` +
		html.EscapeString(strings.TrimSpace(original)) + `</span>`
}
