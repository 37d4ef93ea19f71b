// Package tikz turns tikzpicture environments into sandboxed preview
// documents rendered in the browser by TikZJax.
//
// Each diagram is sanitized, measured, assigned a layout Intent and given
// synthesized picture options before it is wrapped in a self-contained
// HTML document. The document is registered as a placeholder block whose
// HTML hosts it in a sandboxed iframe.
package tikz

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/alnah/go-tex2html/internal/assets"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texscan"
)

// EnvName is the environment handled by the engine.
const EnvName = "tikzpicture"

// ErrTemplateRender is returned when the preview document cannot be built.
var ErrTemplateRender = errors.New("diagram template rendering failed")

// UnsupportedNotice is shown in place of diagrams TikZJax cannot draw.
const UnsupportedNotice = "This plot uses pgfplots axes, which are not supported in the web preview. See the PDF for the rendered figure."

// unsupportedMarkers identify pgfplots constructs.
var unsupportedMarkers = []string{
	`\begin{axis}`, `\addplot`, `\pgfplotsset`, `\begin{semilogxaxis}`,
	`\begin{semilogyaxis}`, `\begin{loglogaxis}`, `\begin{polaraxis}`, `\begin{groupplot}`,
}

// polyfilledLibraries are dropped from the library list because the engine
// rewrites the constructs that need them.
var polyfilledLibraries = map[string]bool{
	"decorations.pathreplacing": true,
}

var ofPlacement = regexp.MustCompile(`\b(?:above|below|left|right)(?:\s+(?:left|right))?\s*=\s*(?:[\d.]+\s*\w*\s*)?of\b`)

// widthByIntent caps the rendered frame width.
var widthByIntent = map[Intent]float64{
	Compact: 10,
	Medium:  12,
	Large:   16,
	Flat:    16,
	Wide:    16,
}

// Diagram describes one processed tikzpicture.
type Diagram struct {
	Index     int // 1-based, in document order
	Intent    Intent
	Token     string
	Document  string // self-contained HTML preview document
	Supported bool
	Params    RenderParams
}

// Result is the outcome of diagram processing.
type Result struct {
	Text     string
	Diagrams []Diagram
}

// Engine renders diagrams through a preview document template.
type Engine struct {
	tmpl   *template.Template
	params Params
}

// NewEngine parses the preview document template. An empty tmplContent
// selects the embedded default.
func NewEngine(tmplContent string, p Params) (*Engine, error) {
	if tmplContent == "" {
		var err error
		tmplContent, err = assets.LoadTemplate(assets.DiagramTemplateName)
		if err != nil {
			return nil, fmt.Errorf("loading diagram template: %w", err)
		}
	}
	tmpl, err := template.New("diagram").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing diagram template: %w", err)
	}
	return &Engine{tmpl: tmpl, params: p.withDefaults()}, nil
}

// Process renders text with the embedded template.
func Process(text string, reg *placeholder.Registry, p Params) (Result, error) {
	e, err := NewEngine("", p)
	if err != nil {
		return Result{Text: text}, err
	}
	return e.Process(text, reg), nil
}

// templateData feeds the preview document template.
type templateData struct {
	WidthCm string
	Intent  string
	Notice  string
	Source  string
}

// Process replaces every top-level tikzpicture in text with a placeholder
// token. A diagram that fails to render becomes a notice; the engine never
// fails the document.
func (e *Engine) Process(text string, reg *placeholder.Registry) Result {
	preamble := collectPreamble(text)
	var res Result
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		env, ok := texscan.FindEnv(text, EnvName, pos)
		if !ok {
			break
		}
		b.WriteString(text[pos:env.Start])
		d := e.render(len(res.Diagrams)+1, preamble, env.Body(text))
		d.Token = reg.Add(placeholder.TikZ, containerHTML(d))
		res.Diagrams = append(res.Diagrams, d)
		b.WriteString(d.Token)
		pos = env.End
	}
	b.WriteString(text[pos:])
	res.Text = removePreambleCommands(b.String())
	return res
}

// render builds one diagram, converting panics and template failures into
// a notice document.
func (e *Engine) render(index int, preamble []string, body string) (d Diagram) {
	d = Diagram{Index: index, Intent: Medium}
	defer func() {
		if r := recover(); r != nil {
			d.Supported = false
			d.Document = e.noticeDocument(fmt.Sprintf("This diagram could not be prepared for preview (%v).", r))
		}
	}()

	if isUnsupported(body) {
		d.Document = e.noticeDocument(UnsupportedNotice)
		return d
	}

	body = PolyfillBraces(Sanitize(body))
	opts, rest := splitPictureOptions(body)
	a := Analyze(body)
	d.Intent = Classify(a, e.params)
	d.Params = Synthesize(d.Intent, a, e.params)
	merged := MergeOptions(opts, d.Params)

	var src strings.Builder
	for _, line := range libraryLines(preamble, body) {
		src.WriteString(line + "\n")
	}
	src.WriteString(texscan.BeginMarker(EnvName))
	if merged != "" {
		src.WriteString("[" + merged + "]")
	}
	src.WriteString(rest)
	src.WriteString(texscan.EndMarker(EnvName))

	doc, err := e.execute(templateData{
		WidthCm: num(widthByIntent[d.Intent]),
		Intent:  d.Intent.String(),
		Source:  escapeScript(src.String()),
	})
	if err != nil {
		d.Document = e.noticeDocument("This diagram could not be prepared for preview.")
		return d
	}
	d.Document = doc
	d.Supported = true
	return d
}

func (e *Engine) execute(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

func (e *Engine) noticeDocument(notice string) string {
	doc, err := e.execute(templateData{
		WidthCm: num(widthByIntent[Medium]),
		Intent:  Medium.String(),
		Notice:  notice,
	})
	if err != nil {
		return `<p class="diagram-notice">` + html.EscapeString(notice) + `</p>`
	}
	return doc
}

// containerHTML hosts the preview document in a sandboxed iframe. The
// document travels entity-encoded in srcdoc.
func containerHTML(d Diagram) string {
	class := "diagram intent-" + d.Intent.String()
	if !d.Supported {
		class += " unsupported"
	}
	return `<figure class="` + class + `"><iframe sandbox="allow-scripts" loading="lazy" title="Diagram ` +
		strconv.Itoa(d.Index) + `" srcdoc="` + html.EscapeString(d.Document) + `"></iframe></figure>`
}

func isUnsupported(body string) bool {
	for _, m := range unsupportedMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// splitPictureOptions separates the leading [options] of a tikzpicture body.
func splitPictureOptions(body string) (opts, rest string) {
	if o, end, ok := texscan.ReadOptional(body, 0); ok {
		return o, body[end:]
	}
	return "", body
}

// escapeScript keeps the source from closing its script element.
func escapeScript(s string) string {
	return strings.ReplaceAll(s, "</", `<\/`)
}

// preambleCommands are global TikZ settings every diagram needs.
var preambleCommands = []string{"usetikzlibrary", "tikzset"}

// collectPreamble returns the document's global TikZ settings as source
// lines, in order of appearance.
func collectPreamble(text string) []string {
	type found struct {
		at   int
		line string
	}
	var all []found
	for _, name := range preambleCommands {
		pos := 0
		for range texscan.MaxIterations {
			i := texscan.IndexCommand(text, name, pos)
			if i < 0 {
				break
			}
			arg, end, ok := texscan.ReadGroup(text, i+len(name)+1)
			if !ok {
				pos = i + 1
				continue
			}
			if name == "usetikzlibrary" {
				arg = filterLibraries(arg)
				if arg == "" {
					pos = end
					continue
				}
			}
			all = append(all, found{i, `\` + name + "{" + arg + "}"})
			pos = end
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].at < all[j].at })
	lines := make([]string, len(all))
	for i, f := range all {
		lines[i] = f.line
	}
	return lines
}

func filterLibraries(list string) string {
	var keep []string
	for _, lib := range strings.Split(list, ",") {
		lib = strings.TrimSpace(lib)
		if lib != "" && !polyfilledLibraries[lib] {
			keep = append(keep, lib)
		}
	}
	return strings.Join(keep, ",")
}

// libraryLines returns the preamble lines for one diagram, adding the
// positioning library when "right=of" placement is used without it.
func libraryLines(preamble []string, body string) []string {
	if !ofPlacement.MatchString(body) {
		return preamble
	}
	for _, line := range preamble {
		if strings.HasPrefix(line, `\usetikzlibrary`) && strings.Contains(line, "positioning") {
			return preamble
		}
	}
	return append([]string{`\usetikzlibrary{positioning}`}, preamble...)
}

// removePreambleCommands drops global TikZ settings from the text once
// they have been copied into each diagram.
func removePreambleCommands(text string) string {
	for _, name := range preambleCommands {
		text = texscan.ReplaceCommand(text, name, 1, func(string, []string) string { return "" })
	}
	return text
}
