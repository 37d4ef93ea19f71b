package tex2html

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texmath"
	"github.com/alnah/go-tex2html/internal/tikz"
)

// Default limits.
const (
	// DefaultMaxSourceSize bounds the accepted source length in bytes.
	DefaultMaxSourceSize = 8 << 20

	// DefaultDateFormat renders \today as "March 5, 2024".
	DefaultDateFormat = dateutil.DefaultDateFormat
)

// MathRenderOptions configures one MathRenderer call.
type MathRenderOptions = texmath.RenderOptions

// MathRenderer converts one TeX math expression, delimiters excluded, to
// HTML. Errors and panics become inline error markers; they never abort a
// conversion.
type MathRenderer interface {
	Render(src string, opts MathRenderOptions) (string, error)
}

// DiagramHeuristics are the thresholds used to classify TikZ diagrams.
// Start from DefaultDiagramHeuristics and override what you need.
type DiagramHeuristics = tikz.Params

// MathHeuristics size display equations that risk overflowing.
type MathHeuristics = texmath.Params

// DefaultDiagramHeuristics returns the built-in diagram thresholds.
func DefaultDiagramHeuristics() DiagramHeuristics { return tikz.DefaultParams() }

// DefaultMathHeuristics returns the built-in equation sizing values.
func DefaultMathHeuristics() MathHeuristics { return texmath.DefaultParams() }

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	logger        *slog.Logger
	renderer      MathRenderer
	diagram       DiagramHeuristics
	math          MathHeuristics
	safePhrases   []string
	now           func() time.Time
	dateFormat    string
	maxSourceSize int
	assetPath     string
}

// WithLogger sets the logger receiving per-stage diagnostics.
// Conversions are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = l
	}
}

// WithMathRenderer replaces the default KaTeX markup renderer.
func WithMathRenderer(r MathRenderer) Option {
	return func(c *Converter) {
		c.cfg.renderer = r
	}
}

// WithDiagramHeuristics overrides the diagram classification thresholds.
// Zero fields keep their defaults.
func WithDiagramHeuristics(p DiagramHeuristics) Option {
	return func(c *Converter) {
		c.cfg.diagram = p
	}
}

// WithMathHeuristics overrides equation sizing. Zero fields keep their
// defaults.
func WithMathHeuristics(p MathHeuristics) Option {
	return func(c *Converter) {
		c.cfg.math = p
	}
}

// WithSafePhrases adds ampersand phrases, such as "B&B", whose "&" is prose
// rather than a table separator. They extend the built-in list ("R&D",
// "Q&A" and others).
func WithSafePhrases(phrases ...string) Option {
	return func(c *Converter) {
		c.cfg.safePhrases = append(c.cfg.safePhrases, phrases...)
	}
}

// WithClock sets the time source used for \today.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("tex2html: WithClock function must not be nil")
	}
	return func(c *Converter) {
		c.cfg.now = now
	}
}

// WithDateFormat sets the \today format: a preset (iso, european, us,
// long) or a token format such as "DD/MM/YYYY".
func WithDateFormat(format string) Option {
	return func(c *Converter) {
		c.cfg.dateFormat = format
	}
}

// WithMaxSourceSize sets the largest accepted source, in bytes.
// Panics if n is not positive.
func WithMaxSourceSize(n int) Option {
	if n <= 0 {
		panic("tex2html: WithMaxSourceSize must be positive")
	}
	return func(c *Converter) {
		c.cfg.maxSourceSize = n
	}
}

// WithAssetPath sets a directory whose templates/diagram.html overrides the
// built-in diagram preview document.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// Metadata is the document title block, as plain text.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Diagram is one TikZ picture found in the source.
type Diagram struct {
	Index     int    `json:"index"`
	Intent    string `json:"intent"`
	Token     string `json:"token"`
	Supported bool   `json:"supported"`
	// Document is the self-contained preview page hosted in the block's
	// sandboxed iframe.
	Document string `json:"document"`
}

// Stats counts what the conversion did.
type Stats struct {
	Citations       int      `json:"citations"`
	Diagrams        int      `json:"diagrams"`
	Unsupported     int      `json:"unsupportedDiagrams"`
	Equations       int      `json:"equations"`
	MathErrors      int      `json:"mathErrors"`
	Tables          int      `json:"tables"`
	AbandonedTables int      `json:"abandonedTables"`
	CodeBlocks      int      `json:"codeBlocks"`
	Footnotes       int      `json:"footnotes"`
	FailedStages    []string `json:"failedStages,omitempty"`
}

// ConvertResult is the outcome of one conversion.
type ConvertResult struct {
	// HTML is the body fragment with placeholder tokens left in place.
	HTML string `json:"html"`
	// Blocks maps every token to its HTML.
	Blocks          map[string]string `json:"blocks"`
	Bibliography    string            `json:"bibliography,omitempty"`
	HasBibliography bool              `json:"hasBibliography"`
	Metadata        Metadata          `json:"metadata"`
	// TitleRendered is set when \maketitle already placed the title block
	// in HTML.
	TitleRendered bool `json:"titleRendered"`
	// HasTOC is set when HTML holds a \tableofcontents marker.
	HasTOC   bool              `json:"hasTOC"`
	Diagrams []Diagram         `json:"diagrams,omitempty"`
	Macros   map[string]string `json:"macros,omitempty"`
	Stats    Stats             `json:"stats"`
}

// Resolve returns HTML with every token substituted. Tokens nested inside
// blocks are resolved too; unknown tokens are left in place.
func (r *ConvertResult) Resolve() string {
	return placeholder.ResolveWith(r.HTML, r.Blocks)
}

// Default TOC depth values.
const (
	DefaultTOCMinDepth = 2
	DefaultTOCMaxDepth = 3
)

// TOC configures the table of contents of a rendered page.
type TOC struct {
	Title    string
	MinDepth int // 1-6, 0 means DefaultTOCMinDepth
	MaxDepth int // 1-6, 0 means DefaultTOCMaxDepth
}

// Validate checks the depth range. A nil TOC is valid.
func (t *TOC) Validate() error {
	if t == nil {
		return nil
	}
	minDepth, maxDepth := t.depths()
	if minDepth < 1 || minDepth > 6 {
		return fmt.Errorf("%w: minDepth %d out of range 1-6", ErrInvalidTOCDepth, minDepth)
	}
	if maxDepth < 1 || maxDepth > 6 {
		return fmt.Errorf("%w: maxDepth %d out of range 1-6", ErrInvalidTOCDepth, maxDepth)
	}
	if minDepth > maxDepth {
		return fmt.Errorf("%w: minDepth %d greater than maxDepth %d", ErrInvalidTOCDepth, minDepth, maxDepth)
	}
	return nil
}

func (t *TOC) depths() (int, int) {
	minDepth, maxDepth := t.MinDepth, t.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultTOCMaxDepth
	}
	if minDepth == 0 {
		// A shallow MaxDepth pulls the default minimum down with it.
		minDepth = max(1, min(DefaultTOCMinDepth, maxDepth))
	}
	return minDepth, maxDepth
}

// PageOptions configure RenderPage.
type PageOptions struct {
	// Style is a built-in style name, a CSS file path, or CSS content.
	// Empty selects the default style.
	Style string
	// CSS is appended after the style, so it can override it.
	CSS string
	// Lang is a BCP 47 tag for the html element. Empty means "en".
	Lang string
	// TOC adds a table of contents. When nil, one is still generated if the
	// source asked for \tableofcontents.
	TOC *TOC
	// SourceDir resolves \includegraphics files and relative links.
	// Empty leaves image placeholders as labeled boxes.
	SourceDir string
	// AssetPath is a directory overriding built-in styles and templates.
	AssetPath string
	// OmitTitle suppresses the title block built from metadata.
	OmitTitle bool
}

// Validate checks TOC depths and the language tag.
func (o *PageOptions) Validate() error {
	if err := o.TOC.Validate(); err != nil {
		return err
	}
	if o.Lang != "" {
		if _, err := language.Parse(o.Lang); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, o.Lang, err)
		}
	}
	return nil
}
