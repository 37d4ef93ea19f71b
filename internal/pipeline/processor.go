package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alnah/go-tex2html/internal/cite"
	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/heal"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/texmath"
	"github.com/alnah/go-tex2html/internal/tikz"
)

// maxNesting bounds recursive rendering of block bodies.
const maxNesting = 24

// Options configure a Processor. Zero values select defaults.
type Options struct {
	Logger      *slog.Logger
	Renderer    texmath.Renderer
	Diagram     tikz.Params
	Math        texmath.Params
	SafePhrases []string
	// DiagramTemplate overrides the embedded diagram preview template.
	DiagramTemplate string
	// Now returns the date used for \today.
	Now func() time.Time
	// DateFormat is a dateutil format or preset for \today.
	DateFormat string
}

// Metadata holds the document title block, as plain text.
type Metadata struct {
	Title  string
	Author string
	Date   string
}

// Stats counts what each stage did.
type Stats struct {
	Citations       int
	Diagrams        int
	Unsupported     int
	Equations       int
	MathErrors      int
	Tables          int
	AbandonedTables int
	CodeBlocks      int
	Footnotes       int
	FailedStages    []string
}

// Document is the outcome of processing one source.
type Document struct {
	// HTML is the body fragment. It contains placeholder tokens.
	HTML            string
	Registry        *placeholder.Registry
	Bibliography    string
	HasBibliography bool
	Metadata        Metadata
	// TitleRendered is set when \maketitle placed the title block in HTML.
	TitleRendered bool
	// HasTOC is set when HTML holds a \tableofcontents marker.
	HasTOC      bool
	Macros      texmath.Macros
	Diagrams    []tikz.Diagram
	Expressions []texmath.Expression
	Stats       Stats
}

// Resolve returns HTML with every placeholder substituted.
func (d *Document) Resolve() string {
	return d.Registry.Resolve(d.HTML)
}

// Processor converts documents. It is safe for concurrent use: all
// per-document state lives in the state value built by Process.
type Processor struct {
	opts    Options
	logger  *slog.Logger
	diagram *tikz.Engine
	code    *CodeHighlighter
}

// NewProcessor builds a Processor. It fails only when the diagram template
// cannot be parsed.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Renderer == nil {
		opts.Renderer = texmath.MarkupRenderer{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DateFormat == "" {
		opts.DateFormat = dateutil.DefaultDateFormat
	}
	engine, err := tikz.NewEngine(opts.DiagramTemplate, opts.Diagram)
	if err != nil {
		return nil, fmt.Errorf("creating diagram engine: %w", err)
	}
	return &Processor{
		opts:    opts,
		logger:  opts.Logger,
		diagram: engine,
		code:    NewCodeHighlighter(),
	}, nil
}

// state is the per-document working set threaded through the stages.
type state struct {
	text     string
	reg      *placeholder.Registry
	doc      *Document
	labels   map[string]label
	theorems map[string]string // \newtheorem environment -> display name
	refs     []pendingRef
	notes    []pendingNote
	bib      []cite.Entry
	bibHTML  string
	counters map[string]int
	sections *numberingState
	slugs    map[string]int
	// depth counts nested block bodies being rendered, listDepth nested
	// lists only.
	depth     int
	listDepth int
}

// label is the target of a \ref.
type label struct {
	Number string
	Anchor string
}

func newState(source string) *state {
	reg := placeholder.New()
	return &state{
		text:     placeholder.StripDelimiters(source),
		reg:      reg,
		doc:      &Document{Registry: reg},
		labels:   make(map[string]label),
		theorems: make(map[string]string),
		counters: make(map[string]int),
		sections: newNumberingState(),
		slugs:    make(map[string]int),
	}
}

// block registers html as a block-level fragment and returns its token
// padded with blank lines so paragraph segmentation isolates it.
func (st *state) block(html string) string {
	return "\n\n" + st.reg.Add(placeholder.Block, html) + "\n\n"
}

// next increments and returns the counter for kind.
func (st *state) next(kind string) int {
	st.counters[kind]++
	return st.counters[kind]
}

// stage is one named step of the pipeline.
type stage struct {
	name string
	run  func(*state)
}

func (p *Processor) stages() []stage {
	structural := func(fn func(*state, string) string) func(*state) {
		return func(st *state) { st.text = fn(st, st.text) }
	}
	return []stage{
		{"heal", p.healStage},
		{"metadata", p.metadataStage},
		{"citations", p.citationStage},
		{"diagrams", p.diagramStage},
		{"code", structural(p.code.extract)},
		{"math", p.mathStage},
		{"lists", structural(p.lists)},
		{"algorithmic", structural(p.algorithmic)},
		{"environments", structural(p.environments)},
		{"sections", structural(p.sections)},
		{"floats", structural(p.floats)},
		{"tables", structural(p.tables)},
		{"cleanup", structural(cleanup)},
		{"inline", structural(formatInline)},
		{"paragraphs", structural(p.paragraphs)},
		{"bibliography", p.bibliographyStage},
		{"references", p.resolveRefs},
		{"footnotes", p.footnotes},
		{"finish", p.finish},
	}
}

// Process converts source. The only error is context cancellation, checked
// between stages; malformed input always yields a document.
func (p *Processor) Process(ctx context.Context, source string) (*Document, error) {
	st := newState(source)
	for _, s := range p.stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.run(st, s)
	}
	st.doc.HTML = st.text
	return st.doc, nil
}

// run executes one stage, restoring the previous buffer if it panics.
func (p *Processor) run(st *state, s stage) {
	before := st.text
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			st.text = before
			st.depth, st.listDepth = 0, 0
			st.doc.Stats.FailedStages = append(st.doc.Stats.FailedStages, s.name)
			p.logger.Warn("stage failed, keeping previous text", "stage", s.name, "panic", r)
			return
		}
		p.logger.Debug("stage done", "stage", s.name, "elapsed", time.Since(start))
	}()
	s.run(st)
}

func (p *Processor) healStage(st *state) {
	st.text = heal.Heal(st.text, heal.Options{SafePhrases: p.opts.SafePhrases})
}

func (p *Processor) diagramStage(st *state) {
	res := p.diagram.Process(st.text, st.reg)
	st.text = res.Text
	st.doc.Diagrams = res.Diagrams
	st.doc.Stats.Diagrams = len(res.Diagrams)
	for _, d := range res.Diagrams {
		if !d.Supported {
			st.doc.Stats.Unsupported++
			p.logger.Warn("diagram not supported", "index", d.Index)
			continue
		}
		p.logger.Debug("diagram classified", "index", d.Index, "intent", d.Intent.String())
	}
}

func (p *Processor) mathStage(st *state) {
	res := texmath.Process(st.text, st.doc.Macros, st.reg, p.opts.Renderer, p.opts.Math)
	st.text = res.Text
	st.doc.Expressions = res.Expressions
	st.doc.Stats.Equations = len(res.Expressions)
	st.doc.Stats.MathErrors = res.Failed()
	for key, n := range res.Labels {
		st.labels[key] = label{Number: n}
	}
	for _, e := range res.Expressions {
		if e.Err != nil {
			p.logger.Debug("math rendered as error marker", "source", e.Source, "error", e.Err)
		}
	}
}

// nested renders the body of a block construct. wrap adds paragraph
// segmentation for bodies holding several paragraphs.
func (p *Processor) nested(st *state, body string, wrap bool) string {
	if st.depth >= maxNesting {
		return formatInline(st, body)
	}
	st.depth++
	defer func() { st.depth-- }()
	body = p.lists(st, body)
	body = p.algorithmic(st, body)
	body = p.environments(st, body)
	body = p.floats(st, body)
	body = p.tables(st, body)
	body = formatInline(st, body)
	if wrap {
		body = p.paragraphs(st, body)
	}
	return strings.TrimSpace(body)
}
