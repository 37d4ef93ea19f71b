package tex2html

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-tex2html/internal/assets"
	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/pipeline"
	"github.com/alnah/go-tex2html/internal/texmath"
)

// Compile-time interface implementation checks.
var (
	_ MathRenderer         = texmath.MarkupRenderer{}
	_ pipeline.CSSInjector = (*pipeline.CSSInjection)(nil)
	_ pipeline.TOCInjector = (*pipeline.TOCInjection)(nil)
)

// Converter turns LaTeX-like source into HTML.
// Create with NewConverter. A Converter is safe for concurrent use.
type Converter struct {
	cfg       converterConfig
	processor *pipeline.Processor
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithLogger, WithMathRenderer).
// Returns error if the date format is invalid or the diagram template
// cannot be loaded.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			diagram:       DefaultDiagramHeuristics(),
			math:          DefaultMathHeuristics(),
			now:           time.Now,
			dateFormat:    DefaultDateFormat,
			maxSourceSize: DefaultMaxSourceSize,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.dateFormat == "" {
		c.cfg.dateFormat = DefaultDateFormat
	}
	// Checked once so a bad format fails here rather than on every \today.
	if err := dateutil.Validate(c.cfg.dateFormat); err != nil {
		return nil, fmt.Errorf("date format %q: %w", c.cfg.dateFormat, err)
	}

	var diagramTemplate string
	if c.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		diagramTemplate, err = resolver.LoadTemplate(assets.DiagramTemplateName)
		if err != nil {
			return nil, fmt.Errorf("loading diagram template: %w", err)
		}
	}

	var renderer texmath.Renderer
	if c.cfg.renderer != nil {
		renderer = c.cfg.renderer
	}

	processor, err := pipeline.NewProcessor(pipeline.Options{
		Logger:          c.cfg.logger,
		Renderer:        renderer,
		Diagram:         c.cfg.diagram,
		Math:            c.cfg.math,
		SafePhrases:     c.cfg.safePhrases,
		DiagramTemplate: diagramTemplate,
		Now:             c.cfg.now,
		DateFormat:      c.cfg.dateFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing processor: %w", err)
	}
	c.processor = processor

	return c, nil
}

// Convert runs the full pipeline on source.
// Malformed input never fails: it degrades in place. Errors are limited to
// an empty or oversized source and context cancellation.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, source string) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateSource(source); err != nil {
		return nil, err
	}

	doc, err := c.processor.Process(ctx, source)
	if err != nil {
		return nil, err
	}
	return toResult(doc), nil
}

// validateSource is the trust boundary for direct library users.
func (c *Converter) validateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return ErrEmptySource
	}
	if len(source) > c.cfg.maxSourceSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrSourceTooLarge, len(source), c.cfg.maxSourceSize)
	}
	return nil
}

// toResult converts the internal document to the public result type.
func toResult(doc *pipeline.Document) *ConvertResult {
	res := &ConvertResult{
		HTML:            doc.HTML,
		Blocks:          doc.Registry.Entries(),
		Bibliography:    doc.Bibliography,
		HasBibliography: doc.HasBibliography,
		Metadata:        Metadata(doc.Metadata),
		TitleRendered:   doc.TitleRendered,
		HasTOC:          doc.HasTOC,
		Stats:           toStats(doc.Stats),
	}
	if len(doc.Macros) > 0 {
		res.Macros = make(map[string]string, len(doc.Macros))
		for k, v := range doc.Macros {
			res.Macros[k] = v
		}
	}
	for _, d := range doc.Diagrams {
		res.Diagrams = append(res.Diagrams, Diagram{
			Index:     d.Index,
			Intent:    d.Intent.String(),
			Token:     d.Token,
			Supported: d.Supported,
			Document:  d.Document,
		})
	}
	return res
}

func toStats(s pipeline.Stats) Stats {
	return Stats{
		Citations:       s.Citations,
		Diagrams:        s.Diagrams,
		Unsupported:     s.Unsupported,
		Equations:       s.Equations,
		MathErrors:      s.MathErrors,
		Tables:          s.Tables,
		AbandonedTables: s.AbandonedTables,
		CodeBlocks:      s.CodeBlocks,
		Footnotes:       s.Footnotes,
		FailedStages:    append([]string(nil), s.FailedStages...),
	}
}
