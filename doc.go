// Package tex2html converts LaTeX-like text, typically written by language
// models, into HTML. Input is never rejected for being malformed: broken
// constructs degrade to escaped text or error markers and the rest of the
// document still renders.
//
// # Quick Start
//
//	conv, err := tex2html.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.Convert(ctx, `\section{Intro} Euler: $e^{i\pi}+1=0$.`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Resolve())
//
// # Placeholders
//
// Rendered fragments (math, tables, diagrams, code, citations) are kept out
// of the text while later stages run. ConvertResult.HTML holds tokens of the
// form U+E000 CATEGORY N U+E001 and ConvertResult.Blocks maps each token to
// its HTML. Resolve substitutes them, including tokens nested inside other
// blocks. Callers that post-process the text can do so before resolving
// without disturbing rendered fragments.
//
// # Conversion Pipeline
//
//  1. Healing of common generation mistakes (literal \n, doubled
//     backslashes, stray Markdown)
//  2. Metadata and \newcommand extraction
//  3. Citations and bibliography
//  4. TikZ diagrams, classified into a layout intent and emitted as
//     sandboxed preview documents
//  5. Code listings, highlighted with chroma
//  6. Math, handed to a MathRenderer (KaTeX markup by default)
//  7. Lists, algorithms, theorem-like environments, sections, floats
//     and tables
//  8. Inline formatting, paragraphs, cross-references and footnotes
//
// Each stage runs under a recover guard: a stage that panics is logged and
// skipped, keeping the text as it was before that stage.
//
// # Configuration
//
//	conv, err := tex2html.NewConverter(
//	    tex2html.WithLogger(slog.Default()),
//	    tex2html.WithDateFormat("european"),
//	    tex2html.WithSafePhrases("B&B"),
//	)
//
// # Standalone Pages
//
// RenderPage wraps a result into a complete HTML document with a built-in
// style, KaTeX auto-render configured with the document macros, an
// optional table of contents and the bibliography:
//
//	page, err := tex2html.RenderPage(ctx, result, tex2html.PageOptions{
//	    Style: "compact",
//	    TOC:   &tex2html.TOC{Title: "Contents"},
//	})
package tex2html
