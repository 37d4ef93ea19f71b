// Package pipeline implements the LaTeX-like-to-HTML conversion pipeline.
//
// A Processor runs a fixed sequence of stages over one document buffer:
//   - healing of malformed generated text
//   - metadata and macro extraction
//   - citation canonicalization and bibliography
//   - diagram, code and math extraction into placeholder tokens
//   - list, algorithmic, environment, section and float normalization
//   - table extraction
//   - cleanup, inline formatting and paragraph segmentation
//
// Every stage runs under a recover guard: a stage that panics is logged and
// the buffer from before that stage is kept. Rendered fragments live in a
// per-document placeholder registry that callers resolve after processing.
//
// Page assembly (CSS injection, table of contents, image path resolution)
// is exposed separately so that callers who only need the HTML fragment do
// not pay for it.
package pipeline
