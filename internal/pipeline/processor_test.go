package pipeline

// Notes:
// - End-to-end cases run the full stage list through Process and assert on
//   fragments of the resolved HTML, since exact whitespace between blocks
//   is not part of the contract
// - Every resolved document is checked for leftover placeholder delimiters
// - The recover guard is tested by running a panicking stage directly

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-tex2html/internal/dateutil"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(Options{
		Now: func() time.Time { return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	return p
}

func TestNewProcessor_Defaults(t *testing.T) {
	t.Parallel()

	p, err := NewProcessor(Options{})
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	if p.opts.DateFormat != dateutil.DefaultDateFormat {
		t.Errorf("DateFormat = %q, want %q", p.opts.DateFormat, dateutil.DefaultDateFormat)
	}
	if p.opts.Renderer == nil || p.opts.Now == nil {
		t.Error("Renderer or Now left nil")
	}
}

// process runs source through a fresh Processor and returns the document
// and its resolved HTML.
func process(t *testing.T, source string) (*Document, string) {
	t.Helper()
	doc, err := newTestProcessor(t).Process(context.Background(), source)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	out := doc.Resolve()
	if strings.ContainsAny(out, "\uE000\uE001") {
		t.Errorf("resolved HTML holds placeholder delimiters: %q", out)
	}
	if len(doc.Stats.FailedStages) > 0 {
		t.Errorf("failed stages = %v", doc.Stats.FailedStages)
	}
	return doc, out
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output = %q, want to contain %q", got, w)
		}
	}
}

func assertExcludes(t *testing.T, got string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(got, u) {
			t.Errorf("output = %q, should not contain %q", got, u)
		}
	}
}

func TestProcess_Citations(t *testing.T) {
	t.Parallel()

	doc, out := process(t, `Prior work \cite{ref_1, ref_2, ref_3} shows this.`)

	assertContains(t, out, "[1]–[3]")
	if !doc.HasBibliography {
		t.Fatal("HasBibliography = false, want true")
	}
	if doc.Stats.Citations != 1 {
		t.Errorf("Stats.Citations = %d, want 1", doc.Stats.Citations)
	}
	assertContains(t, doc.Bibliography, `<li id="ref-1">`, `<li id="ref-2">`, `<li id="ref-3">`)
	if n := strings.Count(doc.Bibliography, "<li "); n != 3 {
		t.Errorf("bibliography has %d entries, want 3", n)
	}
}

func TestProcess_UnsupportedDiagram(t *testing.T) {
	t.Parallel()

	doc, out := process(t, "Before.\n\n\\begin{tikzpicture}\\begin{axis}\\addplot {x};\\end{axis}\\end{tikzpicture}\n\nAfter.")

	if doc.Stats.Diagrams != 1 || doc.Stats.Unsupported != 1 {
		t.Errorf("Stats = %+v, want one unsupported diagram", doc.Stats)
	}
	if len(doc.Diagrams) != 1 || doc.Diagrams[0].Supported {
		t.Errorf("Diagrams = %+v, want one unsupported", doc.Diagrams)
	}
	assertContains(t, out, "unsupported", "<p>Before.</p>", "<p>After.</p>")
}

func TestProcess_Table(t *testing.T) {
	t.Parallel()

	doc, out := process(t, `\begin{tabular}{ll} A & B \\ C & D \\ \end{tabular}`)

	if doc.Stats.Tables != 1 {
		t.Errorf("Stats.Tables = %d, want 1", doc.Stats.Tables)
	}
	if n := strings.Count(out, "<td"); n != 4 {
		t.Errorf("table has %d cells, want 4: %q", n, out)
	}
	assertContains(t, out, `<table class="latex-table`, ">A</td>", ">D</td>")
	assertExcludes(t, out, "<p><div")
}

func TestProcess_Math(t *testing.T) {
	t.Parallel()

	doc, out := process(t, "Inline $x^2$ here.\n\n\\begin{equation}a=b\\label{eq:main}\\end{equation}\n\nBy \\eqref{eq:main}.")

	assertContains(t, out,
		`<span class="math math-inline">\(x^2\)</span>`,
		`<span class="math-number">(1)</span>`,
		"By (1).",
	)
	if doc.Stats.Equations != 2 {
		t.Errorf("Stats.Equations = %d, want 2", doc.Stats.Equations)
	}
}

func TestProcess_SectionsAndReferences(t *testing.T) {
	t.Parallel()

	_, out := process(t, "\\section{Introduction}\\label{sec:intro}\nText.\n\n"+
		"\\subsection{Scope}\nMore.\n\n\\section*{Notes}\nSee Section~\\ref{sec:intro} and \\ref{sec:missing}.")

	assertContains(t, out,
		`<h2 id="introduction"><span class="section-number">1</span> Introduction</h2>`,
		`<h3 id="scope"><span class="section-number">1.1</span> Scope</h3>`,
		`<h2 id="notes">Notes</h2>`,
		"Section\u00a0"+`<a class="ref" href="#introduction">1</a>`,
		"and ??.",
	)
}

func TestProcess_TitleBlock(t *testing.T) {
	t.Parallel()

	doc, out := process(t, "\\title{On \\textbf{Graphs}}\n\\author{Ada \\and Alan}\n\\date{\\today}\n"+
		"\\begin{document}\n\\maketitle\n\\tableofcontents\nBody.\n\\end{document}")

	want := Metadata{Title: "On Graphs", Author: "Ada, Alan", Date: "March 5, 2024"}
	if doc.Metadata != want {
		t.Errorf("Metadata = %+v, want %+v", doc.Metadata, want)
	}
	if !doc.TitleRendered || !doc.HasTOC {
		t.Errorf("TitleRendered = %v, HasTOC = %v, want both true", doc.TitleRendered, doc.HasTOC)
	}
	assertContains(t, out, `<h1 class="doc-title">On Graphs</h1>`, `<p class="doc-author">Ada, Alan</p>`, "data-toc", "<p>Body.</p>")
	assertExcludes(t, out, "document}")
}

func TestProcess_MacrosFromPreamble(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		want    []string
		missing []string
	}{
		{
			name:    "body definition not harvested",
			source:  "\\documentclass{article}\n\\newcommand{\\R}{\\mathbb{R}}\n\\begin{document}\n\\newcommand{\\N}{\\mathbb{N}}\nBody text.\n\\end{document}",
			want:    []string{`\R`},
			missing: []string{`\N`},
		},
		{
			name:   "fragment without preamble",
			source: "\\newcommand{\\R}{\\mathbb{R}}\nBody text.",
			want:   []string{`\R`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, out := process(t, tt.source)
			for _, name := range tt.want {
				if _, ok := doc.Macros[name]; !ok {
					t.Errorf("Macros = %v, want %s", doc.Macros, name)
				}
			}
			for _, name := range tt.missing {
				if _, ok := doc.Macros[name]; ok {
					t.Errorf("Macros = %v, want no %s", doc.Macros, name)
				}
			}
			assertContains(t, out, "Body text.")
			assertExcludes(t, out, "newcommand", "mathbb")
		})
	}
}

func TestProcess_Footnotes(t *testing.T) {
	t.Parallel()

	doc, out := process(t, `First\footnote{One.} and second\footnote{Two.} claim.`)

	if doc.Stats.Footnotes != 2 {
		t.Errorf("Stats.Footnotes = %d, want 2", doc.Stats.Footnotes)
	}
	assertContains(t, out,
		`First<sup class="footnote-ref" id="fnref-1"><a href="#fn-1">1</a></sup>`,
		`second<sup class="footnote-ref" id="fnref-2"><a href="#fn-2">2</a></sup>`,
		`<section class="footnotes"><ol><li id="fn-1">One.`,
		`<li id="fn-2">Two.`,
	)
}

func TestProcess_Theorems(t *testing.T) {
	t.Parallel()

	_, out := process(t, "\\newtheorem{hunch}{Hunch}\n"+
		"\\begin{theorem}[Main]\\label{thm:main}Every graph is fine.\\end{theorem}\n\n"+
		"\\begin{proof}Trivial.\\end{proof}\n\n"+
		"\\begin{hunch}Maybe.\\end{hunch}\n\n"+
		"By Theorem~\\ref{thm:main}.")

	assertContains(t, out,
		`<div class="theorem kind-theorem" id="thm:main"><span class="theorem-label">Theorem 1 <span class="theorem-note">(Main)</span>.</span>`,
		`<div class="theorem-body">Every graph is fine.</div>`,
		`<div class="proof"><span class="proof-label">Proof.</span> Trivial. <span class="qed">∎</span></div>`,
		`<div class="theorem kind-declared"><span class="theorem-label">Hunch 1.</span>`,
		`<a class="ref" href="#thm:main">1</a>`,
	)
	assertExcludes(t, out, "newtheorem")
}

func TestProcess_FloatsAndImages(t *testing.T) {
	t.Parallel()

	_, out := process(t, "\\begin{figure}[h]\n\\centering\n\\includegraphics[width=0.5\\textwidth]{plot.png}\n"+
		"\\caption{A plot.}\\label{fig:plot}\n\\end{figure}\n\nSee Figure~\\ref{fig:plot}.")

	assertContains(t, out,
		`<figure class="float float-figure" id="fig:plot">`,
		`<span class="image-placeholder" data-src="plot.png"`,
		`<figcaption><span class="caption-label">Figure 1:</span> A plot.</figcaption>`,
		`<a class="ref" href="#fig:plot">1</a>`,
	)
	assertExcludes(t, out, "centering", "[h]")
}

func TestProcess_Code(t *testing.T) {
	t.Parallel()

	doc, out := process(t, "Use \\verb|$x_1$| inline.\n\n\\begin{verbatim}\n<b>&</b> $y$\n\\end{verbatim}\n\n"+
		"\\begin{minted}{go}\nfunc main() {}\n\\end{minted}")

	if doc.Stats.CodeBlocks != 2 {
		t.Errorf("Stats.CodeBlocks = %d, want 2", doc.Stats.CodeBlocks)
	}
	if doc.Stats.Equations != 0 {
		t.Errorf("Stats.Equations = %d, want 0: code must hide math", doc.Stats.Equations)
	}
	assertContains(t, out,
		`<code class="verb">$x_1$</code>`,
		`<pre><code>&lt;b&gt;&amp;&lt;/b&gt; $y$</code></pre>`,
		`data-language="go"`,
		`class="chroma"`,
	)
}

func TestProcess_Algorithmic(t *testing.T) {
	t.Parallel()

	_, out := process(t, `\begin{algorithmic}[1]\STATE a\IF{c}\STATE b\ENDIF\end{algorithmic}`)

	assertContains(t, out,
		`<div class="algorithm">`,
		`<span class="line-number">1:</span> a</div>`,
		`<span class="algorithm-keyword">if</span> c <span class="algorithm-keyword">then</span>`,
		`<div class="algorithm-line" style="padding-left:1.5em"><span class="line-number">3:</span> b</div>`,
		`<span class="algorithm-keyword">end if</span>`,
	)
}

func TestProcess_LiteralNewlinesMakeParagraphs(t *testing.T) {
	t.Parallel()

	_, out := process(t, `First paragraph.\n\nSecond paragraph.`)

	assertContains(t, out, "<p>First paragraph.</p>", "<p>Second paragraph.</p>")
}

func TestProcess_UnknownEnvironmentKeepsContent(t *testing.T) {
	t.Parallel()

	_, out := process(t, "\\begin{mybox}[title=x]Hello \\textbf{there}.\\end{mybox}")

	assertContains(t, out, "Hello <strong>there</strong>.")
	assertExcludes(t, out, "mybox", "begin", "title=x")
}

func TestProcess_EmptyAndMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"unbalanced braces", `\textbf{never closed \section{ and $x`},
		{"stray end", `\end{itemize} text \end{tabular}`},
		{"unterminated environment", `\begin{itemize}\item a`},
		{"placeholder delimiters in source", "a \uE000MATH1\uE001 b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			process(t, tt.source)
		})
	}
}

func TestProcess_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProcessor(t).Process(ctx, "text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

func TestProcessor_RunRecoversPanics(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(t)
	st := newState("kept")
	p.run(st, stage{name: "boom", run: func(st *state) {
		st.text = "half-done"
		st.depth = 3
		panic("stage bug")
	}})

	if st.text != "kept" {
		t.Errorf("text = %q, want %q", st.text, "kept")
	}
	if st.depth != 0 {
		t.Errorf("depth = %d, want 0", st.depth)
	}
	if got := st.doc.Stats.FailedStages; len(got) != 1 || got[0] != "boom" {
		t.Errorf("FailedStages = %v, want [boom]", got)
	}
}
