package pipeline

import (
	"strings"
	"testing"
)

func TestCodeHighlighter_Highlight(t *testing.T) {
	t.Parallel()

	c := NewCodeHighlighter()

	tests := []struct {
		name     string
		source   string
		language string
		want     string
	}{
		{"known language", "x := 1", "go", `class="chroma"`},
		{"language case folded", "print(1)", " Python ", `class="chroma"`},
		{"no language escapes", "a<b", "", "<pre><code>a&lt;b</code></pre>"},
		{"unknown language escapes", "a&b", "nosuchlang", "<pre><code>a&amp;b</code></pre>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.Highlight(tt.source, tt.language)
			if err != nil {
				t.Fatalf("Highlight() error = %v", err)
			}
			assertContains(t, got, tt.want)
		})
	}
}

func TestCodeHighlighter_CSS(t *testing.T) {
	t.Parallel()

	css, err := NewCodeHighlighter().CSS()
	if err != nil {
		t.Fatalf("CSS() error = %v", err)
	}
	assertContains(t, css, ".chroma")
}

func TestParseListing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  string
		body string
		want listing
	}{
		{
			name: "lstlisting options",
			env:  "lstlisting",
			body: "[language=Python, caption={Main loop}, label=lst:main]\nprint(1)\n",
			want: listing{source: "print(1)", language: "Python", caption: "Main loop", label: "lst:main"},
		},
		{
			name: "dialect prefix dropped",
			env:  "lstlisting",
			body: "[language={[Sharp]C}]\nx;\n",
			want: listing{source: "x;", language: "C"},
		},
		{
			name: "minted language argument",
			env:  "minted",
			body: "[linenos]{python}\n    indented\n",
			want: listing{source: "    indented", language: "python"},
		},
		{
			name: "verbatim keeps brackets",
			env:  "verbatim",
			body: "[not options]\n",
			want: listing{source: "[not options]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseListing(tt.env, tt.body); got != tt.want {
				t.Errorf("parseListing() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadDelimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantCode string
		wantEnd  int
		wantOK   bool
	}{
		{"|a b|x", "a b", 5, true},
		{"+x+", "x", 3, true},
		{"{x{y}}z", "x{y}", 6, true},
		{"abc", "", 0, false},
		{"|open\n|", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			code, end, ok := readDelimited(tt.input, 0)
			if code != tt.wantCode || end != tt.wantEnd || ok != tt.wantOK {
				t.Errorf("readDelimited(%q) = %q, %d, %v, want %q, %d, %v",
					tt.input, code, end, ok, tt.wantCode, tt.wantEnd, tt.wantOK)
			}
		})
	}
}

func TestCodeHighlighter_Extract(t *testing.T) {
	t.Parallel()

	t.Run("markdown fence", func(t *testing.T) {
		t.Parallel()

		st := newState("")
		c := NewCodeHighlighter()
		out := c.extract(st, "Text\n```go\nx := 1\n```\nMore")

		if st.doc.Stats.CodeBlocks != 1 {
			t.Errorf("CodeBlocks = %d, want 1", st.doc.Stats.CodeBlocks)
		}
		assertExcludes(t, out, "```")
		assertContains(t, st.reg.Resolve(out), `<div class="code-block" data-language="go">`, "<pre", "Text", "More")
	})

	t.Run("unterminated fence left as text", func(t *testing.T) {
		t.Parallel()

		st := newState("")
		out := NewCodeHighlighter().extract(st, "```go\nx := 1")
		if out != "```go\nx := 1" {
			t.Errorf("extract() = %q, want unchanged", out)
		}
	})

	t.Run("captioned listing is numbered and labeled", func(t *testing.T) {
		t.Parallel()

		st := newState("")
		out := NewCodeHighlighter().extract(st, "\\begin{lstlisting}[caption=Setup, label=lst:a]\nx\n\\end{lstlisting}")
		assertContains(t, st.reg.Resolve(out),
			`<div class="code-block" id="lst:a"><div class="code-caption"><span class="caption-label">Listing 1:</span> Setup</div>`)
		if l := st.labels["lst:a"]; l.Number != "1" || l.Anchor != "lst:a" {
			t.Errorf("label = %+v, want number 1 anchored at lst:a", l)
		}
	})

	t.Run("inline commands", func(t *testing.T) {
		t.Parallel()

		st := newState("")
		out := NewCodeHighlighter().extract(st, `a \verb+x<y+ b \lstinline[style=s]|z| c \mintinline{go}{f()} d \verb`)
		got := st.reg.Resolve(out)
		assertContains(t, got,
			`a <code class="verb">x&lt;y</code> b`,
			`b <code class="verb">z</code> c`,
			`c <code class="verb">f()</code> d`,
		)
		if !strings.HasSuffix(got, `d \verb`) {
			t.Errorf("extract() = %q, want dangling \\verb kept", got)
		}
	})
}
