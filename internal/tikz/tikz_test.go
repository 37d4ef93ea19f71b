package tikz

// Notes:
// - Classification is tested on hand-built Analysis values so the decision
//   tree is checked independently of the measuring regexes
// - Engine tests use the embedded preview template

import (
	"strings"
	"testing"

	"github.com/alnah/go-tex2html/internal/placeholder"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	tests := []struct {
		name string
		a    Analysis
		want Intent
	}{
		{"flat span", Analysis{HasSpan: true, SpanWidth: 10, SpanHeight: 1}, Flat},
		{"square span", Analysis{HasSpan: true, SpanWidth: 4, SpanHeight: 3}, Large},
		{"span beats node count", Analysis{HasSpan: true, SpanWidth: 4, SpanHeight: 4, Nodes: 20}, Large},
		{"small distance", Analysis{NodeDistanceCm: 0.8}, Compact},
		{"large distance", Analysis{NodeDistanceCm: 2.5}, Large},
		{"medium distance", Analysis{NodeDistanceCm: 1.8, Nodes: 20}, Medium},
		{"many nodes", Analysis{Nodes: 8}, Compact},
		{"horizontal chain", Analysis{Nodes: 4, Horizontal: 3}, Wide},
		{"chain with vertical step", Analysis{Nodes: 4, Horizontal: 3, Vertical: 1}, Medium},
		{"text heavy", Analysis{Nodes: 2, AvgLabelLength: 20}, Large},
		{"default", Analysis{Nodes: 3, AvgLabelLength: 3}, Medium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.a, p); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.a, got, tt.want)
			}
		})
	}
}

func TestClassifyZeroParamsUseDefaults(t *testing.T) {
	t.Parallel()

	if got := Classify(Analysis{Nodes: 8}, Params{}); got != Compact {
		t.Errorf("Classify with zero Params = %v, want compact", got)
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("relative placement", func(t *testing.T) {
		t.Parallel()
		a := Analyze(`[node distance=1cm] \node (a) {A}; \node[right=of a] (b) {B};`)
		if a.Nodes != 2 {
			t.Errorf("Nodes = %d, want 2", a.Nodes)
		}
		if a.NodeDistanceCm != 1 {
			t.Errorf("NodeDistanceCm = %v, want 1", a.NodeDistanceCm)
		}
		if a.Horizontal != 1 || a.Vertical != 0 {
			t.Errorf("Horizontal, Vertical = %d, %d", a.Horizontal, a.Vertical)
		}
		if a.HasSpan {
			t.Error("HasSpan = true for relative placement")
		}
	})

	t.Run("coordinate span", func(t *testing.T) {
		t.Parallel()
		a := Analyze(`\draw (0,0) -- (10,1); \node at (5,0.5) {x};`)
		if !a.HasSpan || a.SpanWidth != 10 || a.SpanHeight != 1 {
			t.Errorf("span = %v %vx%v", a.HasSpan, a.SpanWidth, a.SpanHeight)
		}
		if Classify(a, DefaultParams()) != Flat {
			t.Errorf("intent = %v, want flat", Classify(a, DefaultParams()))
		}
	})

	t.Run("label length ignores commands", func(t *testing.T) {
		t.Parallel()
		a := Analyze(`\node (a) {\textbf{abc}};`)
		if a.AvgLabelLength != 3 {
			t.Errorf("AvgLabelLength = %v, want 3", a.AvgLabelLength)
		}
	})

	t.Run("millimetre distance", func(t *testing.T) {
		t.Parallel()
		if a := Analyze(`[node distance=25mm]`); a.NodeDistanceCm != 2.5 {
			t.Errorf("NodeDistanceCm = %v, want 2.5", a.NodeDistanceCm)
		}
	})
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	p := DefaultParams()

	t.Run("compact scales down", func(t *testing.T) {
		t.Parallel()
		rp := Synthesize(Compact, Analysis{Nodes: 9}, p)
		if rp.Scale != p.CompactScale || rp.NodeDistanceCm != p.CompactNodeDistanceCm {
			t.Errorf("got %+v", rp)
		}
	})

	t.Run("large span fits width budget", func(t *testing.T) {
		t.Parallel()
		rp := Synthesize(Large, Analysis{HasSpan: true, SpanWidth: 16, SpanHeight: 4}, p)
		if rp.XUnitCm != 1 {
			t.Errorf("XUnitCm = %v, want 1", rp.XUnitCm)
		}
		if rp.YUnitCm < p.YUnitMinCm || rp.YUnitCm > p.YUnitMaxCm {
			t.Errorf("YUnitCm = %v outside clamp", rp.YUnitCm)
		}
	})

	t.Run("small span clamps x unit", func(t *testing.T) {
		t.Parallel()
		rp := Synthesize(Large, Analysis{HasSpan: true, SpanWidth: 2, SpanHeight: 2}, p)
		if rp.XUnitCm != p.XUnitClampCm {
			t.Errorf("XUnitCm = %v, want %v", rp.XUnitCm, p.XUnitClampCm)
		}
	})

	t.Run("long chain floors scale", func(t *testing.T) {
		t.Parallel()
		rp := Synthesize(Wide, Analysis{Horizontal: 30, AvgLabelLength: 10}, p)
		if rp.Scale != p.MinWideScale {
			t.Errorf("Scale = %v, want %v", rp.Scale, p.MinWideScale)
		}
	})

	t.Run("text heavy raises floor", func(t *testing.T) {
		t.Parallel()
		rp := Synthesize(Medium, Analysis{AvgLabelLength: 30}, p)
		if rp.MinNodeDistanceCm != p.MinNodeDistanceTextHeavyCm {
			t.Errorf("MinNodeDistanceCm = %v", rp.MinNodeDistanceCm)
		}
	})
}

func TestMergeOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		rp     RenderParams
		want   string
	}{
		{
			name:   "source distance under floor is raised",
			source: "node distance=0.5cm",
			rp:     RenderParams{NodeDistanceCm: 1.5, MinNodeDistanceCm: 1},
			want:   "node distance=1.5cm",
		},
		{
			name:   "floor applies without a synthesized distance",
			source: "node distance=0.3cm",
			rp:     RenderParams{XUnitCm: 1.2, MinNodeDistanceCm: 1.2},
			want:   "node distance=1.2cm, x=1.2cm",
		},
		{
			name:   "source distance wins",
			source: "node distance=3cm, thick",
			rp:     RenderParams{NodeDistanceCm: 2, MinNodeDistanceCm: 1},
			want:   "node distance=3cm, thick",
		},
		{
			name:   "synthesized options appended",
			source: "",
			rp:     RenderParams{Scale: 0.85, NodeDistanceCm: 1.5},
			want:   "node distance=1.5cm, scale=0.85, transform shape",
		},
		{
			name:   "source scale kept",
			source: "scale=2",
			rp:     RenderParams{Scale: 0.85},
			want:   "scale=2",
		},
		{
			name:   "units",
			source: ">=stealth",
			rp:     RenderParams{XUnitCm: 1.25, YUnitCm: 1},
			want:   ">=stealth, x=1.25cm, y=1cm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MergeOptions(tt.source, tt.rp); got != tt.want {
				t.Errorf("MergeOptions(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestFoldASCII(t *testing.T) {
	t.Parallel()

	got := FoldASCII("café → naïve")
	if got != `cafe $\rightarrow$ naive` {
		t.Errorf("FoldASCII = %q", got)
	}
}

func TestRewriteNodeLists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"itemize", `\begin{itemize}\item One \item Two\end{itemize}`, `$\bullet$ One \\ $\bullet$ Two`},
		{"enumerate", `\begin{enumerate}\item A\item B\end{enumerate}`, `1. A \\ 2. B`},
		{"no list", `\node {x};`, `\node {x};`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RewriteNodeLists(tt.input); got != tt.want {
				t.Errorf("RewriteNodeLists = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeAmpersands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"label", `\node {R&D};`, `\node {R\&D};`},
		{"already escaped", `\node {R\&D};`, `\node {R\&D};`},
		{"matrix kept", `\matrix (m) {a & b \\ c & d};`, `\matrix (m) {a & b \\ c & d};`},
		{"mixed", `\node {A&B}; \matrix {a & b};`, `\node {A\&B}; \matrix {a & b};`},
		{"tabular kept", `\node {\begin{tabular}{cc}a & b\end{tabular}};`, `\node {\begin{tabular}{cc}a & b\end{tabular}};`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EscapeAmpersands(tt.input); got != tt.want {
				t.Errorf("EscapeAmpersands = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPolyfillBraces(t *testing.T) {
	t.Parallel()

	t.Run("numeric endpoints", func(t *testing.T) {
		t.Parallel()
		got := PolyfillBraces(`\draw[decorate,decoration={brace,amplitude=10pt},thick] (0,0) -- (4,0) node[midway,above=6pt] {span};`)
		if strings.Contains(got, "decorat") {
			t.Errorf("decoration left in %q", got)
		}
		for _, want := range []string{`\draw[thick] (0,0) .. controls`, " .. (4,0);", `\node[above=6pt] at (2,0.5`, "{span};"} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q in %q", want, got)
			}
		}
		if n := strings.Count(got, ".. controls"); n != 4 {
			t.Errorf("got %d Bezier segments, want 4", n)
		}
	})

	t.Run("mirror flips side", func(t *testing.T) {
		t.Parallel()
		got := PolyfillBraces(`\draw[decorate,decoration={brace,mirror,amplitude=10pt}] (0,0) -- (4,0) node[below] {x};`)
		if !strings.Contains(got, "at (2,-0.5") {
			t.Errorf("mirrored label not below the path: %q", got)
		}
	})

	t.Run("named coordinates", func(t *testing.T) {
		t.Parallel()
		got := PolyfillBraces(`\draw[decorate,decoration={brace},thick] (A) -- (B);`)
		if strings.Contains(got, "decorat") || !strings.Contains(got, "(A) -- (B);") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("plain draw untouched", func(t *testing.T) {
		t.Parallel()
		in := `\draw[->] (0,0) -- (1,1);`
		if got := PolyfillBraces(in); got != in {
			t.Errorf("got %q", got)
		}
	})
}

func TestEngineProcess(t *testing.T) {
	t.Parallel()

	e, err := NewEngine("", DefaultParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	t.Run("supported diagram", func(t *testing.T) {
		t.Parallel()
		reg := placeholder.New()
		in := "\\usetikzlibrary{positioning}\nBefore\n\\begin{tikzpicture}[node distance=3cm]\\node (a) {A};\\node[right=of a] (b) {B};\\end{tikzpicture}\nAfter"
		res := e.Process(in, reg)
		if len(res.Diagrams) != 1 {
			t.Fatalf("Diagrams = %d, want 1", len(res.Diagrams))
		}
		d := res.Diagrams[0]
		if !d.Supported || d.Intent != Large {
			t.Errorf("diagram = supported %v intent %v", d.Supported, d.Intent)
		}
		for _, want := range []string{`\usetikzlibrary{positioning}`, "node distance=3cm", `<script type="text/tikz">`} {
			if !strings.Contains(d.Document, want) {
				t.Errorf("document missing %q", want)
			}
		}
		if strings.Contains(res.Text, "tikzpicture") || strings.Contains(res.Text, "usetikzlibrary") {
			t.Errorf("Text = %q", res.Text)
		}
		if !strings.Contains(res.Text, d.Token) {
			t.Errorf("token missing from %q", res.Text)
		}
		block, ok := reg.Get(d.Token)
		if !ok {
			t.Fatal("token not registered")
		}
		for _, want := range []string{`sandbox="allow-scripts"`, "intent-large", `srcdoc="&lt;!DOCTYPE html&gt;`} {
			if !strings.Contains(block, want) {
				t.Errorf("block missing %q", want)
			}
		}
	})

	t.Run("axis is not supported", func(t *testing.T) {
		t.Parallel()
		reg := placeholder.New()
		res := e.Process(`A \begin{tikzpicture}\begin{axis}\addplot {x};\end{axis}\end{tikzpicture} B`, reg)
		if len(res.Diagrams) != 1 || res.Diagrams[0].Supported {
			t.Fatalf("Diagrams = %+v", res.Diagrams)
		}
		block, _ := reg.Get(res.Diagrams[0].Token)
		if !strings.Contains(block, "not supported") || !strings.Contains(block, "unsupported") {
			t.Errorf("block = %q", block)
		}
	})

	t.Run("nested pictures count once", func(t *testing.T) {
		t.Parallel()
		in := `\begin{tikzpicture}\node {\begin{tikzpicture}\node {x};\end{tikzpicture}};\end{tikzpicture}`
		if res := e.Process(in, placeholder.New()); len(res.Diagrams) != 1 {
			t.Errorf("Diagrams = %d, want 1", len(res.Diagrams))
		}
	})

	t.Run("positioning library added", func(t *testing.T) {
		t.Parallel()
		res := e.Process(`\begin{tikzpicture}\node (a) {A};\node[below=of a] {B};\end{tikzpicture}`, placeholder.New())
		if !strings.Contains(res.Diagrams[0].Document, `\usetikzlibrary{positioning}`) {
			t.Error("positioning library not added")
		}
	})

	t.Run("unterminated left verbatim", func(t *testing.T) {
		t.Parallel()
		in := `\begin{tikzpicture} \node {A};`
		res := e.Process(in, placeholder.New())
		if len(res.Diagrams) != 0 || res.Text != in {
			t.Errorf("res = %+v", res)
		}
	})

	t.Run("script close escaped", func(t *testing.T) {
		t.Parallel()
		res := e.Process(`\begin{tikzpicture}\node {</script>};\end{tikzpicture}`, placeholder.New())
		if !strings.Contains(res.Diagrams[0].Document, `<\/script>`) {
			t.Error("script close not escaped")
		}
	})
}

func TestIntentString(t *testing.T) {
	t.Parallel()

	for intent, want := range map[Intent]string{Medium: "medium", Compact: "compact", Large: "large", Flat: "flat", Wide: "wide"} {
		if got := intent.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", intent, got, want)
		}
	}
}
