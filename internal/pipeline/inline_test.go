package pipeline

import (
	"strings"
	"testing"
)

func TestFormatInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "plain text", "plain text"},
		{"html escaped", "a < b & c > d", "a &lt; b &amp; c &gt; d"},
		{"bold and emphasis", `\textbf{bold} and \emph{it}`, "<strong>bold</strong> and <em>it</em>"},
		{"nested commands", `\textbf{\textit{both}}`, "<strong><em>both</em></strong>"},
		{"declaration group", `{\bf x} y`, "<strong>x</strong> y"},
		{"smallcaps", `\textsc{Name}`, `<span class="smallcaps">Name</span>`},
		{"tex quotes", "``quoted''", "“quoted”"},
		{"dashes", "1--2 and a---b", "1–2 and a—b"},
		{"tie", "A~B", "A\u00a0B"},
		{"accent", `caf\'e`, "caf\u00e9"},
		{"braced accent", `\"{o}`, "\u00f6"},
		{"escaped specials", `10\% of \$5 \#1 a\_b`, "10% of $5 #1 a_b"},
		{"escaped ampersand", `R\&D`, "R&amp;D"},
		{"symbols", `\ldots\ \S 2`, "… § 2"},
		{"markdown bold", "**bold** text", "<strong>bold</strong> text"},
		{"color", `\textcolor{red}{warm}`, `<span style="color:red">warm</span>`},
		{"unsafe color dropped", `\textcolor{red;x:y}{warm}`, "warm"},
		{"unknown command keeps content", `\unknowncmd{kept}`, "kept"},
		{"label removed", `Text\label{x}.`, "Text."},
		{"comment stripped", "kept % dropped", "kept"},
		{"escaped percent is not a comment", `50\% kept`, "50% kept"},
		{"line break", `a\\b`, "a<br>b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := newState("")
			got := st.reg.Resolve(formatInline(st, tt.input))
			if got != tt.want {
				t.Errorf("formatInline(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatInline_Links(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "url",
			input: `\url{https://example.com/a_b}`,
			want:  `<a href="https://example.com/a_b">https://example.com/a_b</a>`,
		},
		{
			name:  "href with formatted text",
			input: `\href{https://example.com/x\%20y}{\textbf{site}}`,
			want:  `<a href="https://example.com/x%20y"><strong>site</strong></a>`,
		},
		{
			name:  "unsafe scheme keeps text",
			input: `\href{javascript:alert(1)}{click}`,
			want:  "click",
		},
		{
			name:  "mailto",
			input: `\href{mailto:a@example.com}{mail}`,
			want:  `<a href="mailto:a@example.com">mail</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := newState("")
			got := st.reg.Resolve(formatInline(st, tt.input))
			if got != tt.want {
				t.Errorf("formatInline(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatInline_ReservesReferences(t *testing.T) {
	t.Parallel()

	st := newState("")
	out := formatInline(st, `see \ref{a}, \eqref{b} and \footnote{note}`)

	if len(st.refs) != 2 {
		t.Fatalf("refs = %d, want 2", len(st.refs))
	}
	if !st.refs[1].paren || st.refs[0].paren {
		t.Errorf("paren flags = %v, %v, want false, true", st.refs[0].paren, st.refs[1].paren)
	}
	if len(st.notes) != 1 || st.notes[0].html != "note" {
		t.Errorf("notes = %+v, want one note", st.notes)
	}
	if got := len(st.reg.Pending()); got != 3 {
		t.Errorf("pending tokens = %d, want 3", got)
	}
	if strings.Contains(out, `\ref`) {
		t.Errorf("formatInline() = %q, ref left in text", out)
	}
}

func TestStripComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no comment", "a\nb", "a\nb"},
		{"full line removed", "a\n% note\nb", "a\nb"},
		{"trailing comment", "a % note\nb", "a\nb"},
		{"escaped percent kept", `5\% more`, `5\% more`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := stripComments(tt.input); got != tt.want {
				t.Errorf("stripComments(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
