package hints

// Notes:
// - TestForConfigNotFound cannot use t.Parallel() because it uses t.Setenv()
//   to control TEX2HTML_CONFIG
// - Hint wording is checked through key fragments, not full strings

import (
	"strings"
	"testing"
)

func TestForConfigNotFound(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		paths    []string
		contains []string
		excludes []string
	}{
		{
			name:     "empty paths",
			paths:    []string{},
			contains: []string{"--config", ConfigEnv},
		},
		{
			name:     "suggests user config path",
			paths:    []string{"./notes.yaml", "~/.config/go-tex2html/notes.yaml"},
			contains: []string{"create ~/.config/go-tex2html/notes.yaml"},
		},
		{
			name:     "env already set",
			env:      "/etc/tex2html.yaml",
			paths:    []string{"./notes.yaml"},
			contains: []string{"--config"},
			excludes: []string{ConfigEnv},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigEnv, tt.env)

			hint := ForConfigNotFound(tt.paths)
			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint = %q, want hint prefix", hint)
			}
			for _, want := range tt.contains {
				if !strings.Contains(hint, want) {
					t.Errorf("hint = %q, want to contain %q", hint, want)
				}
			}
			for _, exclude := range tt.excludes {
				if strings.Contains(hint, exclude) {
					t.Errorf("hint = %q, should not contain %q", hint, exclude)
				}
			}
		})
	}
}

func TestForOutputDirectory(t *testing.T) {
	t.Parallel()

	hint := ForOutputDirectory()
	if !strings.Contains(hint, "hint:") || !strings.Contains(hint, "parent directory") {
		t.Errorf("hint = %q, want parent directory hint", hint)
	}
}

func TestListHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hint     string
		contains string
	}{
		{"style empty", ForStyleNotFound(nil), ""},
		{"styles", ForStyleNotFound([]string{"default", "compact"}), "available: default, compact"},
		{"extensions empty", ForExtension(nil), ""},
		{"extensions", ForExtension([]string{".tex", ".txt"}), "accepted extensions: .tex, .txt"},
		{"date presets", ForDateFormat([]string{"iso", "long"}), "presets: iso, long; tokens:"},
		{"date without presets", ForDateFormat(nil), "tokens: YYYY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.contains == "" {
				if tt.hint != "" {
					t.Errorf("hint = %q, want empty", tt.hint)
				}
				return
			}
			if !strings.Contains(tt.hint, tt.contains) {
				t.Errorf("hint = %q, want to contain %q", tt.hint, tt.contains)
			}
		})
	}
}

func TestForSourceTooLarge(t *testing.T) {
	t.Parallel()

	if hint := ForSourceTooLarge(1024); !strings.Contains(hint, "1024 bytes") || !strings.Contains(hint, "--max-size") {
		t.Errorf("ForSourceTooLarge(1024) = %q", hint)
	}
	if hint := ForSourceTooLarge(0); strings.Contains(hint, "bytes") || !strings.Contains(hint, "--max-size") {
		t.Errorf("ForSourceTooLarge(0) = %q", hint)
	}
}

func TestForMathErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{0, ""},
		{1, "\n  hint: 1 math expression kept as error markers; rerun with --verbose for details"},
		{3, "\n  hint: 3 math expressions kept as error markers; rerun with --verbose for details"},
	}

	for _, tt := range tests {
		if got := ForMathErrors(tt.count); got != tt.want {
			t.Errorf("ForMathErrors(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
	if got := formatHints([]string{"a", "b"}); got != "\n  hint: a; b" {
		t.Errorf("formatHints = %q", got)
	}
}
