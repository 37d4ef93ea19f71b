package tex2html

// Notes:
// - TOC: tests depth range validation and defaulting
// - PageOptions: tests language tag validation through x/text/language
// - Option constructors: tests the panics guarding invalid values
// - ConvertResult.Resolve: tests nested and unknown tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-tex2html/internal/placeholder"
)

// ---------------------------------------------------------------------------
// TestTOC_Validate - TOC Validation
// ---------------------------------------------------------------------------

func TestTOC_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		toc     *TOC
		wantErr error
	}{
		{
			name:    "nil is valid",
			toc:     nil,
			wantErr: nil,
		},
		{
			name:    "zero value uses defaults",
			toc:     &TOC{},
			wantErr: nil,
		},
		{
			name:    "max depth 1 pulls default min down",
			toc:     &TOC{MaxDepth: 1},
			wantErr: nil,
		},
		{
			name:    "full range",
			toc:     &TOC{Title: "Contents", MinDepth: 1, MaxDepth: 6},
			wantErr: nil,
		},
		{
			name:    "max depth too large",
			toc:     &TOC{MaxDepth: 7},
			wantErr: ErrInvalidTOCDepth,
		},
		{
			name:    "negative min depth",
			toc:     &TOC{MinDepth: -1},
			wantErr: ErrInvalidTOCDepth,
		},
		{
			name:    "min greater than max",
			toc:     &TOC{MinDepth: 4, MaxDepth: 2},
			wantErr: ErrInvalidTOCDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.toc.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTOC_Depths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		toc     TOC
		wantMin int
		wantMax int
	}{
		{"defaults", TOC{}, DefaultTOCMinDepth, DefaultTOCMaxDepth},
		{"explicit", TOC{MinDepth: 1, MaxDepth: 4}, 1, 4},
		{"shallow max", TOC{MaxDepth: 1}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotMin, gotMax := tt.toc.depths()
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("depths() = (%d, %d), want (%d, %d)", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPageOptions_Validate - PageOptions Validation
// ---------------------------------------------------------------------------

func TestPageOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    PageOptions
		wantErr error
	}{
		{
			name:    "zero value is valid",
			opts:    PageOptions{},
			wantErr: nil,
		},
		{
			name:    "regional language tag",
			opts:    PageOptions{Lang: "fr-CA"},
			wantErr: nil,
		},
		{
			name:    "malformed language tag",
			opts:    PageOptions{Lang: "not a tag!"},
			wantErr: ErrInvalidLanguage,
		},
		{
			name:    "invalid TOC",
			opts:    PageOptions{TOC: &TOC{MinDepth: 9}},
			wantErr: ErrInvalidTOCDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOptionPanics - Invalid Option Values
// ---------------------------------------------------------------------------

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func()
	}{
		{"zero max source size", func() { WithMaxSourceSize(0) }},
		{"negative max source size", func() { WithMaxSourceSize(-1) }},
		{"nil clock", func() { WithClock(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for %s", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestWithClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	c := &Converter{}
	WithClock(func() time.Time { return fixed })(c)
	if got := c.cfg.now(); !got.Equal(fixed) {
		t.Errorf("now() = %v, want %v", got, fixed)
	}
}

// ---------------------------------------------------------------------------
// TestConvertResult_Resolve - Token Substitution
// ---------------------------------------------------------------------------

func TestConvertResult_Resolve(t *testing.T) {
	t.Parallel()

	outer := placeholder.Open + "BLOCK1" + placeholder.Close
	inner := placeholder.Open + "MATH1" + placeholder.Close
	unknown := placeholder.Open + "TABLE9" + placeholder.Close

	tests := []struct {
		name   string
		result ConvertResult
		want   string
	}{
		{
			name:   "no tokens",
			result: ConvertResult{HTML: "<p>plain</p>"},
			want:   "<p>plain</p>",
		},
		{
			name: "nested token",
			result: ConvertResult{
				HTML:   "<p>a</p>" + outer,
				Blocks: map[string]string{outer: "<div>" + inner + "</div>", inner: "<span>x</span>"},
			},
			want: "<p>a</p><div><span>x</span></div>",
		},
		{
			name:   "unknown token kept",
			result: ConvertResult{HTML: "a" + unknown, Blocks: map[string]string{}},
			want:   "a" + unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.result.Resolve(); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}
