package texmath

import (
	"strings"
)

// Params holds the display autoscale heuristics.
type Params struct {
	// CharWidthEm is the assumed width of one proxy character.
	CharWidthEm float64
	// WidthBudgetEm is the display width available to an equation.
	WidthBudgetEm float64
	// MinScale floors the shrink factor so scaled math stays legible.
	MinScale float64
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{CharWidthEm: 0.6, WidthBudgetEm: 40, MinScale: 0.55}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.CharWidthEm <= 0 {
		p.CharWidthEm = d.CharWidthEm
	}
	if p.WidthBudgetEm <= 0 {
		p.WidthBudgetEm = d.WidthBudgetEm
	}
	if p.MinScale <= 0 || p.MinScale > 1 {
		p.MinScale = d.MinScale
	}
	return p
}

// Proxy approximates the rendered width of src: every control word counts
// as one character, grouping and script markers count as nothing.
func Proxy(src string) string {
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\':
			j := i + 1
			for j < len(src) && isLetter(src[j]) {
				j++
			}
			if j == i+1 && j < len(src) {
				j++ // control symbol
			}
			if !isSpacing(src[i+1 : j]) {
				b.WriteByte('x')
			}
			i = j - 1
		case c == '{' || c == '}' || c == '^' || c == '_' || c == ' ' || c == '\t' || c == '\n' || c == '&':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// isSpacing reports control words that take no visible width in the proxy.
func isSpacing(name string) bool {
	switch name {
	case "left", "right", "big", "Big", "bigg", "Bigg", "displaystyle", "textstyle", ",", ";", "!", " ":
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Scale returns the shrink factor for a display expression, or 1 when it
// fits or must not be scaled. Multi-row expressions are never scaled.
func Scale(src string, multiRow bool, p Params) float64 {
	if multiRow || strings.Contains(src, `\\`) {
		return 1
	}
	p = p.withDefaults()
	estimate := float64(len(Proxy(src))) * p.CharWidthEm
	if estimate <= p.WidthBudgetEm {
		return 1
	}
	return max(p.WidthBudgetEm/estimate, p.MinScale)
}
