// Package dateutil formats the date that \today expands to.
//
// Formats are written with readable tokens (YYYY, MMMM, D, dddd...) or
// named presets, and are translated once into a Go time layout.
package dateutil

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat matches what LaTeX prints for \today.
const DefaultDateFormat = "long"

// dateTokens maps format tokens to Go layout components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"short":    "MMM D, YYYY",
	"full":     "dddd, MMMM D, YYYY",
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(DatePresets))
	for name := range DatePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDateFormat converts a token format string to a Go time layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, dddd, ddd.
// Text in brackets is copied literally: [Day] D gives "Day 5".
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var b strings.Builder
	b.Grow(len(format) + 10)

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		if goFmt, n := matchToken(format[i:]); n > 0 {
			b.WriteString(goFmt)
			i += n
			continue
		}
		b.WriteByte(format[i])
		i++
	}

	return b.String(), nil
}

func matchToken(s string) (string, int) {
	for _, t := range dateTokens {
		if strings.HasPrefix(s, t.token) {
			return t.goFmt, len(t.token)
		}
	}
	return "", 0
}

// Layout resolves a preset name (case-insensitive) or token format to a Go
// time layout. An empty format selects DefaultDateFormat.
func Layout(format string) (string, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		format = DefaultDateFormat
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	return ParseDateFormat(format)
}

// Validate reports whether format is usable by Today.
func Validate(format string) error {
	_, err := Layout(format)
	return err
}

// Today formats t with the given preset or token format.
func Today(format string, t time.Time) (string, error) {
	layout, err := Layout(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}
