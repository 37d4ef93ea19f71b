// Package placeholder implements the per-document registry of pre-rendered
// HTML fragments and the opaque tokens that stand in for them.
//
// Tokens are delimited by Private Use Area runes so they survive every later
// text transformation untouched, the same approach used for highlight markers
// in Markdown preprocessing.
package placeholder

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Token delimiters. Input text is stripped of both before processing.
const (
	Open  = "\uE000"
	Close = "\uE001"
)

// Category namespaces token counters.
type Category string

// Token categories.
const (
	TikZ  Category = "TIKZ"
	Math  Category = "MATH"
	Table Category = "TABLE"
	Code  Category = "CODE"
	Block Category = "BLOCK"
)

// Errors returned by Fill.
var (
	ErrUnknownToken  = errors.New("token was not reserved")
	ErrAlreadyFilled = errors.New("token already has a fragment")
)

// maxResolvePasses bounds nested token substitution.
const maxResolvePasses = 8

var tokenPattern = regexp.MustCompile(Open + `([A-Z]+)(\d+)` + Close)

// Registry maps tokens to HTML fragments for one document. Entries are
// append-only. A Registry is not safe for concurrent use.
type Registry struct {
	entries  map[string]string
	counters map[Category]int
	order    []string
	pending  map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[string]string),
		counters: make(map[Category]int),
	}
}

// Add stores html under a fresh token of the given category and returns the
// token. Counters are independent per category.
func (r *Registry) Add(cat Category, html string) string {
	n := r.counters[cat]
	r.counters[cat] = n + 1
	tok := Open + string(cat) + strconv.Itoa(n) + Close
	r.entries[tok] = html
	r.order = append(r.order, tok)
	return tok
}

// Reserve issues a token whose fragment is not known yet. It must be set
// exactly once with Fill before the document is resolved.
func (r *Registry) Reserve(cat Category) string {
	n := r.counters[cat]
	r.counters[cat] = n + 1
	tok := Open + string(cat) + strconv.Itoa(n) + Close
	r.order = append(r.order, tok)
	if r.pending == nil {
		r.pending = make(map[string]bool)
	}
	r.pending[tok] = true
	return tok
}

// Fill stores the fragment of a reserved token.
func (r *Registry) Fill(tok, html string) error {
	if _, ok := r.entries[tok]; ok {
		return ErrAlreadyFilled
	}
	if !r.pending[tok] {
		return ErrUnknownToken
	}
	delete(r.pending, tok)
	r.entries[tok] = html
	return nil
}

// Pending returns reserved tokens still waiting for Fill, in reservation
// order.
func (r *Registry) Pending() []string {
	var out []string
	for _, tok := range r.order {
		if r.pending[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// Get returns the fragment stored under tok.
func (r *Registry) Get(tok string) (string, bool) {
	html, ok := r.entries[tok]
	return html, ok
}

// Len reports the number of registered fragments.
func (r *Registry) Len() int { return len(r.order) }

// Count reports how many tokens of a category were issued.
func (r *Registry) Count(cat Category) int { return r.counters[cat] }

// Entries returns a copy of the token map.
func (r *Registry) Entries() map[string]string {
	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Tokens returns tokens in registration order.
func (r *Registry) Tokens() []string {
	return append([]string(nil), r.order...)
}

// Resolve substitutes every known token in s with its fragment. Fragments may
// themselves contain tokens, so substitution repeats until nothing changes.
func (r *Registry) Resolve(s string) string {
	return ResolveWith(s, r.entries)
}

// ResolveWith substitutes tokens using an explicit map. Unknown tokens are
// left as-is.
func ResolveWith(s string, entries map[string]string) string {
	for range maxResolvePasses {
		if !strings.Contains(s, Open) {
			return s
		}
		changed := false
		s = tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
			if html, ok := entries[tok]; ok {
				changed = true
				return html
			}
			return tok
		})
		if !changed {
			return s
		}
	}
	return s
}

// IsToken reports whether s, ignoring surrounding whitespace, is exactly one
// token.
func IsToken(s string) bool {
	s = strings.TrimSpace(s)
	loc := tokenPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// Find returns every token in s in order of appearance.
func Find(s string) []string {
	return tokenPattern.FindAllString(s, -1)
}

// CategoryOf returns the category encoded in tok.
func CategoryOf(tok string) (Category, bool) {
	m := tokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	return Category(m[1]), true
}

// StripDelimiters removes delimiter runes from untrusted input so it cannot
// forge tokens.
func StripDelimiters(s string) string {
	if !strings.ContainsAny(s, Open+Close) {
		return s
	}
	return strings.NewReplacer(Open, "", Close, "").Replace(s)
}
