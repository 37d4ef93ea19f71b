// Package texscan provides depth-aware index walking over LaTeX-like text.
//
// Every scanner here works on byte offsets and never uses a regular
// expression to match nested structures. Loops that could run away on
// malformed input are bounded by MaxIterations.
package texscan

import (
	"strings"
)

// MaxIterations bounds every scan loop for a single environment type or
// command name within one document.
const MaxIterations = 500

// IsEscaped reports whether the byte at i is preceded by an odd number of
// backslashes. "\&" is escaped, "\\&" is not.
func IsEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// IndexUnescaped returns the index of the first unescaped c at or after from,
// or -1.
func IndexUnescaped(s string, c byte, from int) int {
	for i := max(from, 0); i < len(s); i++ {
		if s[i] == c && !IsEscaped(s, i) {
			return i
		}
	}
	return -1
}

// MatchingDelim returns the index of the delimiter that closes the one at
// open, honoring nesting and backslash escapes. Returns -1 when unbalanced.
func MatchingDelim(s string, open int, openCh, closeCh byte) int {
	if open < 0 || open >= len(s) || s[open] != openCh {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case openCh:
			if !IsEscaped(s, i) {
				depth++
			}
		case closeCh:
			if !IsEscaped(s, i) {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// MatchingBrace returns the index of the '}' closing the '{' at open.
func MatchingBrace(s string, open int) int {
	return MatchingDelim(s, open, '{', '}')
}

// SkipSpace returns the first index at or after pos that is not a space,
// tab, or newline.
func SkipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r') {
		pos++
	}
	return pos
}

// ReadGroup reads a brace group starting at pos (leading whitespace allowed).
// It returns the group content and the index just past the closing brace.
func ReadGroup(s string, pos int) (content string, end int, ok bool) {
	p := SkipSpace(s, pos)
	if p >= len(s) || s[p] != '{' {
		return "", pos, false
	}
	c := MatchingBrace(s, p)
	if c < 0 {
		return "", pos, false
	}
	return s[p+1 : c], c + 1, true
}

// ReadOptional reads a bracketed optional argument starting at pos. Brackets
// inside braces do not terminate it.
func ReadOptional(s string, pos int) (content string, end int, ok bool) {
	p := SkipSpace(s, pos)
	if p >= len(s) || s[p] != '[' {
		return "", pos, false
	}
	depth := 0
	for i := p + 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			if !IsEscaped(s, i) {
				depth++
			}
		case '}':
			if !IsEscaped(s, i) {
				depth--
			}
		case ']':
			if depth <= 0 && !IsEscaped(s, i) {
				return s[p+1 : i], i + 1, true
			}
		}
	}
	return "", pos, false
}

// ReadArgs reads n mandatory brace groups, each optionally preceded by
// whitespace. ok is false when fewer than n groups follow.
func ReadArgs(s string, pos, n int) (args []string, end int, ok bool) {
	end = pos
	for range n {
		g, e, found := ReadGroup(s, end)
		if !found {
			return nil, pos, false
		}
		args = append(args, g)
		end = e
	}
	return args, end, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IndexCommand finds the next "\name" at or after from whose name is not a
// prefix of a longer command ("\item" does not match "\itemize"). name is
// given without the backslash and may end in '*'.
func IndexCommand(s, name string, from int) int {
	needle := `\` + name
	for pos := max(from, 0); pos < len(s); {
		i := strings.Index(s[pos:], needle)
		if i < 0 {
			return -1
		}
		i += pos
		after := i + len(needle)
		boundary := after >= len(s) || !isLetter(s[after]) || !isLetter(needle[len(needle)-1])
		if boundary && !IsEscaped(s, i) {
			return i
		}
		pos = i + 1
	}
	return -1
}

// ReadCommandName reads a control word starting at the backslash at pos. It
// returns the name without the backslash and the index past it. Control
// symbols (\%, \&) yield a one-character name.
func ReadCommandName(s string, pos int) (name string, end int) {
	if pos >= len(s) || s[pos] != '\\' {
		return "", pos
	}
	i := pos + 1
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == pos+1 && i < len(s) {
		return s[i : i+1], i + 1
	}
	if i < len(s) && s[i] == '*' {
		i++
	}
	return s[pos+1 : i], i
}

// SplitTopLevel splits s on unescaped sep at brace depth zero.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if !IsEscaped(s, i) {
				depth++
			}
		case '}':
			if !IsEscaped(s, i) && depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 && !IsEscaped(s, i) {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// ReplaceCommand rewrites every "\name[opt]{a1}...{an}" occurrence with the
// result of fn. Occurrences missing their arguments are left untouched.
func ReplaceCommand(s, name string, nargs int, fn func(opt string, args []string) string) string {
	var b strings.Builder
	pos := 0
	for range MaxIterations {
		i := IndexCommand(s, name, pos)
		if i < 0 {
			break
		}
		p := i + len(name) + 1
		opt, p2, _ := ReadOptional(s, p)
		args, end, ok := ReadArgs(s, p2, nargs)
		if !ok {
			b.WriteString(s[pos : i+1])
			pos = i + 1
			continue
		}
		b.WriteString(s[pos:i])
		b.WriteString(fn(opt, args))
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}
