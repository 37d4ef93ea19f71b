package texscan

import "strings"

// Env locates one \begin{Name}...\end{Name} occurrence in a buffer.
type Env struct {
	Name      string
	Start     int // index of "\begin"
	BodyStart int // index just past "\begin{Name}"
	BodyEnd   int // index of the matching "\end"
	End       int // index just past "\end{Name}"
}

// Body returns the environment content between the begin and end markers.
func (e Env) Body(s string) string {
	return s[e.BodyStart:e.BodyEnd]
}

// BeginMarker returns the literal "\begin{name}".
func BeginMarker(name string) string { return `\begin{` + name + `}` }

// EndMarker returns the literal "\end{name}".
func EndMarker(name string) string { return `\end{` + name + `}` }

// FindEnv finds the first complete environment named name at or after from.
// Nested environments of the same name are matched by depth counting. An
// unterminated environment is reported as not found.
func FindEnv(s, name string, from int) (Env, bool) {
	begin, end := BeginMarker(name), EndMarker(name)
	for pos := max(from, 0); pos < len(s); {
		i := strings.Index(s[pos:], begin)
		if i < 0 {
			return Env{}, false
		}
		i += pos
		if IsEscaped(s, i) {
			pos = i + 1
			continue
		}
		bodyStart := i + len(begin)
		closeAt := findEnvEnd(s, bodyStart, begin, end)
		if closeAt < 0 {
			return Env{}, false
		}
		return Env{
			Name:      name,
			Start:     i,
			BodyStart: bodyStart,
			BodyEnd:   closeAt,
			End:       closeAt + len(end),
		}, true
	}
	return Env{}, false
}

// findEnvEnd returns the index of the end marker balancing an already opened
// environment, starting the search at from.
func findEnvEnd(s string, from int, begin, end string) int {
	depth := 1
	pos := from
	for range MaxIterations {
		nextBegin := strings.Index(s[pos:], begin)
		nextEnd := strings.Index(s[pos:], end)
		if nextEnd < 0 {
			return -1
		}
		if nextBegin >= 0 && nextBegin < nextEnd {
			depth++
			pos += nextBegin + len(begin)
			continue
		}
		depth--
		if depth == 0 {
			return pos + nextEnd
		}
		pos += nextEnd + len(end)
	}
	return -1
}

// ReplaceEnv rewrites every top-level occurrence of the named environment
// with the result of fn. The text after "\begin{name}" is passed as body, so
// callers parse their own optional arguments.
func ReplaceEnv(s, name string, fn func(body string) string) string {
	var b strings.Builder
	pos := 0
	for range MaxIterations {
		env, ok := FindEnv(s, name, pos)
		if !ok {
			break
		}
		b.WriteString(s[pos:env.Start])
		b.WriteString(fn(env.Body(s)))
		pos = env.End
	}
	b.WriteString(s[pos:])
	return b.String()
}

// ReplaceEnvs applies ReplaceEnv for each name in order.
func ReplaceEnvs(s string, names []string, fn func(name, body string) string) string {
	for _, name := range names {
		s = ReplaceEnv(s, name, func(body string) string { return fn(name, body) })
	}
	return s
}
