package tikz

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Brace geometry.
const (
	defaultBraceAmplitudeCm = 5 * 0.03515
	braceLabelGapCm         = 0.15
)

var (
	numericCoord = regexp.MustCompile(`^\(\s*(-?\d*\.?\d+)\s*(cm|mm|pt)?\s*,\s*(-?\d*\.?\d+)\s*(cm|mm|pt)?\s*\)$`)
	bracePath    = regexp.MustCompile(`(?s)^\s*(\([^()]*\))\s*--\s*(\([^()]*\))\s*(.*)$`)
)

// positionalKeys place a path node along the path and have no meaning once
// the label becomes a standalone node.
var positionalKeys = map[string]bool{
	"midway": true, "pos": true, "near start": true, "near end": true,
	"very near start": true, "very near end": true, "at start": true, "at end": true, "sloped": true,
}

// PolyfillBraces rewrites "\draw[decorate, decoration={brace,...}] (a) --
// (b) node {label};" as an explicit Bezier path plus a label node. The
// decorations library is not available to the browser TeX engine.
func PolyfillBraces(s string) string {
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, "draw", pos)
		if i < 0 {
			break
		}
		opts, p, ok := texscan.ReadOptional(s, i+len(`\draw`))
		semi := -1
		if ok {
			semi = statementEnd(s, p)
		}
		deco, isBrace := braceDecoration(opts)
		if !ok || !isBrace || semi < 0 {
			b.WriteString(s[pos : i+1])
			pos = i + 1
			continue
		}
		b.WriteString(s[pos:i])
		b.WriteString(rewriteBrace(opts, deco, s[p:semi]))
		pos = semi + 1
	}
	b.WriteString(s[pos:])
	return b.String()
}

// statementEnd returns the index of the ';' ending the path that starts at
// pos, ignoring semicolons inside braces.
func statementEnd(s string, pos int) int {
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '{':
			if !texscan.IsEscaped(s, i) {
				depth++
			}
		case '}':
			if !texscan.IsEscaped(s, i) {
				depth--
			}
		case ';':
			if depth <= 0 && !texscan.IsEscaped(s, i) {
				return i
			}
		}
	}
	return -1
}

// braceDecoration returns the decoration sub-options when opts ask for a
// decorated brace.
func braceDecoration(opts string) ([]option, bool) {
	decorate := false
	var deco []option
	for _, o := range parseOptions(opts) {
		switch o.key {
		case "decorate":
			decorate = true
		case "decoration":
			deco = parseOptions(strings.TrimSuffix(strings.TrimPrefix(o.value, "{"), "}"))
		}
	}
	if !decorate {
		return nil, false
	}
	for _, o := range deco {
		if o.bare && o.key == "brace" {
			return deco, true
		}
	}
	return nil, false
}

// braceShape holds the brace parameters in centimetres.
type braceShape struct {
	amplitude, raise float64
	mirror           bool
}

func parseBraceShape(deco []option) braceShape {
	sh := braceShape{amplitude: defaultBraceAmplitudeCm}
	for _, o := range deco {
		switch o.key {
		case "amplitude":
			if v := parseLength(o.value); v > 0 {
				sh.amplitude = v
			}
		case "raise":
			sh.raise = parseLength(o.value)
		case "mirror":
			sh.mirror = true
		}
	}
	return sh
}

// point is a 2D coordinate in centimetres.
type point struct{ x, y float64 }

func (p point) String() string { return "(" + num(p.x) + "," + num(p.y) + ")" }

func parseCoord(s string) (point, bool) {
	m := numericCoord.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return point{}, false
	}
	x, errX := strconv.ParseFloat(m[1], 64)
	y, errY := strconv.ParseFloat(m[3], 64)
	if errX != nil || errY != nil {
		return point{}, false
	}
	return point{toCm(x, m[2]), toCm(y, m[4])}, true
}

// rewriteBrace builds the replacement for one brace statement. path is the
// text between the option block and the terminating ';'.
func rewriteBrace(opts string, deco []option, path string) string {
	keep := keptDrawOptions(opts)
	m := bracePath.FindStringSubmatch(path)
	if m == nil {
		return drawCommand(keep) + path + ";"
	}
	from, okFrom := parseCoord(m[1])
	to, okTo := parseCoord(m[2])
	if !okFrom || !okTo || from == to {
		// Named coordinates cannot be measured; draw a plain segment.
		return drawCommand(keep) + path + ";"
	}

	sh := parseBraceShape(deco)
	dx, dy := to.x-from.x, to.y-from.y
	length := math.Hypot(dx, dy)
	u := point{dx / length, dy / length}
	n := point{-u.y, u.x}
	if sh.mirror {
		n = point{-n.x, -n.y}
	}
	at := func(t, h float64) point {
		h += sh.raise
		return point{from.x + u.x*t + n.x*h, from.y + u.y*t + n.y*h}
	}

	l, a := length, sh.amplitude
	var b strings.Builder
	b.WriteString(drawCommand(keep))
	b.WriteString(at(0, 0).String())
	segments := [4][3][2]float64{
		{{0, a / 2}, {l / 8, a / 2}, {l / 4, a / 2}},
		{{3 * l / 8, a / 2}, {l / 2, a / 2}, {l / 2, a}},
		{{l / 2, a / 2}, {5 * l / 8, a / 2}, {3 * l / 4, a / 2}},
		{{7 * l / 8, a / 2}, {l, a / 2}, {l, 0}},
	}
	for _, seg := range segments {
		b.WriteString(" .. controls " + at(seg[0][0], seg[0][1]).String())
		b.WriteString(" and " + at(seg[1][0], seg[1][1]).String())
		b.WriteString(" .. " + at(seg[2][0], seg[2][1]).String())
	}
	b.WriteString(";")

	if nodeOpts, label, ok := trailingNode(m[3]); ok {
		tip := at(l/2, a+braceLabelGapCm)
		b.WriteString(" \\node")
		if nodeOpts != "" {
			b.WriteString("[" + nodeOpts + "]")
		}
		b.WriteString(" at " + tip.String() + " {" + label + "};")
	}
	return b.String()
}

func drawCommand(opts []option) string {
	if len(opts) == 0 {
		return `\draw `
	}
	return `\draw[` + formatOptions(opts) + `] `
}

// keptDrawOptions drops the decoration keys from a \draw option list.
func keptDrawOptions(opts string) []option {
	var out []option
	for _, o := range parseOptions(opts) {
		if o.key == "decorate" || o.key == "decoration" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// trailingNode parses "node[opts] {label}" after the path, removing
// positional options.
func trailingNode(rest string) (opts, label string, ok bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "node") {
		return "", "", false
	}
	p := len("node")
	raw, end, hasOpts := texscan.ReadOptional(rest, p)
	if hasOpts {
		p = end
	}
	label, _, ok = texscan.ReadGroup(rest, p)
	if !ok {
		return "", "", false
	}
	var kept []option
	for _, o := range parseOptions(raw) {
		if !positionalKeys[o.key] {
			kept = append(kept, o)
		}
	}
	return formatOptions(kept), label, true
}
