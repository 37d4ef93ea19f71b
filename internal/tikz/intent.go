package tikz

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Intent is the derived layout category of a diagram.
type Intent int

// Layout intents.
const (
	Medium Intent = iota
	Compact
	Large
	Flat
	Wide
)

// String returns the lower-case intent name used in CSS classes.
func (i Intent) String() string {
	switch i {
	case Compact:
		return "compact"
	case Large:
		return "large"
	case Flat:
		return "flat"
	case Wide:
		return "wide"
	default:
		return "medium"
	}
}

// Analysis is the static measurement of one diagram body.
type Analysis struct {
	Nodes          int
	AvgLabelLength float64
	// HasSpan is true when the diagram places things at two or more
	// distinct absolute coordinates.
	HasSpan    bool
	SpanWidth  float64
	SpanHeight float64
	// NodeDistanceCm is the explicit node distance option, 0 when absent.
	NodeDistanceCm float64
	Horizontal     int // right=of, left of=, ...
	Vertical       int // above=of, below of=, ...
}

// Aspect returns width over height of the coordinate span.
func (a Analysis) Aspect() float64 {
	h := a.SpanHeight
	if h <= 0 {
		h = 0.1
	}
	return a.SpanWidth / h
}

var (
	nodePattern       = regexp.MustCompile(`(?:\\node|\bnode)\s*(?:\[[^\]]*\])?\s*(?:\([^)]*\))?\s*(?:at\s*\([^)]*\))?\s*(?:\[[^\]]*\])?\s*\{`)
	coordPattern      = regexp.MustCompile(`\(\s*(-?\d*\.?\d+)\s*(?:cm)?\s*,\s*(-?\d*\.?\d+)\s*(?:cm)?\s*\)`)
	nodeDistPattern   = regexp.MustCompile(`node distance\s*=\s*(-?\d*\.?\d+)\s*(cm|mm|pt|em|ex|in)?`)
	horizontalPattern = regexp.MustCompile(`\b(?:right|left)\s*(?:=\s*(?:[\d.]+\s*\w*\s*)?of\b|\s+of\s*=)`)
	lengthPattern     = regexp.MustCompile(`^\s*(-?\d*\.?\d+)\s*(cm|mm|pt|em|ex|in)?`)
	verticalPattern   = regexp.MustCompile(`\b(?:above|below)(?:\s+(?:right|left))?\s*(?:=\s*(?:[\d.]+\s*\w*\s*)?of\b|\s+of\s*=)`)
)

// Analyze measures a diagram body (the text between begin and end,
// including its option block).
func Analyze(body string) Analysis {
	var a Analysis

	total := 0
	for _, loc := range nodePattern.FindAllStringIndex(body, -1) {
		open := loc[1] - 1
		closeAt := texscan.MatchingBrace(body, open)
		if closeAt < 0 {
			continue
		}
		a.Nodes++
		total += labelLength(body[open+1 : closeAt])
	}
	if a.Nodes > 0 {
		a.AvgLabelLength = float64(total) / float64(a.Nodes)
	}

	seen := make(map[[2]float64]bool)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range coordPattern.FindAllStringSubmatch(body, -1) {
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		if errX != nil || errY != nil {
			continue
		}
		seen[[2]float64{x, y}] = true
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if len(seen) >= 2 {
		a.SpanWidth, a.SpanHeight = maxX-minX, maxY-minY
		a.HasSpan = a.SpanWidth > 0 || a.SpanHeight > 0
	}

	if m := nodeDistPattern.FindStringSubmatch(body); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			a.NodeDistanceCm = toCm(v, m[2])
		}
	}

	a.Horizontal = len(horizontalPattern.FindAllStringIndex(body, -1))
	a.Vertical = len(verticalPattern.FindAllStringIndex(body, -1))
	return a
}

// labelLength counts label runes with control sequences, braces and math
// shifts removed.
func labelLength(label string) int {
	var b strings.Builder
	for i := 0; i < len(label); i++ {
		switch c := label[i]; c {
		case '\\':
			_, end := texscan.ReadCommandName(label, i)
			i = end - 1
		case '{', '}', '$':
		default:
			b.WriteByte(c)
		}
	}
	return utf8.RuneCountInString(strings.TrimSpace(b.String()))
}

// toCm converts a TeX length to centimetres. Unknown units are taken as cm.
func toCm(v float64, unit string) float64 {
	switch unit {
	case "mm":
		return v / 10
	case "pt":
		return v * 0.03515
	case "in":
		return v * 2.54
	case "em":
		return v * 0.3515
	case "ex":
		return v * 0.1515
	default:
		return v
	}
}

// TextHeavy reports whether labels are long enough to need extra room.
func (a Analysis) TextHeavy(p Params) bool {
	return a.AvgLabelLength >= p.TextHeavyLabelLength
}

// Classify applies the intent decision tree. Coordinate spans decide first,
// then explicit node distance, then node count, horizontal chains and label
// weight.
func Classify(a Analysis, p Params) Intent {
	p = p.withDefaults()
	switch {
	case a.HasSpan && a.Aspect() > p.FlatAspectRatio:
		return Flat
	case a.HasSpan:
		return Large
	case a.NodeDistanceCm > 0 && a.NodeDistanceCm < p.SmallDistanceThresholdCm:
		return Compact
	case a.NodeDistanceCm >= p.LargeDistanceThresholdCm:
		return Large
	case a.NodeDistanceCm > 0:
		return Medium
	case a.Nodes >= p.CompactNodeCount:
		return Compact
	case a.Horizontal >= p.WideChainLength && a.Vertical == 0:
		return Wide
	case a.TextHeavy(p):
		return Large
	default:
		return Medium
	}
}

// RenderParams are the synthesized picture options for one diagram. Zero
// fields are not emitted.
type RenderParams struct {
	Scale          float64
	XUnitCm        float64
	YUnitCm        float64
	NodeDistanceCm float64
	// MinNodeDistanceCm is the legibility floor for source overrides.
	MinNodeDistanceCm float64
}

// Synthesize derives rendering parameters for an intent.
func Synthesize(intent Intent, a Analysis, p Params) RenderParams {
	p = p.withDefaults()
	rp := RenderParams{MinNodeDistanceCm: p.MinNodeDistanceCm}
	if a.TextHeavy(p) {
		rp.MinNodeDistanceCm = p.MinNodeDistanceTextHeavyCm
	}

	switch intent {
	case Compact:
		rp.Scale = p.CompactScale
		if !a.HasSpan {
			rp.NodeDistanceCm = p.CompactNodeDistanceCm
		}
	case Large:
		if a.HasSpan {
			rp.XUnitCm = xUnit(a, p)
			rp.YUnitCm = clamp(p.HeightBudgetCm/math.Max(a.SpanHeight, 1), p.YUnitMinCm, p.YUnitMaxCm)
		} else {
			rp.NodeDistanceCm = p.LargeNodeDistanceCm
		}
	case Flat:
		rp.XUnitCm = xUnit(a, p)
		rp.YUnitCm = p.YUnitMinCm
	case Wide:
		rp.NodeDistanceCm = p.WideNodeDistanceCm
		chain := float64(a.Horizontal + 1)
		// Each step is one node distance plus a label roughly 0.2cm per rune.
		estimate := chain*p.WideNodeDistanceCm + chain*0.2*math.Max(a.AvgLabelLength, 1)
		if estimate > p.WidthBudgetCm {
			rp.Scale = math.Max(p.WidthBudgetCm/estimate, p.MinWideScale)
		}
	default:
		if !a.HasSpan {
			rp.NodeDistanceCm = p.MediumNodeDistanceCm
		}
	}
	return rp
}

// xUnit fits the horizontal span into the width budget, never exceeding the
// clamp.
func xUnit(a Analysis, p Params) float64 {
	if a.SpanWidth <= 0 {
		return p.XUnitClampCm
	}
	return math.Min(p.XUnitClampCm, p.WidthBudgetCm/a.SpanWidth)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// option is one key=value entry of a picture option list.
type option struct {
	key, value string
	bare       bool // no "=" present
}

func parseOptions(s string) []option {
	var out []option
	for _, part := range texscan.SplitTopLevel(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		out = append(out, option{key: strings.TrimSpace(k), value: strings.TrimSpace(v), bare: !ok})
	}
	return out
}

func formatOptions(opts []option) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		if o.bare {
			parts = append(parts, o.key)
		} else {
			parts = append(parts, o.key+"="+o.value)
		}
	}
	return strings.Join(parts, ", ")
}

// MergeOptions merges synthesized parameters into the source option list.
// Source options win, except a node distance below the legibility floor.
func MergeOptions(source string, rp RenderParams) string {
	opts := parseOptions(source)
	has := make(map[string]int, len(opts))
	for i, o := range opts {
		has[o.key] = i
	}

	set := func(key string, v float64) {
		if v <= 0 {
			return
		}
		if _, ok := has[key]; ok {
			return
		}
		opts = append(opts, option{key: key, value: cm(v)})
	}

	if i, ok := has["node distance"]; ok && rp.MinNodeDistanceCm > 0 {
		if d := parseLength(opts[i].value); d > 0 && d < rp.MinNodeDistanceCm {
			opts[i].value = cm(math.Max(rp.NodeDistanceCm, rp.MinNodeDistanceCm))
		}
	}
	set("node distance", rp.NodeDistanceCm)
	set("x", rp.XUnitCm)
	set("y", rp.YUnitCm)
	if _, ok := has["scale"]; !ok && rp.Scale > 0 && rp.Scale != 1 {
		opts = append(opts, option{key: "scale", value: num(rp.Scale)}, option{key: "transform shape", bare: true})
	}
	return formatOptions(opts)
}

// parseLength reads the first length of an option value ("1.5cm and 2cm").
func parseLength(v string) float64 {
	m := lengthPattern.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return toCm(f, m[2])
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func cm(v float64) string { return num(v) + "cm" }
