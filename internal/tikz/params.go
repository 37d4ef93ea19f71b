package tikz

// Params holds the heuristic thresholds used to classify diagrams and to
// synthesize their rendering parameters. The defaults were tuned by eye on
// generated research papers rendered through TikZJax; changing them changes
// the output for existing content.
type Params struct {
	// FlatAspectRatio: a coordinate span wider than this ratio is FLAT.
	FlatAspectRatio float64
	// CompactNodeCount: diagrams with at least this many nodes are COMPACT.
	CompactNodeCount int
	// TextHeavyLabelLength: average label length (runes, commands
	// stripped) at or above which labels count as text-heavy.
	TextHeavyLabelLength float64
	// WideChainLength: minimum number of horizontal relative placements
	// for a diagram to be treated as a WIDE chain.
	WideChainLength int

	// SmallDistanceThresholdCm and LargeDistanceThresholdCm split explicit
	// node distance options into COMPACT, MEDIUM and LARGE.
	SmallDistanceThresholdCm float64
	LargeDistanceThresholdCm float64

	// Synthesized node distance per intent.
	CompactNodeDistanceCm float64
	MediumNodeDistanceCm  float64
	LargeNodeDistanceCm   float64
	WideNodeDistanceCm    float64

	// MinNodeDistanceCm and MinNodeDistanceTextHeavyCm are the legibility
	// floors below which a source-specified node distance is overridden.
	MinNodeDistanceCm          float64
	MinNodeDistanceTextHeavyCm float64

	// Coordinate unit synthesis for diagrams drawn with absolute
	// coordinates.
	XUnitClampCm   float64
	WidthBudgetCm  float64
	HeightBudgetCm float64
	YUnitMinCm     float64
	YUnitMaxCm     float64

	// CompactScale shrinks dense diagrams; MinWideScale floors the scale
	// applied to long horizontal chains.
	CompactScale float64
	MinWideScale float64
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		FlatAspectRatio:      3.0,
		CompactNodeCount:     8,
		TextHeavyLabelLength: 12,
		WideChainLength:      3,

		SmallDistanceThresholdCm: 1.2,
		LargeDistanceThresholdCm: 2.5,

		CompactNodeDistanceCm: 1.5,
		MediumNodeDistanceCm:  2.0,
		LargeNodeDistanceCm:   2.8,
		WideNodeDistanceCm:    1.8,

		MinNodeDistanceCm:          1.0,
		MinNodeDistanceTextHeavyCm: 2.0,

		XUnitClampCm:   2.0,
		WidthBudgetCm:  16.0,
		HeightBudgetCm: 10.0,
		YUnitMinCm:     1.0,
		YUnitMaxCm:     1.8,

		CompactScale: 0.85,
		MinWideScale: 0.6,
	}
}

// withDefaults fills zero fields from DefaultParams so partially specified
// configurations stay usable.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&p.FlatAspectRatio, d.FlatAspectRatio)
	fill(&p.TextHeavyLabelLength, d.TextHeavyLabelLength)
	fill(&p.SmallDistanceThresholdCm, d.SmallDistanceThresholdCm)
	fill(&p.LargeDistanceThresholdCm, d.LargeDistanceThresholdCm)
	fill(&p.CompactNodeDistanceCm, d.CompactNodeDistanceCm)
	fill(&p.MediumNodeDistanceCm, d.MediumNodeDistanceCm)
	fill(&p.LargeNodeDistanceCm, d.LargeNodeDistanceCm)
	fill(&p.WideNodeDistanceCm, d.WideNodeDistanceCm)
	fill(&p.MinNodeDistanceCm, d.MinNodeDistanceCm)
	fill(&p.MinNodeDistanceTextHeavyCm, d.MinNodeDistanceTextHeavyCm)
	fill(&p.XUnitClampCm, d.XUnitClampCm)
	fill(&p.WidthBudgetCm, d.WidthBudgetCm)
	fill(&p.HeightBudgetCm, d.HeightBudgetCm)
	fill(&p.YUnitMinCm, d.YUnitMinCm)
	fill(&p.YUnitMaxCm, d.YUnitMaxCm)
	fill(&p.CompactScale, d.CompactScale)
	fill(&p.MinWideScale, d.MinWideScale)
	if p.CompactNodeCount <= 0 {
		p.CompactNodeCount = d.CompactNodeCount
	}
	if p.WideChainLength <= 0 {
		p.WideChainLength = d.WideChainLength
	}
	return p
}
