package tex2html

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one worker is available.
	MinWorkers = 1

	// MaxWorkers caps parallel conversions; each holds a whole document
	// and its fragments in memory.
	MaxWorkers = 32
)

// ResolveWorkers determines how many documents to convert in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return min(workers, MaxWorkers)
	}

	// Conversion is CPU-bound, so one worker per available CPU
	// (GOMAXPROCS is adjusted by automaxprocs in containers).
	return max(MinWorkers, min(runtime.GOMAXPROCS(0), MaxWorkers))
}
