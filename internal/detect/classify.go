package detect

import "math"

// DefaultToleranceHz is the half-width of the acceptance band around each
// string's target frequency.
const DefaultToleranceHz = 15.0

// Classify maps an estimated frequency to the nearest string whose target
// lies strictly within toleranceHz, or LabelNone when every string is out
// of band. Ties between equidistant targets resolve to the lower string:
// the scan runs in ascending frequency order and only a strictly smaller
// difference displaces the current best.
func Classify(freq, toleranceHz float64) Label {
	if toleranceHz <= 0 {
		toleranceHz = DefaultToleranceHz
	}

	best := LabelNone
	bestDiff := math.MaxFloat64
	for _, l := range Strings() {
		diff := math.Abs(freq - l.Frequency())
		if diff < toleranceHz && diff < bestDiff {
			bestDiff = diff
			best = l
		}
	}
	return best
}
