package detect

import "github.com/fretsense/fretsense/pkg/audio"

// Volume reduces a frame to a normalized loudness scalar: the mean absolute
// amplitude divided by full scale. This is deliberately cheap and not a true
// RMS; it exists only to gate pitch analysis and drive the level display.
// An empty frame yields 0.
func Volume(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, s := range samples {
		v := int64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return float64(sum) / float64(len(samples)) / audio.FullScale
}
