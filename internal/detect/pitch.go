package detect

import (
	"math"

	"github.com/mjibson/go-dsp/window"

	"github.com/fretsense/fretsense/pkg/audio"
)

// Default pitch-search parameters. The 70–400 Hz band brackets the guitar's
// open-string fundamentals (82.41–329.63 Hz) with margin on both sides.
const (
	DefaultMinFrequency   = 70.0
	DefaultMaxFrequency   = 400.0
	DefaultMinCorrelation = 0.4
)

// PitchConfig holds the search parameters for [EstimatePitch]. Zero fields
// take the package defaults.
type PitchConfig struct {
	// SampleRate of the input samples in Hz.
	SampleRate int

	// MinFrequency and MaxFrequency bound the lag search band in Hz.
	MinFrequency float64
	MaxFrequency float64

	// MinCorrelation is the acceptance floor for the correlation peak.
	//
	// The comparison is against the UNNORMALIZED correlation sum, so the
	// effective sensitivity scales with signal energy: louder input clears
	// the floor more easily. This loudness coupling is inherited behaviour
	// and is kept as-is; normalizing here would change which frames are
	// accepted and would need a recalibrated floor.
	MinCorrelation float64
}

func (c PitchConfig) withDefaults() PitchConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = wavNativeRate
	}
	if c.MinFrequency <= 0 {
		c.MinFrequency = DefaultMinFrequency
	}
	if c.MaxFrequency <= 0 {
		c.MaxFrequency = DefaultMaxFrequency
	}
	if c.MinCorrelation <= 0 {
		c.MinCorrelation = DefaultMinCorrelation
	}
	return c
}

const wavNativeRate = 44100

// Estimate is the result of a pitch search: the dominant fundamental in Hz
// and the unnormalized autocorrelation strength backing it.
type Estimate struct {
	Frequency   float64
	Correlation float64
}

// EstimatePitch estimates the dominant fundamental frequency of a frame by
// time-domain autocorrelation. It reports ok=false when no candidate lag
// clears the correlation floor, which covers silence, noise, and frames too
// short to contain a full period of the search band.
//
// Autocorrelation beats spectral analysis here: a plucked string is a
// single mostly-harmonic source, so locating the periodicity peak directly
// avoids FFT bin interpolation at these low frequencies. The scan is
// O((maxLag−minLag)·N), comfortably inside a 100 ms cycle at N=4096.
func EstimatePitch(samples []int16, cfg PitchConfig) (Estimate, bool) {
	cfg = cfg.withDefaults()
	n := len(samples)
	if n < 2 {
		return Estimate{}, false
	}

	x := make([]float64, n)
	for i, s := range samples {
		x[i] = float64(s) / audio.FullScale
	}
	// Hann window to suppress frame-edge artifacts in the correlation.
	window.Apply(x, window.Hann)

	rate := float64(cfg.SampleRate)
	minLag := int(math.Round(rate / cfg.MaxFrequency))
	maxLag := int(math.Round(rate / cfg.MinFrequency))
	if minLag < 1 {
		minLag = 1
	}

	bestLag := 0
	maxCorr := 0.0
	for lag := minLag; lag <= maxLag && lag < n/2; lag++ {
		var corr float64
		for i := 0; i+lag < n; i++ {
			corr += x[i] * x[i+lag]
		}
		if corr > maxCorr {
			maxCorr = corr
			bestLag = lag
		}
	}

	if maxCorr > cfg.MinCorrelation && bestLag > 0 {
		return Estimate{Frequency: rate / float64(bestLag), Correlation: maxCorr}, true
	}
	return Estimate{Correlation: maxCorr}, false
}
