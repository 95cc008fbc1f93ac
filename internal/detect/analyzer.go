package detect

import "github.com/fretsense/fretsense/pkg/audio"

// DefaultVolumeThreshold gates pitch analysis: frames at or below this
// level are treated as silence regardless of their spectral content.
const DefaultVolumeThreshold = 0.03

// Config holds the per-frame analysis parameters. Zero fields take the
// package defaults.
type Config struct {
	// SampleRate of incoming frames in Hz when a frame does not carry its
	// own rate.
	SampleRate int

	// VolumeThreshold is the loudness gate. A frame must be strictly above
	// it for pitch estimation to run at all.
	VolumeThreshold float64

	// MinFrequency, MaxFrequency and MinCorrelation configure the pitch
	// search; see [PitchConfig].
	MinFrequency   float64
	MaxFrequency   float64
	MinCorrelation float64

	// ToleranceHz is the classifier's acceptance band half-width.
	ToleranceHz float64
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = wavNativeRate
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = DefaultVolumeThreshold
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
	if c.ToleranceHz <= 0 {
		c.ToleranceHz = DefaultToleranceHz
	}
	return c
}

// Observation is the per-frame analysis result fed to the stability
// tracker and surfaced (via the snapshot) to the presentation side.
type Observation struct {
	// Volume is the frame's normalized mean absolute amplitude.
	Volume float64

	// Gated reports that the frame failed the volume gate and pitch
	// estimation was skipped entirely.
	Gated bool

	// Pitch is the frequency estimate. Only meaningful when PitchOK.
	Pitch Estimate

	// PitchOK reports whether a confident periodicity was found. False for
	// gated (quiet) frames without running the estimator at all.
	PitchOK bool

	// Raw is the per-frame classification before any stabilization.
	// Forced to LabelNone when the volume gate is not cleared.
	Raw Label
}

// Analyzer runs the volume → pitch → classification stages on single
// frames. It is stateless and safe for concurrent use; all per-session
// state lives in [State].
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an Analyzer, filling unset config fields with the
// package defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Observe analyzes one frame. Quiet frames short-circuit after the volume
// stage: the pitch estimator never runs and Raw is LabelNone, so silence
// flows into the tracker's decay path no matter what residual periodicity
// the frame contains.
func (a *Analyzer) Observe(frame audio.Frame) Observation {
	obs := Observation{Volume: Volume(frame.Samples)}
	if obs.Volume <= a.cfg.VolumeThreshold {
		obs.Gated = true
		return obs
	}

	rate := frame.SampleRate
	if rate <= 0 {
		rate = a.cfg.SampleRate
	}
	obs.Pitch, obs.PitchOK = EstimatePitch(frame.Samples, PitchConfig{
		SampleRate:     rate,
		MinFrequency:   a.cfg.MinFrequency,
		MaxFrequency:   a.cfg.MaxFrequency,
		MinCorrelation: a.cfg.MinCorrelation,
	})
	if !obs.PitchOK {
		return obs
	}

	obs.Raw = Classify(obs.Pitch.Frequency, a.cfg.ToleranceHz)
	return obs
}
