package detect_test

import (
	"testing"

	"github.com/fretsense/fretsense/internal/detect"
	"github.com/fretsense/fretsense/pkg/audio"
)

func TestObserve_ClassifiesLoudString(t *testing.T) {
	a := detect.NewAnalyzer(detect.Config{})
	frame := audio.Frame{Samples: sine(110, 44100, 4096, 12000), SampleRate: 44100}

	obs := a.Observe(frame)
	if obs.Volume <= detect.DefaultVolumeThreshold {
		t.Fatalf("test signal too quiet: volume %v", obs.Volume)
	}
	if !obs.PitchOK {
		t.Fatalf("no pitch for a loud 110 Hz sine (corr=%v)", obs.Pitch.Correlation)
	}
	if obs.Raw != detect.LabelA {
		t.Errorf("raw label: got %v, want A", obs.Raw)
	}
}

// The volume gate overrides pitch clarity: a perfectly periodic but quiet
// frame must come out as "no string" without the estimator running.
func TestObserve_VolumeGateForcesNone(t *testing.T) {
	a := detect.NewAnalyzer(detect.Config{})
	// Amplitude 800 ⇒ mean-abs volume ≈ 0.0155, below the 0.03 gate.
	frame := audio.Frame{Samples: sine(146.83, 44100, 4096, 800), SampleRate: 44100}

	obs := a.Observe(frame)
	if obs.Volume > detect.DefaultVolumeThreshold {
		t.Fatalf("test signal not quiet enough: volume %v", obs.Volume)
	}
	if !obs.Gated {
		t.Error("frame below the gate not marked gated")
	}
	if obs.PitchOK {
		t.Error("pitch estimator ran on a gated frame")
	}
	if obs.Raw != detect.LabelNone {
		t.Errorf("raw label: got %v, want none", obs.Raw)
	}
}

func TestObserve_EmptyFrame(t *testing.T) {
	a := detect.NewAnalyzer(detect.Config{})
	obs := a.Observe(audio.Frame{})
	if obs.Volume != 0 || obs.PitchOK || obs.Raw != detect.LabelNone {
		t.Errorf("empty frame should degrade to silence, got %+v", obs)
	}
}

func TestObserve_UnclassifiableFrequency(t *testing.T) {
	a := detect.NewAnalyzer(detect.Config{})
	// 300 Hz is loud and clearly periodic but ≥15 Hz from every string.
	frame := audio.Frame{Samples: sine(300, 44100, 4096, 12000), SampleRate: 44100}

	obs := a.Observe(frame)
	if !obs.PitchOK {
		t.Fatalf("expected a confident pitch at 300 Hz, corr=%v", obs.Pitch.Correlation)
	}
	if obs.Raw != detect.LabelNone {
		t.Errorf("raw label: got %v, want none (out of every tolerance window)", obs.Raw)
	}
}

func TestObserve_UsesConfigRateWhenFrameRateUnset(t *testing.T) {
	a := detect.NewAnalyzer(detect.Config{SampleRate: 44100})
	frame := audio.Frame{Samples: sine(110, 44100, 4096, 12000)}
	if obs := a.Observe(frame); obs.Raw != detect.LabelA {
		t.Errorf("raw label: got %v, want A", obs.Raw)
	}
}
