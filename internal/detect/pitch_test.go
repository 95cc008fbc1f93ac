package detect_test

import (
	"math"
	"testing"

	"github.com/fretsense/fretsense/internal/detect"
)

func TestEstimatePitch_PureSine(t *testing.T) {
	// 4096 samples at 44100 Hz hold ~10 periods of 110 Hz.
	samples := sine(110, 44100, 4096, 12000)

	est, ok := detect.EstimatePitch(samples, detect.PitchConfig{SampleRate: 44100})
	if !ok {
		t.Fatalf("expected a confident pitch, got none (corr=%v)", est.Correlation)
	}
	if math.Abs(est.Frequency-110) > 2 {
		t.Errorf("frequency: got %v, want 110 ±2", est.Frequency)
	}
	if est.Correlation <= 0.4 {
		t.Errorf("correlation: got %v, want > 0.4", est.Correlation)
	}
}

func TestEstimatePitch_EachOpenString(t *testing.T) {
	for _, l := range detect.Strings() {
		l := l
		t.Run(l.FullName(), func(t *testing.T) {
			samples := sine(l.Frequency(), 44100, 4096, 12000)
			est, ok := detect.EstimatePitch(samples, detect.PitchConfig{SampleRate: 44100})
			if !ok {
				t.Fatalf("no pitch for %v Hz sine", l.Frequency())
			}
			if math.Abs(est.Frequency-l.Frequency()) > 2 {
				t.Errorf("frequency: got %v, want %v ±2", est.Frequency, l.Frequency())
			}
		})
	}
}

func TestEstimatePitch_Silence(t *testing.T) {
	if _, ok := detect.EstimatePitch(make([]int16, 4096), detect.PitchConfig{SampleRate: 44100}); ok {
		t.Error("silent frame must not produce a pitch")
	}
}

func TestEstimatePitch_TooShort(t *testing.T) {
	// Shorter than two minimum lag periods: no candidate lags at all.
	if _, ok := detect.EstimatePitch(sine(110, 44100, 128, 12000), detect.PitchConfig{SampleRate: 44100}); ok {
		t.Error("128-sample frame must not produce a pitch")
	}
	if _, ok := detect.EstimatePitch([]int16{4242}, detect.PitchConfig{SampleRate: 44100}); ok {
		t.Error("single-sample frame must not produce a pitch")
	}
}

// The acceptance floor compares against the unnormalized correlation sum,
// so acceptance depends on amplitude, not just periodicity. This test pins
// that behaviour: the same 110 Hz sine passes loud and fails quiet.
func TestEstimatePitch_AmplitudeSensitivity(t *testing.T) {
	cfg := detect.PitchConfig{SampleRate: 44100}

	loud, ok := detect.EstimatePitch(sine(110, 44100, 4096, 12000), cfg)
	if !ok {
		t.Fatal("loud sine rejected")
	}

	quiet, ok := detect.EstimatePitch(sine(110, 44100, 4096, 300), cfg)
	if ok {
		t.Fatalf("quiet sine accepted with corr=%v; the floor is amplitude-coupled and should reject it", quiet.Correlation)
	}

	if quiet.Correlation >= loud.Correlation {
		t.Errorf("correlation should scale with energy: quiet %v >= loud %v", quiet.Correlation, loud.Correlation)
	}
}

func TestEstimatePitch_OutOfBandFrequency(t *testing.T) {
	// 1 kHz is far above the 400 Hz search ceiling; the scan can only see
	// aliased sub-periods and any residual peak belongs to no real lag.
	est, ok := detect.EstimatePitch(sine(1000, 44100, 4096, 12000), detect.PitchConfig{SampleRate: 44100})
	if ok && math.Abs(est.Frequency-1000) < 50 {
		t.Errorf("estimator reported %v Hz, above the search band", est.Frequency)
	}
}
