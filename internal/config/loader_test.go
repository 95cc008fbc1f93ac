package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fretsense/fretsense/internal/config"
)

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug

audio:
  source: wav
  wav_path: /tmp/riff.wav
  sample_rate: 44100
  frame_size: 4096

detector:
  volume_threshold: 0.05
  tolerance_hz: 10

session:
  interval_ms: 250
  autostart: true
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
	if cfg.Audio.Source != config.SourceWAV {
		t.Errorf("source: got %q", cfg.Audio.Source)
	}
	if cfg.Detector.VolumeThreshold != 0.05 {
		t.Errorf("volume_threshold: got %v", cfg.Detector.VolumeThreshold)
	}
	if cfg.Detector.ToleranceHz != 10 {
		t.Errorf("tolerance_hz: got %v", cfg.Detector.ToleranceHz)
	}
	if cfg.Session.Interval() != 250*time.Millisecond {
		t.Errorf("interval: got %v", cfg.Session.Interval())
	}
	if !cfg.Session.Autostart {
		t.Error("autostart: got false")
	}
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr: got %q, want default", cfg.Server.ListenAddr)
	}
	if cfg.Audio.Source != config.SourcePortAudio {
		t.Errorf("source: got %q, want portaudio", cfg.Audio.Source)
	}
	if cfg.Audio.SampleRate != config.DefaultSampleRate {
		t.Errorf("sample_rate: got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FrameSize != config.DefaultFrameSize {
		t.Errorf("frame_size: got %d", cfg.Audio.FrameSize)
	}
	if cfg.Session.IntervalMS != config.DefaultIntervalMS {
		t.Errorf("interval_ms: got %v", cfg.Session.IntervalMS)
	}
	if cfg.Detector.VolumeThreshold != 0.03 {
		t.Errorf("volume_threshold: got %v, want 0.03", cfg.Detector.VolumeThreshold)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("detector:\n  volume_treshold: 0.05\n"))
	if err == nil {
		t.Fatal("expected an error for a misspelled field")
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: loud
audio:
  source: cassette
detector:
  tolerance_hz: -1
`))
	if cfg != nil {
		t.Fatalf("expected nil config, got %+v", cfg)
	}
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"log_level", "audio.source", "tolerance_hz"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestValidate_WAVSourceNeedsPath(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("audio:\n  source: wav\n"))
	if err == nil || !strings.Contains(err.Error(), "wav_path") {
		t.Fatalf("expected wav_path error, got %v", err)
	}
}

func TestValidate_FrequencyBandOrdering(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader(`
detector:
  min_frequency: 400
  max_frequency: 70
`))
	if err == nil || !strings.Contains(err.Error(), "max_frequency") {
		t.Fatalf("expected band ordering error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/fretsense.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
