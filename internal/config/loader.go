package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if !cfg.Audio.Source.IsValid() {
		errs = append(errs, fmt.Errorf("audio.source %q is invalid; valid values: portaudio, wav", cfg.Audio.Source))
	}
	if cfg.Audio.Source == SourceWAV && cfg.Audio.WAVPath == "" {
		errs = append(errs, fmt.Errorf("audio.wav_path is required when audio.source is %q", SourceWAV))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	} else if cfg.Audio.SampleRate != DefaultSampleRate {
		slog.Warn("audio.sample_rate differs from the reference rate; detection accuracy is untested at other rates",
			"sample_rate", cfg.Audio.SampleRate, "reference", DefaultSampleRate)
	}
	if cfg.Audio.FrameSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.frame_size %d must be positive", cfg.Audio.FrameSize))
	}

	if cfg.Detector.VolumeThreshold < 0 || cfg.Detector.VolumeThreshold >= 1 {
		errs = append(errs, fmt.Errorf("detector.volume_threshold %v is out of range [0, 1)", cfg.Detector.VolumeThreshold))
	}
	if cfg.Detector.ToleranceHz <= 0 {
		errs = append(errs, fmt.Errorf("detector.tolerance_hz %v must be positive", cfg.Detector.ToleranceHz))
	}
	if cfg.Detector.MinFrequency <= 0 {
		errs = append(errs, fmt.Errorf("detector.min_frequency %v must be positive", cfg.Detector.MinFrequency))
	}
	if cfg.Detector.MaxFrequency <= cfg.Detector.MinFrequency {
		errs = append(errs, fmt.Errorf("detector.max_frequency %v must exceed detector.min_frequency %v",
			cfg.Detector.MaxFrequency, cfg.Detector.MinFrequency))
	}
	if cfg.Detector.MinCorrelation <= 0 {
		errs = append(errs, fmt.Errorf("detector.min_correlation %v must be positive", cfg.Detector.MinCorrelation))
	}

	if cfg.Session.IntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("session.interval_ms %d must be positive", cfg.Session.IntervalMS))
	}

	return errors.Join(errs...)
}
