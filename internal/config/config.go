// Package config provides the configuration schema, loader, and validation
// for the fretsense detection service.
package config

import (
	"time"

	"github.com/fretsense/fretsense/internal/detect"
)

// LogLevel controls log verbosity for the fretsense server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SourceKind selects the audio capture backend.
type SourceKind string

const (
	// SourcePortAudio captures live audio from the default input device.
	SourcePortAudio SourceKind = "portaudio"

	// SourceWAV replays a WAV file frame by frame.
	SourceWAV SourceKind = "wav"
)

// IsValid reports whether s is a recognised source kind.
func (s SourceKind) IsValid() bool {
	return s == SourcePortAudio || s == SourceWAV
}

// Config is the root configuration structure for fretsense.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Audio    AudioConfig    `yaml:"audio"`
	Detector DetectorConfig `yaml:"detector"`
	Session  SessionConfig  `yaml:"session"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AudioConfig selects and parameterises the capture backend.
type AudioConfig struct {
	// Source selects the capture backend.
	Source SourceKind `yaml:"source"`

	// SampleRate in Hz. The detector is tuned for 44100.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples per capture read.
	FrameSize int `yaml:"frame_size"`

	// WAVPath is the file to replay when Source is "wav".
	WAVPath string `yaml:"wav_path"`
}

// DetectorConfig exposes the analysis thresholds. Every field defaults to
// the reference tuning; override only for experimentation.
type DetectorConfig struct {
	// VolumeThreshold gates pitch analysis. Frames at or below it are
	// treated as silence.
	VolumeThreshold float64 `yaml:"volume_threshold"`

	// ToleranceHz is the half-width of each string's acceptance band.
	ToleranceHz float64 `yaml:"tolerance_hz"`

	// MinFrequency and MaxFrequency bound the pitch search band in Hz.
	MinFrequency float64 `yaml:"min_frequency"`
	MaxFrequency float64 `yaml:"max_frequency"`

	// MinCorrelation is the pitch acceptance floor (unnormalized sum).
	MinCorrelation float64 `yaml:"min_correlation"`
}

// SessionConfig controls the processing loop.
type SessionConfig struct {
	// IntervalMS is the pause between successive capture reads, in
	// milliseconds.
	IntervalMS int `yaml:"interval_ms"`

	// Autostart begins the listening session at boot instead of waiting
	// for a start command on the API.
	Autostart bool `yaml:"autostart"`
}

// Interval returns the processing cadence as a duration.
func (s SessionConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

// Default values applied by [ApplyDefaults].
const (
	DefaultListenAddr = ":8080"
	DefaultSampleRate = 44100
	DefaultFrameSize  = 4096
	DefaultIntervalMS = 100
)

// ApplyDefaults fills unset fields with the reference values. Called by the
// loader after decoding; exported so tests and embedders can build configs
// programmatically.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Audio.Source == "" {
		cfg.Audio.Source = SourcePortAudio
	}
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = DefaultSampleRate
	}
	if cfg.Audio.FrameSize == 0 {
		cfg.Audio.FrameSize = DefaultFrameSize
	}
	if cfg.Detector.VolumeThreshold == 0 {
		cfg.Detector.VolumeThreshold = detect.DefaultVolumeThreshold
	}
	if cfg.Detector.ToleranceHz == 0 {
		cfg.Detector.ToleranceHz = detect.DefaultToleranceHz
	}
	if cfg.Detector.MinFrequency == 0 {
		cfg.Detector.MinFrequency = detect.DefaultMinFrequency
	}
	if cfg.Detector.MaxFrequency == 0 {
		cfg.Detector.MaxFrequency = detect.DefaultMaxFrequency
	}
	if cfg.Detector.MinCorrelation == 0 {
		cfg.Detector.MinCorrelation = detect.DefaultMinCorrelation
	}
	if cfg.Session.IntervalMS == 0 {
		cfg.Session.IntervalMS = DefaultIntervalMS
	}
}

// AnalyzerConfig translates the detector settings into the detect
// package's terms.
func (c *Config) AnalyzerConfig() detect.Config {
	return detect.Config{
		SampleRate:      c.Audio.SampleRate,
		VolumeThreshold: c.Detector.VolumeThreshold,
		MinFrequency:    c.Detector.MinFrequency,
		MaxFrequency:    c.Detector.MaxFrequency,
		MinCorrelation:  c.Detector.MinCorrelation,
		ToleranceHz:     c.Detector.ToleranceHz,
	}
}
