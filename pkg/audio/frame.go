// Package audio defines the frame types and capture-source interfaces for
// the fretsense analysis pipeline.
//
// The two primary abstractions are:
//
//   - [Frame] — one capture cycle's worth of mono 16-bit PCM samples.
//   - [FrameSource] — a blocking source of successive frames, backed by a
//     capture device, a file, or a test double.
//
// Frames flow one way: a FrameSource produces them, the detection core
// consumes them fully within a single processing cycle and never retains
// them. Sample data is always signed 16-bit little-endian mono.
//
// This package lives under pkg/ because external code (alternative capture
// backends) is expected to implement [FrameSource].
package audio

import (
	"context"
	"encoding/binary"
	"time"
)

// FullScale is the amplitude of a full-scale 16-bit sample. Volume and
// normalization math throughout the pipeline divides by this value.
const FullScale = 32768.0

// Frame is a single frame of mono PCM audio. Frames are ephemeral: the
// detection core consumes a frame within one processing cycle and discards
// it. A Frame with no samples is valid and simply carries no signal.
type Frame struct {
	// Samples holds signed 16-bit mono samples in capture order.
	Samples []int16

	// SampleRate in Hz. The detection core expects 44100.
	SampleRate int
}

// Duration returns the wall-clock length of the frame, or 0 when the
// sample rate is unset.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// DecodePCM16 converts little-endian 16-bit PCM bytes into samples.
// A trailing odd byte is dropped rather than treated as an error, so a
// short or torn read degrades to a slightly shorter frame.
func DecodePCM16(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

// EncodePCM16 converts samples back into little-endian 16-bit PCM bytes.
// It is the inverse of [DecodePCM16] for even-length input.
func EncodePCM16(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// FrameSource delivers successive audio frames from a capture backend.
//
// ReadFrame blocks until a frame is available, the context is cancelled, or
// the source is exhausted. Sources backed by finite media (files) return
// [io.EOF] when no more frames remain; the session loop treats that as a
// clean end of the stream. Any other error is a transient read failure: the
// affected cycle is skipped and reading continues.
//
// Implementations own their device lifecycle (open/start/stop/close); the
// detection core never touches the device directly. A FrameSource is used
// from a single goroutine; Close may be called from another.
type FrameSource interface {
	// ReadFrame returns the next frame, with up to the backend's configured
	// number of samples. It must respect context cancellation.
	ReadFrame(ctx context.Context) (Frame, error)

	// Close releases the underlying device or file. After Close, ReadFrame
	// returns an error. Calling Close more than once is safe.
	Close() error
}
