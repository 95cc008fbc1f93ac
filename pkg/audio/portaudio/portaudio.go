// Package portaudio implements a live-capture [audio.FrameSource] on top of
// the system's default input device via PortAudio.
//
// The source owns the full device lifecycle: PortAudio initialisation,
// stream open/start on construction, stop/close/terminate on Close. The
// detection core never sees the device, only frames.
package portaudio

import (
	"context"
	"fmt"
	"io"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/fretsense/fretsense/pkg/audio"
)

// Source captures mono int16 frames from the default input device.
type Source struct {
	mu     sync.Mutex
	stream *pa.Stream
	buf    []int16
	rate   int
	closed bool
}

// New initialises PortAudio and opens the default input device for mono
// capture at sampleRate with frameSize samples per read. An error here is
// the "device unavailable" case: the caller should surface it and never
// start a session.
func New(sampleRate, frameSize int) (*Source, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialise: %w", err)
	}

	buf := make([]int16, frameSize)
	stream, err := pa.OpenDefaultStream(1, 0, float64(sampleRate), frameSize, buf)
	if err != nil {
		pa.Terminate()
		return nil, fmt.Errorf("portaudio: open default input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		pa.Terminate()
		return nil, fmt.Errorf("portaudio: start stream: %w", err)
	}

	return &Source{stream: stream, buf: buf, rate: sampleRate}, nil
}

// ReadFrame blocks until the device has filled one frame's worth of samples.
// The block is bounded by the frame duration (~93 ms at 4096/44100), so
// context cancellation is checked on entry rather than interrupting the
// device read mid-frame.
func (s *Source) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Frame{}, io.ErrClosedPipe
	}

	if err := s.stream.Read(); err != nil {
		return audio.Frame{}, fmt.Errorf("portaudio: read: %w", err)
	}

	// The stream reuses buf on every read; hand out a copy.
	samples := make([]int16, len(s.buf))
	copy(samples, s.buf)
	return audio.Frame{Samples: samples, SampleRate: s.rate}, nil
}

// Close stops and closes the stream and terminates PortAudio. Safe to call
// more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if err := s.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := pa.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
