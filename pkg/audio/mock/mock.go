// Package mock provides an in-memory implementation of [audio.FrameSource]
// for use in unit tests.
//
// The mock is safe for concurrent use. It records call counts so tests can
// assert on them, and exposes exported fields the test sets to script the
// frames and errors returned by successive ReadFrame calls.
//
// Typical usage:
//
//	src := &mock.FrameSource{
//	    Frames: []audio.Frame{
//	        {Samples: sine(110, 4096), SampleRate: 44100},
//	    },
//	}
//	frame, err := src.ReadFrame(ctx)
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fretsense/fretsense/pkg/audio"
)

// Step is one scripted ReadFrame outcome. If Err is non-nil the frame is
// ignored and the error is returned as a transient read failure.
type Step struct {
	Frame audio.Frame
	Err   error
}

// FrameSource is a scripted implementation of [audio.FrameSource].
//
// ReadFrame consumes Steps first, then Frames, in order. When both are
// exhausted it returns [io.EOF] unless Loop is set, in which case it starts
// over from the beginning of Frames.
type FrameSource struct {
	mu sync.Mutex

	// Steps are consumed one per ReadFrame call, before Frames.
	Steps []Step

	// Frames are returned in order after Steps are exhausted.
	Frames []audio.Frame

	// Loop causes Frames to repeat forever instead of ending with io.EOF.
	Loop bool

	// CloseError is returned by Close.
	CloseError error

	// CallCountReadFrame records how many times ReadFrame was called.
	CallCountReadFrame int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	closed bool
	next   int
}

// ReadFrame returns the next scripted step or frame. It honours context
// cancellation before consulting the script.
func (s *FrameSource) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountReadFrame++

	if s.closed {
		return audio.Frame{}, io.ErrClosedPipe
	}

	if len(s.Steps) > 0 {
		step := s.Steps[0]
		s.Steps = s.Steps[1:]
		if step.Err != nil {
			return audio.Frame{}, step.Err
		}
		return step.Frame, nil
	}

	if s.next >= len(s.Frames) {
		if !s.Loop || len(s.Frames) == 0 {
			return audio.Frame{}, io.EOF
		}
		s.next = 0
	}
	frame := s.Frames[s.next]
	s.next++
	return frame, nil
}

// Close marks the source closed and returns CloseError.
func (s *FrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	s.closed = true
	return s.CloseError
}
