// Package wavfile implements an [audio.FrameSource] backed by a RIFF/WAVE
// file. It replays recorded material through the detection pipeline frame by
// frame, which is how the detector is exercised offline (demos, calibration
// recordings, regression captures).
//
// The decoder accepts mono or stereo PCM at any common sample rate and bit
// depth; frames are converted to the pipeline's native 44100 Hz mono int16
// format on the way out. When the file is exhausted, ReadFrame returns
// [io.EOF] and the session ends cleanly.
package wavfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/fretsense/fretsense/pkg/audio"
)

// NativeRate is the sample rate frames are converted to before analysis.
const NativeRate = 44100

// Source reads successive PCM frames from a WAV file.
type Source struct {
	mu        sync.Mutex
	f         *os.File
	dec       *wav.Decoder
	buf       *goaudio.IntBuffer
	frameSize int
	closed    bool
}

// New opens the WAV file at path and prepares it for frame-by-frame reads
// of frameSize samples (after conversion to mono). Returns an error if the
// file cannot be opened or is not a decodable WAV.
func New(path string, frameSize int) (*Source, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("wavfile: frame size must be positive, got %d", frameSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavfile: open %q: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("wavfile: %q is not a valid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("wavfile: seek to PCM data in %q: %w", path, err)
	}
	channels := int(dec.NumChans)
	if channels != 1 && channels != 2 {
		f.Close()
		return nil, fmt.Errorf("wavfile: %q has %d channels; only mono and stereo are supported", path, channels)
	}

	// Scale the per-read buffer so that one read yields roughly frameSize
	// mono samples after channel merge and resampling.
	readLen := frameSize * channels
	if rate := int(dec.SampleRate); rate != NativeRate && rate > 0 {
		readLen = readLen * rate / NativeRate
	}
	if readLen == 0 {
		readLen = frameSize
	}

	return &Source{
		f:   f,
		dec: dec,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, readLen),
		},
		frameSize: frameSize,
	}, nil
}

// ReadFrame decodes the next chunk of the file and returns it as a native
// format frame. Returns io.EOF once the PCM data is exhausted.
func (s *Source) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audio.Frame{}, io.ErrClosedPipe
	}

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return audio.Frame{}, fmt.Errorf("wavfile: read PCM: %w", err)
	}
	if n == 0 {
		return audio.Frame{}, io.EOF
	}

	shift := int(s.dec.BitDepth) - 16
	samples := make([]int16, n)
	for i, v := range s.buf.Data[:n] {
		samples[i] = scaleTo16(v, shift)
	}

	if s.buf.Format.NumChannels == 2 {
		samples = audio.StereoToMono(samples)
	}
	samples = audio.ResampleMono(samples, int(s.dec.SampleRate), NativeRate)
	if len(samples) > s.frameSize {
		samples = samples[:s.frameSize]
	}

	return audio.Frame{Samples: samples, SampleRate: NativeRate}, nil
}

// Close closes the underlying file. Safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// scaleTo16 shifts a decoded sample at an arbitrary bit depth into the
// signed 16-bit range and clamps the result.
func scaleTo16(v, shift int) int16 {
	switch {
	case shift > 0:
		v >>= shift
	case shift < 0:
		v <<= -shift
	}
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
