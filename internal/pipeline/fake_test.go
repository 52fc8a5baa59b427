// ABOUTME: Fake source for pipeline tests
// ABOUTME: Generates deterministic ramp frames with sample-accurate timestamps
package pipeline

import (
	"errors"
	"io"
	"sync"

	"github.com/quaverd/quaver/pkg/audio"
)

// fakeSource produces deterministic frames: sample value equals its
// absolute frame index (left-justified), so tests can assert on both
// ordering and timestamps.
type fakeSource struct {
	mu       sync.Mutex
	rate     int
	channels int
	total    int64 // total sample frames
	chunk    int   // frames per ReadFrame
	pos      int64
	seekErr  error
}

func newFakeSource(rate, channels int, seconds float64, chunk int) *fakeSource {
	return &fakeSource{
		rate:     rate,
		channels: channels,
		total:    int64(seconds * float64(rate)),
		chunk:    chunk,
	}
}

func (s *fakeSource) Info() audio.StreamInfo {
	return audio.StreamInfo{
		Codec:      "fake",
		SampleRate: s.rate,
		Channels:   s.channels,
		BitDepth:   16,
		Duration:   float64(s.total) / float64(s.rate),
		TimeBase:   audio.Rational{Num: 1, Den: s.rate},
	}
}

func (s *fakeSource) ReadFrame() (*audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= s.total {
		return nil, io.EOF
	}

	n := int64(s.chunk)
	if s.pos+n > s.total {
		n = s.total - s.pos
	}

	samples := make([]int32, int(n)*s.channels)
	for i := int64(0); i < n; i++ {
		for ch := 0; ch < s.channels; ch++ {
			samples[int(i)*s.channels+ch] = int32(s.pos+i) << 8
		}
	}

	frame := audio.NewFrame(samples, s.channels, s.rate, nil)
	frame.PTS = s.pos
	frame.TimeBase = audio.Rational{Num: 1, Den: s.rate}
	s.pos += n

	return frame, nil
}

func (s *fakeSource) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seekErr != nil {
		return s.seekErr
	}

	pos := int64(seconds * float64(s.rate))
	if pos < 0 {
		pos = 0
	}
	if pos > s.total {
		pos = s.total
	}
	s.pos = pos

	return nil
}

func (s *fakeSource) Close() error {
	return nil
}

// errSource fails every read with the same error.
type errSource struct {
	fakeSource
	readErr error
}

func (s *errSource) ReadFrame() (*audio.Frame, error) {
	return nil, s.readErr
}

var errBadUnit = errors.New("bad unit")
