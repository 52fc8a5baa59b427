// ABOUTME: MP3 source adapter over hajimehoshi/go-mp3
// ABOUTME: Produces 16-bit stereo frames with sample-accurate timestamps
package source

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/quaverd/quaver/pkg/audio"
)

// go-mp3 always emits 16-bit stereo regardless of the encoded layout.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4 // 2 channels x 2 bytes
	mp3ReadBytes     = 16384
)

// mp3Decoder is the slice of *mp3.Decoder the adapter uses, split out
// so tests can inject readers with awkward chunk sizes.
type mp3Decoder interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Length() int64
}

type mp3Source struct {
	f    *os.File
	dec  mp3Decoder
	info audio.StreamInfo
	log  *slog.Logger
	pool samplePool

	buf       []byte
	remainder int   // trailing bytes of buf not forming a whole frame
	nextPTS   int64 // sample index of the next frame to deliver
}

func openMP3(path string, logger *slog.Logger) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	rate := dec.SampleRate()
	info := audio.StreamInfo{
		Codec:      "mp3",
		SampleRate: rate,
		Channels:   mp3Channels,
		BitDepth:   16,
		TimeBase:   audio.Rational{Num: 1, Den: rate},
	}
	if length := dec.Length(); length > 0 {
		info.Duration = float64(length/mp3BytesPerFrame) / float64(rate)
	}

	logger.Info("opened mp3 stream",
		"path", path,
		"sample_rate", rate,
		"duration", info.Duration)

	return &mp3Source{
		f:    f,
		dec:  dec,
		info: info,
		log:  logger,
		buf:  make([]byte, mp3ReadBytes),
	}, nil
}

func (s *mp3Source) Info() audio.StreamInfo {
	return s.info
}

func (s *mp3Source) ReadFrame() (*audio.Frame, error) {
	// Top up after a previous partial frame so sample boundaries hold.
	n := s.remainder
	s.remainder = 0
	for n < mp3BytesPerFrame {
		r, err := s.dec.Read(s.buf[n:])
		n += r
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("mp3 decode failed: %w", err)
		}
		if r == 0 {
			return nil, io.EOF
		}
	}

	whole := n - n%mp3BytesPerFrame
	samples := s.pool.get(whole / 2)
	for i := range samples {
		sample16 := int16(uint16(s.buf[i*2]) | uint16(s.buf[i*2+1])<<8)
		samples[i] = audio.SampleFromInt16(sample16)
	}

	// Carry the tail only after the emitted samples are built from the
	// front of the buffer.
	if whole < n {
		s.remainder = n - whole
		copy(s.buf, s.buf[whole:n])
	}

	frame := audio.NewFrame(samples, mp3Channels, s.info.SampleRate, s.pool.put)
	frame.PTS = s.nextPTS
	frame.TimeBase = s.info.TimeBase
	s.nextPTS += int64(frame.SampleCount())

	return frame, nil
}

func (s *mp3Source) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}

	offset := int64(seconds*float64(s.info.SampleRate)) * mp3BytesPerFrame
	if length := s.dec.Length(); length > 0 && offset > length {
		offset = length
	}

	if _, err := s.dec.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("mp3 seek failed: %w", err)
	}

	s.remainder = 0
	s.nextPTS = offset / mp3BytesPerFrame

	return nil
}

func (s *mp3Source) Close() error {
	return s.f.Close()
}
