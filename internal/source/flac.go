// ABOUTME: FLAC source adapter over mewkiz/flac
// ABOUTME: Interleaves subframe samples into 24-bit-range frames
package source

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mewkiz/flac"

	"github.com/quaverd/quaver/pkg/audio"
)

type flacSource struct {
	f      *os.File
	stream *flac.Stream
	info   audio.StreamInfo
	log    *slog.Logger
	pool   samplePool

	shift   uint  // left shift into the 24-bit sample range
	nextPTS int64 // sample index of the next frame to deliver
}

func openFLAC(path string, logger *slog.Logger) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}

	si := stream.Info
	rate := int(si.SampleRate)
	info := audio.StreamInfo{
		Codec:      "flac",
		SampleRate: rate,
		Channels:   int(si.NChannels),
		BitDepth:   int(si.BitsPerSample),
		TimeBase:   audio.Rational{Num: 1, Den: rate},
	}
	if si.NSamples > 0 {
		info.Duration = float64(si.NSamples) / float64(rate)
	}

	var shift uint
	if info.BitDepth < 24 {
		shift = uint(24 - info.BitDepth)
	}

	logger.Info("opened flac stream",
		"path", path,
		"sample_rate", rate,
		"channels", info.Channels,
		"bit_depth", info.BitDepth,
		"duration", info.Duration)

	return &flacSource{
		f:      f,
		stream: stream,
		info:   info,
		log:    logger,
		shift:  shift,
	}, nil
}

func (s *flacSource) Info() audio.StreamInfo {
	return s.info
}

func (s *flacSource) ReadFrame() (*audio.Frame, error) {
	fr, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("flac decode failed: %w", err)
	}

	channels := len(fr.Subframes)
	if channels == 0 {
		return nil, fmt.Errorf("flac frame with no subframes")
	}
	count := len(fr.Subframes[0].Samples)

	samples := s.pool.get(count * channels)
	for ch := 0; ch < channels; ch++ {
		sub := fr.Subframes[ch].Samples
		for i := 0; i < count && i < len(sub); i++ {
			samples[i*channels+ch] = sub[i] << s.shift
		}
	}

	frame := audio.NewFrame(samples, channels, s.info.SampleRate, s.pool.put)
	frame.PTS = s.nextPTS
	frame.TimeBase = s.info.TimeBase
	s.nextPTS += int64(count)

	return frame, nil
}

func (s *flacSource) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}

	target := uint64(seconds * float64(s.info.SampleRate))
	actual, err := s.stream.Seek(target)
	if err != nil {
		return fmt.Errorf("flac seek failed: %w", err)
	}

	s.nextPTS = int64(actual)

	return nil
}

func (s *flacSource) Close() error {
	return s.f.Close()
}
