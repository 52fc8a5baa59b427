// ABOUTME: Ogg/Opus source adapter over hraban/opus stream API
// ABOUTME: Decodes opusfile streams to 48kHz stereo frames
package source

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	opus "gopkg.in/hraban/opus.v2"

	"github.com/quaverd/quaver/pkg/audio"
)

// libopusfile always decodes at 48kHz; this adapter requests stereo.
const (
	opusSampleRate = 48000
	opusChannels   = 2
	opusReadFrames = 5760 // one maximum-length opus frame (120ms)
)

type opusSource struct {
	f      *os.File
	stream *opus.Stream
	info   audio.StreamInfo
	log    *slog.Logger
	pool   samplePool

	pcm     []int16
	nextPTS int64
}

func openOpus(path string, logger *slog.Logger) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}

	info := audio.StreamInfo{
		Codec:      "opus",
		SampleRate: opusSampleRate,
		Channels:   opusChannels,
		BitDepth:   16,
		TimeBase:   audio.Rational{Num: 1, Den: opusSampleRate},
		// Duration stays 0: the stream API exposes no total length.
	}

	logger.Info("opened opus stream", "path", path, "sample_rate", opusSampleRate)

	return &opusSource{
		f:      f,
		stream: stream,
		info:   info,
		log:    logger,
		pcm:    make([]int16, opusReadFrames*opusChannels),
	}, nil
}

func (s *opusSource) Info() audio.StreamInfo {
	return s.info
}

func (s *opusSource) ReadFrame() (*audio.Frame, error) {
	// Read decodes at the link's native channel count, but the stream
	// API exposes no accessor for it, so stereo is assumed throughout.
	// A mono link would come out interleaved wrong here.
	n, err := s.stream.Read(s.pcm)
	if n == 0 {
		if err == nil || err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	total := n * opusChannels
	samples := s.pool.get(total)
	for i := 0; i < total; i++ {
		samples[i] = audio.SampleFromInt16(s.pcm[i])
	}

	frame := audio.NewFrame(samples, opusChannels, opusSampleRate, s.pool.put)
	frame.PTS = s.nextPTS
	frame.TimeBase = s.info.TimeBase
	s.nextPTS += int64(n)

	return frame, nil
}

// Seek is not supported by the opus stream reader; playback continues
// from the current point.
func (s *opusSource) Seek(float64) error {
	return ErrSeekUnsupported
}

func (s *opusSource) Close() error {
	return s.f.Close()
}
