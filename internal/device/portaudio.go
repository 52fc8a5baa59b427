//go:build portaudio

// ABOUTME: PortAudio device implementation
// ABOUTME: Cross-platform audio output using PortAudio
package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/quaverd/quaver/pkg/audio"
)

// PortAudio drives playback through a PortAudio stream callback.
type PortAudio struct {
	log     *slog.Logger
	stream  *portaudio.Stream
	scratch []byte
}

// NewPortAudio creates an unopened PortAudio device.
func NewPortAudio(logger *slog.Logger) *PortAudio {
	return &PortAudio{log: logger}
}

// Open initializes PortAudio and starts the default output stream.
func (p *PortAudio) Open(format audio.Format, cb Callback) error {
	if p.stream != nil {
		return fmt.Errorf("device already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0, func(out []int16) {
		need := len(out) * 2
		if cap(p.scratch) < need {
			p.scratch = make([]byte, need)
		}
		buf := p.scratch[:need]
		cb(buf)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	p.log.Info("audio device opened",
		"backend", "portaudio",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	return nil
}

// Close stops the stream and terminates PortAudio.
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			p.log.Warn("portaudio stream stop error", "error", err)
		}
		if err := p.stream.Close(); err != nil {
			p.log.Warn("portaudio stream close error", "error", err)
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
