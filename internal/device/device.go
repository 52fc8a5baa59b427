// ABOUTME: Audio device interface and backend selection
// ABOUTME: Backends pull S16LE bytes from a callback on their own thread
package device

import (
	"fmt"
	"log/slog"

	"github.com/quaverd/quaver/pkg/audio"
)

// Callback fills dst with interleaved S16LE audio. The backend calls it
// from its real-time thread; implementations must not block.
type Callback func(dst []byte)

// Device represents an audio output device.
type Device interface {
	// Open initializes the device in the given format and starts
	// pulling audio through the callback.
	Open(format audio.Format, cb Callback) error

	// Close stops the device and releases its resources.
	Close() error
}

// New creates a device for the named backend. An empty name selects
// malgo, the default.
func New(backend string, logger *slog.Logger) (Device, error) {
	switch backend {
	case "", "malgo":
		return NewMalgo(logger), nil
	case "oto":
		return NewOto(logger), nil
	case "portaudio":
		return NewPortAudio(logger), nil
	case "null":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %q", backend)
	}
}
