//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package device

import (
	"fmt"
	"log/slog"

	"github.com/quaverd/quaver/pkg/audio"
)

// PortAudio device implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a stub that fails on Open.
func NewPortAudio(logger *slog.Logger) *PortAudio {
	return &PortAudio{}
}

// Open reports that PortAudio support is not compiled in.
func (p *PortAudio) Open(format audio.Format, cb Callback) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases nothing.
func (p *PortAudio) Close() error {
	return nil
}
