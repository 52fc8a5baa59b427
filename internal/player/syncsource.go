// ABOUTME: Serializing wrapper around an open source
// ABOUTME: The decode goroutine and the control thread share one decoder
package player

import (
	"sync"

	"github.com/quaverd/quaver/internal/source"
	"github.com/quaverd/quaver/pkg/audio"
)

// syncSource serializes access to a source. Decoders keep internal
// read buffers, so a control-thread Seek must never overlap a decode
// goroutine's ReadFrame. The lock is held for one decode at most, so
// control operations wait a bounded time.
type syncSource struct {
	mu  sync.Mutex
	src source.Source
}

func (s *syncSource) Info() audio.StreamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Info()
}

func (s *syncSource) ReadFrame() (*audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.ReadFrame()
}

func (s *syncSource) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Seek(seconds)
}

func (s *syncSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Close()
}
