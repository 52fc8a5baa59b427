// ABOUTME: Capturing slog handler for tests
// ABOUTME: Records log messages so tests can assert on pipeline diagnostics
package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// CaptureHandler records every log message it receives. Tests inject
// it in place of the process logger to assert on diagnostics.
type CaptureHandler struct {
	mu       sync.Mutex
	messages []string
}

// NewCapture returns a capturing handler and a logger writing to it.
func NewCapture() (*CaptureHandler, *slog.Logger) {
	h := &CaptureHandler{}
	return h, slog.New(h)
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.messages = append(h.messages, r.Message)
	h.mu.Unlock()
	return nil
}

func (h *CaptureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Messages returns a copy of all recorded messages.
func (h *CaptureHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages))
	copy(out, h.messages)
	return out
}

// Contains reports whether any recorded message contains substr.
func (h *CaptureHandler) Contains(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
