// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key handling and rendering against a null-device player
package ui

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quaverd/quaver/internal/logging"
	"github.com/quaverd/quaver/internal/player"
	"github.com/quaverd/quaver/internal/source"
	"github.com/quaverd/quaver/pkg/audio"
)

// silentSource yields silence with valid timestamps.
type silentSource struct {
	mu  sync.Mutex
	pos int64
}

func (s *silentSource) Info() audio.StreamInfo {
	return audio.StreamInfo{
		Codec:      "fake",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
		Duration:   30.0,
		TimeBase:   audio.Rational{Num: 1, Den: 48000},
	}
}

func (s *silentSource) ReadFrame() (*audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= 30*48000 {
		return nil, io.EOF
	}
	frame := audio.NewFrame(make([]int32, 1024*2), 2, 48000, nil)
	frame.PTS = s.pos
	frame.TimeBase = audio.Rational{Num: 1, Den: 48000}
	s.pos += 1024
	return frame, nil
}

func (s *silentSource) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = int64(seconds * 48000)
	return nil
}

func (s *silentSource) Close() error { return nil }

func newTestModel(t *testing.T) Model {
	t.Helper()

	p, err := player.New(player.Config{
		Backend: "null",
		Logger:  logging.Discard(),
		Open: func(path string, logger *slog.Logger) (source.Source, error) {
			return &silentSource{}, nil
		},
	})
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	if err := p.Load("test.fake"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewModel(p, "test.fake")
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func TestViewBeforeSize(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View before size = %q, want Loading...", got)
	}
}

func TestViewRendersState(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	if !strings.Contains(view, "stopped") {
		t.Error("view should show the stopped state")
	}
	if !strings.Contains(view, "48000Hz Stereo") {
		t.Error("view should show the stream format")
	}
	if !strings.Contains(view, "00:00 / 00:30") {
		t.Errorf("view should show position and duration, got:\n%s", view)
	}
}

func TestSpaceTogglesPlayPause(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, key(" "))
	if got := m.player.GetState(); got != player.StatePlaying {
		t.Fatalf("state after space = %v, want playing", got)
	}

	m = update(t, m, key(" "))
	if got := m.player.GetState(); got != player.StatePaused {
		t.Fatalf("state after second space = %v, want paused", got)
	}

	m = update(t, m, key(" "))
	if got := m.player.GetState(); got != player.StatePlaying {
		t.Errorf("state after third space = %v, want playing", got)
	}
}

func TestStopKey(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, key(" "))
	m = update(t, m, key("s"))
	if got := m.player.GetState(); got != player.StateStopped {
		t.Errorf("state after s = %v, want stopped", got)
	}
}

func TestVolumeKeys(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.volume; got != 95 {
		t.Errorf("volume after down = %d, want 95", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.volume; got != 100 {
		t.Errorf("volume after up = %d, want 100", got)
	}

	// Clamped at the top.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.volume; got != 100 {
		t.Errorf("volume past max = %d, want 100", got)
	}
}

func TestSeekKeys(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.player.Position(); got != 5.0 {
		t.Errorf("position after right = %v, want 5.0", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.player.Position(); got != 0.0 {
		t.Errorf("position after left = %v, want 0", got)
	}

	// Seeking below zero clamps.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.player.Position(); got != 0.0 {
		t.Errorf("position after underflow seek = %v, want 0", got)
	}
}

func TestDebugToggle(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	if strings.Contains(m.View(), "Underruns") {
		t.Fatal("debug section visible before toggle")
	}
	m = update(t, m, key("d"))
	if !strings.Contains(m.View(), "Underruns") {
		t.Error("debug section missing after toggle")
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t)

	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(k)
		if cmd == nil {
			t.Errorf("key %v should produce a quit command", k)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		length int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"much longer than that", 10, "much lo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.length); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.length, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{59.9, "00:59"},
		{61, "01:01"},
		{3600, "60:00"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		if got := formatTime(tt.in); got != tt.want {
			t.Errorf("formatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 10); got != "█████░░░░░" {
		t.Errorf("renderBar(50, 100, 10) = %q", got)
	}
	if got := renderBar(0, 100, 4); got != "░░░░" {
		t.Errorf("renderBar(0, 100, 4) = %q", got)
	}
	if got := renderBar(100, 100, 4); got != "████" {
		t.Errorf("renderBar(100, 100, 4) = %q", got)
	}
}
