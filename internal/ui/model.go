// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Renders transport state and maps keys to player operations
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quaverd/quaver/internal/player"
	"github.com/quaverd/quaver/internal/version"
)

// seekStep is how far the arrow keys jump, in seconds.
const seekStep = 5.0

// tickMsg drives the periodic position refresh.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model represents the TUI state. The player is the source of truth;
// the model only caches what the last tick observed.
type Model struct {
	player *player.Player
	path   string

	state    player.State
	position float64
	duration float64
	volume   int

	title  string
	artist string
	album  string

	sampleRate int
	channels   int

	showDebug bool
	err       error

	width  int
	height int
}

// NewModel creates a TUI model over a loaded player.
func NewModel(p *player.Player, path string) Model {
	tags := p.Tags()
	return Model{
		player:     p,
		path:       path,
		duration:   p.Duration(),
		volume:     p.GetVolume(),
		title:      tags.Title,
		artist:     tags.Artist,
		album:      tags.Album,
		sampleRate: p.SampleRate(),
		channels:   p.Channels(),
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTrackInfo()
	s += m.renderTransport()

	if m.showDebug {
		s += m.renderDebug()
	}

	if m.err != nil {
		s += fmt.Sprintf("│ Error: %-45s │\n", truncate(m.err.Error(), 45))
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the title bar and playback state
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ %s ───────────────────────────────────────────┐
│ State: %-45s │
├──────────────────────────────────────────────────────┤
`, version.Product, m.state.String())
}

// renderTrackInfo renders the loaded file and its metadata
func (m Model) renderTrackInfo() string {
	s := ""
	if m.title != "" {
		s += fmt.Sprintf("│ Track:  %-44s │\n", truncate(m.title, 44))
		s += fmt.Sprintf("│ Artist: %-44s │\n", truncate(m.artist, 44))
		s += fmt.Sprintf("│ Album:  %-44s │\n", truncate(m.album, 44))
	} else {
		s += fmt.Sprintf("│ File: %-46s │\n", truncate(m.path, 46))
	}

	s += fmt.Sprintf("│ Format: %dHz %s%-31s │\n",
		m.sampleRate, channelName(m.channels), "")

	return s
}

// renderTransport renders position, progress and volume
func (m Model) renderTransport() string {
	progress := renderBar(int(m.progressPercent()), 100, 30)
	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ %s / %s  [%s]%-3s │\n"+
		"│ Volume: [%s] %d%%%-27s │\n",
		formatTime(m.position), formatTime(m.duration), progress, "",
		volumeBar, m.volume, "")
}

// renderDebug renders pipeline counters
func (m Model) renderDebug() string {
	stats := m.player.Stats()
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Decoded: %d  Dropped: %d  Converted: %d%-10s │
│ Underruns: %d  Buffered: %d bytes%-16s │
`, stats.FramesDecoded, stats.FramesDropped, stats.BlocksConverted, "",
		stats.Underruns, stats.BufferedBytes, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Play/Pause  s:Stop  ←/→:Seek  ↑/↓:Vol  q:Quit │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.player.GetState() == player.StatePlaying {
			m.err = m.player.Pause()
		} else {
			m.err = m.player.Play()
		}
	case "s":
		m.err = m.player.Stop()
	case "left":
		m.err = m.player.Seek(m.player.Position() - seekStep)
	case "right":
		m.err = m.player.Seek(m.player.Position() + seekStep)
	case "up":
		m.player.SetVolume(m.player.GetVolume() + 5)
	case "down":
		m.player.SetVolume(m.player.GetVolume() - 5)
	case "d":
		m.showDebug = !m.showDebug
	}

	m.refresh()
	return m, nil
}

// refresh re-reads the player state the view depends on.
func (m *Model) refresh() {
	m.state = m.player.GetState()
	m.position = m.player.Position()
	m.volume = m.player.GetVolume()
}

func (m Model) progressPercent() float64 {
	if m.duration <= 0 {
		return 0
	}
	pct := m.position / m.duration * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}

func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
