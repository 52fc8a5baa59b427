// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quaverd/quaver/internal/player"
)

// Run starts the TUI over a loaded player and blocks until the user
// quits.
func Run(p *player.Player, path string) error {
	prog := tea.NewProgram(NewModel(p, path), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
