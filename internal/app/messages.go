package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// SavedMsg reports that the calibration file was written.
type SavedMsg struct {
	Path string
}

// ErrMsg reports a failed operation to the status bar.
type ErrMsg struct {
	Err error
}

// report wraps an already computed message as a command.
func report(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
