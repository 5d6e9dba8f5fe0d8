package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"needle-gauge.klederson.com/internal/config"
)

// Key is one menu entry: the key in brackets followed by its label.
type Key struct {
	Key, Label string
}

// PreviewKeys are the menu entries of the preview screen.
var PreviewKeys = []Key{
	{"P", "ause"},
	{"+/-", "scale"},
	{"</>", "value"},
	{"X", "peak"},
	{"W", "rite"},
	{"R", "eload"},
	{"Q", "uit"},
}

// CalibrateKeys are the menu entries of the calibration screen.
var CalibrateKeys = []Key{
	{"TAB", "view"},
	{"V", "alue"},
	{"M", "in/max"},
	{"D", "el"},
	{"C", "lear"},
	{"G", "pivot"},
	{"N", "eedle"},
	{"W", "rite"},
	{"Q", "uit"},
}

// RenderMenuBar renders the top menu bar with the screen name and a state
// label on the right.
func RenderMenuBar(width int, screen string, keys []Key, state string, running bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	var menu strings.Builder
	for _, k := range keys {
		menu.WriteString("  " + StyleMenuKey.Render("["+k.Key+"]") + StyleMenuLabel.Render(k.Label))
	}

	status := StyleStatusPaused.Render(strings.ToUpper(state))
	if running {
		status = StyleStatusRunning.Render(strings.ToUpper(state))
	}

	left := StyleMenuKey.Render(title) + menu.String()
	right := status + "  " + StyleMenuLabel.Render(screen) + " "

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
