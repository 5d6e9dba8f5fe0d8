package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. A non-empty err replaces
// the info text.
func RenderStatusBar(width int, tag, info, err string) string {
	var content string
	if err != "" {
		content = StyleStatusError.Render("[ERROR]") + lipgloss.NewStyle().Foreground(ColorError).Render(" "+err)
	} else {
		content = StyleStatusRunning.Render("["+tag+"]") + lipgloss.NewStyle().Foreground(ColorGreen).Render(" "+info)
	}

	gap := max(0, width-lipgloss.Width(content))
	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
