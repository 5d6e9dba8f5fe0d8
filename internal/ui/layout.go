package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the dial panel and side panel horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, dialPanel, sidePanel, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, dialPanel, sidePanel)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// SplitWidth returns the dial and side panel widths for a terminal width.
// The dial takes three quarters.
func SplitWidth(width int) (dial, side int) {
	dial = width * 3 / 4
	return dial, width - dial
}

// DialCanvas returns the drawable cell area inside a dial panel of the
// given size: the border takes one cell on each side and the legend one row.
func DialCanvas(width, height int) (cols, rows int) {
	return max(0, width-2), max(0, height-3)
}

// DialOrigin is the terminal cell of the dial canvas's top-left corner:
// below the menu bar and inside the panel border.
const (
	DialOriginCol = 1
	DialOriginRow = 2
)
