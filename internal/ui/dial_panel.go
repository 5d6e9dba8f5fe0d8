package ui

// RenderDialPanel wraps dial content with a styled border.
// The dial itself is drawn by the dial package.
func RenderDialPanel(width, height int, dialContent, legend string, active bool) string {
	content := dialContent + "\n" + legend
	style := StylePanelBorder
	if active {
		style = StylePanelActive
	}
	return style.Width(width - 2).Height(height - 2).Render(content)
}
