package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"needle-gauge.klederson.com/internal/gauge"
)

// RenderNeedleList renders the scrollable needle list panel with a cursor.
// The title stays fixed at the top; only the needle entries scroll.
func RenderNeedleList(needles []*gauge.NeedleInstance, colors []lipgloss.Color, width, height int, cursorIndex int) string {
	innerW := max(10, width-4)

	title := StylePanelTitle.Render(fmt.Sprintf("NEEDLES [%d]", len(needles)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}
	headerCount := len(headerLines)

	// Total inner height (excluding border top+bottom)
	innerH := max(headerCount+1, height-2)
	space := max(1, innerH-headerCount)

	var lines []string
	if len(needles) == 0 {
		lines = append(lines, "", StyleHelp.Render(" No needles..."), StyleHelp.Render(" Load a config file"))
	} else {
		linesPerNeedle := 3 // 2 content + 1 blank
		maxVisible := max(1, space/linesPerNeedle)

		// Compute viewport start so cursor is always visible
		viewStart := 0
		if cursorIndex >= maxVisible {
			viewStart = cursorIndex - maxVisible + 1
		}

		for i := viewStart; i < len(needles) && len(lines) < space; i++ {
			var color lipgloss.Color
			if len(colors) > 0 {
				color = colors[i%len(colors)]
			}
			lines = append(lines, renderNeedleEntry(needles[i], color, innerW, i == cursorIndex)...)
		}
	}

	if len(lines) > space {
		lines = lines[:space]
	}
	for len(lines) < space {
		lines = append(lines, "")
	}

	all := append(headerLines, lines...)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))

	// lipgloss Height() only sets a minimum; it won't truncate overflow.
	outLines := strings.Split(rendered, "\n")
	if len(outLines) > height {
		outLines = outLines[:height]
	}
	for len(outLines) < height {
		outLines = append(outLines, "")
	}
	return strings.Join(outLines, "\n")
}

func renderNeedleEntry(n *gauge.NeedleInstance, color lipgloss.Color, maxW int, isCursor bool) []string {
	tag := "[CUS]"
	roleStyle := StyleRoleCustom
	if n.Role == gauge.RolePrimary {
		tag = "[PRI]"
		roleStyle = StyleRolePrimary
	}

	check := "[ ]"
	checkStyle := StyleCheckOff
	if n.Calibrated() {
		check = "[x]"
		checkStyle = StyleCheckOn
	}

	name := n.ID
	if nameMax := max(4, maxW-16); len(name) > nameMax {
		name = name[:nameMax]
	}

	value := fmt.Sprintf("%.1f", n.Value)
	detail := fmt.Sprintf("%6.1fdeg  x%.2f", n.Angle(), n.Scale)

	if isCursor {
		raw1 := truncRaw(fmt.Sprintf(">> %s %s %s %s", check, name, tag, value), maxW)
		raw2 := truncRaw("       "+detail, maxW)
		return []string{StyleCursorRow.Render(raw1), StyleCursorRow.Render(raw2), ""}
	}

	swatch := lipgloss.NewStyle().Foreground(color).Render("#")
	line1 := fmt.Sprintf("   %s %s %s %s %s", checkStyle.Render(check), swatch, StyleNeedleName.Render(name), roleStyle.Render(tag), StyleNeedleValue.Render(value))
	line2 := "       " + StyleNeedleAngle.Render(detail)
	return []string{line1, line2, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}
