package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"needle-gauge.klederson.com/internal/gauge"
)

// RenderDetailPanel renders the needle detail view that replaces the needle
// list: fields, a value bar, the value history and the calibration table.
func RenderDetailPanel(n *gauge.NeedleInstance, width, height int, history []float64) string {
	innerW := max(20, width-4)

	title := StylePanelTitle.Render("NEEDLE DETAIL")
	escHint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint

	sep := StyleSeparator.Render(strings.Repeat("-", innerW))
	lines := []string{titleLine, sep, ""}

	lo, hi := ValueRange(n)
	calibrated := "no (fallback sweep)"
	if n.Calibrated() {
		calibrated = fmt.Sprintf("yes, %d points", n.Resolver().Len())
	}

	fields := []struct{ label, value string }{
		{"Needle", n.ID},
		{"Role", n.Role.String()},
		{"Value", fmt.Sprintf("%.2f", n.Value)},
		{"Target", fmt.Sprintf("%.2f", n.Target)},
		{"Angle", fmt.Sprintf("%.2f deg", n.Angle())},
		{"Scale", fmt.Sprintf("x%.2f", n.Scale)},
		{"Range", fmt.Sprintf("%g .. %g", lo, hi)},
		{"Calib", calibrated},
	}
	if n.Calibrated() {
		fields = append(fields, struct{ label, value string }{"Sweep", fmt.Sprintf("%.1f deg", n.Resolver().Sweep())})
	}

	for _, f := range fields {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-8s", f.label))+StyleValue.Render(f.value))
	}
	lines = append(lines, "")

	barWidth := max(10, innerW-12)
	lines = append(lines, StyleLabel.Render("  Level ")+renderValueBar(n.Value, lo, hi, barWidth))
	lines = append(lines, "")

	if len(history) > 0 {
		lines = append(lines, StyleLabel.Render("  History:"))
		spark := renderSparkline(history, max(10, innerW-4))
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(spark))
		lines = append(lines, "")
	}

	if n.Calibrated() {
		lines = append(lines, StyleLabel.Render("  Value       Angle"))
		for _, s := range n.Resolver().Samples() {
			if len(lines) >= height-3 {
				break
			}
			lines = append(lines, StyleValue.Render(fmt.Sprintf("  %-10g %7.1f", s.Value, s.Angle)))
		}
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 {
		lines = lines[:max(0, height-2)]
	}

	return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// ValueRange returns the range a needle's value is shown against: the
// calibration's Min..Max, else the calibrated value span, else 0..100.
func ValueRange(n *gauge.NeedleInstance) (lo, hi float64) {
	if n.Calibration != nil && n.Calibration.Max > n.Calibration.Min {
		return n.Calibration.Min, n.Calibration.Max
	}
	if lo, hi, ok := n.Resolver().Range(); ok && hi > lo {
		return lo, hi
	}
	return 0, 100
}

func renderValueBar(v, lo, hi float64, width int) string {
	ratio := 0.0
	if hi > lo {
		ratio = max(0, min(1, (v-lo)/(hi-lo)))
	}
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(levelColor(ratio)).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

// levelColor turns from green to amber to red as the needle nears the top of
// its range.
func levelColor(ratio float64) lipgloss.Color {
	switch {
	case ratio > 0.9:
		return ColorError
	case ratio > 0.7:
		return ColorWarning
	default:
		return ColorMatrixGreen
	}
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	rng := maxV - minV
	if rng < 1e-9 {
		rng = 1
	}

	// Take last `width` values
	start := max(0, len(values)-width)

	var sb strings.Builder
	for i := start; i < len(values); i++ {
		idx := int((values[i] - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}
