package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"needle-gauge.klederson.com/internal/gauge"
)

// CalibView is what the calibration side panel shows.
type CalibView struct {
	NeedleID string
	Session  *gauge.Session
	// Input is the value being typed for the next point.
	Input       string
	InputActive bool
	// InputRange is set when Input is a "min max" pair.
	InputRange bool
	// Dragging is the index of the point being dragged, or -1.
	Dragging int
}

// Instruction tells the user what the session needs next.
func Instruction(s gauge.State) string {
	switch s {
	case gauge.StateEmpty:
		return "Load a needle or gauge image"
	case gauge.StateNeedlePivotPending:
		return "Click the needle's rotation point"
	case gauge.StateNeedleEndPending:
		return "Click the needle's tip"
	case gauge.StateNeedleGeometryComplete:
		return "Load the gauge background"
	case gauge.StateGaugePivotPending:
		return "Click the needle pivot on the gauge"
	case gauge.StateGaugePivotSet:
		return "Click a scale mark, then press V"
	case gauge.StateCalibrated:
		return "Add more points or press W to save"
	default:
		return ""
	}
}

// RenderCalibPanel renders the calibration side panel.
func RenderCalibPanel(v CalibView, width, height int) string {
	innerW := max(20, width-4)
	s := v.Session
	state := s.State()

	title := StylePanelTitle.Render("CALIBRATE " + strings.ToUpper(v.NeedleID))
	lines := []string{title, StyleSeparator.Render(strings.Repeat("-", innerW))}

	lines = append(lines,
		StyleLabel.Render("  State   ")+StyleValue.Render(state.String()),
		"  "+StyleInput.Render(truncRaw(Instruction(state), innerW-2)),
		"",
	)

	row := func(label, value string) {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-8s", label))+StyleValue.Render(value))
	}

	if geom, ok := s.Geometry(); ok {
		row("Pivot", fmtVec(geom.Pivot))
		row("Tip", fmtVec(geom.End))
		row("Length", fmt.Sprintf("%.1f px", geom.Length()))
		row("Base", fmt.Sprintf("%.1f deg", geom.BaseAngle()))
	} else {
		row("Needle", "-")
	}

	set := s.CalibrationSet()
	if state >= gauge.StateGaugePivotSet {
		row("G.Pivot", fmtVec(set.Placement.Pivot))
		row("Radius", fmt.Sprintf("%.1f px", set.TipRadius()))
	}
	row("Range", fmt.Sprintf("%g .. %g", set.Min, set.Max))
	row("Scale", fmt.Sprintf("x%.2f", set.Scale))
	lines = append(lines, "")

	if click, ok := s.LastClick(); ok {
		row("Click", fmtVec(click))
	}
	if v.InputActive {
		label := "  Value   "
		if v.InputRange {
			label = "  Min Max "
		}
		lines = append(lines, StyleLabel.Render(label)+StyleInput.Render(v.Input+"_"))
	}

	points := s.Points()
	lines = append(lines, "", StyleLabel.Render(fmt.Sprintf("  POINTS [%d]", len(points))))
	for i, p := range points {
		if len(lines) >= height-2 {
			break
		}
		deg := gauge.Bearing(set.Placement.Pivot, p.Pos())
		raw := fmt.Sprintf("  %2d %-9g (%4.0f,%4.0f) %5.1f", i, p.Value, p.X, p.Y, deg)
		if i == v.Dragging {
			lines = append(lines, StyleCursorRow.Render(truncRaw(raw, innerW)))
			continue
		}
		lines = append(lines, StyleValue.Render(raw))
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 {
		lines = lines[:max(0, height-2)]
	}
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// RenderLegend renders a one-line legend of colored swatches.
func RenderLegend(labels []string, colors []lipgloss.Color) string {
	var parts []string
	for i, l := range labels {
		c := ColorMatrixGreen
		if len(colors) > 0 {
			c = colors[i%len(colors)]
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(c).Render("#")+StyleLegend.Render(" "+l))
	}
	return " " + strings.Join(parts, "  ")
}

func fmtVec(v gauge.Vec) string {
	return fmt.Sprintf("(%.1f, %.1f)", v.X, v.Y)
}
