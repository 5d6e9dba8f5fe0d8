package dial

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"needle-gauge.klederson.com/internal/gauge"
)

var (
	colorBright = lipgloss.Color("#00FF41")
	colorMid    = lipgloss.Color("#008F11")
	colorDim    = lipgloss.Color("#004A0A")
	colorMark   = lipgloss.Color("#FFAA00")

	styleHub    = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing   = lipgloss.NewStyle().Foreground(colorMid)
	styleShade  = lipgloss.NewStyle().Foreground(colorDim)
	styleTick   = lipgloss.NewStyle().Foreground(colorBright)
	styleMark   = lipgloss.NewStyle().Foreground(colorMark).Bold(true)
	styleCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	// NeedleColors cycles through needles in list order.
	NeedleColors = []lipgloss.Color{"#FF3300", "#00FFAA", "#FFCC00", "#33AAFF", "#FF66CC"}
)

// shadeRamp runs from dark to light.
const shadeRamp = " .:-=+*#%@"

// Needle is a needle line in live pixels.
type Needle struct {
	Pivot, Tip gauge.Vec
	Color      lipgloss.Color
	Selected   bool
}

// NeedleLine places a registry needle on a viewport. The tip is where the
// needle artwork's end lands, or the fallback length along the needle angle
// when there is no artwork geometry.
func NeedleLine(n *gauge.NeedleInstance, vp Viewport) Needle {
	tr := n.Transform(vp.Size, vp.Origin)
	var tip gauge.Vec
	if n.Geometry != nil && n.Geometry.Length() > 0 {
		tip = tr.Apply(n.Geometry.End)
	} else {
		d := gauge.Direction(n.Angle())
		tip = gauge.Vec{X: tr.ScreenPivot.X + d.X*tr.DesiredLength, Y: tr.ScreenPivot.Y + d.Y*tr.DesiredLength}
	}
	return Needle{Pivot: tr.ScreenPivot, Tip: tip}
}

// Mark is a single highlighted character at a live pixel.
type Mark struct {
	At   gauge.Vec
	Char byte
}

// Scene is everything drawn on the dial.
type Scene struct {
	// Background is shaded into the viewport when set. Otherwise a ring is
	// drawn around the viewport centre.
	Background image.Image
	Viewport   Viewport
	// Ticks are angles marked on the ring, for example calibration points.
	Ticks   []float64
	Needles []Needle
	Marks   []Mark
	// Cursor is drawn as a crosshair when HasCursor is set.
	Cursor    gauge.Vec
	HasCursor bool
}

type cell struct {
	ch    byte
	style *lipgloss.Style
}

type grid struct {
	cols, rows int
	cells      [][]cell
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for r := range g.cells {
		g.cells[r] = make([]cell, cols)
		for c := range g.cells[r] {
			g.cells[r][c].ch = ' '
		}
	}
	return g
}

func (g *grid) set(col, row int, ch byte, style *lipgloss.Style) {
	if col >= 0 && col < g.cols && row >= 0 && row < g.rows {
		g.cells[row][col] = cell{ch: ch, style: style}
	}
}

func (g *grid) setPixel(p gauge.Vec, ch byte, style *lipgloss.Style) {
	col, row := PixelCell(p)
	g.set(col, row, ch, style)
}

// Render draws the scene on a cols x rows character grid.
func Render(cols, rows int, s Scene) string {
	if cols < 3 || rows < 3 {
		return ""
	}
	g := newGrid(cols, rows)

	if s.Background != nil {
		drawBackground(g, s.Background, s.Viewport)
	} else {
		drawRing(g, s.Viewport, s.Ticks)
	}

	for _, m := range s.Marks {
		g.setPixel(m.At, m.Char, &styleMark)
	}

	for _, n := range s.Needles {
		drawNeedle(g, n)
	}

	if s.HasCursor {
		col, row := PixelCell(s.Cursor)
		g.set(col, row, 'X', &styleCursor)
	}

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			c := g.cells[row][col]
			if c.style == nil || c.ch == ' ' {
				sb.WriteByte(c.ch)
				continue
			}
			sb.WriteString(c.style.Render(string(c.ch)))
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// drawBackground samples the artwork once per cell and shades it by
// luminance.
func drawBackground(g *grid, img image.Image, vp Viewport) {
	b := img.Bounds()
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			p, ok := vp.FromCell(col, row)
			if !ok {
				continue
			}
			c := img.At(b.Min.X+int(p.X), b.Min.Y+int(p.Y))
			if _, _, _, a := c.RGBA(); a < 0x8000 {
				continue
			}
			y := color.GrayModel.Convert(c).(color.Gray).Y
			idx := int(y) * len(shadeRamp) / 256
			g.set(col, row, shadeRamp[idx], &styleShade)
		}
	}
}

// drawRing draws a dial face inside the viewport with tick marks.
func drawRing(g *grid, vp Viewport, ticks []float64) {
	center := gauge.Vec{X: vp.Origin.X + vp.Size.X/2, Y: vp.Origin.Y + vp.Size.Y/2}
	radius := math.Min(vp.Size.X, vp.Size.Y)/2 - 1
	if radius < 2 {
		return
	}

	steps := int(2 * math.Pi * radius)
	for i := 0; i < steps; i++ {
		deg := float64(i) * 360 / float64(steps)
		d := gauge.Direction(deg)
		p := gauge.Vec{X: center.X + d.X*radius, Y: center.Y + d.Y*radius}
		col, row := PixelCell(p)
		if col >= 0 && col < g.cols && row >= 0 && row < g.rows && g.cells[row][col].ch == ' ' {
			g.set(col, row, RingChar(deg), &styleRing)
		}
	}

	for _, deg := range ticks {
		d := gauge.Direction(deg)
		g.setPixel(gauge.Vec{X: center.X + d.X*(radius-1.5), Y: center.Y + d.Y*(radius-1.5)}, '*', &styleTick)
	}
}

func drawNeedle(g *grid, n Needle) {
	style := lipgloss.NewStyle().Foreground(n.Color)
	if n.Selected {
		style = style.Bold(true)
	}
	deg := gauge.Bearing(n.Pivot, n.Tip)
	ch := LineChar(deg)

	pc, pr := PixelCell(n.Pivot)
	tc, tr := PixelCell(n.Tip)
	steps := max(abs(tc-pc), abs(tr-pr)) * 2
	for s := 1; s < steps; s++ {
		t := float64(s) / float64(steps)
		p := gauge.Vec{X: n.Pivot.X + t*(n.Tip.X-n.Pivot.X), Y: n.Pivot.Y + t*(n.Tip.Y-n.Pivot.Y)}
		g.setPixel(p, ch, &style)
	}
	g.set(tc, tr, TipChar(deg), &style)
	g.set(pc, pr, '+', &styleHub)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
