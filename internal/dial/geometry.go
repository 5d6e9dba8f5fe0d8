package dial

import (
	"math"

	"needle-gauge.klederson.com/internal/config"
	"needle-gauge.klederson.com/internal/gauge"
)

// Terminal cells are roughly twice as tall as they are wide. The dial works
// in "live pixels" where one cell is one pixel wide and 1/AspectRatio pixels
// tall, so angles drawn in cells look right on screen.

// CanvasSize returns the live pixel size of a cols x rows cell area.
func CanvasSize(cols, rows int) gauge.Vec {
	return gauge.Vec{X: float64(cols), Y: float64(rows) / config.AspectRatio}
}

// CellCenter returns the live pixel at the centre of a cell.
func CellCenter(col, row int) gauge.Vec {
	return gauge.Vec{X: float64(col) + 0.5, Y: (float64(row) + 0.5) / config.AspectRatio}
}

// PixelCell returns the cell containing a live pixel.
func PixelCell(p gauge.Vec) (col, row int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y * config.AspectRatio))
}

// Viewport fits artwork of native size into a cols x rows area and maps
// between the artwork's pixels and live pixels.
type Viewport struct {
	Origin gauge.Vec
	Size   gauge.Vec
	Native gauge.Vec
}

// Fit builds the viewport for artwork of native size on a cols x rows area.
// Unknown native sizes fill the area.
func Fit(cols, rows int, native gauge.Vec) Viewport {
	origin, size := gauge.FitBackground(CanvasSize(cols, rows), native)
	return Viewport{Origin: origin, Size: size, Native: native}
}

func (v Viewport) scale() (sx, sy float64, ok bool) {
	if v.Native.X <= 0 || v.Native.Y <= 0 {
		return 0, 0, false
	}
	return v.Size.X / v.Native.X, v.Size.Y / v.Native.Y, true
}

// ToLive maps an artwork pixel to a live pixel.
func (v Viewport) ToLive(p gauge.Vec) gauge.Vec {
	sx, sy, ok := v.scale()
	if !ok {
		return v.Origin
	}
	return gauge.Vec{X: v.Origin.X + p.X*sx, Y: v.Origin.Y + p.Y*sy}
}

// FromCell maps the centre of a cell to an artwork pixel. ok is false when
// the cell is outside the artwork.
func (v Viewport) FromCell(col, row int) (gauge.Vec, bool) {
	sx, sy, ok := v.scale()
	if !ok {
		return gauge.Vec{}, false
	}
	c := CellCenter(col, row)
	p := gauge.Vec{X: (c.X - v.Origin.X) / sx, Y: (c.Y - v.Origin.Y) / sy}
	if p.X < 0 || p.Y < 0 || p.X >= v.Native.X || p.Y >= v.Native.Y {
		return p, false
	}
	return p, true
}

// sector returns the 45 degree sector [0, 8) of a screen-convention angle.
func sector(deg float64) int {
	return int(math.Round(gauge.NormalizeDegrees(deg)/45)) % 8
}

// LineChar returns the character for a line running in direction deg.
func LineChar(deg float64) byte {
	switch sector(deg) {
	case 0, 4: // right, left
		return '-'
	case 2, 6: // down, up
		return '|'
	case 1, 5: // down-right, up-left
		return '\\'
	default: // down-left, up-right
		return '/'
	}
}

// TipChar returns the arrowhead for a needle pointing in direction deg.
func TipChar(deg float64) byte {
	switch sector(deg) {
	case 0:
		return '>'
	case 1:
		return '\\'
	case 2:
		return 'v'
	case 3:
		return '/'
	case 4:
		return '<'
	case 5:
		return '\\'
	case 6:
		return '^'
	default:
		return '/'
	}
}

// RingChar returns the character for a ring at bearing deg from its centre.
func RingChar(deg float64) byte {
	return LineChar(deg + 90)
}
