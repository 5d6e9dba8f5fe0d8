package gauge

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// FallbackLengthRatio sizes a needle whose calibration cannot: with no tip
// radius or a zero-length artwork, the needle spans this fraction of the live
// gauge radius.
const FallbackLengthRatio = 0.9

// Transform places one needle sprite for one frame.
//
// To draw: scale the sprite by RenderScale, translate by -SpritePivot,
// rotate by Rotation degrees (clockwise on screen), translate to ScreenPivot.
// Matrix does all four.
type Transform struct {
	ScreenPivot   Vec
	Rotation      float64
	RenderScale   float64
	SpritePivot   Vec
	DisplayScale  float64
	DesiredLength float64

	// Centered reports that the background size was unknown and the pivot
	// was put at the live centre.
	Centered bool
	// Fallback reports that DesiredLength came from FallbackLengthRatio.
	Fallback bool
}

// ComputeTransform combines geometry, calibration and a resolved angle with
// the live background rectangle (origin + size, screen pixels).
func ComputeTransform(live, origin Vec, geom NeedleGeometry, set *CalibrationSet, angle float64) Transform {
	d := Derive(geom, set.Placement, set.Points)
	scale := set.Scale
	if scale == 0 {
		scale = DefaultScale
	}

	tr := Transform{Rotation: angle - d.BaseAngle}

	if d.Placeable {
		tr.ScreenPivot = r2.Add(origin, Vec{X: live.X * d.PivotOffset.X, Y: live.Y * d.PivotOffset.Y})
		tr.DisplayScale = live.X / set.Placement.Background.X
	} else {
		tr.ScreenPivot = r2.Add(origin, r2.Scale(0.5, live))
		tr.Centered = true
	}

	if d.TipRadius > 0 && d.Length > 0 && d.Placeable {
		tr.DesiredLength = d.TipRadius * tr.DisplayScale * scale
		tr.RenderScale = tr.DesiredLength / d.Length
	} else {
		tr.Fallback = true
		tr.DesiredLength = FallbackLengthRatio * liveRadius(live) * scale
		switch {
		case d.Length > 0:
			tr.RenderScale = tr.DesiredLength / d.Length
		case geom.Size.Y > 0:
			tr.RenderScale = tr.DesiredLength / geom.Size.Y
		default:
			tr.RenderScale = scale
		}
	}

	tr.SpritePivot = r2.Scale(tr.RenderScale, geom.Pivot)
	return tr
}

func liveRadius(live Vec) float64 {
	return math.Min(live.X, live.Y) / 2
}

// Affine is a 2x3 row-major affine matrix:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Apply transforms p.
func (m Affine) Apply(p Vec) Vec {
	return Vec{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Matrix returns the affine map from needle artwork pixels to screen pixels.
func (t Transform) Matrix() Affine {
	rad := t.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	s := t.RenderScale
	// q = ScreenPivot + R*(s*p - SpritePivot)
	return Affine{
		A: s * cos, B: -s * sin, C: t.ScreenPivot.X - (cos*t.SpritePivot.X - sin*t.SpritePivot.Y),
		D: s * sin, E: s * cos, F: t.ScreenPivot.Y - (sin*t.SpritePivot.X + cos*t.SpritePivot.Y),
	}
}

// Apply maps a point in needle artwork pixels to the screen.
func (t Transform) Apply(p Vec) Vec {
	return t.Matrix().Apply(p)
}

// FitBackground fits a background of the given native size inside viewport
// without distortion and centres it. It returns the top-left corner and the
// fitted size. A zero native size fills the viewport.
func FitBackground(viewport, native Vec) (origin, size Vec) {
	if native.X <= 0 || native.Y <= 0 {
		return Vec{}, viewport
	}
	size = Vec{X: viewport.X, Y: native.Y * viewport.X / native.X}
	if size.Y > viewport.Y {
		size = Vec{X: native.X * viewport.Y / native.Y, Y: viewport.Y}
	}
	origin = r2.Scale(0.5, r2.Sub(viewport, size))
	return origin, size
}
