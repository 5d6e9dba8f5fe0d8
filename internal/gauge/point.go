package gauge

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2-D pixel position or size. Y grows downward.
type Vec = r2.Vec

// CalibrationPoint is a pixel position on a gauge background paired with the
// domain value the needle shows when it points there.
type CalibrationPoint struct {
	X, Y  float64
	Value float64
}

// Pos returns the point's pixel position.
func (p CalibrationPoint) Pos() Vec {
	return Vec{X: p.X, Y: p.Y}
}

// Bearing returns the direction from pivot to p in degrees [0, 360).
// Screen convention: 0 = +x (right), 90 = +y (down).
func Bearing(pivot, p Vec) float64 {
	d := r2.Sub(p, pivot)
	return NormalizeDegrees(math.Atan2(d.Y, d.X) * 180 / math.Pi)
}

// NormalizeDegrees wraps an angle to [0, 360). NaN and infinities give 0.
func NormalizeDegrees(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to exactly 360
	if a >= 360 {
		a = 0
	}
	return a
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// Direction returns the unit vector for a screen-convention angle in degrees.
func Direction(deg float64) Vec {
	rad := deg * math.Pi / 180
	return Vec{X: math.Cos(rad), Y: math.Sin(rad)}
}
