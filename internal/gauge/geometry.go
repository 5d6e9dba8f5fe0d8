package gauge

import (
	"gonum.org/v1/gonum/stat"
)

// DefaultScale is the needle length multiplier used when none is configured.
const DefaultScale = 1.0

// NeedleGeometry describes needle artwork in its own pixel space: the point
// it rotates about and the tip. Size is the artwork's native width and
// height when known. One geometry may be shared by several needle instances
// drawing the same artwork.
type NeedleGeometry struct {
	Pivot Vec
	End   Vec
	Size  Vec
}

// Length returns the pivot-to-tip distance in artwork pixels.
func (g NeedleGeometry) Length() float64 {
	return Distance(g.Pivot, g.End)
}

// BaseAngle returns the direction the artwork points in its rest pose.
func (g NeedleGeometry) BaseAngle() float64 {
	return Bearing(g.Pivot, g.End)
}

// GaugePlacement locates the needle pivot on a gauge background, in the
// background's native pixel space.
type GaugePlacement struct {
	Pivot      Vec
	Background Vec
}

// PivotOffset returns the pivot as a fraction of the background size.
// ok is false when the background has a zero dimension.
func (p GaugePlacement) PivotOffset() (offset Vec, ok bool) {
	if p.Background.X == 0 || p.Background.Y == 0 {
		return Vec{}, false
	}
	return Vec{X: p.Pivot.X / p.Background.X, Y: p.Pivot.Y / p.Background.Y}, true
}

// CalibrationSet is everything needed to aim and size one needle on one
// gauge background.
type CalibrationSet struct {
	Placement GaugePlacement
	Points    []CalibrationPoint
	Min, Max  float64
	Scale     float64
}

// NewCalibrationSet returns an empty set on the given placement with the
// default 0..100 range and scale 1.
func NewCalibrationSet(placement GaugePlacement) *CalibrationSet {
	return &CalibrationSet{
		Placement: placement,
		Max:       100,
		Scale:     DefaultScale,
	}
}

// TipRadius returns the mean distance from the gauge pivot to the
// calibration points, or 0 with no points.
func (s *CalibrationSet) TipRadius() float64 {
	return TipRadius(s.Placement.Pivot, s.Points)
}

// Resolver builds the angle resolver for this set.
func (s *CalibrationSet) Resolver() *Resolver {
	return NewResolver(s.Placement.Pivot, s.Points)
}

// Clamp limits v to the set's value range. A set whose Max is not above Min
// leaves v unchanged.
func (s *CalibrationSet) Clamp(v float64) float64 {
	if s.Max <= s.Min {
		return v
	}
	return max(s.Min, min(v, s.Max))
}

// Clone returns a deep copy.
func (s *CalibrationSet) Clone() *CalibrationSet {
	c := *s
	c.Points = append([]CalibrationPoint(nil), s.Points...)
	return &c
}

// TipRadius averages the distance from pivot to every point. Averaging
// smooths over imprecise clicks.
func TipRadius(pivot Vec, points []CalibrationPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	d := make([]float64, len(points))
	for i, p := range points {
		d[i] = Distance(pivot, p.Pos())
	}
	return stat.Mean(d, nil)
}

// Derived holds the per-needle quantities the render step needs.
type Derived struct {
	BaseAngle   float64
	Length      float64
	TipRadius   float64
	PivotOffset Vec
	// Placeable is false when the background size is unknown; PivotOffset
	// is meaningless then.
	Placeable bool
}

// Derive computes needle orientation, length, tip radius and pivot offset.
func Derive(geom NeedleGeometry, placement GaugePlacement, points []CalibrationPoint) Derived {
	offset, ok := placement.PivotOffset()
	return Derived{
		BaseAngle:   geom.BaseAngle(),
		Length:      geom.Length(),
		TipRadius:   TipRadius(placement.Pivot, points),
		PivotOffset: offset,
		Placeable:   ok,
	}
}
