package gauge

import (
	"math"
	"sort"
)

// Sample is a value/angle pair. Angles are in screen-convention degrees and
// may lie outside [0, 360); they are unwrapped before interpolation.
type Sample struct {
	Value float64
	Angle float64
}

// Resolver maps domain values to needle angles by linear interpolation over
// a globally unwrapped angle sequence. It is immutable once built and safe to
// share between frames.
type Resolver struct {
	values []float64
	angles []float64 // unwrapped
}

// NewResolver builds a resolver from calibration points clicked around the
// gauge pivot. Points are sorted by value; points sharing a value keep the
// order they were given in.
func NewResolver(pivot Vec, points []CalibrationPoint) *Resolver {
	samples := make([]Sample, len(points))
	for i, p := range points {
		samples[i] = Sample{Value: p.Value, Angle: Bearing(pivot, p.Pos())}
	}
	return NewSampleResolver(samples)
}

// NewSampleResolver builds a resolver from explicit value/angle samples.
func NewSampleResolver(samples []Sample) *Resolver {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})

	r := &Resolver{
		values: make([]float64, len(sorted)),
		angles: make([]float64, len(sorted)),
	}
	for i, s := range sorted {
		r.values[i] = s.Value
		r.angles[i] = s.Angle
	}
	unwrapInPlace(r.angles)
	return r
}

// Resolve is a one-shot ValueToAngle for callers that do not keep a Resolver.
func Resolve(pivot Vec, points []CalibrationPoint, value float64) float64 {
	return NewResolver(pivot, points).ValueToAngle(value)
}

// Unwrap returns a copy of angles adjusted by multiples of 360 so that each
// step from the previous angle lies in (-180, 180]. NaN and infinite angles
// are left in place and skipped.
func Unwrap(angles []float64) []float64 {
	out := make([]float64, len(angles))
	copy(out, angles)
	unwrapInPlace(out)
	return out
}

func unwrapInPlace(a []float64) {
	prev := -1
	for i := range a {
		if math.IsNaN(a[i]) || math.IsInf(a[i], 0) {
			continue
		}
		if prev >= 0 {
			d := math.Remainder(a[i]-a[prev], 360)
			if d == -180 {
				d = 180
			}
			a[i] = a[prev] + d
		}
		prev = i
	}
}

// ValueToAngle returns the needle angle in [0, 360) for v.
//
// With no samples it returns 0. Values at or beyond either end of the
// calibrated range are clamped to the endpoint angle; there is no
// extrapolation.
func (r *Resolver) ValueToAngle(v float64) float64 {
	n := r.Len()
	switch {
	case n == 0:
		return 0
	case n == 1:
		return NormalizeDegrees(r.angles[0])
	case v <= r.values[0]:
		return NormalizeDegrees(r.angles[0])
	case v >= r.values[n-1]:
		return NormalizeDegrees(r.angles[n-1])
	}

	for i := 0; i < n-1; i++ {
		lo, hi := r.values[i], r.values[i+1]
		if lo <= v && v <= hi {
			if hi == lo {
				return NormalizeDegrees(r.angles[i])
			}
			t := (v - lo) / (hi - lo)
			return NormalizeDegrees(r.angles[i] + t*(r.angles[i+1]-r.angles[i]))
		}
	}

	// NaN lands here.
	return NormalizeDegrees(r.angles[n-1])
}

// Len returns the number of samples.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}

// Range returns the smallest and largest calibrated value. ok is false when
// the resolver has no samples.
func (r *Resolver) Range() (lo, hi float64, ok bool) {
	if r.Len() == 0 {
		return 0, 0, false
	}
	return r.values[0], r.values[len(r.values)-1], true
}

// Samples returns the sorted samples with their unwrapped angles.
func (r *Resolver) Samples() []Sample {
	out := make([]Sample, r.Len())
	for i := range out {
		out[i] = Sample{Value: r.values[i], Angle: r.angles[i]}
	}
	return out
}

// Sweep returns the signed angular travel from the first to the last sample.
// Negative values sweep counter-clockwise on screen.
func (r *Resolver) Sweep() float64 {
	n := r.Len()
	if n < 2 {
		return 0
	}
	return r.angles[n-1] - r.angles[0]
}
