package gauge

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func scenarioA() (Vec, []CalibrationPoint) {
	return Vec{X: 256, Y: 256}, []CalibrationPoint{
		{X: 256, Y: 100, Value: 0},
		{X: 410, Y: 256, Value: 5000},
		{X: 256, Y: 410, Value: 10000},
	}
}

func TestBearing(t *testing.T) {
	t.Parallel()

	pivot := Vec{X: 10, Y: 10}
	tests := []struct {
		name string
		p    Vec
		want float64
	}{
		{"right", Vec{X: 20, Y: 10}, 0},
		{"down", Vec{X: 10, Y: 20}, 90},
		{"left", Vec{X: 0, Y: 10}, 180},
		{"up", Vec{X: 10, Y: 0}, 270},
		{"down right", Vec{X: 20, Y: 20}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bearing(pivot, tt.p), eps)
		})
	}
}

func TestNormalizeDegrees(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, NormalizeDegrees(360), eps)
	assert.InDelta(t, 300, NormalizeDegrees(-60), eps)
	assert.InDelta(t, 90, NormalizeDegrees(450), eps)
	assert.InDelta(t, 270, NormalizeDegrees(-450), eps)
	assert.Less(t, NormalizeDegrees(-1e-15), 360.0)
}

func TestResolveScenarios(t *testing.T) {
	t.Parallel()

	t.Run("clicked points around the pivot", func(t *testing.T) {
		pivot, pts := scenarioA()
		r := NewResolver(pivot, pts)
		assert.InDelta(t, 270, r.ValueToAngle(0), eps)
		assert.InDelta(t, 0, r.ValueToAngle(5000), eps)
		assert.InDelta(t, 90, r.ValueToAngle(10000), eps)
		// Crosses the 0/360 seam the short way.
		assert.InDelta(t, 315, r.ValueToAngle(2500), eps)
		assert.InDelta(t, 45, r.ValueToAngle(7500), eps)
	})

	t.Run("counter-clockwise preset", func(t *testing.T) {
		r := NewSampleResolver([]Sample{{0, 270}, {5000, 135}, {10000, 0}})
		assert.InDelta(t, 270.0, r.ValueToAngle(0), eps)
		assert.InDelta(t, 135.0, r.ValueToAngle(5000), eps)
		assert.InDelta(t, 0.0, r.ValueToAngle(10000), eps)
		a := r.ValueToAngle(2500)
		assert.Greater(t, a, 200.0)
		assert.Less(t, a, 210.0)
	})

	t.Run("empty", func(t *testing.T) {
		r := NewResolver(Vec{}, nil)
		for _, v := range []float64{-1, 0, 50, 1e6} {
			assert.Equal(t, 0.0, r.ValueToAngle(v))
		}
		assert.Equal(t, 0.0, Resolve(Vec{}, nil, 42))
	})

	t.Run("single point", func(t *testing.T) {
		r := NewSampleResolver([]Sample{{0, 270}})
		assert.Equal(t, 270.0, r.ValueToAngle(5000))
		assert.Equal(t, 270.0, r.ValueToAngle(-5000))
	})
}

func TestResolverClampsOutsideRange(t *testing.T) {
	t.Parallel()

	pivot, pts := scenarioA()
	r := NewResolver(pivot, pts)
	assert.InDelta(t, r.ValueToAngle(0), r.ValueToAngle(-100), eps)
	assert.InDelta(t, r.ValueToAngle(10000), r.ValueToAngle(1e9), eps)
}

func TestResolverSortsByValue(t *testing.T) {
	t.Parallel()

	pivot, pts := scenarioA()
	reversed := []CalibrationPoint{pts[2], pts[0], pts[1]}
	a, b := NewResolver(pivot, pts), NewResolver(pivot, reversed)
	for _, v := range []float64{0, 1234, 5000, 8000, 10000} {
		assert.InDelta(t, a.ValueToAngle(v), b.ValueToAngle(v), eps)
	}
}

func TestResolverTiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	r := NewSampleResolver([]Sample{{20, 180}, {10, 0}, {10, 90}})
	s := r.Samples()
	require.Len(t, s, 3)
	assert.Equal(t, 0.0, s[0].Angle)
	assert.Equal(t, 90.0, s[1].Angle)
	assert.Equal(t, 0.0, r.ValueToAngle(10))
}

func TestUnwrapStepBound(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		raw := make([]float64, 2+rng.Intn(20))
		for i := range raw {
			raw[i] = rng.Float64() * 360
		}
		u := Unwrap(raw)
		require.Len(t, u, len(raw))
		for i := range u {
			assert.InDelta(t, NormalizeDegrees(raw[i]), NormalizeDegrees(u[i]), 1e-6)
			if i == 0 {
				continue
			}
			d := u[i] - u[i-1]
			assert.LessOrEqual(t, math.Abs(d), 180.0)
			assert.Greater(t, d, -180.0)
		}
	}
}

func TestUnwrapExtremeAngles(t *testing.T) {
	t.Parallel()

	r := NewSampleResolver([]Sample{{0, 0}, {1, 1e20}, {2, math.Inf(1)}, {3, 10}})
	s := r.Samples()
	require.Len(t, s, 4)
	assert.LessOrEqual(t, math.Abs(s[1].Angle-s[0].Angle), 180.0)
	assert.True(t, math.IsInf(s[2].Angle, 1), "non-finite angles are skipped")
	assert.LessOrEqual(t, math.Abs(s[3].Angle-s[1].Angle), 180.0)
	assert.InDelta(t, 10, NormalizeDegrees(s[3].Angle), 1e-6)

	for _, v := range []float64{0, 0.5, 1, 2, 2.5, 3} {
		a := r.ValueToAngle(v)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.Less(t, a, 360.0)
	}
}

func TestNormalizeDegreesNonFinite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, NormalizeDegrees(math.NaN()))
	assert.Equal(t, 0.0, NormalizeDegrees(math.Inf(-1)))
	assert.Equal(t, 180.0, Unwrap([]float64{0, -180})[1], "half turns unwrap forward")
}

func TestUnwrapDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	raw := []float64{350, 10}
	u := Unwrap(raw)
	assert.Equal(t, []float64{350, 10}, raw)
	assert.Equal(t, []float64{350, 370}, u)
}

func TestResolverExactAtCalibrationValues(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	pivot := Vec{X: 200, Y: 200}
	for trial := 0; trial < 100; trial++ {
		n := 2 + rng.Intn(8)
		pts := make([]CalibrationPoint, n)
		for i := range pts {
			pts[i] = CalibrationPoint{
				X:     rng.Float64() * 400,
				Y:     rng.Float64() * 400,
				Value: float64(i*10) + rng.Float64(),
			}
		}
		r := NewResolver(pivot, pts)
		for _, p := range pts {
			want := Bearing(pivot, p.Pos())
			got := r.ValueToAngle(p.Value)
			diff := math.Abs(want - got)
			assert.True(t, diff < 1e-6 || math.Abs(diff-360) < 1e-6, "value %v: want %v got %v", p.Value, want, got)
		}
	}
}

func TestResolverLinearBetweenSamples(t *testing.T) {
	t.Parallel()

	r := NewSampleResolver([]Sample{{0, 300}, {10, 20}, {30, 350}})
	s := r.Samples()
	// 300 -> 380 -> 350 after unwrapping.
	assert.Equal(t, []Sample{{0, 300}, {10, 380}, {30, 350}}, s)

	for i := 0; i < len(s)-1; i++ {
		for _, f := range []float64{0.25, 0.5, 0.75} {
			v := s[i].Value + f*(s[i+1].Value-s[i].Value)
			want := NormalizeDegrees(s[i].Angle + f*(s[i+1].Angle-s[i].Angle))
			assert.InDelta(t, want, r.ValueToAngle(v), eps)
		}
	}
}

func TestResolverRangeAndSweep(t *testing.T) {
	t.Parallel()

	var nilResolver *Resolver
	assert.Equal(t, 0, nilResolver.Len())
	_, _, ok := nilResolver.Range()
	assert.False(t, ok)

	r := TachometerPreset()
	lo, hi, ok := r.Range()
	require.True(t, ok)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 10000.0, hi)
	assert.InDelta(t, -270, r.Sweep(), eps)
	assert.Equal(t, 0.0, NewSampleResolver([]Sample{{1, 2}}).Sweep())
}

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"fuel", "speedometer", "tachometer", "water"}, PresetNames())

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"tachometer", 5000, 135},
		{"speedometer", 0, 240},
		{"speedometer", 320, 300},
		{"speedometer", 240, 15},
		{"fuel", 50, 135},
		{"water", 90, 90},
		{"water", 20, 180},
	}
	for _, tt := range tests {
		r, err := Preset(tt.name)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, r.ValueToAngle(tt.value), eps, "%s(%v)", tt.name, tt.value)
	}

	_, err := Preset("altimeter")
	assert.ErrorContains(t, err, "unknown preset")
}
