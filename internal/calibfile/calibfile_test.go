package calibfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"needle-gauge.klederson.com/internal/gauge"
)

const sample = `{
  "name": "Tacho",
  "gauge_type": "rpm",
  "needle_calibrations": {
    "main": {
      "needle_image_path": "needles/red.png",
      "gauge_pivot_x": 256, "gauge_pivot_y": 256,
      "needle_pivot_x": 10, "needle_pivot_y": 90,
      "needle_end_x": 10, "needle_end_y": 10,
      "calibration_points": [
        {"x": 256, "y": 100, "value": 0},
        {"x": 410, "y": 256, "value": 5000},
        {"x": 256, "y": 410, "value": 10000}
      ],
      "needle_scale": 1.5,
      "min_value": 0, "max_value": 10000
    },
    "boost": {
      "needle_image_path": "needles/thin.png",
      "gauge_pivot_x": 100, "gauge_pivot_y": 100,
      "calibration_points": [
        {"x": 100, "y": 0, "value": 0},
        {"x": 200, "value": 1},
        {"x": "left", "y": 5, "value": 2},
        [1, 2, 3],
        {"x": 1, "y": null, "value": 3},
        {"x": 200, "y": 100, "value": 4}
      ]
    }
  }
}`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, []string{"boost", "main"}, f.IDs())

	main := f.Needles["main"]
	assert.Equal(t, "needles/red.png", main.NeedleImagePath)
	assert.Len(t, main.Points, 3)
	assert.Equal(t, 1.5, main.NeedleScale)
	assert.Equal(t, 10000.0, main.MaxValue)

	boost := f.Needles["boost"]
	assert.Equal(t, []Point{{X: 100, Y: 0, Value: 0}, {X: 200, Y: 100, Value: 4}}, boost.Points)
	assert.Equal(t, gauge.DefaultScale, boost.NeedleScale, "missing scale defaults")
	assert.Equal(t, 0.0, boost.MinValue)
	assert.Equal(t, 100.0, boost.MaxValue)

	require.Len(t, f.Skipped, 4)
	assert.Equal(t, SkippedPoint{Needle: "boost", Index: 1, Reason: "missing y"}, f.Skipped[0])
	assert.Equal(t, "x is not a number", f.Skipped[1].Reason)
	assert.Equal(t, "not an object", f.Skipped[2].Reason)
	assert.Equal(t, "boost point 4: missing y", f.Skipped[3].String())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"needle_calibrations": `},
		{"not an object", `[]`},
		{"calibrations not an object", `{"needle_calibrations": 3}`},
		{"bad entry member", `{"needle_calibrations": {"main": {"gauge_pivot_x": "middle"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, "calibfile:")
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, doc := range []string{`{}`, `{"needle_calibrations": null}`} {
		f, err := Decode(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Empty(t, f.Needles)
	}
}

func TestEncodePreservesOtherKeys(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	assert.Contains(t, buf.String(), "\n  \"gauge_type\": \"rpm\"")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Tacho", doc["name"])
	assert.Equal(t, "rpm", doc["gauge_type"])

	f.Set("fresh", &Entry{})
	buf.Reset()
	require.NoError(t, Encode(&buf, f))
	assert.Contains(t, buf.String(), `"calibration_points": []`)
}

func TestRoundTripPreservesAngles(t *testing.T) {
	bg := gauge.Vec{X: 512, Y: 512}
	geom := gauge.NeedleGeometry{Pivot: gauge.Vec{X: 10.25, Y: 90.5}, End: gauge.Vec{X: 10.25, Y: 3.125}}
	set := gauge.NewCalibrationSet(gauge.GaugePlacement{Pivot: gauge.Vec{X: 255.7, Y: 256.3}, Background: bg})
	set.Points = []gauge.CalibrationPoint{
		{X: 256.1, Y: 99.3, Value: 0},
		{X: 410.9, Y: 257.2, Value: 5000},
		{X: 255.4, Y: 411.6, Value: 10000},
		{X: 120.2, Y: 380.8, Value: 12500},
	}
	set.Scale = 1.3
	set.Max = 12500

	f := New()
	f.Set("main", EntryFrom("needle.png", geom, set))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	back, err := Decode(&buf)
	require.NoError(t, err)
	require.Empty(t, back.Skipped)

	e := back.Needles["main"]
	gotSet := e.CalibrationSet(bg)
	assert.Equal(t, set, gotSet)
	assert.Equal(t, geom, e.Geometry(gauge.Vec{}))

	before, after := set.Resolver(), gotSet.Resolver()
	for v := -1000.0; v <= 14000; v += 250 {
		assert.Equal(t, before.ValueToAngle(v), after.ValueToAngle(v), "value %v", v)
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tach.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, filepath.Join(dir, "needles/red.png"), f.Resolve("needles/red.png"))
	assert.Equal(t, "/abs/n.png", f.Resolve("/abs/n.png"))

	require.True(t, f.SetScale("main", 2.5))
	assert.False(t, f.SetScale("missing", 2))
	f.Delete("boost")
	require.NoError(t, WriteFile(path, f))

	again, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, again.IDs())
	assert.Equal(t, 2.5, again.Needles["main"].NeedleScale)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fakeSizer map[string]gauge.Vec

func (s fakeSizer) Size(path string) (gauge.Vec, error) {
	v, ok := s[filepath.Base(path)]
	if !ok {
		return gauge.Vec{}, errors.New("no such artwork")
	}
	return v, nil
}

func TestApply(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	reg := gauge.NewRegistry()
	err = f.Apply(reg, gauge.Vec{X: 512, Y: 512}, fakeSizer{"red.png": {X: 20, Y: 100}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `needle "boost"`)

	assert.Equal(t, []string{"boost", "main"}, reg.List())
	main, _ := reg.Get("main")
	require.True(t, main.Calibrated())
	assert.Equal(t, gauge.Vec{X: 20, Y: 100}, main.Geometry.Size)
	assert.Equal(t, 1.5, main.Scale)
	assert.InDelta(t, 0, main.AngleFor(5000), 1e-9)

	boost, _ := reg.Get("boost")
	assert.True(t, boost.Calibrated())
	assert.Equal(t, gauge.Vec{}, boost.Geometry.Size)
}

func TestResolveAndRelative(t *testing.T) {
	t.Parallel()

	f := New()
	assert.Equal(t, "needles/red.png", f.Resolve("needles/red.png"), "no document path")
	assert.Equal(t, "needles/red.png", f.Relative("needles/red.png"))

	dir := t.TempDir()
	f.Path = filepath.Join(dir, "gauge.json")
	abs := filepath.Join(dir, "needles", "red.png")
	assert.Equal(t, abs, f.Resolve("needles/red.png"))
	assert.Equal(t, "needles/red.png", f.Relative(abs))
	assert.Equal(t, abs, f.Resolve(f.Relative(abs)))

	outside := filepath.Join(filepath.Dir(dir), "other.png")
	assert.Equal(t, outside, f.Relative(outside))
	assert.Equal(t, outside, f.Resolve(outside))
}
