package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"needle-gauge.klederson.com/internal/gauge"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// anyNear reports whether some pixel within r of (x, y) satisfies ok.
func anyNear(img *image.NRGBA, x, y, r int, ok func(color.NRGBA) bool) bool {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if ok(img.NRGBAAt(x+dx, y+dy)) {
				return true
			}
		}
	}
	return false
}

func isNeedleRed(c color.NRGBA) bool { return c.R > 150 && c.G < 100 && c.A > 100 }

func TestAff3MatchesMatrix(t *testing.T) {
	tr := gauge.Transform{ScreenPivot: gauge.Vec{X: 3, Y: 4}, Rotation: 30, RenderScale: 2, SpritePivot: gauge.Vec{X: 1, Y: 1}}
	m := tr.Matrix()
	assert.Equal(t, [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}, [6]float64(Aff3(tr)))
}

func TestRenderFitsBackground(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}
	out := Render(solid(100, 100, blue), 200, 100, nil)
	assert.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())
	assert.Equal(t, uint8(0), out.NRGBAAt(10, 50).A)
	assert.Equal(t, blue, out.NRGBAAt(100, 50))
	assert.Equal(t, uint8(0), out.NRGBAAt(190, 50).A)
}

func TestRenderLayer(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	layer := Layer{
		Sprite:    solid(10, 10, white),
		Transform: gauge.Transform{ScreenPivot: gauge.Vec{X: 100, Y: 50}, RenderScale: 1},
	}
	out := Render(nil, 200, 100, []Layer{layer, {Sprite: nil}})
	assert.Equal(t, white, out.NRGBAAt(105, 55))
	assert.Equal(t, uint8(0), out.NRGBAAt(95, 55).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(105, 45).A)
}

func TestDefaultNeedle(t *testing.T) {
	img, geom := DefaultNeedle()
	assert.Equal(t, gauge.Vec{X: 9, Y: 100}, geom.Size)
	assert.InDelta(t, 270, geom.BaseAngle(), 1e-9)
	assert.InDelta(t, 95, geom.Length(), 1e-9)
	assert.True(t, isNeedleRed(img.NRGBAAt(4, 0)))
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
}

func TestFrameDrawsCalibratedNeedle(t *testing.T) {
	reg := gauge.NewRegistry()
	set := gauge.NewCalibrationSet(gauge.GaugePlacement{Pivot: gauge.Vec{X: 256, Y: 256}, Background: gauge.Vec{X: 512, Y: 512}})
	set.Points = []gauge.CalibrationPoint{
		{X: 256, Y: 100, Value: 0},
		{X: 410, Y: 256, Value: 5000},
		{X: 256, Y: 410, Value: 10000},
	}
	reg.Calibrate(gauge.NeedleMain, nil, set)
	reg.SetValue(gauge.NeedleMain, 5000)

	out := Frame(nil, reg, nil, 512, 512)

	// Pointing right from the pivot.
	assert.True(t, anyNear(out, 356, 256, 2, isNeedleRed))
	assert.True(t, anyNear(out, 400, 256, 2, isNeedleRed))
	assert.False(t, anyNear(out, 156, 256, 2, isNeedleRed))
	assert.False(t, anyNear(out, 256, 156, 2, isNeedleRed))
}

func TestFrameUsesSprites(t *testing.T) {
	reg := gauge.NewRegistry()
	geom := gauge.NeedleGeometry{Pivot: gauge.Vec{X: 0, Y: 5}, End: gauge.Vec{X: 10, Y: 5}, Size: gauge.Vec{X: 10, Y: 10}}
	reg.Add("boost", 0, 1)
	reg.Calibrate("boost", &geom, nil)

	green := color.NRGBA{G: 255, A: 255}
	calls := 0
	sprite := func(n *gauge.NeedleInstance) image.Image {
		calls++
		assert.Equal(t, "boost", n.ID)
		return solid(10, 10, green)
	}
	out := Frame(solid(100, 100, color.NRGBA{A: 255}), reg, sprite, 100, 100)
	assert.Equal(t, 1, calls)

	// Value 0 on the fallback sweep points up from the centre.
	isGreen := func(c color.NRGBA) bool { return c.G > 150 && c.R < 100 }
	assert.True(t, anyNear(out, 50, 20, 3, isGreen))
	assert.False(t, anyNear(out, 50, 80, 3, isGreen))
}

func TestEncode(t *testing.T) {
	img := solid(4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, "png"))
	back, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, "webp"))
	back, err = webp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())

	assert.ErrorContains(t, Encode(&buf, img, "gif"), `unsupported output format "gif"`)
}
