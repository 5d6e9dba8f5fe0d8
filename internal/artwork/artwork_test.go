package artwork

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"needle-gauge.klederson.com/internal/gauge"
)

var red = color.NRGBA{R: 255, A: 255}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 50, A: 255})
		}
	}
	img.SetNRGBA(0, 0, red)
	return img
}

func writeFile(t *testing.T, dir, name string, encode func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadRasterFormats(t *testing.T) {
	dir := t.TempDir()
	src := testImage(12, 7)

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
	}{
		{"a.png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"b.BMP", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
		{"c.tiff", func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }},
		{"d.webp", func(b *bytes.Buffer) error { return nativewebp.Encode(b, src, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.encode)
			a, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, gauge.Vec{X: 12, Y: 7}, a.Size())
			assert.Equal(t, red, a.Image().NRGBAAt(0, 0))
			assert.Equal(t, src.NRGBAAt(5, 3), a.Image().NRGBAAt(5, 3))
		})
	}
}

func TestLoadSVG(t *testing.T) {
	dir := t.TempDir()
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20" width="40" height="20">
  <rect x="0" y="0" width="40" height="20" fill="#ff0000"/>
</svg>`
	path := filepath.Join(dir, "needle.svg")
	require.NoError(t, os.WriteFile(path, []byte(svg), 0o644))

	a, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "svg", a.Format)
	assert.Equal(t, gauge.Vec{X: 40, Y: 20}, a.Size())
	c := a.Image().NRGBAAt(20, 10)
	assert.Greater(t, c.R, uint8(200))
	assert.Greater(t, c.A, uint8(200))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("x"), "gauge.psd")
	assert.ErrorContains(t, err, `unsupported format "psd"`)

	_, err = Decode(strings.NewReader("not a png"), "gauge.png")
	assert.ErrorContains(t, err, "artwork: decode gauge.png")

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormats(t *testing.T) {
	for _, f := range Formats() {
		_, ok := decoders[f]
		assert.True(t, ok, f)
	}
	assert.Contains(t, Formats(), "tga")
	assert.Equal(t, "jpeg", FormatOf("/x/Y.JPEG"))
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bg.png", func(b *bytes.Buffer) error { return png.Encode(b, testImage(8, 4)) })

	c := NewCache()
	var wg sync.WaitGroup
	got := make([]*Artwork, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := c.Load(path)
			assert.NoError(t, err)
			got[i] = a
		}(i)
	}
	wg.Wait()
	for _, a := range got[1:] {
		assert.Same(t, got[0], a)
	}
	assert.Equal(t, 1, c.Len())

	size, err := c.Size(path)
	require.NoError(t, err)
	assert.Equal(t, gauge.Vec{X: 8, Y: 4}, size)

	_, err = c.Load(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.Equal(t, 1, c.Len(), "failures are not cached")

	c.Clear()
	assert.Equal(t, 0, c.Len())
	again, err := c.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, got[0], again)
}

func TestThumbnail(t *testing.T) {
	src := testImage(100, 50)
	assert.Equal(t, image.Rect(0, 0, 40, 20), Thumbnail(src, 40, 40).Bounds())
	assert.Equal(t, image.Rect(0, 0, 20, 10), Thumbnail(src, 80, 10).Bounds())
	assert.Equal(t, image.Rect(0, 0, 3, 0), Thumbnail(image.NewNRGBA(image.Rectangle{}), 3, -1).Bounds())
}

func TestToNRGBAOffsetsOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 9, 7))
	src.Set(5, 5, red)
	n := toNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), n.Bounds())
	assert.Equal(t, red, n.NRGBAAt(0, 0))
}
