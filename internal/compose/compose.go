// Package compose draws needles over a gauge background into an image.
package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"needle-gauge.klederson.com/internal/artwork"
	"needle-gauge.klederson.com/internal/gauge"
)

// Layer is one needle sprite with its placement for this frame.
type Layer struct {
	Sprite    image.Image
	Transform gauge.Transform
}

// Aff3 converts a needle transform to the matrix x/image/draw expects.
func Aff3(t gauge.Transform) f64.Aff3 {
	m := t.Matrix()
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// Render fills a width x height canvas, fits bg inside it and draws each
// layer over it in order. A nil bg leaves the canvas transparent.
func Render(bg image.Image, width, height int, layers []Layer) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if bg != nil {
		origin, size := fit(bg, width, height)
		r := image.Rect(int(origin.X+0.5), int(origin.Y+0.5), int(origin.X+size.X+0.5), int(origin.Y+size.Y+0.5))
		xdraw.CatmullRom.Scale(dst, r, bg, bg.Bounds(), xdraw.Src, nil)
	}
	for _, l := range layers {
		if l.Sprite == nil || l.Transform.RenderScale <= 0 {
			continue
		}
		xdraw.BiLinear.Transform(dst, Aff3(l.Transform), l.Sprite, l.Sprite.Bounds(), xdraw.Over, nil)
	}
	return dst
}

func fit(bg image.Image, width, height int) (origin, size gauge.Vec) {
	var native gauge.Vec
	if bg != nil {
		b := bg.Bounds()
		native = gauge.Vec{X: float64(b.Dx()), Y: float64(b.Dy())}
	}
	return gauge.FitBackground(gauge.Vec{X: float64(width), Y: float64(height)}, native)
}

// SpriteFunc returns the artwork for a needle, or nil when it has none.
type SpriteFunc func(n *gauge.NeedleInstance) image.Image

// Frame renders every needle in reg over bg. Needles without artwork or
// geometry are drawn with the stand-in sprite from DefaultNeedle.
func Frame(bg image.Image, reg *gauge.Registry, sprite SpriteFunc, width, height int) *image.NRGBA {
	origin, size := fit(bg, width, height)
	defSprite, defGeom := DefaultNeedle()

	layers := make([]Layer, 0, reg.Len())
	for _, n := range reg.Needles() {
		var img image.Image
		if sprite != nil {
			img = sprite(n)
		}
		var tr gauge.Transform
		if img == nil || n.Geometry == nil {
			img = defSprite
			tr = n.TransformWith(size, origin, defGeom)
		} else {
			tr = n.Transform(size, origin)
		}
		layers = append(layers, Layer{Sprite: img, Transform: tr})
	}
	return Render(bg, width, height, layers)
}

// ArtworkSprites loads needle sprites through cache from a needle id to path
// map. Needles whose artwork fails to load get nil.
func ArtworkSprites(cache *artwork.Cache, paths map[string]string) SpriteFunc {
	return func(n *gauge.NeedleInstance) image.Image {
		p, ok := paths[n.ID]
		if !ok || p == "" {
			return nil
		}
		a, err := cache.Load(p)
		if err != nil {
			return nil
		}
		return a.Image()
	}
}

// Needle stand-in dimensions.
const (
	defaultNeedleWidth  = 9
	defaultNeedleHeight = 100
	defaultHubRadius    = 4
)

// DefaultNeedle returns a plain red needle pointing up with its pivot near
// the bottom, and its geometry.
func DefaultNeedle() (*image.NRGBA, gauge.NeedleGeometry) {
	img := image.NewNRGBA(image.Rect(0, 0, defaultNeedleWidth, defaultNeedleHeight))
	cx := defaultNeedleWidth / 2
	pivotY := defaultNeedleHeight - defaultHubRadius - 1
	needle := color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	hub := color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	for y := 0; y < defaultNeedleHeight; y++ {
		// one pixel wide near the tip, three towards the hub
		half := 0
		if y > defaultNeedleHeight/2 {
			half = 1
		}
		for x := cx - half; x <= cx+half; x++ {
			img.SetNRGBA(x, y, needle)
		}
	}
	for y := pivotY - defaultHubRadius; y <= pivotY+defaultHubRadius; y++ {
		for x := cx - defaultHubRadius; x <= cx+defaultHubRadius; x++ {
			dx, dy := x-cx, y-pivotY
			if dx*dx+dy*dy <= defaultHubRadius*defaultHubRadius {
				img.SetNRGBA(x, y, hub)
			}
		}
	}
	return img, gauge.NeedleGeometry{
		Pivot: gauge.Vec{X: float64(cx), Y: float64(pivotY)},
		End:   gauge.Vec{X: float64(cx), Y: 0},
		Size:  gauge.Vec{X: defaultNeedleWidth, Y: defaultNeedleHeight},
	}
}

// Encode writes img as png or webp.
func Encode(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "png":
		err = png.Encode(w, img)
	case "webp":
		err = nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("compose: unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("compose: encode %s: %w", format, err)
	}
	return nil
}
