package artwork

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decoder func(io.Reader) (image.Image, error)

// Decoders are chosen by extension. TGA has no magic number, so sniffing
// with image.Decode is not reliable once it is registered.
var decoders = map[string]decoder{
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tif":  tiff.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
	"svg":  decodeSVG,
}

// Formats lists the supported file extensions without the dot.
func Formats() []string {
	return []string{"bmp", "gif", "jpeg", "jpg", "png", "svg", "tga", "tif", "tiff", "webp"}
}

// FormatOf returns the lower-case extension of name without the dot.
func FormatOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Decode reads an image whose format is given by name's extension.
func Decode(r io.Reader, name string) (*image.NRGBA, error) {
	format := FormatOf(name)
	dec, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("artwork: unsupported format %q", format)
	}
	img, err := dec(r)
	if err != nil {
		return nil, fmt.Errorf("artwork: decode %s: %w", name, err)
	}
	return toNRGBA(img), nil
}

// decodeSVG rasterizes an SVG at its viewBox size.
func decodeSVG(r io.Reader) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}
	w, h := int(icon.ViewBox.W+0.5), int(icon.ViewBox.H+0.5)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has empty viewBox %gx%g", icon.ViewBox.W, icon.ViewBox.H)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}

// Thumbnail scales img to fit inside w x h, keeping its aspect ratio.
func Thumbnail(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	}
	tw, th := w, b.Dy()*w/b.Dx()
	if th > h {
		tw, th = b.Dx()*h/b.Dy(), h
	}
	dst := image.NewNRGBA(image.Rect(0, 0, max(tw, 1), max(th, 1)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
