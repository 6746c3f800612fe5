package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"censor-bot/internal/domain/entity"
)

func noise(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x*37 + y*91) % 256),
				G: uint8((x*13 + y*7) % 256),
				B: uint8((x * y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

func TestPixelate_ChangesOnlyMarginExpandedBox(t *testing.T) {
	orig := noise(100, 100)
	img := clone(orig)

	Pixelate(img, entity.Box{X1: 10, Y1: 10, X2: 50, Y2: 50})

	inside := image.Rect(5, 5, 55, 55)
	changed := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			p := image.Pt(x, y)
			if p.In(inside) {
				if img.RGBAAt(x, y) != orig.RGBAAt(x, y) {
					changed++
				}
				continue
			}
			require.Equal(t, orig.RGBAAt(x, y), img.RGBAAt(x, y), "pixel %v outside box changed", p)
		}
	}
	require.Positive(t, changed)
}

func TestPixelate_ProducesMosaic(t *testing.T) {
	img := noise(100, 100)
	Pixelate(img, entity.Box{X1: 10, Y1: 10, X2: 50, Y2: 50})

	colors := make(map[color.RGBA]struct{})
	for y := 5; y < 55; y++ {
		for x := 5; x < 55; x++ {
			colors[img.RGBAAt(x, y)] = struct{}{}
		}
	}
	// квадратная область сжимается до 3x3
	require.LessOrEqual(t, len(colors), 9)
}

func TestPixelate_ClampedToFrame(t *testing.T) {
	orig := noise(40, 40)
	img := clone(orig)

	Pixelate(img, entity.Box{X1: -20, Y1: 30, X2: 10, Y2: 80})

	for y := 0; y < 25; y++ {
		for x := 0; x < 40; x++ {
			require.Equal(t, orig.RGBAAt(x, y), img.RGBAAt(x, y))
		}
	}
}

func TestPixelate_ZeroAreaIsNoop(t *testing.T) {
	orig := noise(64, 48)
	img := clone(orig)

	Pixelate(img, entity.Box{X1: 200, Y1: 200, X2: 300, Y2: 300})
	require.Equal(t, orig.Pix, img.Pix)

	Pixelate(img, entity.Box{X1: -100, Y1: -100, X2: -50, Y2: -50})
	require.Equal(t, orig.Pix, img.Pix)
}

func TestOutline_DrawsFrameInLabelColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	Outline(img, entity.Box{X1: 40, Y1: 40, X2: 80, Y2: 80}, "cigarette")

	want := Color("cigarette")
	require.Equal(t, want, img.RGBAAt(40, 40))
	require.Equal(t, want, img.RGBAAt(79, 60))
	require.Equal(t, want, img.RGBAAt(60, 79))
	require.Equal(t, color.RGBA{}, img.RGBAAt(60, 60))
}

func TestApply_SelectsMode(t *testing.T) {
	orig := noise(60, 60)
	region := entity.DetectedRegion{ClassName: "lgbt", Box: entity.Box{X1: 10, Y1: 10, X2: 40, Y2: 40}}

	pix := clone(orig)
	Apply(pix, region, entity.ModePixelate)
	require.NotEqual(t, orig.Pix, pix.Pix)

	out := clone(orig)
	Apply(out, region, entity.ModeOutline)
	require.Equal(t, Color("lgbt"), out.RGBAAt(10, 10))
	require.Equal(t, orig.RGBAAt(25, 25), out.RGBAAt(25, 25))
}
