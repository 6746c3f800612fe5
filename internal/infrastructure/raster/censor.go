// Package raster содержит операции, которые скрывают прямоугольную область кадра:
// пикселизацию и обводку с подписью.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"censor-bot/internal/domain/entity"
)

const (
	// PixelateMargin запас вокруг области при пикселизации.
	PixelateMargin = 5
	// pixelCells число «пикселей» мозаики по короткой стороне.
	pixelCells = 3
	// OutlineThickness толщина рамки при обводке.
	OutlineThickness = 2
	labelOffset      = 10
)

// Pixelate закрывает область мозаикой: уменьшает её билинейной интерполяцией
// и растягивает обратно методом ближайшего соседа. Область нулевой площади не трогается.
func Pixelate(img draw.Image, box entity.Box) {
	bounds := img.Bounds()
	roi := box.Expand(PixelateMargin).Clamp(bounds.Dx(), bounds.Dy())
	if roi.Empty() {
		return
	}
	rect := image.Rect(roi.X1, roi.Y1, roi.X2, roi.Y2).Add(bounds.Min)
	w, h := rect.Dx(), rect.Dy()

	short := float64(min(w, h))
	smallW := max(pixelCells*int(math.RoundToEven(float64(w)/short)), 1)
	smallH := max(pixelCells*int(math.RoundToEven(float64(h)/short)), 1)

	small := image.NewRGBA(image.Rect(0, 0, smallW, smallH))
	xdraw.BiLinear.Scale(small, small.Bounds(), img, rect, draw.Src, nil)

	restored := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(restored, restored.Bounds(), small, small.Bounds(), draw.Src, nil)

	draw.Draw(img, rect, restored, image.Point{}, draw.Src)
}

// Outline рисует рамку вокруг области и подпись над ней цветом Color(label).
func Outline(img draw.Image, box entity.Box, label string) {
	bounds := img.Bounds()
	b := box.Clamp(bounds.Dx(), bounds.Dy())
	if b.Empty() {
		return
	}
	c := Color(label)
	r := image.Rect(b.X1, b.Y1, b.X2, b.Y2).Add(bounds.Min)

	half := OutlineThickness / 2
	fill(img, image.Rect(r.Min.X-half, r.Min.Y-half, r.Max.X+half, r.Min.Y+half), c)
	fill(img, image.Rect(r.Min.X-half, r.Max.Y-half, r.Max.X+half, r.Max.Y+half), c)
	fill(img, image.Rect(r.Min.X-half, r.Min.Y-half, r.Min.X+half, r.Max.Y+half), c)
	fill(img, image.Rect(r.Max.X-half, r.Min.Y-half, r.Max.X+half, r.Max.Y+half), c)

	drawLabel(img, r.Min.X, r.Min.Y-labelOffset, label, c)
}

// Apply применяет выбранный режим цензуры к области.
func Apply(img draw.Image, region entity.DetectedRegion, mode entity.CensorMode) {
	if mode == entity.ModeOutline {
		Outline(img, region.Box, region.ClassName)
		return
	}
	Pixelate(img, region.Box)
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func drawLabel(img draw.Image, x, y int, label string, c color.Color) {
	if label == "" {
		return
	}
	face := basicfont.Face7x13
	// Подпись не должна уходить за верхний край кадра.
	if y-face.Ascent < img.Bounds().Min.Y {
		y = img.Bounds().Min.Y + face.Ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
