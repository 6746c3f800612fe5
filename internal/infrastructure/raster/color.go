package raster

import (
	"hash/fnv"
	"image/color"
	"math/rand/v2"
)

// Color возвращает цвет, однозначно определяемый меткой класса.
// Генератор засевается хешем метки, поэтому цвет не зависит от порядка вызовов и процесса.
func Color(label string) color.RGBA {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	seed := h.Sum64()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return color.RGBA{
		R: uint8(rng.IntN(256)),
		G: uint8(rng.IntN(256)),
		B: uint8(rng.IntN(256)),
		A: 255,
	}
}
