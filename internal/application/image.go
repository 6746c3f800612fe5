package app

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/infrastructure/raster"
)

// ImageCensor закрывает на изображении области из чёрного списка.
type ImageCensor struct {
	registry *Registry
}

// NewImageCensor создаёт конвейер цензуры изображений.
func NewImageCensor(registry *Registry) *ImageCensor {
	return &ImageCensor{registry: registry}
}

// Censor находит области плагинами plugins и закрывает те, чей класс входит в blacklist.
// Изображение меняется на месте, возвращаются закрытые области.
func (c *ImageCensor) Censor(ctx context.Context, img draw.Image, blacklist entity.Blacklist, plugins []string, mode entity.CensorMode) ([]entity.DetectedRegion, error) {
	regions, err := c.registry.DetectWith(ctx, plugins, img)
	if err != nil {
		return nil, err
	}
	censored := censorRegions(img, regions, blacklist, mode)
	return censored, nil
}

// CensorFile читает изображение input, цензурирует его и сохраняет в output.
func (c *ImageCensor) CensorFile(ctx context.Context, input, output string, blacklist entity.Blacklist, plugins []string, mode entity.CensorMode) ([]entity.DetectedRegion, error) {
	img, err := readImage(input)
	if err != nil {
		return nil, entity.NewError(entity.KindInput, "read image", err)
	}
	regions, err := c.Censor(ctx, img, blacklist, plugins, mode)
	if err != nil {
		return nil, err
	}
	if err := writeImage(output, img); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	return regions, nil
}

// censorRegions применяет режим цензуры к областям из чёрного списка.
func censorRegions(img draw.Image, regions []entity.DetectedRegion, blacklist entity.Blacklist, mode entity.CensorMode) []entity.DetectedRegion {
	var censored []entity.DetectedRegion
	for _, region := range regions {
		if !blacklist.Contains(region.ClassName) {
			continue
		}
		raster.Apply(img, region, mode)
		censored = append(censored, region)
	}
	return censored
}

func readImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnreadableMedia, err)
	}
	return toRGBA(src), nil
}

func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
