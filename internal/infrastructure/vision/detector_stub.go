//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"censor-bot/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// DNNDetector детектор-заглушка (без OpenCV).
type DNNDetector struct {
	cfg Config
}

// NewDNNDetector возвращает ошибку, если сборка без тега gocv.
func NewDNNDetector(cfg Config) (*DNNDetector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return nil, errNoGoCV
}

func (d *DNNDetector) Name() string {
	return d.cfg.Name
}

func (d *DNNDetector) Modality() entity.Modality {
	return entity.ModalityVisual
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image) ([]entity.DetectedRegion, error) {
	_ = ctx
	_ = frame
	return nil, errNoGoCV
}

func (d *DNNDetector) Close() error {
	return nil
}
