//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// DNNDetector детектор объектов на YOLOv8 через модуль dnn OpenCV.
type DNNDetector struct {
	cfg Config

	// Сеть OpenCV не допускает параллельный Forward.
	mu  sync.Mutex
	net gocv.Net
}

// NewDNNDetector загружает модель один раз на время жизни процесса.
func NewDNNDetector(cfg Config) (*DNNDetector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.ModelPath, err)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", cfg.ModelPath)
	}
	return &DNNDetector{cfg: cfg, net: net}, nil
}

func (d *DNNDetector) Name() string {
	return d.cfg.Name
}

func (d *DNNDetector) Modality() entity.Modality {
	return entity.ModalityVisual
}

// Detect прогоняет кадр через сеть и возвращает рамки после NMS.
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image) ([]entity.DetectedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	size := d.cfg.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float64(mat.Cols()) / float64(size)
	scaleY := float64(mat.Rows()) / float64(size)
	regions, err := DecodeYOLO(data, dims[2], d.cfg.Labels, scaleX, scaleY, d.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}
	return NMS(regions, d.cfg.NMSThreshold), nil
}

// Close освобождает сеть.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

var _ port.FrameDetector = (*DNNDetector)(nil)
