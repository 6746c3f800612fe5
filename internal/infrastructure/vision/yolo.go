package vision

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"censor-bot/internal/domain/entity"
)

// Config параметры детектора YOLOv8, экспортированного в ONNX.
type Config struct {
	// Name имя плагина в реестре
	Name string
	// ModelPath путь к .onnx файлу
	ModelPath string
	// Labels имена классов в порядке выходов модели
	Labels []string
	// InputSize сторона квадратного входа сети
	InputSize int
	// ScoreThreshold минимальная уверенность класса
	ScoreThreshold float32
	// NMSThreshold порог IoU для подавления пересекающихся рамок
	NMSThreshold float32
}

// DefaultConfig возвращает параметры по умолчанию для модели name.
func DefaultConfig(name, modelPath string, labels []string) Config {
	return Config{
		Name:           name,
		ModelPath:      modelPath,
		Labels:         labels,
		InputSize:      640,
		ScoreThreshold: 0.25,
		NMSThreshold:   0.45,
	}
}

func (c Config) validate() error {
	if c.Name == "" {
		return errors.New("detector name is empty")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model path for %s is empty", c.Name)
	}
	if len(c.Labels) == 0 {
		return fmt.Errorf("labels for %s are empty", c.Name)
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("input size for %s must be positive", c.Name)
	}
	return nil
}

// DecodeYOLO разбирает выход YOLOv8 формы [4+classes, anchors]: строки 0..3 — центр
// и размер рамки во входных координатах сети, далее уверенности классов.
// scaleX и scaleY переводят рамки в координаты исходного кадра.
func DecodeYOLO(out []float32, anchors int, labels []string, scaleX, scaleY float64, threshold float32) ([]entity.DetectedRegion, error) {
	rows := 4 + len(labels)
	if anchors <= 0 || len(out) < rows*anchors {
		return nil, fmt.Errorf("unexpected model output: %d values for %d rows x %d anchors", len(out), rows, anchors)
	}

	var regions []entity.DetectedRegion
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, threshold
		for c := range labels {
			if s := out[(4+c)*anchors+a]; s >= bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 {
			continue
		}
		cx := float64(out[a])
		cy := float64(out[anchors+a])
		w := float64(out[2*anchors+a])
		h := float64(out[3*anchors+a])
		regions = append(regions, entity.DetectedRegion{
			ClassName: labels[best],
			Box: entity.Box{
				X1: int(math.Round((cx - w/2) * scaleX)),
				Y1: int(math.Round((cy - h/2) * scaleY)),
				X2: int(math.Round((cx + w/2) * scaleX)),
				Y2: int(math.Round((cy + h/2) * scaleY)),
			},
			Score: float64(bestScore),
		})
	}
	return regions, nil
}

// NMS оставляет по каждому классу рамки с наибольшей уверенностью, отбрасывая
// рамки того же класса с IoU выше threshold.
func NMS(regions []entity.DetectedRegion, threshold float32) []entity.DetectedRegion {
	sorted := append([]entity.DetectedRegion(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	kept := make([]entity.DetectedRegion, 0, len(sorted))
	for _, r := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassName == r.ClassName && IoU(k.Box, r.Box) > float64(threshold) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, r)
		}
	}
	return kept
}

// IoU отношение площади пересечения рамок к площади объединения.
func IoU(a, b entity.Box) float64 {
	inter := entity.Box{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}
	if inter.Empty() {
		return 0
	}
	union := a.Area() + b.Area() - inter.Area()
	if union <= 0 {
		return 0
	}
	return float64(inter.Area()) / float64(union)
}
