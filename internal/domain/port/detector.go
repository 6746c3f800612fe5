package port

import (
	"context"
	"image"

	"censor-bot/internal/domain/entity"
)

// Plugin общий интерфейс плагина-детектора
type Plugin interface {
	// Name уникальное имя плагина в реестре
	Name() string

	// Modality вид данных, которые принимает плагин
	Modality() entity.Modality
}

// FrameDetector плагин, который находит области на кадре или изображении.
// Реализации загружаются один раз и должны допускать конкурентные вызовы Detect.
type FrameDetector interface {
	Plugin

	// Detect возвращает классифицированные области кадра
	Detect(ctx context.Context, frame image.Image) ([]entity.DetectedRegion, error)
}

// SpeechDetector плагин, который находит отрезки нецензурной речи в аудиофайле
type SpeechDetector interface {
	Plugin

	// DetectSpeech возвращает упорядоченные непересекающиеся отрезки для заглушения
	DetectSpeech(ctx context.Context, audioPath string) ([]entity.ProfanityInterval, error)
}
