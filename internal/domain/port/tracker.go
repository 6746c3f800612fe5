package port

import (
	"image"

	"censor-bot/internal/domain/entity"
)

// Tracker трекер одного объекта между кадрами
type Tracker interface {
	// Update сдвигает трекер на следующий кадр, ok=false означает потерю объекта
	Update(frame image.Image) (box entity.Box, ok bool)

	// Close освобождает ресурсы трекера
	Close() error
}

// TrackerFactory создаёт трекер, инициализированный областью box на кадре frame
type TrackerFactory interface {
	NewTracker(frame image.Image, box entity.Box) (Tracker, error)
}
