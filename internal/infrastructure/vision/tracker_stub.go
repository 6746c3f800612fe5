//go:build !gocv
// +build !gocv

package vision

import (
	"image"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// CSRTFactory фабрика-заглушка (без OpenCV).
type CSRTFactory struct{}

// NewCSRTFactory создаёт фабрику-заглушку.
func NewCSRTFactory() *CSRTFactory {
	return &CSRTFactory{}
}

// NewTracker возвращает ошибку, если сборка без тега gocv.
func (f *CSRTFactory) NewTracker(frame image.Image, box entity.Box) (port.Tracker, error) {
	_ = frame
	_ = box
	return nil, errNoGoCV
}
