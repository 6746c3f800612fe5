//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// CSRTFactory создаёт трекеры CSRT из opencv_contrib.
type CSRTFactory struct{}

// NewCSRTFactory создаёт фабрику трекеров.
func NewCSRTFactory() *CSRTFactory {
	return &CSRTFactory{}
}

// NewTracker инициализирует трекер областью box на кадре frame.
func (f *CSRTFactory) NewTracker(frame image.Image, box entity.Box) (port.Tracker, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	box = box.Clamp(mat.Cols(), mat.Rows())
	if box.Empty() {
		return nil, fmt.Errorf("empty tracking box %v", box)
	}

	tracker := contrib.NewTrackerCSRT()
	if !tracker.Init(mat, image.Rect(box.X1, box.Y1, box.X2, box.Y2)) {
		tracker.Close()
		return nil, fmt.Errorf("tracker init failed for box %v", box)
	}
	return &csrtTracker{tracker: tracker}, nil
}

type csrtTracker struct {
	tracker gocv.Tracker
}

func (t *csrtTracker) Update(frame image.Image) (entity.Box, bool) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return entity.Box{}, false
	}
	defer mat.Close()

	rect, ok := t.tracker.Update(mat)
	if !ok {
		return entity.Box{}, false
	}
	return entity.Box{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y}, true
}

func (t *csrtTracker) Close() error {
	return t.tracker.Close()
}

var _ port.TrackerFactory = (*CSRTFactory)(nil)
