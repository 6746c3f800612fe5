//go:build !gocv
// +build !gocv

package vision

import "censor-bot/internal/domain/port"

// VideoCodec кодек-заглушка (без OpenCV).
type VideoCodec struct {
	FourCC string
}

// NewVideoCodec создаёт кодек-заглушку.
func NewVideoCodec() *VideoCodec {
	return &VideoCodec{}
}

// OpenSource возвращает ошибку, если сборка без тега gocv.
func (c *VideoCodec) OpenSource(path string) (port.FrameSource, error) {
	_ = path
	return nil, errNoGoCV
}

// CreateSink возвращает ошибку, если сборка без тега gocv.
func (c *VideoCodec) CreateSink(path string, fps float64, width, height int) (port.FrameSink, error) {
	return nil, errNoGoCV
}
