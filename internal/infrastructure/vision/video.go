//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"

	"gocv.io/x/gocv"

	"censor-bot/internal/domain/port"
)

// VideoCodec читает и пишет видео через VideoCapture и VideoWriter OpenCV.
type VideoCodec struct {
	// FourCC кодек выходного файла, пустой — по расширению (FourCCFor)
	FourCC string
}

// NewVideoCodec создаёт кодек, который выбирает FourCC по контейнеру.
func NewVideoCodec() *VideoCodec {
	return &VideoCodec{}
}

// OpenSource открывает видеофайл на чтение.
func (c *VideoCodec) OpenSource(path string) (port.FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open video %s: capture is not opened", path)
	}
	return &captureSource{capture: capture, mat: gocv.NewMat()}, nil
}

// CreateSink создаёт файл для записи кадров.
func (c *VideoCodec) CreateSink(path string, fps float64, width, height int) (port.FrameSink, error) {
	fourcc := c.FourCC
	if fourcc == "" {
		fourcc = FourCCFor(path)
	}
	writer, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("create video %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("create video %s: writer is not opened", path)
	}
	return &writerSink{writer: writer}, nil
}

type captureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// Read возвращает io.EOF в конце файла и на первом кадре, который не декодировался.
func (s *captureSource) Read() (*image.RGBA, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, errors.Join(io.EOF, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func (s *captureSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

func (s *captureSource) Close() error {
	return errors.Join(s.mat.Close(), s.capture.Close())
}

type writerSink struct {
	writer *gocv.VideoWriter
}

func (s *writerSink) Write(frame *image.RGBA) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

func (s *writerSink) Close() error {
	return s.writer.Close()
}

var _ port.VideoCodec = (*VideoCodec)(nil)
