package port

import "image"

// FrameSource последовательный источник кадров видео.
// Read возвращает io.EOF, когда кадры закончились или очередной кадр не декодировался.
type FrameSource interface {
	Read() (*image.RGBA, error)
	FPS() float64
	Close() error
}

// FrameSink приёмник обработанных кадров в исходном порядке
type FrameSink interface {
	Write(frame *image.RGBA) error
	Close() error
}

// VideoCodec открывает видеофайлы на чтение и запись
type VideoCodec interface {
	// OpenSource открывает видео, ошибка означает, что файл не читается
	OpenSource(path string) (FrameSource, error)

	// CreateSink создаёт файл для записи кадров заданного размера
	CreateSink(path string, fps float64, width, height int) (FrameSink, error)
}
