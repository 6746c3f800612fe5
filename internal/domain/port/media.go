package port

import (
	"context"

	"censor-bot/internal/domain/entity"
)

// AudioFormat параметры PCM WAV
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// MediaCodec внешний кодек для аудио и сборки контейнеров
type MediaCodec interface {
	// DetectKind определяет тип файла
	DetectKind(path string) (entity.MediaKind, error)

	// DecodeAudio декодирует аудио (или аудиодорожку видео) в PCM s16le WAV.
	// Нулевые поля format означают «как в исходнике».
	DecodeAudio(ctx context.Context, input, output string, format AudioFormat) error

	// EncodeAudio кодирует WAV в формат по расширению output
	EncodeAudio(ctx context.Context, input, output string) error

	// HasAudio сообщает, есть ли в файле аудиодорожка
	HasAudio(ctx context.Context, path string) (bool, error)

	// ReplaceAudio собирает видео из дорожки video и аудио audio в output
	ReplaceAudio(ctx context.Context, video, audio, output string) error
}
