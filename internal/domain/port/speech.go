package port

import (
	"context"

	"censor-bot/internal/domain/entity"
)

// Transcriber сервис распознавания речи с пословными метками времени
type Transcriber interface {
	// NewSession открывает сеанс распознавания для моно PCM s16le с частотой sampleRate
	NewSession(ctx context.Context, sampleRate int) (TranscriptionSession, error)
}

// TranscriptionSession сеанс распознавания, хранит состояние между кусками аудио
type TranscriptionSession interface {
	// Accept передаёт очередной кусок PCM и возвращает слова, которые распознаватель уже зафиксировал
	Accept(ctx context.Context, pcm []byte) ([]entity.WordTimestamp, error)

	// Flush завершает сеанс и возвращает оставшиеся слова
	Flush(ctx context.Context) ([]entity.WordTimestamp, error)

	Close() error
}

// ProfanityClassifier языковая модель, которая отмечает нецензурные слова в транскрипции
type ProfanityClassifier interface {
	// Classify возвращает сырой текст ответа модели
	Classify(ctx context.Context, transcript string) (string, error)
}
