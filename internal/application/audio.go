package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
	"censor-bot/internal/infrastructure/audio"
	"censor-bot/internal/infrastructure/workspace"
)

// DefaultToneDuration длительность стандартного сигнала цензуры.
const DefaultToneDuration = 400 * time.Millisecond

// AudioResult итог цензуры аудиодорожки.
type AudioResult struct {
	Intervals      []entity.ProfanityInterval
	SampleRate     int
	Channels       int
	OriginalFrames int
	CensoredFrames int
}

// Seconds длительность результата.
func (r AudioResult) Seconds() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(r.CensoredFrames) / float64(r.SampleRate)
}

// AudioCensor заменяет нецензурные отрезки аудио сигналом, сохраняя длительность.
type AudioCensor struct {
	codec  port.MediaCodec
	tone   *audio.PCM
	logger *slog.Logger
}

// NewAudioCensor создаёт цензор аудио. tone == nil — стандартный сигнал 1 кГц.
func NewAudioCensor(codec port.MediaCodec, tone *audio.PCM, logger *slog.Logger) *AudioCensor {
	if logger == nil {
		logger = slog.Default()
	}
	if tone == nil {
		tone = audio.Beep(TranscriptionSampleRate, 1, 16, DefaultToneDuration, audio.DefaultToneHz)
	}
	return &AudioCensor{codec: codec, tone: tone, logger: logger.With("component", "audio")}
}

// CensorTrack извлекает аудио из input (аудиофайл или видео) без смены частоты и числа каналов,
// находит нецензурные отрезки плагином speech и записывает склеенный результат в WAV output.
func (a *AudioCensor) CensorTrack(ctx context.Context, speech port.SpeechDetector, input, output string, arena *workspace.Arena) (AudioResult, error) {
	original := arena.Path("original.wav")
	if err := a.codec.DecodeAudio(ctx, input, original, port.AudioFormat{}); err != nil {
		if entity.IsRetryable(err) {
			return AudioResult{}, entity.WrapCall("decode audio", err)
		}
		return AudioResult{}, entity.NewError(entity.KindInput, "decode audio",
			fmt.Errorf("%w: %v", entity.ErrUnreadableMedia, err))
	}
	pcm, err := audio.ReadWAV(original)
	if err != nil {
		return AudioResult{}, entity.NewError(entity.KindInput, "decode audio", err)
	}

	intervals, err := speech.DetectSpeech(ctx, original)
	if err != nil {
		return AudioResult{}, err
	}
	intervals = entity.NormalizeIntervals(intervals, pcm.Seconds())

	spliced, err := audio.Splice(pcm, intervals, a.tone)
	if err != nil {
		return AudioResult{}, entity.NewError(entity.KindIntegrity, "splice audio", err)
	}
	if err := audio.WriteWAV(output, spliced); err != nil {
		return AudioResult{}, fmt.Errorf("write censored audio: %w", err)
	}
	mutedIntervals.Add(float64(len(intervals)))
	var muted float64
	for _, iv := range intervals {
		muted += iv.Duration()
	}
	a.logger.Info("audio censored", "intervals", len(intervals), "muted_seconds", muted, "duration", spliced.Duration())

	return AudioResult{
		Intervals:      intervals,
		SampleRate:     pcm.SampleRate,
		Channels:       pcm.Channels,
		OriginalFrames: pcm.Frames(),
		CensoredFrames: spliced.Frames(),
	}, nil
}

// LoadTone читает сигнал цензуры из файла. WAV читается напрямую, остальные форматы
// декодируются кодеком. Пустой path — стандартный сигнал.
func LoadTone(ctx context.Context, codec port.MediaCodec, path, tempRoot string) (*audio.PCM, error) {
	if path == "" {
		return audio.Beep(TranscriptionSampleRate, 1, 16, DefaultToneDuration, audio.DefaultToneHz), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.ReadWAV(path)
	}
	arena, err := workspace.New(tempRoot, "tone")
	if err != nil {
		return nil, err
	}
	defer arena.Close()

	wav := arena.Path("tone.wav")
	if err := codec.DecodeAudio(ctx, path, wav, port.AudioFormat{}); err != nil {
		return nil, fmt.Errorf("decode tone: %w", err)
	}
	return audio.ReadWAV(wav)
}
