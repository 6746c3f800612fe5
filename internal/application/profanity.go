package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
	"censor-bot/internal/infrastructure/audio"
	"censor-bot/internal/infrastructure/workspace"
)

const (
	// TranscriptionSampleRate частота, которую ожидает распознаватель речи.
	TranscriptionSampleRate = 16000
	// transcriptionChunkFrames кадров в одном куске, отправляемом распознавателю.
	transcriptionChunkFrames = 4000
)

// FailurePolicy поведение при пустом или неразборчивом ответе классификатора.
type FailurePolicy string

const (
	// FailOpen пропускает аудио без цензуры и пишет предупреждение.
	FailOpen FailurePolicy = "open"
	// FailClosed прерывает запрос ошибкой классификации.
	FailClosed FailurePolicy = "closed"
)

// ParseFailurePolicy разбирает политику из строки, пустая строка — FailOpen.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case FailOpen, "":
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	}
	return "", fmt.Errorf("unknown classifier failure policy %q", s)
}

// ProfanityService плагин поиска нецензурной речи: распознавание речи с метками слов
// и классификация транскрипции языковой моделью.
type ProfanityService struct {
	codec       port.MediaCodec
	transcriber port.Transcriber
	classifier  port.ProfanityClassifier
	policy      FailurePolicy
	tempRoot    string
	logger      *slog.Logger
}

// NewProfanityService создаёт плагин bad_words_detector.
func NewProfanityService(codec port.MediaCodec, transcriber port.Transcriber, classifier port.ProfanityClassifier, policy FailurePolicy, tempRoot string, logger *slog.Logger) *ProfanityService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = FailOpen
	}
	return &ProfanityService{
		codec:       codec,
		transcriber: transcriber,
		classifier:  classifier,
		policy:      policy,
		tempRoot:    tempRoot,
		logger:      logger.With("component", "profanity"),
	}
}

func (s *ProfanityService) Name() string {
	return entity.PluginBadWords
}

func (s *ProfanityService) Modality() entity.Modality {
	return entity.ModalityAudio
}

// DetectSpeech находит отрезки нецензурной речи в аудиофайле.
func (s *ProfanityService) DetectSpeech(ctx context.Context, audioPath string) ([]entity.ProfanityInterval, error) {
	arena, err := workspace.New(s.tempRoot, "speech")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer arena.Close()

	pcm, err := s.normalize(ctx, audioPath, arena.Path("canonical.wav"))
	if err != nil {
		return nil, err
	}

	words, err := s.Transcribe(ctx, pcm)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("transcribed", "words", len(words), "seconds", pcm.Seconds())
	if len(words) == 0 {
		return nil, nil
	}

	return s.Classify(ctx, words, pcm.Seconds())
}

// normalize приводит аудио к моно 16 кГц PCM s16le. Другое число каналов после
// преобразования — ошибка входных данных.
func (s *ProfanityService) normalize(ctx context.Context, input, output string) (*audio.PCM, error) {
	format := port.AudioFormat{SampleRate: TranscriptionSampleRate, Channels: 1}
	if err := s.codec.DecodeAudio(ctx, input, output, format); err != nil {
		if entity.IsRetryable(err) {
			return nil, entity.WrapCall("normalize audio", err)
		}
		return nil, entity.NewError(entity.KindInput, "normalize audio", err)
	}
	pcm, err := audio.ReadWAV(output)
	if err != nil {
		return nil, entity.NewError(entity.KindInput, "normalize audio", err)
	}
	if pcm.Channels != 1 {
		return nil, entity.NewError(entity.KindInput, "normalize audio",
			fmt.Errorf("%w: got %d, want 1", entity.ErrChannelCount, pcm.Channels))
	}
	if pcm.SampleRate != TranscriptionSampleRate {
		return nil, entity.NewError(entity.KindInput, "normalize audio",
			fmt.Errorf("sample rate %d, want %d", pcm.SampleRate, TranscriptionSampleRate))
	}
	return pcm, nil
}

// Transcribe отправляет аудио распознавателю кусками и собирает слова по всем кускам,
// в конце выполняя один завершающий Flush.
func (s *ProfanityService) Transcribe(ctx context.Context, pcm *audio.PCM) ([]entity.WordTimestamp, error) {
	session, err := s.transcriber.NewSession(ctx, pcm.SampleRate)
	if err != nil {
		return nil, entity.WrapCall("open transcription session", err)
	}
	defer session.Close()

	data := PCM16LE(pcm.Samples)
	chunk := transcriptionChunkFrames * 2 * pcm.Channels

	var words []entity.WordTimestamp
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		part, err := session.Accept(ctx, data[off:end])
		if err != nil {
			return nil, entity.WrapCall("transcribe", err)
		}
		words = append(words, part...)
	}
	final, err := session.Flush(ctx)
	if err != nil {
		return nil, entity.WrapCall("transcribe flush", err)
	}
	return append(words, final...), nil
}

// Classify отправляет транскрипцию классификатору и разбирает ответ в отрезки.
func (s *ProfanityService) Classify(ctx context.Context, words []entity.WordTimestamp, total float64) ([]entity.ProfanityInterval, error) {
	raw, err := s.classifier.Classify(ctx, FormatTranscript(words))
	if err != nil {
		if entity.IsRetryable(err) {
			return nil, entity.WrapCall("classify profanity", err)
		}
		return s.onFailure(fmt.Errorf("classifier call: %w", err))
	}

	intervals, err := ParseProfanityResponse(raw)
	if err != nil {
		return s.onFailure(err)
	}
	intervals = entity.NormalizeIntervals(intervals, total)
	s.logger.Info("profanity classified", "words", len(words), "intervals", len(intervals))
	return intervals, nil
}

func (s *ProfanityService) onFailure(err error) ([]entity.ProfanityInterval, error) {
	if s.policy == FailClosed {
		return nil, entity.NewError(entity.KindClassification, "classify profanity", err)
	}
	s.logger.Warn("profanity classification unusable, passing audio through", "err", err)
	return nil, nil
}

// FormatTranscript строит текст транскрипции по строке на слово.
func FormatTranscript(words []entity.WordTimestamp) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Word: %s, Start: %s, End: %s", w.Word, formatSeconds(w.Start), formatSeconds(w.End))
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PCM16LE упаковывает 16-битные отсчёты в little-endian байты.
func PCM16LE(samples []int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}

// flexFloat принимает число и в виде JSON-числа, и в виде строки.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

type profanityItem struct {
	Word  string    `json:"word"`
	Start flexFloat `json:"start"`
	End   flexFloat `json:"end"`
}

type profanityResponse struct {
	ProfanityTimestamps *[]profanityItem `json:"profanity_timestamps"`
}

// ParseProfanityResponse разбирает ответ классификатора вида
// {"profanity_timestamps":[{"word":..,"start":..,"end":..}]}, допускает обёртку ```json и
// голый массив. Пустой или неразборчивый ответ — ErrMalformedClassification.
func ParseProfanityResponse(raw string) ([]entity.ProfanityInterval, error) {
	content := stripCodeFence(stripThinkBlock(strings.TrimSpace(raw)))
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", entity.ErrMalformedClassification)
	}

	var items []profanityItem
	if obj := extractJSON(content, '{', '}'); obj != "" {
		var resp profanityResponse
		if err := json.Unmarshal([]byte(obj), &resp); err == nil && resp.ProfanityTimestamps != nil {
			items = *resp.ProfanityTimestamps
			return toIntervals(items), nil
		}
	}
	if arr := extractJSON(content, '[', ']'); arr != "" {
		if err := json.Unmarshal([]byte(arr), &items); err == nil {
			return toIntervals(items), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrMalformedClassification, truncate(content, 200))
}

func toIntervals(items []profanityItem) []entity.ProfanityInterval {
	out := make([]entity.ProfanityInterval, 0, len(items))
	for _, it := range items {
		out = append(out, entity.ProfanityInterval{Start: float64(it.Start), End: float64(it.End)})
	}
	return out
}

// extractJSON находит первую подстроку от open до последнего close.
func extractJSON(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return ""
	}
	return s[start : end+1]
}

// stripThinkBlock убирает блок <think>...</think>, который некоторые модели пишут перед ответом.
func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s, close)
	if end < 0 {
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len(close):])
}

// stripCodeFence снимает обёртку ```json ... ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ port.SpeechDetector = (*ProfanityService)(nil)

// errNoSpeechDetector возвращается, если в реестре под именем bad_words_detector лежит не аудиоплагин.
var errNoSpeechDetector = errors.New("plugin does not detect speech")
