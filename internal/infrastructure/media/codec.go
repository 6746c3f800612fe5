// Package media вызывает ffmpeg и ffprobe для работы с аудиодорожками и контейнерами.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// Codec реализация port.MediaCodec поверх бинарников ffmpeg.
type Codec struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewCodec создаёт кодек. Пустые пути означают поиск ffmpeg и ffprobe в PATH.
func NewCodec(ffmpeg, ffprobe string, logger *slog.Logger) *Codec {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{ffmpeg: ffmpeg, ffprobe: ffprobe, logger: logger.With("component", "ffmpeg")}
}

var extensionKinds = map[string]entity.MediaKind{
	".jpg":  entity.MediaImage,
	".jpeg": entity.MediaImage,
	".png":  entity.MediaImage,
	".bmp":  entity.MediaImage,
	".webp": entity.MediaImage,
	".mp4":  entity.MediaVideo,
	".avi":  entity.MediaVideo,
	".mov":  entity.MediaVideo,
	".mkv":  entity.MediaVideo,
	".webm": entity.MediaVideo,
	".wav":  entity.MediaAudio,
	".mp3":  entity.MediaAudio,
	".ogg":  entity.MediaAudio,
	".oga":  entity.MediaAudio,
	".flac": entity.MediaAudio,
	".m4a":  entity.MediaAudio,
}

// DetectKind определяет тип файла по содержимому, а если содержимое не распознано — по расширению.
func (c *Codec) DetectKind(path string) (entity.MediaKind, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrUnreadableMedia, err)
	}
	if kind, ok := kindFromMIME(mime); ok {
		return kind, nil
	}
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]; ok && mime.Is("application/octet-stream") {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedMedia, mime.String())
}

func kindFromMIME(mime *mimetype.MIME) (entity.MediaKind, bool) {
	for m := mime; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"):
			return entity.MediaImage, true
		case strings.HasPrefix(m.String(), "video/"):
			return entity.MediaVideo, true
		case strings.HasPrefix(m.String(), "audio/"):
			return entity.MediaAudio, true
		}
	}
	return "", false
}

// DecodeAudio извлекает аудио в PCM s16le WAV.
func (c *Codec) DecodeAudio(ctx context.Context, input, output string, format port.AudioFormat) error {
	return c.run(ctx, c.ffmpeg, decodeArgs(input, output, format)...)
}

// EncodeAudio перекодирует WAV в формат по расширению output.
func (c *Codec) EncodeAudio(ctx context.Context, input, output string) error {
	return c.run(ctx, c.ffmpeg, "-y", "-v", "error", "-i", input, output)
}

// HasAudio проверяет наличие аудиопотока через ffprobe.
func (c *Codec) HasAudio(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, c.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return false, entity.WrapCall("ffprobe", ctx.Err())
		}
		return false, fmt.Errorf("ffprobe failed: %w, output: %s", err, string(out))
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// ReplaceAudio собирает контейнер из видеопотока video и аудио audio без перекодирования видео.
func (c *Codec) ReplaceAudio(ctx context.Context, video, audio, output string) error {
	return c.run(ctx, c.ffmpeg, replaceArgs(video, audio, output)...)
}

func decodeArgs(input, output string, format port.AudioFormat) []string {
	args := []string{"-y", "-v", "error", "-i", input, "-vn", "-acodec", "pcm_s16le"}
	if format.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(format.SampleRate))
	}
	if format.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(format.Channels))
	}
	return append(args, output)
}

// replaceArgs копирует видеопоток, если контейнер не меняется, иначе перекодирует его под контейнер output.
func replaceArgs(video, audio, output string) []string {
	args := []string{
		"-y", "-v", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	webm := strings.EqualFold(filepath.Ext(output), ".webm")
	switch {
	case strings.EqualFold(filepath.Ext(video), filepath.Ext(output)):
		args = append(args, "-c:v", "copy")
	case webm:
		args = append(args, "-c:v", "libvpx")
	default:
		args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p")
	}
	if webm {
		args = append(args, "-c:a", "libopus")
	} else {
		args = append(args, "-c:a", "aac")
	}
	return append(args, output)
}

func (c *Codec) run(ctx context.Context, name string, args ...string) error {
	c.logger.Debug("exec", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return entity.WrapCall(filepath.Base(name), ctx.Err())
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Бинарник не запустился.
		return entity.NewError(entity.KindConfiguration, filepath.Base(name), err)
	}
	return fmt.Errorf("%s failed: %w, output: %s", filepath.Base(name), err, strings.TrimSpace(string(out)))
}

var _ port.MediaCodec = (*Codec)(nil)
