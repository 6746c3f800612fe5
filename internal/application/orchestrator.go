package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
	"censor-bot/internal/infrastructure/workspace"
)

// DefaultDurationTolerance допустимое расхождение длительности видео и аудиодорожки.
const DefaultDurationTolerance = 250 * time.Millisecond

// OrchestratorConfig зависимости и параметры оркестратора.
type OrchestratorConfig struct {
	Catalog           entity.Catalog
	Registry          *Registry
	Codec             port.MediaCodec
	Images            *ImageCensor
	Videos            *VideoCensor
	Audio             *AudioCensor
	TempRoot          string
	DurationTolerance time.Duration
	Logger            *slog.Logger
}

// Orchestrator определяет тип файла, выбирает плагины по чёрному списку и запускает нужный конвейер.
type Orchestrator struct {
	catalog   entity.Catalog
	registry  *Registry
	codec     port.MediaCodec
	images    *ImageCensor
	videos    *VideoCensor
	audio     *AudioCensor
	tempRoot  string
	tolerance time.Duration
	logger    *slog.Logger
}

// NewOrchestrator создаёт оркестратор.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Catalog == nil {
		cfg.Catalog = entity.DefaultCatalog()
	}
	if cfg.DurationTolerance <= 0 {
		cfg.DurationTolerance = DefaultDurationTolerance
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		catalog:   cfg.Catalog,
		registry:  cfg.Registry,
		codec:     cfg.Codec,
		images:    cfg.Images,
		videos:    cfg.Videos,
		audio:     cfg.Audio,
		tempRoot:  cfg.TempRoot,
		tolerance: cfg.DurationTolerance,
		logger:    cfg.Logger.With("component", "orchestrator"),
	}
}

// Catalog каталог категорий.
func (o *Orchestrator) Catalog() entity.Catalog {
	return o.catalog
}

// OutputPath путь результата по умолчанию: censor_<имя> рядом с исходником.
func OutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), "censor_"+filepath.Base(input))
}

// ResolvePlugins сопоставляет чёрный список зарегистрированным плагинам.
// Пустой список выбирает все зарегистрированные плагины и все их категории.
func (o *Orchestrator) ResolvePlugins(blacklist entity.Blacklist) ([]string, entity.Blacklist, error) {
	if blacklist.Empty() {
		names := o.registry.Names()
		var labels []string
		for _, name := range names {
			labels = append(labels, o.catalog[name]...)
		}
		return names, entity.NewBlacklist(labels...), nil
	}

	plugins, resolved, err := o.catalog.Resolve(blacklist)
	if err != nil {
		return nil, entity.Blacklist{}, err
	}
	for _, name := range plugins {
		if _, err := o.registry.Get(name); err != nil {
			return nil, entity.Blacklist{}, err
		}
	}
	return plugins, resolved, nil
}

// Process выполняет один запрос на цензуру. При фатальной ошибке результат не создаётся.
func (o *Orchestrator) Process(ctx context.Context, req entity.CensorRequest) (resp entity.CensorResponse, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = string(entity.KindOf(err))
		}
		kind := string(resp.Kind)
		if kind == "" {
			kind = "unknown"
		}
		requestCount.WithLabelValues(kind, status).Inc()
		requestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	if _, err := os.Stat(req.Input); err != nil {
		return resp, entity.NewError(entity.KindInput, "open input", fmt.Errorf("%w: %v", entity.ErrUnreadableMedia, err))
	}
	kind, err := o.codec.DetectKind(req.Input)
	if err != nil {
		return resp, entity.NewError(entity.KindInput, "detect media type", err)
	}
	resp.Kind = kind

	plugins, blacklist, err := o.ResolvePlugins(req.Blacklist)
	if err != nil {
		return resp, err
	}
	resp.Plugins = plugins

	mode, err := entity.ParseCensorMode(string(req.Mode))
	if err != nil {
		return resp, err
	}

	output := req.Output
	if output == "" {
		output = OutputPath(req.Input)
	}
	output = outputFor(kind, output)

	arena, err := workspace.New(o.tempRoot, "censor")
	if err != nil {
		return resp, fmt.Errorf("create workspace: %w", err)
	}
	defer arena.Close()

	log := o.logger.With("input", req.Input, "kind", kind, "plugins", plugins)
	log.Info("processing request", "blacklist", blacklist.Labels(), "mode", mode)

	var artifact string
	switch kind {
	case entity.MediaImage:
		artifact, err = o.processImage(ctx, req.Input, output, blacklist, plugins, mode, arena, &resp)
	case entity.MediaVideo:
		artifact, err = o.processVideo(ctx, req.Input, output, blacklist, plugins, mode, arena, &resp)
	case entity.MediaAudio:
		artifact, err = o.processAudio(ctx, req.Input, output, plugins, arena, &resp)
	default:
		err = entity.NewError(entity.KindInput, "dispatch", fmt.Errorf("%w: %s", entity.ErrUnsupportedMedia, kind))
	}
	if err != nil {
		if entity.IsFatal(err) {
			log.Warn("request rejected", "error_kind", entity.KindOf(err), "err", err)
		} else {
			log.Error("request failed", "err", err)
		}
		return resp, err
	}

	if err := moveFile(artifact, output); err != nil {
		return resp, fmt.Errorf("write output: %w", err)
	}
	resp.Output = output
	log.Info("request done", "output", output, "regions", resp.Regions, "muted", len(resp.MutedIntervals), "elapsed", time.Since(start))
	return resp, nil
}

func (o *Orchestrator) processImage(ctx context.Context, input, output string, blacklist entity.Blacklist, plugins []string, mode entity.CensorMode, arena *workspace.Arena, resp *entity.CensorResponse) (string, error) {
	visual, err := o.registry.VisualNames(plugins)
	if err != nil {
		return "", err
	}
	tmp := arena.Path("image" + filepath.Ext(output))
	regions, err := o.images.CensorFile(ctx, input, tmp, blacklist, visual, mode)
	if err != nil {
		return "", err
	}
	resp.Regions = len(regions)
	return tmp, nil
}

func (o *Orchestrator) processVideo(ctx context.Context, input, output string, blacklist entity.Blacklist, plugins []string, mode entity.CensorMode, arena *workspace.Arena, resp *entity.CensorResponse) (string, error) {
	hasAudio, err := o.codec.HasAudio(ctx, input)
	if err != nil {
		return "", entity.NewError(entity.KindInput, "probe video", err)
	}
	var speech port.SpeechDetector
	if slices.Contains(plugins, entity.PluginBadWords) {
		if hasAudio {
			if speech, err = o.speechDetector(); err != nil {
				return "", err
			}
		} else {
			o.logger.Info("video has no audio track, skipping speech censoring", "input", input)
		}
	}

	frames := arena.Path("frames" + filepath.Ext(output))
	censoredAudio := arena.Path("censored.wav")

	var (
		stats VideoStats
		track AudioResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = o.videos.CensorFile(gctx, input, frames, VideoOptions{
			Blacklist: blacklist,
			Plugins:   plugins,
			Mode:      mode,
		})
		return err
	})
	if speech != nil {
		g.Go(func() error {
			var err error
			track, err = o.audio.CensorTrack(gctx, speech, input, censoredAudio, arena)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	resp.Frames = stats.Frames
	resp.DetectFrames = stats.DetectFrames
	resp.Regions = stats.Regions
	resp.MutedIntervals = track.Intervals

	if !hasAudio {
		return frames, nil
	}

	audioSrc := input
	if speech != nil {
		if err := o.verifyDuration(stats, track); err != nil {
			return "", err
		}
		audioSrc = censoredAudio
	}

	muxed := arena.Path("muxed" + filepath.Ext(output))
	if err := o.codec.ReplaceAudio(ctx, frames, audioSrc, muxed); err != nil {
		return "", entity.WrapCall("attach audio", err)
	}
	return muxed, nil
}

// verifyDuration проверяет, что цензура не изменила длину дорожки и что дорожка совпадает с видео.
func (o *Orchestrator) verifyDuration(stats VideoStats, track AudioResult) error {
	if track.CensoredFrames != track.OriginalFrames {
		return entity.NewError(entity.KindIntegrity, "verify audio",
			fmt.Errorf("%w: censored %d frames, original %d", entity.ErrDurationMismatch, track.CensoredFrames, track.OriginalFrames))
	}
	if stats.FPS <= 0 {
		return nil
	}
	video := float64(stats.Frames) / stats.FPS
	diff := math.Abs(video - track.Seconds())
	if diff > o.tolerance.Seconds() {
		return entity.NewError(entity.KindIntegrity, "verify audio",
			fmt.Errorf("%w: video %.3fs, audio %.3fs", entity.ErrDurationMismatch, video, track.Seconds()))
	}
	return nil
}

func (o *Orchestrator) processAudio(ctx context.Context, input, output string, plugins []string, arena *workspace.Arena, resp *entity.CensorResponse) (string, error) {
	if !slices.Contains(plugins, entity.PluginBadWords) {
		o.logger.Info("no audio categories requested, copying input", "input", input)
		tmp := arena.Path("passthrough" + filepath.Ext(output))
		if err := copyFile(input, tmp); err != nil {
			return "", err
		}
		return tmp, nil
	}
	speech, err := o.speechDetector()
	if err != nil {
		return "", err
	}

	censored := arena.Path("censored.wav")
	track, err := o.audio.CensorTrack(ctx, speech, input, censored, arena)
	if err != nil {
		return "", err
	}
	resp.MutedIntervals = track.Intervals

	if strings.EqualFold(filepath.Ext(output), ".wav") {
		return censored, nil
	}
	encoded := arena.Path("encoded" + filepath.Ext(output))
	if err := o.codec.EncodeAudio(ctx, censored, encoded); err != nil {
		return "", entity.WrapCall("encode audio", err)
	}
	return encoded, nil
}

func (o *Orchestrator) speechDetector() (port.SpeechDetector, error) {
	plugin, err := o.registry.Get(entity.PluginBadWords)
	if err != nil {
		return nil, err
	}
	speech, ok := plugin.(port.SpeechDetector)
	if !ok {
		return nil, entity.NewError(entity.KindConfiguration, "get speech plugin",
			fmt.Errorf("%w: %q", errNoSpeechDetector, entity.PluginBadWords))
	}
	return speech, nil
}

// outputFor меняет расширение output на формат, в котором результат действительно записывается.
func outputFor(kind entity.MediaKind, output string) string {
	ext := filepath.Ext(output)
	var want string
	switch kind {
	case entity.MediaImage:
		want = imageExt(ext)
	case entity.MediaVideo:
		want = videoExt(ext)
	default:
		return output
	}
	if want == ext {
		return output
	}
	return strings.TrimSuffix(output, ext) + want
}

// imageExt расширения, для которых есть кодировщик. WebP только читается, поэтому пишется PNG.
func imageExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return ext
	}
	return ".png"
}

func videoExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp4", ".avi", ".mov", ".mkv", ".webm":
		return ext
	}
	return ".mp4"
}

// moveFile переносит файл, при переносе между файловыми системами копирует его.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Join(err, os.Remove(dst))
	}
	return out.Close()
}
