package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"censor-bot/config"
	app "censor-bot/internal/application"
	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
	"censor-bot/internal/infrastructure/httpclient"
	"censor-bot/internal/infrastructure/llm"
	"censor-bot/internal/infrastructure/media"
	"censor-bot/internal/infrastructure/remote"
	"censor-bot/internal/infrastructure/speech"
	"censor-bot/internal/infrastructure/vision"
)

type Container struct {
	UserService   *app.UserService
	CensorService *app.CensorService
	Orchestrator  *app.Orchestrator
	Registry      *app.Registry

	closers []io.Closer
}

// visualPlugin строка таблицы регистрации визуальных детекторов.
type visualPlugin struct {
	name  string
	model string
}

func visualPlugins(cfg *config.Config) []visualPlugin {
	return []visualPlugin{
		{name: entity.PluginCigarette, model: cfg.CigaretteModel},
		{name: entity.PluginNude, model: cfg.NudeModel},
		{name: entity.PluginExtremism, model: cfg.ExtremismModel},
	}
}

// Plugins имена плагинов стандартного каталога, для чтения их настроек.
func Plugins() []string {
	return entity.DefaultCatalog().Plugins()
}

// BuildRegistry регистрирует детекторы по статической таблице. Плагин, который не удалось
// загрузить, пропускается с предупреждением: запросы к его категориям завершатся ошибкой конфигурации.
func BuildRegistry(cfg *config.Config, catalog entity.Catalog, codec port.MediaCodec, logger *slog.Logger) (*app.Registry, []io.Closer, error) {
	registry := app.NewRegistry(logger)
	client := httpclient.New(2*time.Minute, httpclient.WithLogger(logger.With("subsystem", "httpclient")))
	var closers []io.Closer

	for _, p := range visualPlugins(cfg) {
		var plugin port.FrameDetector
		if url, ok := cfg.RemoteDetectors[p.name]; ok {
			plugin = remote.NewDetector(p.name, url, cfg.DetectorToken, client, logger)
		} else {
			det, err := vision.NewDNNDetector(vision.DefaultConfig(p.name, p.model, catalog[p.name]))
			if err != nil {
				logger.Warn("detector is not available", "plugin", p.name, "model", p.model, "err", err)
				continue
			}
			closers = append(closers, det)
			plugin = det
		}
		if err := registry.Register(plugin); err != nil {
			return nil, closers, err
		}
	}

	if cfg.VoskURL == "" || cfg.LLMURL == "" {
		logger.Warn("speech censoring is not configured", "plugin", entity.PluginBadWords, "vosk", cfg.VoskURL, "llm", cfg.LLMURL)
		return registry, closers, nil
	}
	policy, err := app.ParseFailurePolicy(cfg.ClassifierFailurePolicy)
	if err != nil {
		return nil, closers, entity.NewError(entity.KindConfiguration, "build registry", err)
	}
	profanity := app.NewProfanityService(
		codec,
		speech.NewVoskTranscriber(cfg.VoskURL, logger),
		llm.New(cfg.LLMURL, cfg.LLMModel, cfg.LLMToken, cfg.LLMTemperature, client, logger),
		policy,
		cfg.TempDir,
		logger,
	)
	if err := registry.Register(profanity); err != nil {
		return nil, closers, err
	}
	return registry, closers, nil
}

func New(ctx context.Context, cfg *config.Config, userRepo port.UserRepository, logger *slog.Logger) (*Container, error) {
	catalog := entity.DefaultCatalog()
	codec := media.NewCodec(cfg.FFmpegPath, cfg.FFprobePath, logger)

	registry, closers, err := BuildRegistry(cfg, catalog, codec, logger)
	c := &Container{closers: closers}
	if err != nil {
		c.Close()
		return nil, err
	}

	tone, err := app.LoadTone(ctx, codec, cfg.CensorTone, cfg.TempDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load censor tone: %w", err)
	}

	orchestrator := app.NewOrchestrator(app.OrchestratorConfig{
		Catalog:           catalog,
		Registry:          registry,
		Codec:             codec,
		Images:            app.NewImageCensor(registry),
		Videos:            app.NewVideoCensor(registry, vision.NewCSRTFactory(), vision.NewVideoCodec(), logger),
		Audio:             app.NewAudioCensor(codec, tone, logger),
		TempRoot:          cfg.TempDir,
		DurationTolerance: cfg.DurationTolerance,
		Logger:            logger,
	})
	userService := app.NewUserService(userRepo, catalog)

	c.UserService = userService
	c.CensorService = app.NewCensorService(userService, orchestrator, cfg.MaxConcurrent)
	c.Orchestrator = orchestrator
	c.Registry = registry
	return c, nil
}

// Close освобождает загруженные модели.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}
