package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"time"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// Registry хранит плагины-детекторы, загруженные один раз на время жизни процесса.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]port.Plugin
	logger  *slog.Logger
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		plugins: make(map[string]port.Plugin),
		logger:  logger.With("component", "registry"),
	}
}

// Register добавляет плагин под его именем.
func (r *Registry) Register(plugin port.Plugin) error {
	name := plugin.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		return entity.NewError(entity.KindConfiguration, "register plugin",
			fmt.Errorf("%w: %q", entity.ErrDuplicatePlugin, name))
	}
	r.plugins[name] = plugin
	r.logger.Info("plugin registered", "plugin", name, "modality", plugin.Modality())
	return nil
}

// Get возвращает плагин по имени. Незарегистрированное имя — ошибка конфигурации.
func (r *Registry) Get(name string) (port.Plugin, error) {
	r.mu.RLock()
	plugin, ok := r.plugins[name]
	r.mu.RUnlock()
	if !ok {
		return nil, entity.NewError(entity.KindConfiguration, "get plugin",
			fmt.Errorf("%w: %q", entity.ErrPluginNotFound, name))
	}
	return plugin, nil
}

// Names возвращает имена зарегистрированных плагинов по алфавиту.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VisualNames оставляет из names только плагины, которые работают с кадрами.
func (r *Registry) VisualNames(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		plugin, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if _, ok := plugin.(port.FrameDetector); ok && plugin.Modality() == entity.ModalityVisual {
			out = append(out, name)
		}
	}
	return out, nil
}

// DetectWith запускает перечисленные плагины на кадре и склеивает их результаты.
// Все имена проверяются до запуска: неизвестное имя прерывает вызов без детекции.
// Сбой отдельного плагина логируется, остальные продолжают работу.
func (r *Registry) DetectWith(ctx context.Context, names []string, frame image.Image) ([]entity.DetectedRegion, error) {
	detectors := make([]port.FrameDetector, 0, len(names))
	for _, name := range names {
		plugin, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		detector, ok := plugin.(port.FrameDetector)
		if !ok || plugin.Modality() != entity.ModalityVisual {
			continue
		}
		detectors = append(detectors, detector)
	}

	var regions []entity.DetectedRegion
	for _, d := range detectors {
		if err := ctx.Err(); err != nil {
			return regions, entity.WrapCall("detect", err)
		}
		start := time.Now()
		found, err := d.Detect(ctx, frame)
		detectDuration.WithLabelValues(d.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			detectCount.WithLabelValues(d.Name(), "error").Inc()
			r.logger.Warn("detector failed, continuing without it", "plugin", d.Name(), "err", err)
			continue
		}
		detectCount.WithLabelValues(d.Name(), "ok").Inc()
		regions = append(regions, found...)
	}
	return regions, nil
}
