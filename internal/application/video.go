package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

const (
	// frameBuffer число кадров в очередях между декодером, обработкой и кодером.
	frameBuffer = 8
	// fallbackFPS используется, когда контейнер не сообщает частоту кадров.
	fallbackFPS = 25
)

// VideoOptions параметры обработки одного видео.
type VideoOptions struct {
	Blacklist entity.Blacklist
	Plugins   []string
	Mode      entity.CensorMode

	// Observer необязательный приёмник кадров для предпросмотра, вызывается после цензуры кадра.
	Observer func(index int, frame image.Image)
}

// VideoStats итог обработки видео.
type VideoStats struct {
	FPS           float64
	Interval      int // кадров между полными детекциями
	Frames        int
	DetectFrames  int
	TrackFrames   int
	TrackerLosses int
	Regions       int // областей, закрытых на кадрах детекции
}

// TrackingInterval число кадров между полными детекциями: полсекунды видео, но не меньше одного кадра.
func TrackingInterval(fps float64) int {
	return max(int(fps)/2, 1)
}

// trackedObject трекер и класс области, по которой он был создан.
type trackedObject struct {
	tracker   port.Tracker
	className string
}

// VideoCensor цензурирует видео: полная детекция раз в TrackingInterval кадров,
// между ними области ведутся трекерами.
type VideoCensor struct {
	registry *Registry
	trackers port.TrackerFactory
	codec    port.VideoCodec
	logger   *slog.Logger
}

// NewVideoCensor создаёт конвейер цензуры видео.
func NewVideoCensor(registry *Registry, trackers port.TrackerFactory, codec port.VideoCodec, logger *slog.Logger) *VideoCensor {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoCensor{
		registry: registry,
		trackers: trackers,
		codec:    codec,
		logger:   logger.With("component", "video"),
	}
}

// CensorFile обрабатывает видеофайл input и записывает кадры без звука в output.
func (v *VideoCensor) CensorFile(ctx context.Context, input, output string, opts VideoOptions) (VideoStats, error) {
	if v.codec == nil {
		return VideoStats{}, entity.NewError(entity.KindConfiguration, "open video", errors.New("video codec is not configured"))
	}
	src, err := v.codec.OpenSource(input)
	if err != nil {
		return VideoStats{}, entity.NewError(entity.KindInput, "open video",
			fmt.Errorf("%w: %v", entity.ErrUnreadableMedia, err))
	}
	defer src.Close()

	fps := src.FPS()
	if fps <= 0 {
		v.logger.Warn("source has no fps, using fallback", "input", input, "fps", fallbackFPS)
		fps = fallbackFPS
	}
	sink := &lazySink{codec: v.codec, path: output, fps: fps}
	stats, err := v.Run(ctx, src, sink, opts)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close video sink: %w", cerr)
	}
	if err != nil {
		return stats, err
	}
	if stats.Frames == 0 {
		return stats, entity.NewError(entity.KindInput, "read video",
			fmt.Errorf("%w: no frames decoded", entity.ErrUnreadableMedia))
	}
	return stats, nil
}

// Run прогоняет кадры из src через автомат DETECT/TRACK и пишет их в sink в исходном порядке.
// Декодирование и кодирование идут в отдельных горутинах, состояние трекеров — только в вызывающей.
func (v *VideoCensor) Run(ctx context.Context, src port.FrameSource, sink port.FrameSink, opts VideoOptions) (VideoStats, error) {
	plugins, err := v.registry.VisualNames(opts.Plugins)
	if err != nil {
		return VideoStats{}, err
	}

	fps := src.FPS()
	if fps <= 0 {
		fps = fallbackFPS
	}
	stats := VideoStats{FPS: fps, Interval: TrackingInterval(fps)}

	g, gctx := errgroup.WithContext(ctx)
	decoded := make(chan *image.RGBA, frameBuffer)
	censored := make(chan *image.RGBA, frameBuffer)

	g.Go(func() error {
		defer close(decoded)
		for {
			frame, err := src.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					v.logger.Debug("frame decode failed, treating as end of stream", "err", err)
				}
				return nil
			}
			select {
			case decoded <- frame:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for frame := range censored {
			if err := sink.Write(frame); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(censored)
		var objects []trackedObject
		defer func() { closeTrackers(objects) }()

		for frame := range decoded {
			index := stats.Frames
			if index%stats.Interval == 0 {
				var (
					n    int
					derr error
				)
				objects, n, derr = v.detect(gctx, frame, objects, plugins, opts)
				if derr != nil {
					return derr
				}
				stats.DetectFrames++
				stats.Regions += n
				framesProcessed.WithLabelValues("detect").Inc()
			} else {
				var lost int
				objects, lost = v.track(frame, objects, opts)
				stats.TrackFrames++
				stats.TrackerLosses += lost
				framesProcessed.WithLabelValues("track").Inc()
			}
			stats.Frames++

			if opts.Observer != nil {
				opts.Observer(index, frame)
			}
			select {
			case censored <- frame:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, entity.WrapCall("censor video", err)
	}
	return stats, nil
}

// detect выполняет полную детекцию: старые трекеры закрываются, для каждой области
// из чёрного списка создаётся новый трекер с её классом на той же позиции.
func (v *VideoCensor) detect(ctx context.Context, frame *image.RGBA, old []trackedObject, plugins []string, opts VideoOptions) ([]trackedObject, int, error) {
	closeTrackers(old)

	regions, err := v.registry.DetectWith(ctx, plugins, frame)
	if err != nil {
		return nil, 0, err
	}

	var blacklisted []entity.DetectedRegion
	objects := make([]trackedObject, 0, len(regions))
	for _, region := range regions {
		if !opts.Blacklist.Contains(region.ClassName) {
			continue
		}
		blacklisted = append(blacklisted, region)
		if v.trackers == nil {
			continue
		}
		// Трекер инициализируется по ещё не тронутому кадру.
		tracker, err := v.trackers.NewTracker(frame, region.Box)
		if err != nil {
			v.logger.Warn("tracker init failed", "class", region.ClassName, "err", err)
			continue
		}
		objects = append(objects, trackedObject{tracker: tracker, className: region.ClassName})
	}

	censorRegions(frame, blacklisted, opts.Blacklist, opts.Mode)
	return objects, len(blacklisted), nil
}

// track сдвигает все трекеры на кадр и закрывает области. Потерянные трекеры
// отбрасываются до следующей детекции.
func (v *VideoCensor) track(frame *image.RGBA, objects []trackedObject, opts VideoOptions) ([]trackedObject, int) {
	alive := objects[:0]
	var regions []entity.DetectedRegion
	lost := 0
	for _, obj := range objects {
		box, ok := obj.tracker.Update(frame)
		if !ok || box.Empty() {
			lost++
			trackerLosses.Inc()
			_ = obj.tracker.Close()
			continue
		}
		alive = append(alive, obj)
		regions = append(regions, entity.DetectedRegion{ClassName: obj.className, Box: box})
	}
	censorRegions(frame, regions, opts.Blacklist, opts.Mode)
	return alive, lost
}

func closeTrackers(objects []trackedObject) {
	for _, obj := range objects {
		_ = obj.tracker.Close()
	}
}

// lazySink создаёт файл видео по размеру первого кадра.
type lazySink struct {
	codec port.VideoCodec
	path  string
	fps   float64
	sink  port.FrameSink
}

func (s *lazySink) Write(frame *image.RGBA) error {
	if s.sink == nil {
		b := frame.Bounds()
		sink, err := s.codec.CreateSink(s.path, s.fps, b.Dx(), b.Dy())
		if err != nil {
			return fmt.Errorf("create video sink: %w", err)
		}
		s.sink = sink
	}
	return s.sink.Write(frame)
}

func (s *lazySink) Close() error {
	if s.sink == nil {
		return nil
	}
	err := s.sink.Close()
	s.sink = nil
	return err
}

// FrameCollector собирает кадры в памяти, в порядке записи.
type FrameCollector struct {
	Frames []*image.RGBA
}

func (c *FrameCollector) Write(frame *image.RGBA) error {
	c.Frames = append(c.Frames, frame)
	return nil
}

func (c *FrameCollector) Close() error {
	return nil
}
