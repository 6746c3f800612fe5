package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
	"censor-bot/internal/infrastructure/audio"
)

type fakeDetector struct {
	name    string
	regions []entity.DetectedRegion
	err     error
	calls   atomic.Int32
}

func (d *fakeDetector) Name() string              { return d.name }
func (d *fakeDetector) Modality() entity.Modality { return entity.ModalityVisual }

func (d *fakeDetector) Detect(ctx context.Context, frame image.Image) ([]entity.DetectedRegion, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return append([]entity.DetectedRegion(nil), d.regions...), nil
}

type fakeSpeech struct {
	intervals []entity.ProfanityInterval
	err       error
	paths     []string
}

func (s *fakeSpeech) Name() string              { return entity.PluginBadWords }
func (s *fakeSpeech) Modality() entity.Modality { return entity.ModalityAudio }

func (s *fakeSpeech) DetectSpeech(ctx context.Context, audioPath string) ([]entity.ProfanityInterval, error) {
	s.paths = append(s.paths, audioPath)
	return s.intervals, s.err
}

// fakeTracker держит исходную область, пока не исчерпает lifetime обновлений.
type fakeTracker struct {
	factory  *fakeTrackerFactory
	box      entity.Box
	lifetime int
	updates  int
}

func (t *fakeTracker) Update(frame image.Image) (entity.Box, bool) {
	t.factory.updates.Add(1)
	t.updates++
	if t.lifetime >= 0 && t.updates > t.lifetime {
		return entity.Box{}, false
	}
	return t.box, true
}

func (t *fakeTracker) Close() error {
	t.factory.closed.Add(1)
	return nil
}

type fakeTrackerFactory struct {
	// lifetime число успешных обновлений, -1 — без ограничения.
	lifetime int
	created  atomic.Int32
	closed   atomic.Int32
	updates  atomic.Int32
}

func (f *fakeTrackerFactory) NewTracker(frame image.Image, box entity.Box) (port.Tracker, error) {
	f.created.Add(1)
	return &fakeTracker{factory: f, box: box, lifetime: f.lifetime}, nil
}

type sliceSource struct {
	frames []*image.RGBA
	fps    float64
	pos    int
}

func (s *sliceSource) Read() (*image.RGBA, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) FPS() float64 { return s.fps }
func (s *sliceSource) Close() error { return nil }

// numberedFrames создаёт кадры с шумом, номер кадра записан в правый нижний пиксель.
func numberedFrames(n, w, h int) []*image.RGBA {
	frames := make([]*image.RGBA, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetRGBA(x, y, color.RGBA{R: uint8(x*7 + y*13 + i), G: uint8(x * y), B: uint8(x ^ y), A: 255})
			}
		}
		img.SetRGBA(w-1, h-1, color.RGBA{R: uint8(i), A: 255})
		frames[i] = img
	}
	return frames
}

func cloneFrames(frames []*image.RGBA) []*image.RGBA {
	out := make([]*image.RGBA, len(frames))
	for i, f := range frames {
		c := image.NewRGBA(f.Bounds())
		copy(c.Pix, f.Pix)
		out[i] = c
	}
	return out
}

func sameArea(a, b *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

type fakeVideoCodec struct {
	frames  int
	fps     float64
	w, h    int
	openErr error

	mu        sync.Mutex
	sinks     []*FrameCollector
	sinkPaths []string
}

func (c *fakeVideoCodec) OpenSource(path string) (port.FrameSource, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &sliceSource{frames: numberedFrames(c.frames, c.w, c.h), fps: c.fps}, nil
}

func (c *fakeVideoCodec) CreateSink(path string, fps float64, width, height int) (port.FrameSink, error) {
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sink := &FrameCollector{}
	c.sinks = append(c.sinks, sink)
	c.sinkPaths = append(c.sinkPaths, path)
	return sink, nil
}

// fakeMediaCodec работает с WAV напрямую, вместо внешнего кодека.
type fakeMediaCodec struct {
	// track аудиодорожка видео, отдаётся для не-WAV входов.
	track    *audio.PCM
	hasAudio bool

	mu       sync.Mutex
	replaced []string
	muxed    []string // видеопотоки, переданные в ReplaceAudio
	encoded  []string
}

func (c *fakeMediaCodec) DetectKind(path string) (entity.MediaKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".webp", ".bmp":
		return entity.MediaImage, nil
	case ".mp4", ".webm":
		return entity.MediaVideo, nil
	case ".wav", ".mp3":
		return entity.MediaAudio, nil
	}
	return "", entity.ErrUnsupportedMedia
}

func (c *fakeMediaCodec) DecodeAudio(ctx context.Context, input, output string, format port.AudioFormat) error {
	var pcm *audio.PCM
	if strings.EqualFold(filepath.Ext(input), ".wav") {
		var err error
		if pcm, err = audio.ReadWAV(input); err != nil {
			return err
		}
	} else {
		if c.track == nil {
			return errors.New("no audio stream")
		}
		pcm = c.track
	}
	rate, channels := pcm.SampleRate, pcm.Channels
	if format.SampleRate > 0 {
		rate = format.SampleRate
	}
	if format.Channels > 0 {
		channels = format.Channels
	}
	return audio.WriteWAV(output, audio.Convert(pcm, rate, channels, 16))
}

func (c *fakeMediaCodec) EncodeAudio(ctx context.Context, input, output string) error {
	c.mu.Lock()
	c.encoded = append(c.encoded, output)
	c.mu.Unlock()
	return copyFile(input, output)
}

func (c *fakeMediaCodec) HasAudio(ctx context.Context, path string) (bool, error) {
	return c.hasAudio, nil
}

func (c *fakeMediaCodec) ReplaceAudio(ctx context.Context, video, audioPath, output string) error {
	c.mu.Lock()
	c.replaced = append(c.replaced, audioPath)
	c.muxed = append(c.muxed, video)
	c.mu.Unlock()
	return os.WriteFile(output, []byte("muxed"), 0o644)
}

type fakeSession struct {
	perChunk []entity.WordTimestamp
	final    []entity.WordTimestamp
	accepts  int
	flushes  int
	bytes    int
	closed   bool
}

func (s *fakeSession) Accept(ctx context.Context, pcm []byte) ([]entity.WordTimestamp, error) {
	s.accepts++
	s.bytes += len(pcm)
	return s.perChunk, nil
}

func (s *fakeSession) Flush(ctx context.Context) ([]entity.WordTimestamp, error) {
	s.flushes++
	return s.final, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeTranscriber struct {
	session *fakeSession
	rate    int
}

func (t *fakeTranscriber) NewSession(ctx context.Context, sampleRate int) (port.TranscriptionSession, error) {
	t.rate = sampleRate
	return t.session, nil
}

type fakeClassifier struct {
	raw        string
	err        error
	transcript string
}

func (c *fakeClassifier) Classify(ctx context.Context, transcript string) (string, error) {
	c.transcript = transcript
	return c.raw, c.err
}

// sine моно 16-битный сигнал для тестов аудио.
func sine(rate int, seconds float64) *audio.PCM {
	return audio.Beep(rate, 1, 16, time.Duration(seconds*float64(time.Second)), 440)
}
