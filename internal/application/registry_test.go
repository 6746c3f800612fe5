package app

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"censor-bot/internal/domain/entity"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	cig := &fakeDetector{name: entity.PluginCigarette}
	require.NoError(t, r.Register(cig))
	require.NoError(t, r.Register(&fakeSpeech{}))

	got, err := r.Get(entity.PluginCigarette)
	require.NoError(t, err)
	require.Same(t, cig, got)

	require.Equal(t, []string{entity.PluginBadWords, entity.PluginCigarette}, r.Names())

	err = r.Register(&fakeDetector{name: entity.PluginCigarette})
	require.ErrorIs(t, err, entity.ErrDuplicatePlugin)
	require.Equal(t, entity.KindConfiguration, entity.KindOf(err))
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Get("missing_detector")
	require.ErrorIs(t, err, entity.ErrPluginNotFound)
	require.True(t, entity.IsFatal(err))
}

func TestRegistry_VisualNames(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeDetector{name: entity.PluginNude}))
	require.NoError(t, r.Register(&fakeSpeech{}))

	names, err := r.VisualNames([]string{entity.PluginBadWords, entity.PluginNude})
	require.NoError(t, err)
	require.Equal(t, []string{entity.PluginNude}, names)
}

func TestRegistry_DetectWithSkipsFailingPlugin(t *testing.T) {
	r := NewRegistry(nil)
	broken := &fakeDetector{name: entity.PluginNude, err: errors.New("model crashed")}
	healthy := &fakeDetector{name: entity.PluginCigarette, regions: []entity.DetectedRegion{
		{ClassName: "cigarette", Box: entity.Box{X1: 1, Y1: 1, X2: 5, Y2: 5}, Score: 0.9},
	}}
	require.NoError(t, r.Register(broken))
	require.NoError(t, r.Register(healthy))

	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	regions, err := r.DetectWith(context.Background(), []string{entity.PluginNude, entity.PluginCigarette}, frame)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	require.Equal(t, "cigarette", regions[0].ClassName)
	require.EqualValues(t, 1, broken.calls.Load())
}

func TestRegistry_DetectWithUnknownNameRunsNothing(t *testing.T) {
	r := NewRegistry(nil)
	cig := &fakeDetector{name: entity.PluginCigarette}
	require.NoError(t, r.Register(cig))

	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	_, err := r.DetectWith(context.Background(), []string{entity.PluginCigarette, "ghost_detector"}, frame)
	require.ErrorIs(t, err, entity.ErrPluginNotFound)
	require.Zero(t, cig.calls.Load())
}

func TestRegistry_DetectWithCancelledContext(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeDetector{name: entity.PluginCigarette}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.DetectWith(ctx, []string{entity.PluginCigarette}, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Equal(t, entity.KindRetryable, entity.KindOf(err))
}
