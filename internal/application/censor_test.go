package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/infrastructure/storage"
)

type recordingProcessor struct {
	mu       sync.Mutex
	requests []entity.CensorRequest
	err      error
	during   func()
}

func (p *recordingProcessor) Process(ctx context.Context, req entity.CensorRequest) (entity.CensorResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return entity.CensorResponse{}, p.err
	}
	return entity.CensorResponse{Output: req.Output, Kind: entity.MediaImage}, nil
}

func TestCensorService_ProcessMediaUsesUserSettings(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	users := NewUserService(repo, nil)
	processor := &recordingProcessor{}
	svc := NewCensorService(users, processor, 2)
	ctx := context.Background()

	_, err := users.SetBlacklist(ctx, 1, 10, []string{"cigarette"})
	require.NoError(t, err)
	_, err = users.SetMode(ctx, 1, 10, "outline")
	require.NoError(t, err)
	_, err = users.BeginCensor(ctx, 1, 10)
	require.NoError(t, err)

	processor.during = func() {
		user, err := repo.Get(ctx, 1, 10)
		require.NoError(t, err)
		require.Equal(t, entity.StateProcessing, user.State)
	}

	resp, err := svc.ProcessMedia(ctx, 1, 10, "/tmp/in.jpg", "/tmp/out.jpg")
	require.NoError(t, err)
	require.Equal(t, "/tmp/out.jpg", resp.Output)

	require.Len(t, processor.requests, 1)
	req := processor.requests[0]
	require.Equal(t, "/tmp/in.jpg", req.Input)
	require.Equal(t, entity.ModeOutline, req.Mode)
	require.True(t, req.Blacklist.Contains("cigarette"))
	require.Equal(t, 1, req.Blacklist.Len())

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestCensorService_ProcessMediaResetsStateOnError(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	users := NewUserService(repo, nil)
	failure := entity.NewError(entity.KindInput, "detect media type", entity.ErrUnsupportedMedia)
	svc := NewCensorService(users, &recordingProcessor{err: failure}, 1)
	ctx := context.Background()

	_, err := users.BeginCensor(ctx, 2, 20)
	require.NoError(t, err)

	_, err = svc.ProcessMedia(ctx, 2, 20, "/tmp/in.txt", "")
	require.ErrorIs(t, err, entity.ErrUnsupportedMedia)

	user, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestCensorService_ProcessMediaRejectsBusyUser(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	users := NewUserService(repo, nil)
	processor := &recordingProcessor{}
	svc := NewCensorService(users, processor, 1)
	ctx := context.Background()

	_, err := users.SetState(ctx, 3, 30, entity.StateProcessing)
	require.NoError(t, err)

	_, err = svc.ProcessMedia(ctx, 3, 30, "/tmp/in.jpg", "")
	require.True(t, errors.Is(err, ErrBusy))
	require.Empty(t, processor.requests)
}

func TestCensorService_ProcessMediaRequiresCensorCommand(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	processor := &recordingProcessor{}
	svc := NewCensorService(NewUserService(repo, nil), processor, 1)
	ctx := context.Background()

	_, err := svc.ProcessMedia(ctx, 4, 40, "/tmp/in.jpg", "")
	require.ErrorIs(t, err, ErrMediaNotRequested)
	require.Empty(t, processor.requests)

	user, err := repo.Get(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

// Запускать с -race: два файла одного пользователя и смена настроек одновременно.
func TestCensorService_ConcurrentFilesFromOneUser(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	users := NewUserService(repo, nil)
	release := make(chan struct{})
	processor := &recordingProcessor{during: func() { <-release }}
	svc := NewCensorService(users, processor, 2)
	ctx := context.Background()

	_, err := users.BeginCensor(ctx, 1, 10)
	require.NoError(t, err)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.ProcessMedia(ctx, 1, 10, "/tmp/in.jpg", "/tmp/out.jpg")
			results <- err
		}()
	}
	modeDone := make(chan error, 1)
	go func() {
		_, err := users.SetMode(ctx, 1, 10, "outline")
		modeDone <- err
	}()

	// Второй файл отклоняется, пока первый ещё обрабатывается.
	require.ErrorIs(t, <-results, ErrBusy)
	require.NoError(t, <-modeDone)

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)

	close(release)
	require.NoError(t, <-results)

	processor.mu.Lock()
	require.Len(t, processor.requests, 1)
	processor.mu.Unlock()

	user, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, entity.ModeOutline, user.Mode)
}

func TestCensorService_NoProcessor(t *testing.T) {
	svc := NewCensorService(NewUserService(storage.NewMemoryUserRepository(), nil), nil, 1)

	_, err := svc.ProcessMedia(context.Background(), 1, 1, "/tmp/in.jpg", "")
	require.Error(t, err)
}
