package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"censor-bot/internal/domain/entity"
)

var (
	// ErrBusy пользователь уже ждёт результат предыдущего файла.
	ErrBusy = errors.New("previous file is still processing")
	// ErrMediaNotRequested файл пришёл без запроса на цензуру.
	ErrMediaNotRequested = errors.New("media was not requested")
)

// MediaProcessor выполняет запрос на цензуру.
type MediaProcessor interface {
	Process(ctx context.Context, req entity.CensorRequest) (entity.CensorResponse, error)
}

// CensorService ведёт пользователя от получения файла до готового результата.
type CensorService struct {
	users     *UserService
	processor MediaProcessor
	slots     *semaphore.Weighted
}

// NewCensorService создаёт сервис, который ограничивает число одновременно обрабатываемых файлов.
func NewCensorService(users *UserService, processor MediaProcessor, maxConcurrent int) *CensorService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &CensorService{
		users:     users,
		processor: processor,
		slots:     semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// ProcessMedia цензурирует файл input с настройками пользователя и возвращает его в главное меню.
// Пользователь должен ожидать файл (BeginCensor), иначе ErrMediaNotRequested или ErrBusy.
func (s *CensorService) ProcessMedia(ctx context.Context, userID, chatID int64, input, output string) (entity.CensorResponse, error) {
	if s.processor == nil {
		return entity.CensorResponse{}, errors.New("processor is not configured")
	}

	user, err := s.users.BeginProcessing(ctx, userID, chatID)
	if err != nil {
		return entity.CensorResponse{}, err
	}
	req := user.Request(input, output)
	defer func() {
		// Состояние возвращается даже после отмены запроса.
		_, _ = s.users.FinishProcessing(context.WithoutCancel(ctx), userID, chatID)
	}()

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return entity.CensorResponse{}, fmt.Errorf("wait for worker: %w", err)
	}
	defer s.slots.Release(1)

	return s.processor.Process(ctx, req)
}
