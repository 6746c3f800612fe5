package app

import (
	"context"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

type UserService struct {
	repo    port.UserRepository
	catalog entity.Catalog
}

func NewUserService(repo port.UserRepository, catalog entity.Catalog) *UserService {
	if catalog == nil {
		catalog = entity.DefaultCatalog()
	}
	return &UserService{repo: repo, catalog: catalog}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// BeginCensor переводит пользователя в ожидание файла. Во время обработки возвращает ErrBusy.
func (s *UserService) BeginCensor(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, entity.StateAwaitingMedia)
}

// Cancel возвращает пользователя в главное меню. Идущую обработку не прерывает: ErrBusy.
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, entity.StateMainMenu)
}

// BeginProcessing атомарно занимает пользователя под обработку файла.
// Файл принимается только после BeginCensor.
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		switch u.State {
		case entity.StateProcessing:
			return ErrBusy
		case entity.StateAwaitingMedia:
			u.SetState(entity.StateProcessing)
			return nil
		}
		return ErrMediaNotRequested
	})
}

// FinishProcessing освобождает пользователя после обработки.
func (s *UserService) FinishProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

func (s *UserService) transition(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		if u.State == entity.StateProcessing {
			return ErrBusy
		}
		u.SetState(state)
		return nil
	})
}

// SetBlacklist проверяет категории по каталогу и сохраняет их. Пустой список снимает ограничение.
func (s *UserService) SetBlacklist(ctx context.Context, userID, chatID int64, labels []string) (*entity.User, error) {
	blacklist := entity.NewBlacklist(labels...)
	if _, _, err := s.catalog.Resolve(blacklist); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetBlacklist(blacklist.Labels())
		return nil
	})
}

// SetMode переключает способ закрытия областей.
func (s *UserService) SetMode(ctx context.Context, userID, chatID int64, mode string) (*entity.User, error) {
	parsed, err := entity.ParseCensorMode(mode)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.Mode = parsed
		return nil
	})
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, apply)
}
