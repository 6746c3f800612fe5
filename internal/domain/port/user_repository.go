package port

import (
	"context"

	"censor-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей.
// Возвращаемые пользователи — копии, изменения сохраняются только через Update.
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Update атомарно применяет apply к пользователю. Ошибка apply отменяет изменения.
	Update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error)
}
