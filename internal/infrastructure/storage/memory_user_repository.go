package storage

import (
	"context"
	"sync"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(userID, chatID).Clone(), nil
}

// Update применяет apply к копии пользователя под блокировкой и сохраняет её, если apply не вернул ошибку
func (r *MemoryUserRepository) Update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.load(userID, chatID).Clone()
	if err := apply(user); err != nil {
		return nil, err
	}
	r.users[userID] = user

	return user.Clone(), nil
}

// load вызывается под r.mu
func (r *MemoryUserRepository) load(userID, chatID int64) *entity.User {
	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return user
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
