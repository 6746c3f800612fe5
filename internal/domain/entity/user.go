package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingMedia UserState = "awaiting_media" // Ожидание фото, видео или аудио
	StateProcessing    UserState = "processing"     // Обработка файла
)

// User представляет пользователя бота
type User struct {
	ID        int64      // Telegram User ID
	ChatID    int64      // Telegram Chat ID
	State     UserState  // Текущее состояние пользователя
	Blacklist []string   // Выбранные категории, пустой список — цензурировать всё
	Mode      CensorMode // Пикселизация или обводка
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		Mode:   ModePixelate,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Clone возвращает независимую копию пользователя
func (u *User) Clone() *User {
	c := *u
	c.Blacklist = append([]string(nil), u.Blacklist...)
	return &c
}

// SetBlacklist заменяет набор категорий пользователя
func (u *User) SetBlacklist(labels []string) {
	u.Blacklist = append([]string(nil), labels...)
}

// Request собирает запрос на цензуру из настроек пользователя
func (u *User) Request(input, output string) CensorRequest {
	return CensorRequest{
		Input:     input,
		Output:    output,
		Blacklist: NewBlacklist(u.Blacklist...),
		Mode:      u.Mode,
	}
}
