package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "censor-bot/internal/application"
	"censor-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для цензуры фото, видео и аудио.

📎 Отправьте файл, и я скрою запрещённые объекты и заглушу нецензурную речь.

📋 Команды:
/censor — начать обработку файла
/categories — список категорий
/blacklist — выбрать категории для цензуры
/mode — пикселизация или обводка
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите категории: /blacklist cigarette bad_words (без аргументов — все категории)
2️⃣ Выберите режим: /mode pixelate или /mode outline
3️⃣ Отправьте /censor, затем фото, видео, аудио или голосовое сообщение
4️⃣ Получите файл с цензурой

💡 Длительность видео и аудио сохраняется, ругательства заменяются сигналом.`

	msgAwaitingMedia   = "📎 Отправьте фото, видео или аудио для цензуры."
	msgCancelled       = "❌ Операция отменена. Отправьте /censor для новой обработки."
	msgSendMedia       = "📎 Пожалуйста, отправьте фото, видео или аудио."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю файл..."
	msgBusy            = "⏳ Предыдущий файл ещё обрабатывается, подождите."
	msgUnsupported     = "⚠️ Не удалось прочитать файл. Поддерживаются фото, видео и аудио."
	msgUnavailable     = "⚠️ Выбранные категории сейчас недоступны. Проверьте /blacklist."
	msgProcessingError = "⚠️ Не удалось обработать файл. Попробуйте позже."
	msgBadMode         = "❓ Режимы: /mode pixelate или /mode outline."
	msgNotRequested    = "📎 Сначала отправьте /censor, затем файл."
)

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	users   *app.UserService
	censor  *app.CensorService
	catalog entity.Catalog
	client  *http.Client
	tempDir string
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, censor *app.CensorService, catalog entity.Catalog, client *http.Client, tempDir string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		users:   users,
		censor:  censor,
		catalog: catalog,
		client:  client,
		tempDir: tempDir,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			// Каждое сообщение в своей горутине.
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if file, ok := mediaFile(msg); ok {
		b.handleMedia(ctx, msg, file)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendMedia)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil && !errors.Is(err, app.ErrBusy) {
			log.Printf("Error resetting user: %v", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "categories":
		b.sendMessage(chatID, formatCategories(b.catalog))

	case "blacklist":
		user, err := b.users.SetBlacklist(ctx, userID, chatID, parseLabels(msg.CommandArguments()))
		if err != nil {
			log.Printf("Error setting blacklist: %v", err)
			b.sendMessage(chatID, fmt.Sprintf("⚠️ %v\n\n%s", err, formatCategories(b.catalog)))
			return
		}
		b.sendMessage(chatID, formatBlacklist(user))

	case "mode":
		user, err := b.users.SetMode(ctx, userID, chatID, strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			b.sendMessage(chatID, msgBadMode)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Режим: %s", user.Mode))

	case "censor":
		if _, err := b.users.BeginCensor(ctx, userID, chatID); err != nil {
			log.Printf("Error updating user: %v", err)
			b.sendMessage(chatID, errorMessage(err))
			return
		}
		b.sendMessage(chatID, msgAwaitingMedia)

	case "cancel":
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
			log.Printf("Error updating user: %v", err)
			b.sendMessage(chatID, errorMessage(err))
			return
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleMedia скачивает файл, цензурирует его и отправляет результат
func (b *Bot) handleMedia(ctx context.Context, msg *tgbotapi.Message, file incomingFile) {
	chatID := msg.Chat.ID

	// Не скачиваем файл, который не будет обработан. Окончательно решает ProcessMedia.
	user, err := b.users.Get(ctx, msg.From.ID, chatID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	switch user.State {
	case entity.StateAwaitingMedia:
	case entity.StateProcessing:
		b.sendMessage(chatID, msgBusy)
		return
	default:
		b.sendMessage(chatID, msgNotRequested)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	input, err := b.downloadFile(ctx, file)
	if err != nil {
		log.Printf("Error downloading file: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	defer os.Remove(input)

	resp, err := b.censor.ProcessMedia(ctx, msg.From.ID, chatID, input, app.OutputPath(input))
	if resp.Output != "" {
		defer os.Remove(resp.Output)
	}
	if err != nil {
		log.Printf("Error processing %s from chat %d: %v", file.kind, chatID, err)
		b.sendMessage(chatID, errorMessage(err))
		return
	}

	if err := b.sendResult(chatID, file, resp); err != nil {
		log.Printf("Error sending result: %v", err)
		b.sendMessage(chatID, msgProcessingError)
	}
}

// incomingFile файл из сообщения пользователя
type incomingFile struct {
	fileID string
	ext    string
	kind   string // photo, video, audio, voice или document
}

// mediaFile извлекает из сообщения файл для цензуры
func mediaFile(msg *tgbotapi.Message) (incomingFile, bool) {
	switch {
	case len(msg.Photo) > 0:
		// Берём фото с максимальным разрешением
		photo := msg.Photo[len(msg.Photo)-1]
		return incomingFile{fileID: photo.FileID, ext: ".jpg", kind: "photo"}, true
	case msg.Video != nil:
		return incomingFile{fileID: msg.Video.FileID, ext: fileExt(msg.Video.FileName, ".mp4"), kind: "video"}, true
	case msg.Audio != nil:
		return incomingFile{fileID: msg.Audio.FileID, ext: fileExt(msg.Audio.FileName, ".mp3"), kind: "audio"}, true
	case msg.Voice != nil:
		return incomingFile{fileID: msg.Voice.FileID, ext: ".ogg", kind: "voice"}, true
	case msg.Document != nil:
		return incomingFile{fileID: msg.Document.FileID, ext: fileExt(msg.Document.FileName, ""), kind: "document"}, true
	}
	return incomingFile{}, false
}

func fileExt(name, def string) string {
	if ext := filepath.Ext(name); ext != "" {
		return strings.ToLower(ext)
	}
	return def
}

// downloadFile скачивает файл из Telegram во временный файл
func (b *Bot) downloadFile(ctx context.Context, file incomingFile) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(file.fileID)
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.CreateTemp(b.tempDir, "tg_*"+file.ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("read file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// sendResult отправляет обработанный файл тем же видом, каким он пришёл
func (b *Bot) sendResult(chatID int64, file incomingFile, resp entity.CensorResponse) error {
	data := tgbotapi.FilePath(resp.Output)
	caption := summarize(resp)

	var msg tgbotapi.Chattable
	switch resp.Kind {
	case entity.MediaImage:
		photo := tgbotapi.NewPhoto(chatID, data)
		photo.Caption = caption
		msg = photo
	case entity.MediaVideo:
		video := tgbotapi.NewVideo(chatID, data)
		video.Caption = caption
		msg = video
	case entity.MediaAudio:
		if file.kind == "voice" {
			voice := tgbotapi.NewVoice(chatID, data)
			voice.Caption = caption
			msg = voice
		} else {
			audio := tgbotapi.NewAudio(chatID, data)
			audio.Caption = caption
			msg = audio
		}
	default:
		doc := tgbotapi.NewDocument(chatID, data)
		doc.Caption = caption
		msg = doc
	}

	_, err := b.api.Send(msg)
	return err
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// parseLabels разбирает категории из аргументов команды, разделители — пробелы и запятые
func parseLabels(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

func formatCategories(catalog entity.Catalog) string {
	var sb strings.Builder
	sb.WriteString("📋 Доступные категории:\n")
	for _, plugin := range catalog.Plugins() {
		fmt.Fprintf(&sb, "\n%s:\n%s\n", plugin, strings.Join(catalog[plugin], ", "))
	}
	return sb.String()
}

func formatBlacklist(user *entity.User) string {
	if len(user.Blacklist) == 0 {
		return "✅ Цензура по всем категориям."
	}
	return "✅ Категории для цензуры: " + strings.Join(user.Blacklist, ", ")
}

// summarize описывает результат обработки для подписи к файлу
func summarize(resp entity.CensorResponse) string {
	var parts []string
	switch resp.Kind {
	case entity.MediaImage:
		parts = append(parts, fmt.Sprintf("Скрыто областей: %d", resp.Regions))
	case entity.MediaVideo:
		parts = append(parts, fmt.Sprintf("Кадров: %d, с детекцией: %d", resp.Frames, resp.DetectFrames))
	}
	if resp.Kind != entity.MediaImage && len(resp.MutedIntervals) > 0 {
		parts = append(parts, fmt.Sprintf("Заглушено фрагментов: %d", len(resp.MutedIntervals)))
	}
	if len(parts) == 0 {
		return "✅ Готово"
	}
	return "✅ Готово. " + strings.Join(parts, ". ")
}

// errorMessage подбирает текст ответа по классу ошибки
func errorMessage(err error) string {
	if errors.Is(err, app.ErrBusy) {
		return msgBusy
	}
	if errors.Is(err, app.ErrMediaNotRequested) {
		return msgNotRequested
	}
	switch entity.KindOf(err) {
	case entity.KindInput:
		return msgUnsupported
	case entity.KindConfiguration:
		return msgUnavailable
	}
	return msgProcessingError
}
