package entity

import "fmt"

// MediaKind тип входного файла.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// CensorMode способ скрытия найденной области.
type CensorMode string

const (
	ModePixelate CensorMode = "pixelate"
	ModeOutline  CensorMode = "outline"
)

// ParseCensorMode разбирает режим цензуры из строки.
func ParseCensorMode(s string) (CensorMode, error) {
	switch CensorMode(s) {
	case ModePixelate, "":
		return ModePixelate, nil
	case ModeOutline:
		return ModeOutline, nil
	}
	return "", NewError(KindConfiguration, "parse censor mode", fmt.Errorf("unknown censor mode %q", s))
}

// Modality вид данных, с которыми работает плагин.
type Modality string

const (
	ModalityVisual Modality = "visual"
	ModalityAudio  Modality = "audio"
)

// CensorRequest запрос на цензуру одного файла.
type CensorRequest struct {
	Input     string     // путь к исходному файлу
	Output    string     // путь к результату, пустой — рядом с исходным с префиксом censor_
	Blacklist Blacklist  // категории для цензуры, пустой набор — все категории каталога
	Mode      CensorMode // пикселизация или обводка
}

// CensorResponse результат обработки запроса.
type CensorResponse struct {
	Output         string
	Kind           MediaKind
	Plugins        []string
	Regions        int                 // число закрытых областей (изображение и кадры детекции)
	Frames         int                 // число кадров видео
	DetectFrames   int                 // кадров с полной детекцией
	MutedIntervals []ProfanityInterval // заглушённые отрезки аудио
}
