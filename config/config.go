package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string

	// Модели ONNX для локальных детекторов
	ModelsDir      string
	CigaretteModel string
	NudeModel      string
	ExtremismModel string

	// Адреса удалённых детекторов по имени плагина, перекрывают локальные модели
	RemoteDetectors map[string]string
	DetectorToken   string

	VoskURL                 string
	LLMURL                  string
	LLMModel                string
	LLMToken                string
	LLMTemperature          float64
	ClassifierFailurePolicy string

	CensorTone  string
	FFmpegPath  string
	FFprobePath string
	TempDir     string

	MetricsAddr       string
	MaxConcurrent     int
	DurationTolerance time.Duration

	LogLevel  string
	LogFormat string
}

// RemoteDetectorKey имя переменной окружения с адресом удалённого детектора plugin.
func RemoteDetectorKey(plugin string) string {
	return "DETECTOR_" + strings.ToUpper(plugin) + "_URL"
}

func Load(plugins ...string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	modelsDir := getenv("MODELS_DIR", "models")
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		ModelsDir:      modelsDir,
		CigaretteModel: modelPath(modelsDir, getenv("CIGARETTE_MODEL", "cigarette.onnx")),
		NudeModel:      modelPath(modelsDir, getenv("NUDE_MODEL", "nudenet.onnx")),
		ExtremismModel: modelPath(modelsDir, getenv("EXTREMISM_MODEL", "extremism.onnx")),

		RemoteDetectors: make(map[string]string),
		DetectorToken:   os.Getenv("DETECTOR_TOKEN"),

		VoskURL:                 getenv("VOSK_URL", "ws://localhost:2700"),
		LLMURL:                  os.Getenv("LLM_URL"),
		LLMModel:                getenv("LLM_MODEL", "GigaChat"),
		LLMToken:                os.Getenv("LLM_TOKEN"),
		ClassifierFailurePolicy: getenv("CLASSIFIER_FAILURE_POLICY", "open"),

		CensorTone:  os.Getenv("CENSOR_TONE"),
		FFmpegPath:  getenv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenv("FFPROBE_PATH", "ffprobe"),
		TempDir:     getenv("TEMP_DIR", os.TempDir()),

		MetricsAddr: os.Getenv("METRICS_ADDR"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}

	for _, plugin := range plugins {
		if url := os.Getenv(RemoteDetectorKey(plugin)); url != "" {
			cfg.RemoteDetectors[plugin] = url
		}
	}

	var err error
	if cfg.LLMTemperature, err = getFloat("LLM_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = getInt("MAX_CONCURRENT", 2); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT must be positive, got %d", cfg.MaxConcurrent)
	}
	if cfg.DurationTolerance, err = getDuration("DURATION_TOLERANCE", 250*time.Millisecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func modelPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
