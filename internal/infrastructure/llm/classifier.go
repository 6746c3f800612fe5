// Package llm отмечает нецензурные слова транскрипции через OpenAI-совместимый
// chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

const systemPrompt = "Ты помощник, который точно определяет матерные слова."

const promptTemplate = `Твоя задача - проанализировать следующий список слов и определить,
какие из них являются матерными. Для каждого матерного слова верни
JSON с его временными метками:

%s

Верни результат в формате JSON:
{
    "profanity_timestamps": [
        {
            "word": "матерное_слово",
            "start": начало_метки,
            "end": конец_метки
        },
        ...
    ]
}

Если матерных слов нет, верни пустой список.`

// DefaultTemperature низкая температура для стабильного ответа.
const DefaultTemperature = 0.1

// Classifier клиент языковой модели.
type Classifier struct {
	url         string
	model       string
	token       string
	temperature float64
	http        *http.Client
	logger      *slog.Logger
}

// New создаёт классификатор. baseURL — адрес OpenAI-совместимого сервера,
// например http://ollama:11434 или https://gigachat.devices.sberbank.ru/api.
func New(baseURL, model, token string, temperature float64, client *http.Client, logger *slog.Logger) *Classifier {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		url:         strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model:       model,
		token:       token,
		temperature: temperature,
		http:        client,
		logger:      logger.With("component", "llm"),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Prompt строит запрос пользователя по транскрипции.
func Prompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, transcript)
}

// Classify отправляет транскрипцию модели и возвращает текст ответа как есть.
func (c *Classifier) Classify(ctx context.Context, transcript string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(transcript)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("classifying transcript", "url", c.url, "model", c.model, "text_len", len(transcript))
	resp, err := c.http.Do(req)
	if err != nil {
		return "", entity.WrapCall("llm request", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", entity.WrapCall("llm read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm unexpected status %d: %s", resp.StatusCode, truncate(string(rawBody), 300))
	}

	var chat chatResponse
	if err := json.Unmarshal(rawBody, &chat); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", nil
	}

	choice := chat.Choices[0]
	if choice.FinishReason == "length" {
		c.logger.Warn("llm response truncated by token limit")
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		content = strings.TrimSpace(choice.Message.ReasoningContent)
	}
	c.logger.Debug("llm raw response", "content", truncate(content, 500))
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ port.ProfanityClassifier = (*Classifier)(nil)
