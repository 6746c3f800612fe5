// Package speech распознаёт речь сервером Vosk по протоколу websocket.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// DefaultTimeout ограничение на обмен одним сообщением с сервером.
const DefaultTimeout = 30 * time.Second

// VoskTranscriber открывает websocket-сеансы к vosk-server.
type VoskTranscriber struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

// NewVoskTranscriber создаёт распознаватель для сервера по адресу url (ws://host:2700).
func NewVoskTranscriber(url string, logger *slog.Logger) *VoskTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	return &VoskTranscriber{
		url:     url,
		dialer:  &dialer,
		timeout: DefaultTimeout,
		retries: 2,
		logger:  logger.With("component", "vosk"),
	}
}

type voskConfig struct {
	Config struct {
		SampleRate int `json:"sample_rate"`
		Words      int `json:"words"`
	} `json:"config"`
}

type voskWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Conf  float64 `json:"conf"`
}

type voskResult struct {
	Result  []voskWord `json:"result"`
	Text    string     `json:"text"`
	Partial string     `json:"partial"`
}

// NewSession подключается к серверу и передаёт частоту дискретизации.
// Ошибка соединения повторяется несколько раз с паузой.
func (t *VoskTranscriber) NewSession(ctx context.Context, sampleRate int) (port.TranscriptionSession, error) {
	var (
		conn *websocket.Conn
		err  error
	)
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			t.logger.Warn("vosk dial failed, retrying", "attempt", attempt, "err", err)
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		conn, _, err = t.dialer.DialContext(ctx, t.url, http.Header{})
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dial vosk %s: %w", t.url, err)
	}

	s := &voskSession{conn: conn, timeout: t.timeout}
	var cfg voskConfig
	cfg.Config.SampleRate = sampleRate
	cfg.Config.Words = 1
	if err := s.writeJSON(ctx, cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send vosk config: %w", err)
	}
	return s, nil
}

type voskSession struct {
	conn    *websocket.Conn
	timeout time.Duration
	done    bool
}

// Accept отправляет кусок PCM; сервер отвечает либо частичным текстом, либо
// законченной фразой со словами.
func (s *voskSession) Accept(ctx context.Context, pcm []byte) ([]entity.WordTimestamp, error) {
	if s.done {
		return nil, errors.New("vosk session is finished")
	}
	if err := s.conn.SetWriteDeadline(s.deadline(ctx)); err != nil {
		return nil, err
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return nil, fmt.Errorf("send audio: %w", err)
	}
	return s.readWords(ctx)
}

// Flush сообщает серверу о конце аудио и возвращает последнюю фразу.
func (s *voskSession) Flush(ctx context.Context) ([]entity.WordTimestamp, error) {
	if s.done {
		return nil, nil
	}
	s.done = true
	if err := s.writeJSON(ctx, map[string]int{"eof": 1}); err != nil {
		return nil, fmt.Errorf("send eof: %w", err)
	}
	return s.readWords(ctx)
}

func (s *voskSession) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *voskSession) writeJSON(ctx context.Context, v any) error {
	if err := s.conn.SetWriteDeadline(s.deadline(ctx)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *voskSession) readWords(ctx context.Context) ([]entity.WordTimestamp, error) {
	if err := s.conn.SetReadDeadline(s.deadline(ctx)); err != nil {
		return nil, err
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read vosk result: %w", err)
	}
	var res voskResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse vosk result: %w", err)
	}
	words := make([]entity.WordTimestamp, 0, len(res.Result))
	for _, w := range res.Result {
		words = append(words, entity.WordTimestamp{Word: w.Word, Start: w.Start, End: w.End})
	}
	return words, nil
}

func (s *voskSession) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(s.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}

var _ port.Transcriber = (*VoskTranscriber)(nil)
