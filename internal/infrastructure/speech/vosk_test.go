package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"censor-bot/internal/domain/entity"
)

// fakeVosk отвечает частичным результатом на первый кусок и фразой на второй.
func fakeVosk(t *testing.T, gotRate *int) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var cfg voskConfig
		if err := conn.ReadJSON(&cfg); err != nil {
			t.Errorf("read config: %v", err)
			return
		}
		*gotRate = cfg.Config.SampleRate

		chunks := 0
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var reply string
			switch {
			case kind == websocket.TextMessage && strings.Contains(string(data), "eof"):
				reply = `{"result":[{"conf":1,"start":1.5,"end":1.9,"word":"конец"}],"text":"конец"}`
			case chunks == 0:
				reply = `{"partial":"при"}`
				chunks++
			default:
				reply = `{"result":[{"conf":0.9,"start":0.1,"end":0.4,"word":"привет"},{"conf":1,"start":0.5,"end":0.8,"word":"мир"}],"text":"привет мир"}`
				chunks++
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}))
}

func TestVoskTranscriber_Session(t *testing.T) {
	var rate int
	srv := fakeVosk(t, &rate)
	defer srv.Close()

	tr := NewVoskTranscriber("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	ctx := context.Background()
	session, err := tr.NewSession(ctx, 16000)
	require.NoError(t, err)
	defer session.Close()

	words, err := session.Accept(ctx, make([]byte, 8000))
	require.NoError(t, err)
	require.Empty(t, words)

	words, err = session.Accept(ctx, make([]byte, 8000))
	require.NoError(t, err)
	require.Equal(t, []entity.WordTimestamp{
		{Word: "привет", Start: 0.1, End: 0.4},
		{Word: "мир", Start: 0.5, End: 0.8},
	}, words)

	words, err = session.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, []entity.WordTimestamp{{Word: "конец", Start: 1.5, End: 1.9}}, words)
	require.Equal(t, 16000, rate)

	words, err = session.Flush(ctx)
	require.NoError(t, err)
	require.Empty(t, words)

	_, err = session.Accept(ctx, []byte{0, 0})
	require.Error(t, err)
}

func TestVoskTranscriber_DialError(t *testing.T) {
	tr := NewVoskTranscriber("ws://127.0.0.1:1", nil)
	tr.retries = 0
	_, err := tr.NewSession(context.Background(), 16000)
	require.Error(t, err)
}

func TestVoskConfigJSON(t *testing.T) {
	var cfg voskConfig
	cfg.Config.SampleRate = 16000
	cfg.Config.Words = 1
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.JSONEq(t, `{"config":{"sample_rate":16000,"words":1}}`, string(data))
}
