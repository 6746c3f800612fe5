package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/infrastructure/audio"
)

func TestParseProfanityResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []entity.ProfanityInterval
	}{
		{
			name: "object",
			raw:  `{"profanity_timestamps":[{"word":"блин","start":1.2,"end":1.5}]}`,
			want: []entity.ProfanityInterval{{Start: 1.2, End: 1.5}},
		},
		{
			name: "empty list",
			raw:  `{"profanity_timestamps": []}`,
			want: []entity.ProfanityInterval{},
		},
		{
			name: "code fence and string numbers",
			raw:  "```json\n{\"profanity_timestamps\":[{\"word\":\"x\",\"start\":\"0.5\",\"end\":\"0.9\"}]}\n```",
			want: []entity.ProfanityInterval{{Start: 0.5, End: 0.9}},
		},
		{
			name: "bare array after think block",
			raw:  `<think>смотрю на слова</think> [{"word":"x","start":2,"end":3}]`,
			want: []entity.ProfanityInterval{{Start: 2, End: 3}},
		},
		{
			name: "prose around object",
			raw:  `Вот ответ: {"profanity_timestamps":[{"word":"x","start":0,"end":0.25}]} Готово.`,
			want: []entity.ProfanityInterval{{Start: 0, End: 0.25}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseProfanityResponse(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseProfanityResponse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", `{"other": 1}`, "<think>only thoughts</think>"} {
		_, err := ParseProfanityResponse(raw)
		require.ErrorIs(t, err, entity.ErrMalformedClassification, "raw %q", raw)
	}
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]entity.WordTimestamp{
		{Word: "привет", Start: 0.12, End: 0.5},
		{Word: "мир", Start: 0.6, End: 1},
	})
	require.Equal(t, "Word: привет, Start: 0.12, End: 0.5\nWord: мир, Start: 0.6, End: 1", got)
}

func TestPCM16LE(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80}, PCM16LE([]int{1, -1, -32768}))
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	require.Equal(t, FailOpen, p)

	p, err = ParseFailurePolicy(" Closed ")
	require.NoError(t, err)
	require.Equal(t, FailClosed, p)

	_, err = ParseFailurePolicy("maybe")
	require.Error(t, err)
}

func TestProfanityService_TranscribeChunksAndFlushesOnce(t *testing.T) {
	session := &fakeSession{
		perChunk: []entity.WordTimestamp{{Word: "раз", Start: 0, End: 0.1}},
		final:    []entity.WordTimestamp{{Word: "два", Start: 0.9, End: 1}},
	}
	svc := NewProfanityService(nil, &fakeTranscriber{session: session}, nil, FailOpen, t.TempDir(), nil)

	pcm := sine(TranscriptionSampleRate, 1.1)
	words, err := svc.Transcribe(context.Background(), pcm)
	require.NoError(t, err)

	// 17600 кадров — пять кусков по 4000.
	require.Equal(t, 5, session.accepts)
	require.Equal(t, 1, session.flushes)
	require.Equal(t, len(pcm.Samples)*2, session.bytes)
	require.True(t, session.closed)
	require.Len(t, words, 6)
	require.Equal(t, "два", words[5].Word)
}

func TestProfanityService_ClassifyPolicies(t *testing.T) {
	words := []entity.WordTimestamp{{Word: "слово", Start: 0.1, End: 0.4}}

	open := NewProfanityService(nil, nil, &fakeClassifier{raw: "не знаю"}, FailOpen, "", nil)
	got, err := open.Classify(context.Background(), words, 2)
	require.NoError(t, err)
	require.Empty(t, got)

	closed := NewProfanityService(nil, nil, &fakeClassifier{raw: "не знаю"}, FailClosed, "", nil)
	_, err = closed.Classify(context.Background(), words, 2)
	require.ErrorIs(t, err, entity.ErrMalformedClassification)
	require.Equal(t, entity.KindClassification, entity.KindOf(err))

	timeout := NewProfanityService(nil, nil, &fakeClassifier{err: fmt.Errorf("post: %w", context.DeadlineExceeded)}, FailOpen, "", nil)
	_, err = timeout.Classify(context.Background(), words, 2)
	require.Equal(t, entity.KindRetryable, entity.KindOf(err))

	broken := NewProfanityService(nil, nil, &fakeClassifier{err: errors.New("401 unauthorized")}, FailOpen, "", nil)
	got, err = broken.Classify(context.Background(), words, 2)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProfanityService_ClassifyNormalizesIntervals(t *testing.T) {
	classifier := &fakeClassifier{raw: `{"profanity_timestamps":[
		{"word":"b","start":1.5,"end":1.8},
		{"word":"a","start":0.2,"end":0.6},
		{"word":"c","start":1.7,"end":2.5}
	]}`}
	svc := NewProfanityService(nil, nil, classifier, FailOpen, "", nil)

	words := []entity.WordTimestamp{{Word: "a", Start: 0.2, End: 0.6}}
	got, err := svc.Classify(context.Background(), words, 2)
	require.NoError(t, err)
	require.Equal(t, []entity.ProfanityInterval{{Start: 0.2, End: 0.6}, {Start: 1.5, End: 2}}, got)
	require.Contains(t, classifier.transcript, "Word: a, Start: 0.2, End: 0.6")
}

func TestProfanityService_DetectSpeech(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "speech.wav")
	stereo := audio.Convert(sine(44100, 0.5), 44100, 2, 16)
	require.NoError(t, audio.WriteWAV(input, stereo))

	session := &fakeSession{final: []entity.WordTimestamp{{Word: "ёлки", Start: 0.1, End: 0.3}}}
	transcriber := &fakeTranscriber{session: session}
	classifier := &fakeClassifier{raw: `{"profanity_timestamps":[{"word":"ёлки","start":0.1,"end":0.3}]}`}
	svc := NewProfanityService(&fakeMediaCodec{}, transcriber, classifier, FailOpen, dir, nil)

	require.Equal(t, entity.PluginBadWords, svc.Name())
	require.Equal(t, entity.ModalityAudio, svc.Modality())

	got, err := svc.DetectSpeech(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, []entity.ProfanityInterval{{Start: 0.1, End: 0.3}}, got)
	require.Equal(t, TranscriptionSampleRate, transcriber.rate)
	require.Equal(t, 2, session.accepts)
}

func TestProfanityService_DetectSpeechNoWords(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "silence.wav")
	require.NoError(t, audio.WriteWAV(input, sine(16000, 0.2)))

	classifier := &fakeClassifier{raw: "must not be called"}
	svc := NewProfanityService(&fakeMediaCodec{}, &fakeTranscriber{session: &fakeSession{}}, classifier, FailClosed, dir, nil)

	got, err := svc.DetectSpeech(context.Background(), input)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, classifier.transcript)
}
