package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Setup(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "plugin", "nude_detector")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "nude_detector", line["plugin"])
}

func TestSetup_Invalid(t *testing.T) {
	_, err := Setup(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)

	_, err = Setup(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
