package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"MODELS_DIR", "CIGARETTE_MODEL", "LLM_TEMPERATURE", "MAX_CONCURRENT", "DURATION_TOLERANCE", "DETECTOR_NUDE_DETECTOR_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("nude_detector")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("models", "cigarette.onnx"), cfg.CigaretteModel)
	require.InDelta(t, 0.1, cfg.LLMTemperature, 1e-9)
	require.Equal(t, 2, cfg.MaxConcurrent)
	require.Equal(t, 250*time.Millisecond, cfg.DurationTolerance)
	require.Empty(t, cfg.RemoteDetectors)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MODELS_DIR", "/opt/models")
	t.Setenv("NUDE_MODEL", "/srv/nudenet.onnx")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("DURATION_TOLERANCE", "1s")
	t.Setenv("DETECTOR_EXTREMISM_DETECTOR_URL", "http://detector:8080/detect")

	cfg, err := Load("extremism_detector")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/opt/models", "extremism.onnx"), cfg.ExtremismModel)
	require.Equal(t, "/srv/nudenet.onnx", cfg.NudeModel)
	require.InDelta(t, 0.3, cfg.LLMTemperature, 1e-9)
	require.Equal(t, time.Second, cfg.DurationTolerance)
	require.Equal(t, map[string]string{"extremism_detector": "http://detector:8080/detect"}, cfg.RemoteDetectors)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_CONCURRENT", "many")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("MAX_CONCURRENT", "0")
	_, err = Load()
	require.Error(t, err)
}

func TestRemoteDetectorKey(t *testing.T) {
	require.Equal(t, "DETECTOR_CIGARETTE_DETECTOR_URL", RemoteDetectorKey("cigarette_detector"))
}
