package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "AUDIO_SOURCE", "AUDIO_SAMPLE_RATE", "AUDIO_FFT_SIZE",
		"SYNTH_BREATH_BPM", "SIM_FPS", "SIM_SEED", "SIM_MAX_ENTITIES", "VIEWPORT_WIDTH",
		"VIEWPORT_HEIGHT", "STREAM_INTERVAL_MS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, "synthetic", AudioSource())
	assert.Equal(t, 44100.0, AudioSampleRate())
	assert.Equal(t, 2048, AudioFFTSize())
	assert.Equal(t, 12.0, SynthBreathBPM())
	assert.Equal(t, 60.0, SimFPS())
	assert.Equal(t, int64(0), SimSeed())
	assert.Equal(t, 500, SimMaxEntities())
	assert.Equal(t, 800.0, ViewportWidth())
	assert.Equal(t, 600.0, ViewportHeight())
	assert.Equal(t, 250*time.Millisecond, StreamInterval())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
}

func TestOverridesAndBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T)
	}{
		{"SERVER_PORT", "9090", func(t *testing.T) { assert.Equal(t, 9090, ServerPort()) }},
		{"SERVER_PORT", "abc", func(t *testing.T) { assert.Equal(t, 8080, ServerPort()) }},
		{"SIM_FPS", "-5", func(t *testing.T) { assert.Equal(t, 60.0, SimFPS()) }},
		{"SIM_SEED", "42", func(t *testing.T) { assert.Equal(t, int64(42), SimSeed()) }},
		{"AUDIO_SOURCE", "pcm", func(t *testing.T) { assert.Equal(t, "pcm", AudioSource()) }},
		{"STREAM_INTERVAL_MS", "1000", func(t *testing.T) { assert.Equal(t, time.Second, StreamInterval()) }},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			tt.check(t)
		})
	}
}

func TestLoad_ReadsEnvAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SIM_FPS=30\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("CONTROL_API_KEY=s3cret\n"), 0o600))

	t.Setenv("BREATH_ENV", envFile)
	t.Setenv("SIM_FPS", "")
	t.Setenv("CONTROL_API_KEY", "")
	os.Unsetenv("SIM_FPS")
	os.Unsetenv("CONTROL_API_KEY")

	require.NoError(t, Load())
	assert.Equal(t, 30.0, SimFPS())
	assert.Equal(t, "s3cret", ControlAPIKey())
}
