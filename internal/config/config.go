package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by BREATH_ENV (or .env by default), then
// its .secret sidecar if one exists. Everything else is read through the
// getters below, which fall back to defaults on missing or bad values.
func Load() error {
	envFile := os.Getenv("BREATH_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Both files are optional.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	return intEnv("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// LogLevel returns the log level (debug, info, warn, error).
func LogLevel() string {
	return stringEnv("LOG_LEVEL", "info")
}

// AudioSource selects the frame producer.
// Valid values: synthetic, pcm
func AudioSource() string {
	return stringEnv("AUDIO_SOURCE", "synthetic")
}

// AudioPCMPath is the raw PCM16LE mono file read when AUDIO_SOURCE=pcm.
// "-" reads standard input.
func AudioPCMPath() string {
	return os.Getenv("AUDIO_PCM_PATH")
}

func AudioSampleRate() float64 {
	return floatEnv("AUDIO_SAMPLE_RATE", 44100)
}

func AudioFFTSize() int {
	return intEnv("AUDIO_FFT_SIZE", 2048)
}

// SynthBreathBPM is the breathing rate of the synthetic source.
func SynthBreathBPM() float64 {
	return floatEnv("SYNTH_BREATH_BPM", 12)
}

// SimFPS is the simulation frame rate, also used as the audio frame rate.
func SimFPS() float64 {
	return floatEnv("SIM_FPS", 60)
}

// SimSeed seeds every stochastic rule. 0 seeds from the clock.
func SimSeed() int64 {
	seed, err := strconv.ParseInt(os.Getenv("SIM_SEED"), 10, 64)
	if err != nil {
		return 0
	}
	return seed
}

func SimMaxEntities() int {
	return intEnv("SIM_MAX_ENTITIES", 500)
}

func ViewportWidth() float64 {
	return floatEnv("VIEWPORT_WIDTH", 800)
}

func ViewportHeight() float64 {
	return floatEnv("VIEWPORT_HEIGHT", 600)
}

// StreamInterval is how often the websocket stream pushes a snapshot.
func StreamInterval() time.Duration {
	return time.Duration(intEnv("STREAM_INTERVAL_MS", 250)) * time.Millisecond
}

// RateLimitRPS returns requests per second limit.
func RateLimitRPS() float64 {
	return floatEnv("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst returns the burst size for rate limiting.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// ControlAPIKey guards the session control endpoints. Empty disables them.
func ControlAPIKey() string {
	return os.Getenv("CONTROL_API_KEY")
}

func stringEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
