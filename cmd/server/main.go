package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/api"
	"github.com/Harshitk-cp/breathcosmos/internal/api/handlers"
	"github.com/Harshitk-cp/breathcosmos/internal/audio"
	"github.com/Harshitk-cp/breathcosmos/internal/buildconfig"
	"github.com/Harshitk-cp/breathcosmos/internal/config"
	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/service"
	"github.com/Harshitk-cp/breathcosmos/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := service.NewSessionService(
		store.NewBreathHistory(store.DefaultHistoryWindow),
		store.NewEntityArena(),
		service.SessionOptions{
			FPS:         config.SimFPS(),
			Seed:        config.SimSeed(),
			MaxEntities: config.SimMaxEntities(),
			Viewport:    domain.Viewport{Width: config.ViewportWidth(), Height: config.ViewportHeight()},
		},
		logger,
	)

	open := newSourceFactory(logger)
	src, err := open()
	if err != nil {
		logger.Fatal("failed to open audio source", zap.String("source", config.AudioSource()), zap.Error(err))
	}
	if err := session.Start(ctx, src); err != nil {
		_ = src.Close()
		logger.Fatal("failed to start session", zap.Error(err))
	}

	app := api.NewApp(ctx, session, open, api.Options{
		ControlAPIKey:  config.ControlAPIKey(),
		StreamInterval: config.StreamInterval(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("audio_source", config.AudioSource()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	session.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newSourceFactory opens a fresh frame source per session, as selected by
// AUDIO_SOURCE.
func newSourceFactory(logger *zap.Logger) handlers.SourceFactory {
	opts := audio.StreamOptions{
		SampleRate: config.AudioSampleRate(),
		FFTSize:    config.AudioFFTSize(),
		FrameRate:  config.SimFPS(),
	}

	return func() (domain.FrameSource, error) {
		o := opts
		switch config.AudioSource() {
		case "synthetic":
			o.Realtime = true
			return audio.NewSyntheticSource(config.SynthBreathBPM(), config.SimSeed(), o, logger)
		case "pcm":
			path := config.AudioPCMPath()
			if path == "" {
				return nil, errors.New("AUDIO_PCM_PATH is required for pcm source")
			}
			// A live pipe is already paced by its producer.
			o.Realtime = path != audio.StdinPath
			return audio.OpenPCM(path, o, logger)
		default:
			return nil, fmt.Errorf("unknown audio source %q", config.AudioSource())
		}
	}
}
