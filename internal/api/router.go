package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/api/handlers"
	mw "github.com/Harshitk-cp/breathcosmos/internal/api/middleware"
	"github.com/Harshitk-cp/breathcosmos/internal/audio"
	"github.com/Harshitk-cp/breathcosmos/internal/buildconfig"
	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/service"
	"github.com/Harshitk-cp/breathcosmos/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	rateLimitSweepEvery = 10 * time.Minute
	rateLimitIdleAfter  = 10 * time.Minute
)

// Options configures the inspection API.
type Options struct {
	ControlAPIKey  string
	StreamInterval time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and the session it inspects.
type App struct {
	Router  *chi.Mux
	Session *service.SessionService

	limiter      *mw.RateLimiter
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
	inFlight     atomic.Int64
}

// NewApp wires the HTTP surface around session. Sessions started through
// the control routes live until ctx ends or they are stopped.
func NewApp(ctx context.Context, session *service.SessionService, open handlers.SourceFactory, opts Options, logger *zap.Logger) *App {
	breathHandler := handlers.NewBreathHandler(session)
	cosmosHandler := handlers.NewCosmosHandler(session)
	sessionHandler := handlers.NewSessionHandler(ctx, session, open, logger)
	streamHandler := handlers.NewStreamHandler(session, opts.StreamInterval, logger)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		Session:   session,
		limiter:   mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		startTime: time.Now(),
	}
	go app.limiter.RunCleanup(ctx, rateLimitSweepEvery, rateLimitIdleAfter)

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.inFlight)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.limiter.Middleware)

	r.Get("/health", healthHandler(session))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/breath", breathHandler.Get)
		r.Get("/cosmos", cosmosHandler.Get)
		r.Get("/entities", cosmosHandler.ListEntities)
		r.Get("/entities/{id}", cosmosHandler.GetEntity)
		r.Get("/stream", streamHandler.Serve)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Status)

			r.Group(func(r chi.Router) {
				r.Use(mw.ControlKeyAuth(opts.ControlAPIKey))
				r.Post("/start", sessionHandler.Start)
				r.Post("/stop", sessionHandler.Stop)
				r.Put("/viewport", sessionHandler.SetViewport)
			})
		})
	})

	return app
}

func healthHandler(session *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"build":   buildconfig.Current(),
			"session": map[string]any{"id": session.ID(), "running": session.Running()},
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		world := app.Session.World()

		writeJSON(w, http.StatusOK, map[string]any{
			"uptime_seconds":    uptime.Seconds(),
			"uptime_human":      uptime.Round(time.Second).String(),
			"request_count":     app.requestCount.Load(),
			"error_count":       app.errorCount.Load(),
			"in_flight":         app.inFlight.Load(),
			"rate_limited_keys": app.limiter.Len(),
			"goroutines":        runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
				"sys_mb":   float64(memStats.Sys) / 1024 / 1024,
				"num_gc":   memStats.NumGC,
			},
			"session": map[string]any{
				"running":          app.Session.Running(),
				"audio_ticks":      app.Session.AudioTicks(),
				"simulation_ticks": app.Session.SimulationTicks(),
				"entities":         len(world.Entities),
			},
			"go_version": runtime.Version(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Ensure stores and sources satisfy interfaces at compile time.
var (
	_ domain.HistoryStore = (*store.BreathHistory)(nil)
	_ domain.EntityStore  = (*store.EntityArena)(nil)
	_ domain.FrameSource  = (*audio.PCMSource)(nil)
	_ domain.FrameSource  = (*audio.SyntheticSource)(nil)
)
