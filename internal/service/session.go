package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultSimulationFPS = 60.0
	SimulationFrameStep  = 1.0
)

var DefaultViewport = domain.Viewport{Width: 800, Height: 600}

// SessionOptions tunes a SessionService. Zero values fall back to defaults.
type SessionOptions struct {
	FPS         float64
	Seed        int64 // 0 seeds from the clock
	MaxEntities int
	Viewport    domain.Viewport
}

// BreathUpdate is the record the audio driver publishes once per frame. It
// is immutable once stored.
type BreathUpdate struct {
	Seq      uint64                 `json:"seq"`
	Metrics  domain.BreathMetrics   `json:"metrics"`
	Pattern  domain.PatternSnapshot `json:"pattern"`
	Cosmos   domain.CosmicState     `json:"cosmos"`
	Triggers domain.BreathTriggers  `json:"triggers"`
}

// WorldSnapshot is the record the simulation driver publishes once per frame.
type WorldSnapshot struct {
	SessionID uuid.UUID              `json:"session_id"`
	Tick      uint64                 `json:"tick"`
	Entities  []domain.Entity        `json:"entities"`
	Cosmos    domain.CosmicState     `json:"cosmos"`
	Stats     domain.PopulationStats `json:"stats"`
}

// SessionService runs one breathing session at a time. The audio driver owns
// the breath pipeline and the cosmic state, the simulation driver owns the
// population, and the two only meet through atomically replaced snapshots.
type SessionService struct {
	breath     *BreathService
	cosmos     *CosmosService
	population *PopulationService
	logger     *zap.Logger

	fps  float64
	seed int64
	now  func() time.Time

	mu        sync.Mutex
	id        uuid.UUID
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	stoppedAt time.Time

	viewport   atomic.Pointer[domain.Viewport]
	latest     atomic.Pointer[BreathUpdate]
	world      atomic.Pointer[WorldSnapshot]
	audioTicks atomic.Uint64
	simTicks   atomic.Uint64
}

func NewSessionService(history domain.HistoryStore, entities domain.EntityStore, opts SessionOptions, logger *zap.Logger) *SessionService {
	if opts.FPS <= 0 {
		opts.FPS = DefaultSimulationFPS
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = DefaultViewport
	}

	population := NewPopulationService(entities, newRandom(opts.Seed), logger)
	if opts.MaxEntities > 0 {
		population.SetMaxEntities(opts.MaxEntities)
	}

	s := &SessionService{
		breath:     NewBreathService(history, logger),
		cosmos:     NewCosmosService(),
		population: population,
		logger:     logger,
		fps:        opts.FPS,
		seed:       opts.Seed,
		now:        time.Now,
	}
	population.SetClock(s.now)
	vp := opts.Viewport
	s.viewport.Store(&vp)
	s.world.Store(&WorldSnapshot{Entities: []domain.Entity{}})
	return s
}

func newRandom(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Start begins a fresh session reading from src. History, cosmic state and
// population are reset first. The session owns src from here on and closes
// it exactly once when the session ends; on error src is left untouched.
func (s *SessionService) Start(ctx context.Context, src domain.FrameSource) error {
	if src == nil {
		return ErrNoSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSessionRunning
	}

	id := uuid.New()
	s.reset(id)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.id = id
	s.running = true
	s.cancel = cancel
	s.done = done
	s.startedAt = s.now()
	s.stoppedAt = time.Time{}

	s.logger.Info("session started",
		zap.String("session_id", id.String()),
		zap.Float64("fps", s.fps))

	go s.supervise(runCtx, cancel, id, src, done)
	return nil
}

// reset clears every session-scoped component. Both drivers are stopped
// whenever it runs.
func (s *SessionService) reset(id uuid.UUID) {
	s.breath.Reset()
	s.cosmos.Reset()
	s.population.Reset()
	s.population.SetRandom(newRandom(s.seed))

	s.latest.Store(nil)
	s.world.Store(&WorldSnapshot{SessionID: id, Entities: []domain.Entity{}})
	s.audioTicks.Store(0)
	s.simTicks.Store(0)
}

// Stop ends the running session and waits for it to release its source.
// It is safe to call at any time, any number of times.
func (s *SessionService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *SessionService) supervise(ctx context.Context, cancel context.CancelFunc, id uuid.UUID, src domain.FrameSource, done chan struct{}) {
	defer close(done)

	var wg sync.WaitGroup
	wg.Add(2)
	go s.drive(ctx, "audio", &wg, cancel, func(ctx context.Context) error {
		return s.audioLoop(ctx, src)
	})
	go s.drive(ctx, "simulation", &wg, cancel, func(ctx context.Context) error {
		return s.simLoop(ctx, id)
	})

	<-ctx.Done()

	// Closing first unblocks a driver stuck in a read that ignores ctx.
	if err := src.Close(); err != nil {
		s.logger.Warn("failed to release audio source",
			zap.String("session_id", id.String()),
			zap.Error(err))
	}
	wg.Wait()

	s.mu.Lock()
	s.running = false
	s.stoppedAt = s.now()
	s.mu.Unlock()

	s.logger.Info("session stopped",
		zap.String("session_id", id.String()),
		zap.Uint64("audio_ticks", s.audioTicks.Load()),
		zap.Uint64("simulation_ticks", s.simTicks.Load()))
}

// drive runs one driver. A failure or panic in either driver ends the whole
// session; a clean return only ends that driver.
func (s *SessionService) drive(ctx context.Context, name string, wg *sync.WaitGroup, cancel context.CancelFunc, run func(context.Context) error) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session driver panicked",
				zap.String("driver", name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			cancel()
		}
	}()

	s.logger.Debug("session driver started", zap.String("driver", name))
	if err := run(ctx); err != nil {
		s.logger.Error("session driver failed", zap.String("driver", name), zap.Error(err))
		cancel()
		return
	}
	s.logger.Debug("session driver stopped", zap.String("driver", name))
}

func (s *SessionService) audioLoop(ctx context.Context, src domain.FrameSource) error {
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("audio source exhausted", zap.Uint64("audio_ticks", s.audioTicks.Load()))
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		s.processFrame(frame, s.now())
	}
}

// processFrame is one audio tick: history, analysis, phase, metrics and
// cosmic state, strictly in that order, then one atomic publish.
func (s *SessionService) processFrame(frame domain.SpectralFrame, now time.Time) {
	metrics, pattern := s.breath.Process(frame, now)
	cosmic := s.cosmos.Update(metrics)

	s.latest.Store(&BreathUpdate{
		Seq:      s.audioTicks.Add(1),
		Metrics:  metrics,
		Pattern:  pattern,
		Cosmos:   cosmic,
		Triggers: EvaluateTriggers(metrics),
	})
}

func (s *SessionService) simLoop(ctx context.Context, id uuid.UUID) error {
	limiter := rate.NewLimiter(rate.Limit(s.fps), 1)
	var lastSeq uint64
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pace simulation: %w", err)
		}
		lastSeq = s.simulationTick(id, lastSeq)
	}
}

// simulationTick applies the newest breath record if it has not been seen
// yet, runs the continuous update and publishes the world. It returns the
// sequence number of the breath record it consumed.
func (s *SessionService) simulationTick(id uuid.UUID, lastSeq uint64) uint64 {
	vp := s.Viewport()

	var cosmic domain.CosmicState
	if u := s.latest.Load(); u != nil {
		cosmic = u.Cosmos
		if u.Seq != lastSeq {
			out := s.population.ApplyBreath(u.Metrics, vp)
			if out.Triggers.Any() {
				s.logger.Debug("breath applied to population",
					zap.Int("born", out.Born),
					zap.Int("evolved", out.Evolved),
					zap.Int("transcended", out.Transcended))
			}
			lastSeq = u.Seq
		}
	}

	s.population.Tick(SimulationFrameStep, vp, cosmic)

	entities := s.population.Snapshot()
	s.world.Store(&WorldSnapshot{
		SessionID: id,
		Tick:      s.simTicks.Add(1),
		Entities:  entities,
		Cosmos:    cosmic,
		Stats:     ComputeStats(entities),
	})
	return lastSeq
}

// Breath returns the newest breath record, or false before the first audio tick.
func (s *SessionService) Breath() (*BreathUpdate, bool) {
	u := s.latest.Load()
	return u, u != nil
}

// World returns the newest world snapshot. It is never nil.
func (s *SessionService) World() *WorldSnapshot {
	return s.world.Load()
}

// Entity looks an entity up by id in the newest world snapshot.
func (s *SessionService) Entity(id uuid.UUID) (domain.Entity, error) {
	for _, e := range s.world.Load().Entities {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Entity{}, fmt.Errorf("entity %s: %w", id, ErrNotFound)
}

func (s *SessionService) Viewport() domain.Viewport {
	return *s.viewport.Load()
}

// SetViewport replaces the bounds used for placement and wraparound. The
// simulation picks them up on its next frame.
func (s *SessionService) SetViewport(vp domain.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	s.viewport.Store(&vp)
}

func (s *SessionService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ID returns the current or most recent session id.
func (s *SessionService) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// StartedAt is when the latest session started, or zero before the first.
func (s *SessionService) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Elapsed is how long the latest session has run. It stops counting when
// the session ends.
func (s *SessionService) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	end := s.stoppedAt
	if s.running || end.IsZero() {
		end = s.now()
	}
	return end.Sub(s.startedAt)
}

func (s *SessionService) AudioTicks() uint64 {
	return s.audioTicks.Load()
}

func (s *SessionService) SimulationTicks() uint64 {
	return s.simTicks.Load()
}
