package service

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedSource yields frames from next until the context ends, and counts
// how often it is closed.
type scriptedSource struct {
	next   func(ctx context.Context) (domain.SpectralFrame, error)
	closed atomic.Int32
}

func (s *scriptedSource) Next(ctx context.Context) (domain.SpectralFrame, error) {
	return s.next(ctx)
}

func (s *scriptedSource) Close() error {
	s.closed.Add(1)
	return nil
}

func loudSource() *scriptedSource {
	return &scriptedSource{next: func(ctx context.Context) (domain.SpectralFrame, error) {
		select {
		case <-ctx.Done():
			return domain.SpectralFrame{}, ctx.Err()
		case <-time.After(2 * time.Millisecond):
			return bandFrame(255), nil
		}
	}}
}

func silentSource() *scriptedSource {
	return &scriptedSource{next: func(ctx context.Context) (domain.SpectralFrame, error) {
		<-ctx.Done()
		return domain.SpectralFrame{}, ctx.Err()
	}}
}

func newTestSession() *SessionService {
	return NewSessionService(
		store.NewBreathHistory(10*time.Second),
		store.NewEntityArena(),
		SessionOptions{FPS: 500, Seed: 1},
		zap.NewNop(),
	)
}

func TestSession_ElapsedFreezesAtStop(t *testing.T) {
	s := newTestSession()
	var offset atomic.Int64
	s.now = func() time.Time { return testEpoch.Add(time.Duration(offset.Load()) * time.Second) }

	assert.True(t, s.StartedAt().IsZero())
	assert.Zero(t, s.Elapsed())

	require.NoError(t, s.Start(context.Background(), silentSource()))
	offset.Store(3)
	assert.Equal(t, 3*time.Second, s.Elapsed())

	s.Stop()
	offset.Store(10)
	assert.Equal(t, testEpoch, s.StartedAt())
	assert.Equal(t, 3*time.Second, s.Elapsed())
}

func TestSession_StartRequiresSource(t *testing.T) {
	s := newTestSession()
	assert.ErrorIs(t, s.Start(context.Background(), nil), ErrNoSource)
	assert.False(t, s.Running())
}

func TestSession_StartWhileRunning(t *testing.T) {
	s := newTestSession()
	first := silentSource()
	require.NoError(t, s.Start(context.Background(), first))
	defer s.Stop()

	second := silentSource()
	assert.ErrorIs(t, s.Start(context.Background(), second), ErrSessionRunning)
	assert.Zero(t, second.closed.Load(), "rejected source is left to the caller")
}

func TestSession_StopIsIdempotent(t *testing.T) {
	s := newTestSession()
	s.Stop()

	src := loudSource()
	require.NoError(t, s.Start(context.Background(), src))
	require.Eventually(t, func() bool { return s.AudioTicks() > 0 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, int32(1), src.closed.Load())
}

func TestSession_StopThenStartResets(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Start(context.Background(), loudSource()))
	require.Eventually(t, func() bool {
		u, ok := s.Breath()
		return ok && u.Cosmos.Complexity > 0 && s.SimulationTicks() > 0
	}, 2*time.Second, 5*time.Millisecond)
	firstID := s.ID()
	s.Stop()

	// Both drivers are stopped, so the population can be dirtied directly.
	for i := 0; i < 5; i++ {
		s.population.Add(testEntity(float64(i*100), 100, 0.5))
	}
	require.Equal(t, 5, s.population.Len())

	require.NoError(t, s.Start(context.Background(), silentSource()))
	defer s.Stop()
	assert.NotEqual(t, firstID, s.ID())

	_, ok := s.Breath()
	assert.False(t, ok, "breath record is cleared")
	assert.Empty(t, s.World().Entities)
	assert.Equal(t, domain.CosmicState{}, s.World().Cosmos)

	require.Eventually(t, func() bool { return s.SimulationTicks() > 2 }, 2*time.Second, 5*time.Millisecond)
	w := s.World()
	assert.Empty(t, w.Entities)
	assert.Equal(t, domain.CosmicState{}, w.Cosmos)
	assert.Equal(t, s.ID(), w.SessionID)
}

func TestSession_ExhaustedSourceKeepsSimulating(t *testing.T) {
	s := newTestSession()
	src := &scriptedSource{next: func(ctx context.Context) (domain.SpectralFrame, error) {
		return domain.SpectralFrame{}, io.EOF
	}}
	require.NoError(t, s.Start(context.Background(), src))

	require.Eventually(t, func() bool { return s.SimulationTicks() > 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.Zero(t, s.AudioTicks())

	s.Stop()
	assert.Equal(t, int32(1), src.closed.Load())
}

func TestSession_DriverPanicEndsSession(t *testing.T) {
	s := newTestSession()
	src := &scriptedSource{next: func(ctx context.Context) (domain.SpectralFrame, error) {
		panic("device lost")
	}}
	require.NoError(t, s.Start(context.Background(), src))

	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), src.closed.Load())

	s.Stop()
	assert.Equal(t, int32(1), src.closed.Load(), "source is released exactly once")
}

func TestSession_ParentContextCancels(t *testing.T) {
	s := newTestSession()
	ctx, cancel := context.WithCancel(context.Background())
	src := silentSource()
	require.NoError(t, s.Start(ctx, src))

	cancel()
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), src.closed.Load())
}

func TestSession_EntityLookup(t *testing.T) {
	s := newTestSession()
	e := testEntity(10, 10, 0.5)
	e.Transcended = true
	s.population.Add(e)
	s.simulationTick(uuid.Nil, 0)

	got, err := s.Entity(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = s.Entity(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_ViewportIgnoresEmptyBounds(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, DefaultViewport, s.Viewport())

	s.SetViewport(domain.Viewport{Width: 0, Height: 100})
	assert.Equal(t, DefaultViewport, s.Viewport())

	s.SetViewport(domain.Viewport{Width: 1024, Height: 768})
	assert.Equal(t, domain.Viewport{Width: 1024, Height: 768}, s.Viewport())
}

func TestSession_SimulationConsumesBreathOnce(t *testing.T) {
	s := newTestSession()
	s.population.SetRandom(fixedRandom{0})

	s.latest.Store(&BreathUpdate{
		Seq:     1,
		Metrics: domain.BreathMetrics{BreathPhase: domain.PhaseInhale, BreathDepth: 1, Coherence: 0.5},
	})

	seq := s.simulationTick(uuid.Nil, 0)
	assert.Equal(t, uint64(1), seq)
	assert.Len(t, s.World().Entities, 1)

	seq = s.simulationTick(uuid.Nil, seq)
	assert.Equal(t, uint64(1), seq)
	assert.Len(t, s.World().Entities, 1, "a breath record triggers birth once")
}
