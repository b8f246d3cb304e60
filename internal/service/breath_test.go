package service

import (
	"math"
	"testing"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func bandFrame(level uint8) domain.SpectralFrame {
	bins := make([]uint8, 1024)
	for i := BreathBandStart; i < BreathBandEnd; i++ {
		bins[i] = level
	}
	return domain.SpectralFrame{Bins: bins, SampleRate: 44100, FFTSize: 2048}
}

func TestEmitMetrics(t *testing.T) {
	p := domain.PatternSnapshot{
		Trend:     domain.TrendStable,
		Stability: 0.9,
		Rhythm:    domain.RhythmStats{Regularity: 0.8, TempoBpm: 15, Coherence: 0.9},
	}

	tests := []struct {
		name      string
		amplitude float64
		wantDepth float64
	}{
		{"shallow", 0.2, 0.4},
		{"half", 0.5, 1},
		{"saturated", 0.9, 1},
		{"silent", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := EmitMetrics(tt.amplitude, 12, domain.PhaseExhale, p, testEpoch)
			assert.InDelta(t, tt.wantDepth, m.BreathDepth, 1e-9)
			assert.Equal(t, 0.8, m.BreathRhythm)
			assert.Equal(t, 0.9, m.Coherence)
			assert.Equal(t, domain.PhaseExhale, m.BreathPhase)
			assert.Equal(t, domain.StateDeepMeditation, m.State)
			assert.Equal(t, 12.0, m.Frequency)
		})
	}

	m := EmitMetrics(0.4, 0, domain.PhaseNeutral, domain.NeutralPattern(), testEpoch)
	assert.Zero(t, m.BreathRhythm)
	assert.Zero(t, m.Coherence)
}

func TestBreathConsciousnessAndComplexity(t *testing.T) {
	p := domain.PatternSnapshot{
		Stability: 0.5,
		Cycles:    domain.CycleStats{Quality: 0.5},
		Rhythm:    domain.RhythmStats{Coherence: 0.5},
	}

	tests := []struct {
		name  string
		state domain.BreathState
		want  float64
	}{
		{"deep meditation caps at one", domain.StateDeepMeditation, 1},
		{"relaxed", domain.StateRelaxed, 0.85},
		{"normal", domain.StateNormal, 0.65},
		{"active", domain.StateActive, 0.45},
		{"shallow", domain.StateShallow, 0.35},
		{"unknown falls back to normal", domain.BreathState("held"), 0.65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BreathConsciousness(tt.state, p), 1e-9)
		})
	}

	assert.InDelta(t, 0.7, BreathComplexity(1, p), 1e-9)
	assert.Zero(t, BreathComplexity(0, domain.NeutralPattern()))

	m := EmitMetrics(0.25, 3, domain.PhaseInhale, p, testEpoch)
	assert.InDelta(t, BreathConsciousness(m.State, p), m.Consciousness, 1e-12)
	assert.InDelta(t, 0.5, m.Complexity, 1e-9)
}

func TestBreathService_Process(t *testing.T) {
	history := store.NewBreathHistory(10 * time.Second)
	svc := NewBreathService(history, zap.NewNop())

	var last domain.BreathMetrics
	for i := 0; i < 12; i++ {
		last, _ = svc.Process(bandFrame(128), testEpoch.Add(time.Duration(i)*100*time.Millisecond))
	}

	require.Equal(t, 12, history.Len())
	assert.InDelta(t, 128.0/255, last.Amplitude, 1e-9)
	assert.Equal(t, domain.PhaseNeutral, last.BreathPhase)
	assert.False(t, math.IsNaN(last.Coherence))

	svc.Reset()
	assert.Zero(t, history.Len())
}

func TestBreathService_SilenceBecomesPause(t *testing.T) {
	svc := NewBreathService(store.NewBreathHistory(10*time.Second), zap.NewNop())

	m, p := svc.Process(bandFrame(0), testEpoch)
	assert.Equal(t, domain.PhasePause, m.BreathPhase)
	assert.Equal(t, domain.TrendNeutral, p.Trend)
	assert.Zero(t, m.Amplitude)
}
