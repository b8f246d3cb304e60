package service

import (
	"math/rand"
	"testing"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCosmosService_StaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	svc := NewCosmosService()

	for i := 0; i < 5000; i++ {
		m := domain.BreathMetrics{
			Amplitude:    rng.Float64(),
			BreathDepth:  rng.Float64(),
			BreathRhythm: rng.Float64(),
			Coherence:    rng.Float64(),
		}
		if i%7 == 0 {
			m.Coherence = 50
			m.BreathDepth = 50
		}
		s := svc.Update(m)
		for name, v := range map[string]float64{
			"consciousness": s.Consciousness,
			"complexity":    s.Complexity,
			"unity":         s.Unity,
			"transcendence": s.Transcendence,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("tick %d: %s = %v out of [0,1]", i, name, v)
			}
		}
	}
}

func TestCosmosService_Update(t *testing.T) {
	svc := NewCosmosService()

	s := svc.Update(domain.BreathMetrics{Amplitude: 0.9, BreathDepth: 1, BreathRhythm: 0.8, Coherence: 0.5})
	assert.InDelta(t, 0.005, s.Consciousness, 1e-12)
	assert.InDelta(t, 0.005, s.Complexity, 1e-12)
	assert.InDelta(t, 0.01, s.Unity, 1e-12)
	assert.InDelta(t, 0.008, s.Transcendence, 1e-12)

	s = svc.Update(domain.BreathMetrics{BreathRhythm: 0.1})
	assert.InDelta(t, 0.005, s.Unity, 1e-12)

	svc.Update(domain.BreathMetrics{BreathRhythm: 0.1})
	s = svc.Update(domain.BreathMetrics{BreathRhythm: 0.1})
	assert.Zero(t, s.Unity, "unity floors at zero")

	svc.Reset()
	assert.Equal(t, domain.CosmicState{}, svc.State())
}

func TestEvaluateTriggers(t *testing.T) {
	tests := []struct {
		name string
		m    domain.BreathMetrics
		want domain.BreathTriggers
	}{
		{"deep inhale", domain.BreathMetrics{BreathPhase: domain.PhaseInhale, BreathDepth: 0.8}, domain.BreathTriggers{Birth: true}},
		{"shallow inhale", domain.BreathMetrics{BreathPhase: domain.PhaseInhale, BreathDepth: 0.6}, domain.BreathTriggers{}},
		{"exhale", domain.BreathMetrics{BreathPhase: domain.PhaseExhale, BreathDepth: 0.5}, domain.BreathTriggers{Evolution: true}},
		{"weak exhale", domain.BreathMetrics{BreathPhase: domain.PhaseExhale, BreathDepth: 0.3}, domain.BreathTriggers{}},
		{"loud pause", domain.BreathMetrics{BreathPhase: domain.PhasePause, Amplitude: 0.75}, domain.BreathTriggers{Transcend: true}},
		{"quiet pause", domain.BreathMetrics{BreathPhase: domain.PhasePause, Amplitude: 0.05}, domain.BreathTriggers{}},
		{"neutral", domain.BreathMetrics{BreathPhase: domain.PhaseNeutral, BreathDepth: 1, Amplitude: 1}, domain.BreathTriggers{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateTriggers(tt.m))
		})
	}
}
