package service

import "github.com/Harshitk-cp/breathcosmos/internal/domain"

const (
	CosmicCoherenceGain    = 0.01
	CosmicDepthGain        = 0.005
	UnityRhythmThreshold   = 0.7
	UnityGain              = 0.01
	UnityLoss              = 0.005
	TranscendenceAmplitude = 0.8
	TranscendenceGain      = 0.008

	BirthDepthThreshold     = 0.6
	EvolutionDepthThreshold = 0.4
	TranscendPulseAmplitude = 0.7
)

// CosmosService integrates breath metrics into the session's cosmic state.
type CosmosService struct {
	state domain.CosmicState
}

func NewCosmosService() *CosmosService {
	return &CosmosService{}
}

// Update folds one metrics record into the accumulators and returns the new state.
func (s *CosmosService) Update(m domain.BreathMetrics) domain.CosmicState {
	unityDelta := -UnityLoss
	if m.BreathRhythm > UnityRhythmThreshold {
		unityDelta = UnityGain
	}
	transcendenceDelta := 0.0
	if m.Amplitude > TranscendenceAmplitude {
		transcendenceDelta = TranscendenceGain
	}

	s.state = domain.CosmicState{
		Consciousness: domain.Clamp01(s.state.Consciousness + m.Coherence*CosmicCoherenceGain),
		Complexity:    domain.Clamp01(s.state.Complexity + m.BreathDepth*CosmicDepthGain),
		Unity:         domain.Clamp01(s.state.Unity + unityDelta),
		Transcendence: domain.Clamp01(s.state.Transcendence + transcendenceDelta),
	}
	return s.state
}

func (s *CosmosService) State() domain.CosmicState {
	return s.state
}

func (s *CosmosService) Reset() {
	s.state = domain.CosmicState{}
}

// EvaluateTriggers reports which phase-gated population rules a metrics
// record arms. Birth is armed here and then decided by a Bernoulli draw.
func EvaluateTriggers(m domain.BreathMetrics) domain.BreathTriggers {
	return domain.BreathTriggers{
		Birth:     m.BreathPhase == domain.PhaseInhale && m.BreathDepth > BirthDepthThreshold,
		Evolution: m.BreathPhase == domain.PhaseExhale && m.BreathDepth > EvolutionDepthThreshold,
		Transcend: m.BreathPhase == domain.PhasePause && m.Amplitude > TranscendPulseAmplitude,
	}
}
