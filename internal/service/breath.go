package service

import (
	"math"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"go.uber.org/zap"
)

// BreathService runs one audio tick end to end: sample the frame, append it
// to the history window, analyze the window, classify the phase and emit
// the metrics record. It is owned by a single audio driver.
type BreathService struct {
	history    domain.HistoryStore
	classifier *PhaseClassifier
	logger     *zap.Logger

	lastPhase domain.BreathPhase
}

func NewBreathService(history domain.HistoryStore, logger *zap.Logger) *BreathService {
	return &BreathService{
		history:    history,
		classifier: NewPhaseClassifier(),
		logger:     logger,
		lastPhase:  domain.PhaseNeutral,
	}
}

func (s *BreathService) Process(frame domain.SpectralFrame, now time.Time) (domain.BreathMetrics, domain.PatternSnapshot) {
	amplitude, frequency := SampleFrame(frame)
	s.history.Append(domain.BreathSample{
		Amplitude: amplitude,
		Frequency: frequency,
		Timestamp: now,
	})

	pattern := AnalyzePattern(s.history.Snapshot())
	phase := s.classifier.Classify(amplitude, pattern, now)

	if phase != s.lastPhase {
		s.logger.Debug("breath phase changed",
			zap.String("from", string(s.lastPhase)),
			zap.String("to", string(phase)),
			zap.Float64("amplitude", amplitude))
		s.lastPhase = phase
	}

	return EmitMetrics(amplitude, frequency, phase, pattern, now), pattern
}

func (s *BreathService) Reset() {
	s.history.Reset()
	s.classifier.Reset()
	s.lastPhase = domain.PhaseNeutral
}

// EmitMetrics assembles the public breath record. Rhythm and coherence come
// from the rhythm analysis and are zero when it had too few peaks.
func EmitMetrics(amplitude, frequency float64, phase domain.BreathPhase, p domain.PatternSnapshot, now time.Time) domain.BreathMetrics {
	depth := math.Min(1, amplitude*2)
	state := ClassifyBreathState(p)
	return domain.BreathMetrics{
		Amplitude:     amplitude,
		Frequency:     frequency,
		BreathPhase:   phase,
		BreathDepth:   depth,
		BreathRhythm:  domain.Clamp01(p.Rhythm.Regularity),
		Coherence:     domain.Clamp01(p.Rhythm.Coherence),
		State:         state,
		Consciousness: BreathConsciousness(state, p),
		Complexity:    BreathComplexity(depth, p),
		Timestamp:     now,
	}
}
