package service

import (
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

const (
	PhaseAmplitudeThreshold = 0.1
	InhaleAmplitudeRatio    = 1.2
	ExhaleAmplitudeRatio    = 0.8
	PauseHold               = 500 * time.Millisecond
)

// PhaseClassifier is the sticky inhale/exhale/pause state machine. Entering
// inhale or exhale needs both a trend and an amplitude ratio; entering pause
// needs the amplitude to stay low past PauseHold since the last transition.
type PhaseClassifier struct {
	lastPhase  domain.BreathPhase
	phaseTimer time.Time
}

func NewPhaseClassifier() *PhaseClassifier {
	return &PhaseClassifier{lastPhase: domain.PhaseNeutral}
}

func (c *PhaseClassifier) Classify(amplitude float64, p domain.PatternSnapshot, now time.Time) domain.BreathPhase {
	if amplitude > PhaseAmplitudeThreshold {
		switch {
		case p.Trend == domain.TrendIncreasing && amplitude > p.AvgAmplitude*InhaleAmplitudeRatio:
			return c.enter(domain.PhaseInhale, now)
		case p.Trend == domain.TrendDecreasing && amplitude > p.AvgAmplitude*ExhaleAmplitudeRatio:
			return c.enter(domain.PhaseExhale, now)
		}
	} else if now.Sub(c.phaseTimer) > PauseHold {
		c.lastPhase = domain.PhasePause
		return domain.PhasePause
	}

	return c.LastPhase()
}

func (c *PhaseClassifier) enter(phase domain.BreathPhase, now time.Time) domain.BreathPhase {
	if c.lastPhase != phase {
		c.lastPhase = phase
		c.phaseTimer = now
	}
	return phase
}

func (c *PhaseClassifier) LastPhase() domain.BreathPhase {
	if c.lastPhase == "" {
		return domain.PhaseNeutral
	}
	return c.lastPhase
}

// Reset returns the classifier to its session-start state.
func (c *PhaseClassifier) Reset() {
	c.lastPhase = domain.PhaseNeutral
	c.phaseTimer = time.Time{}
}
