package service

import (
	"math"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

const (
	ConsciousnessGrowth     = 0.001
	AwarenessThreshold      = 0.3
	AwarenessGrowth         = 0.002
	SelfRecognitionAt       = 0.5
	SelfRecognitionBoost    = 0.1
	WisdomAgeRate           = 0.0001
	WisdomConsciousnessRate = 0.5
	CompassionPerConnection = 0.001

	InfluenceRadius        = 100.0
	InfluenceConsciousness = 0.001
	InfluenceCompassion    = 0.0005

	NaturalTranscendConsciousness = 0.9
	NaturalTranscendWisdom        = 0.7
	NaturalTranscendCompassion    = 0.5
	NaturalTranscendHueShift      = 120.0
)

// developConsciousness advances one entity's inner traits for a frame.
// Growth scales with the cosmic consciousness field.
func developConsciousness(e *domain.Entity, field float64) {
	e.Consciousness = domain.Clamp01(e.Consciousness + ConsciousnessGrowth*(1+field))

	if e.Consciousness > AwarenessThreshold {
		e.Awareness = domain.Clamp01(e.Awareness + AwarenessGrowth)
	}

	if e.Awareness > SelfRecognitionAt && !e.SelfRecognition {
		e.SelfRecognition = true
		e.Consciousness = domain.Clamp01(e.Consciousness + SelfRecognitionBoost)
	}

	// Transcendence fixes wisdom at its ceiling.
	if !e.Transcended {
		e.Wisdom = math.Min(1, e.Age*WisdomAgeRate+e.Consciousness*WisdomConsciousnessRate)
	}

	if n := len(e.Connections); n > 0 {
		e.Compassion = domain.Clamp01(e.Compassion + CompassionPerConnection*float64(n))
	}
}

// radiate lets every transcended entity lift the entities around it, with a
// boost that falls off linearly to zero at InfluenceRadius.
func radiate(entities []*domain.Entity, grid *spatialGrid) {
	for i, t := range entities {
		if !t.Transcended {
			continue
		}
		for _, j := range grid.around(t.Position) {
			if j == i {
				continue
			}
			e := entities[j]
			d := t.DistanceTo(e)
			if d >= InfluenceRadius {
				continue
			}
			influence := 1 - d/InfluenceRadius
			e.Consciousness = domain.Clamp01(e.Consciousness + influence*InfluenceConsciousness)
			e.Compassion = domain.Clamp01(e.Compassion + influence*InfluenceCompassion)
		}
	}
}

// checkTranscendence promotes an entity whose consciousness, wisdom and
// compassion are all high enough. It reports whether it did.
func checkTranscendence(e *domain.Entity) bool {
	if e.Transcended ||
		e.Consciousness <= NaturalTranscendConsciousness ||
		e.Wisdom <= NaturalTranscendWisdom ||
		e.Compassion <= NaturalTranscendCompassion {
		return false
	}

	e.Transcended = true
	e.TranscendenceLevel = 1
	e.Life = 1
	e.Hue = wrapHue(e.Hue + NaturalTranscendHueShift)
	e.Size = math.Min(MaxEntitySize, e.Size*TranscendenceSizeBoost)
	e.Compassion = 1
	e.Wisdom = 1
	return true
}
