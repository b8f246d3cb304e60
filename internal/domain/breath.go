package domain

import "time"

// BreathSample is one analysis tick reduced to amplitude and dominant frequency.
type BreathSample struct {
	Amplitude float64   `json:"amplitude"`
	Frequency float64   `json:"frequency"`
	Timestamp time.Time `json:"timestamp"`
}

// SpectralFrame is one frequency-magnitude frame from the audio subsystem.
// Bins are on the 0-255 byte scale.
type SpectralFrame struct {
	Bins       []uint8 `json:"bins"`
	SampleRate float64 `json:"sample_rate"`
	FFTSize    int     `json:"fft_size"`
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendNeutral    Trend = "neutral"
)

type BreathPhase string

const (
	PhaseInhale  BreathPhase = "inhale"
	PhaseExhale  BreathPhase = "exhale"
	PhasePause   BreathPhase = "pause"
	PhaseNeutral BreathPhase = "neutral"
)

// BreathState is the coarse breathing style derived from a pattern.
type BreathState string

const (
	StateDeepMeditation BreathState = "deep_meditation"
	StateRelaxed        BreathState = "relaxed"
	StateActive         BreathState = "active"
	StateShallow        BreathState = "shallow"
	StateNormal         BreathState = "normal"
)

type CycleStats struct {
	Count         int     `json:"count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	Quality       float64 `json:"quality"`
}

type RhythmStats struct {
	Regularity float64 `json:"regularity"`
	TempoBpm   float64 `json:"tempo_bpm"`
	Coherence  float64 `json:"coherence"`
}

// PatternSnapshot is recomputed from the whole history window every tick.
type PatternSnapshot struct {
	Trend        Trend       `json:"trend"`
	AvgAmplitude float64     `json:"avg_amplitude"`
	Frequency    float64     `json:"frequency"`
	Stability    float64     `json:"stability"`
	Cycles       CycleStats  `json:"cycles"`
	Rhythm       RhythmStats `json:"rhythm"`
	Peaks        []int       `json:"peaks,omitempty"`
}

// NeutralPattern is returned while the window holds too few samples.
func NeutralPattern() PatternSnapshot {
	return PatternSnapshot{Trend: TrendNeutral}
}

// BreathMetrics is the public per-tick breath record. It is replaced wholesale
// each audio tick and never mutated after publication.
type BreathMetrics struct {
	Amplitude    float64     `json:"amplitude"`
	Frequency    float64     `json:"frequency"`
	BreathPhase  BreathPhase `json:"breath_phase"`
	BreathDepth  float64     `json:"breath_depth"`
	BreathRhythm float64     `json:"breath_rhythm"`
	Coherence    float64     `json:"coherence"`
	State        BreathState `json:"state"`
	Timestamp    time.Time   `json:"timestamp"`

	// Consciousness and Complexity are the levels this breath suggests for
	// the cosmos, in [0,1] and [0,2].
	Consciousness float64 `json:"consciousness"`
	Complexity    float64 `json:"complexity"`
}

// BreathTriggers are the phase-gated rules a metrics record arms for the population.
type BreathTriggers struct {
	Birth     bool `json:"birth"`
	Evolution bool `json:"evolution"`
	Transcend bool `json:"transcend"`
}

func (t BreathTriggers) Any() bool {
	return t.Birth || t.Evolution || t.Transcend
}
