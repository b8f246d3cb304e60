package service

import (
	"math"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"gonum.org/v1/gonum/stat"
)

const (
	MinPatternSamples = 10
	TrendSpan         = 5
	TrendThreshold    = 0.02

	PeakHeightRatio      = 0.8
	ValleyHeightRatio    = 0.5
	MinExtremaSeparation = 5

	IdealCycleMs     = 4000.0
	CycleToleranceMs = 2000.0

	MinRhythmPeaks  = 3
	OptimalTempoMin = 12.0
	OptimalTempoMax = 20.0
	OptimalTempo    = 16.0
	TempoFalloff    = 10.0
)

// AnalyzePattern recomputes every statistic over the whole window. Windows
// shorter than MinPatternSamples yield the neutral snapshot.
func AnalyzePattern(samples []domain.BreathSample) domain.PatternSnapshot {
	if len(samples) < MinPatternSamples {
		return domain.NeutralPattern()
	}

	amplitudes := make([]float64, len(samples))
	frequencies := make([]float64, len(samples))
	timestamps := make([]time.Time, len(samples))
	for i, s := range samples {
		amplitudes[i] = s.Amplitude
		frequencies[i] = s.Frequency
		timestamps[i] = s.Timestamp
	}

	peaks := FindPeaks(amplitudes)
	valleys := FindValleys(amplitudes)

	return domain.PatternSnapshot{
		Trend:        AnalyzeTrend(amplitudes),
		AvgAmplitude: mean(amplitudes),
		Frequency:    mean(frequencies),
		Stability:    Stability(amplitudes),
		Cycles:       DetectCycles(peaks, valleys, timestamps),
		Rhythm:       AnalyzeRhythm(peaks, timestamps),
		Peaks:        peaks,
	}
}

// AnalyzeTrend compares the last TrendSpan amplitudes with the TrendSpan before them.
func AnalyzeTrend(amplitudes []float64) domain.Trend {
	n := len(amplitudes)
	if n < 2*TrendSpan {
		return domain.TrendNeutral
	}

	recent := mean(amplitudes[n-TrendSpan:])
	older := mean(amplitudes[n-2*TrendSpan : n-TrendSpan])

	switch {
	case recent > older+TrendThreshold:
		return domain.TrendIncreasing
	case recent < older-TrendThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// Stability is 1 minus the coefficient of variation, floored at 0.
func Stability(amplitudes []float64) float64 {
	if len(amplitudes) == 0 {
		return 0
	}
	m, sd := meanStdDev(amplitudes)
	return finiteOrZero(math.Max(0, 1-sd/(m+0.001)))
}

// FindPeaks returns strict local maxima above PeakHeightRatio of the mean,
// accepted greedily left to right at least MinExtremaSeparation apart.
func FindPeaks(amplitudes []float64) []int {
	floor := mean(amplitudes) * PeakHeightRatio
	return findExtrema(amplitudes, func(i int) bool {
		return amplitudes[i] > amplitudes[i-1] &&
			amplitudes[i] > amplitudes[i+1] &&
			amplitudes[i] > floor
	})
}

// FindValleys mirrors FindPeaks for strict local minima below ValleyHeightRatio of the mean.
func FindValleys(amplitudes []float64) []int {
	ceiling := mean(amplitudes) * ValleyHeightRatio
	return findExtrema(amplitudes, func(i int) bool {
		return amplitudes[i] < amplitudes[i-1] &&
			amplitudes[i] < amplitudes[i+1] &&
			amplitudes[i] < ceiling
	})
}

func findExtrema(amplitudes []float64, match func(i int) bool) []int {
	var out []int
	for i := 1; i < len(amplitudes)-1; i++ {
		if !match(i) {
			continue
		}
		if len(out) == 0 || i-out[len(out)-1] >= MinExtremaSeparation {
			out = append(out, i)
		}
	}
	return out
}

// DetectCycles counts peak -> valley -> peak cycles and scores their mean
// duration against a ~4 s breath.
func DetectCycles(peaks, valleys []int, timestamps []time.Time) domain.CycleStats {
	if len(peaks) < 2 {
		return domain.CycleStats{}
	}

	intervals := peakIntervals(peaks, timestamps)
	avg := mean(intervals)

	return domain.CycleStats{
		Count:         min(len(peaks)-1, len(valleys)),
		AvgDurationMs: avg,
		Quality:       finiteOrZero(math.Max(0, 1-math.Abs(avg-IdealCycleMs)/CycleToleranceMs)),
	}
}

// AnalyzeRhythm scores peak spacing regularity and tempo. Fewer than
// MinRhythmPeaks peaks, or peaks with no time between them, give zeros.
func AnalyzeRhythm(peaks []int, timestamps []time.Time) domain.RhythmStats {
	if len(peaks) < MinRhythmPeaks {
		return domain.RhythmStats{}
	}

	intervals := peakIntervals(peaks, timestamps)
	avg, sd := meanStdDev(intervals)
	if avg <= 0 {
		return domain.RhythmStats{}
	}

	regularity := math.Max(0, 1-sd/avg)
	tempo := 60000 / avg

	return domain.RhythmStats{
		Regularity: regularity,
		TempoBpm:   tempo,
		Coherence:  (regularity + tempoScore(tempo)) / 2,
	}
}

func tempoScore(bpm float64) float64 {
	if bpm >= OptimalTempoMin && bpm <= OptimalTempoMax {
		return 1
	}
	return math.Max(0, 1-math.Abs(bpm-OptimalTempo)/TempoFalloff)
}

// ClassifyBreathState maps a pattern onto a coarse breathing style.
func ClassifyBreathState(p domain.PatternSnapshot) domain.BreathState {
	switch {
	case p.Rhythm.Coherence > 0.8 && p.Stability > 0.7:
		return domain.StateDeepMeditation
	case p.Rhythm.Coherence > 0.6 && p.Rhythm.TempoBpm <= 15:
		return domain.StateRelaxed
	case p.Rhythm.TempoBpm > 20 || p.Stability < 0.4:
		return domain.StateActive
	case p.AvgAmplitude < 0.1:
		return domain.StateShallow
	default:
		return domain.StateNormal
	}
}

var stateConsciousness = map[domain.BreathState]float64{
	domain.StateDeepMeditation: 0.9,
	domain.StateRelaxed:        0.7,
	domain.StateNormal:         0.5,
	domain.StateActive:         0.3,
	domain.StateShallow:        0.2,
}

// BreathConsciousness is the consciousness level a breathing style suggests,
// lifted by rhythm coherence and stability.
func BreathConsciousness(state domain.BreathState, p domain.PatternSnapshot) float64 {
	base, ok := stateConsciousness[state]
	if !ok {
		base = 0.5
	}
	return math.Min(1, base+p.Rhythm.Coherence*0.2+p.Stability*0.1)
}

// BreathComplexity weighs depth, stability and cycle quality into [0,2].
func BreathComplexity(depth float64, p domain.PatternSnapshot) float64 {
	return math.Min(MaxComplexity, depth*0.4+p.Stability*0.3+p.Cycles.Quality*0.3)
}

func peakIntervals(peaks []int, timestamps []time.Time) []float64 {
	out := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		d := timestamps[peaks[i]].Sub(timestamps[peaks[i-1]])
		out = append(out, float64(d)/float64(time.Millisecond))
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// meanStdDev is the mean and population standard deviation. A single value
// has no spread rather than an undefined one.
func meanStdDev(values []float64) (m, sd float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.PopMeanStdDev(values, nil)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
