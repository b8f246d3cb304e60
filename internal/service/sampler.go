package service

import "github.com/Harshitk-cp/breathcosmos/internal/domain"

// Breathing band: the low bins just above DC.
const (
	BreathBandStart = 1
	BreathBandEnd   = 20 // exclusive
)

// SampleFrame reduces a spectral frame to breath amplitude in [0,1] and the
// dominant frequency of the breathing band. Bins missing from a short frame
// are simply not part of the band; an empty band yields zeros.
func SampleFrame(frame domain.SpectralFrame) (amplitude, frequency float64) {
	start, end := BreathBandStart, BreathBandEnd
	if end > len(frame.Bins) {
		end = len(frame.Bins)
	}
	if start >= end {
		return 0, 0
	}
	band := frame.Bins[start:end]

	sum := 0
	maxIdx := 0
	for i, v := range band {
		sum += int(v)
		if v > band[maxIdx] {
			maxIdx = i
		}
	}
	amplitude = float64(sum) / float64(len(band)) / 255

	if frame.FFTSize > 0 && frame.SampleRate > 0 {
		frequency = float64(maxIdx) * frame.SampleRate / float64(frame.FFTSize)
	}
	return amplitude, frequency
}
