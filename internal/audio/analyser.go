package audio

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/mjibson/go-dsp/fft"
)

const (
	DefaultSampleRate = 44100.0
	DefaultFFTSize    = 2048
	DefaultSmoothing  = 0.3
	DefaultMinDB      = -100.0
	DefaultMaxDB      = -30.0
	DefaultFrameRate  = 60.0

	minFFTSize = 32
	maxFFTSize = 32768
)

var (
	ErrInvalidFrameSize = errors.New("invalid frame size")
	ErrSourceClosed     = errors.New("audio source closed")
)

// Analyser turns a window of time-domain samples into the byte magnitude
// spectrum a SpectralFrame carries: Blackman window, FFT, smoothing over
// time, then the decibel range mapped onto 0-255.
type Analyser struct {
	fftSize    int
	sampleRate float64
	smoothing  float64
	minDB      float64
	maxDB      float64

	window   []float64
	scratch  []float64
	smoothed []float64
}

func NewAnalyser(fftSize int, sampleRate float64) (*Analyser, error) {
	if fftSize < minFFTSize || fftSize > maxFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size %d: %w", fftSize, ErrInvalidFrameSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %v must be positive", sampleRate)
	}

	return &Analyser{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		smoothing:  DefaultSmoothing,
		minDB:      DefaultMinDB,
		maxDB:      DefaultMaxDB,
		window:     blackman(fftSize),
		scratch:    make([]float64, fftSize),
		smoothed:   make([]float64, fftSize/2),
	}, nil
}

// SetSmoothing sets the time constant in [0,1); 0 disables smoothing.
func (a *Analyser) SetSmoothing(tau float64) {
	a.smoothing = domain.Clamp(tau, 0, 0.999)
}

func (a *Analyser) FFTSize() int {
	return a.fftSize
}

func (a *Analyser) SampleRate() float64 {
	return a.sampleRate
}

// Frame analyses exactly FFTSize samples in [-1,1].
func (a *Analyser) Frame(samples []float64) (domain.SpectralFrame, error) {
	if len(samples) != a.fftSize {
		return domain.SpectralFrame{}, fmt.Errorf("got %d samples, want %d: %w", len(samples), a.fftSize, ErrInvalidFrameSize)
	}

	for i, v := range samples {
		a.scratch[i] = v * a.window[i]
	}
	spectrum := fft.FFTReal(a.scratch)

	bins := make([]uint8, a.fftSize/2)
	scale := 255 / (a.maxDB - a.minDB)
	for k := range bins {
		mag := cmplx.Abs(spectrum[k]) / float64(a.fftSize)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		db := a.minDB
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		bins[k] = uint8(domain.Clamp(math.Floor((db-a.minDB)*scale), 0, 255))
	}

	return domain.SpectralFrame{Bins: bins, SampleRate: a.sampleRate, FFTSize: a.fftSize}, nil
}

// Reset forgets the smoothing history.
func (a *Analyser) Reset() {
	clear(a.smoothed)
}

func blackman(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return w
}

// slidingWindow keeps the newest size samples, oldest first.
type slidingWindow struct {
	buf []float64
}

func newSlidingWindow(size int) *slidingWindow {
	return &slidingWindow{buf: make([]float64, size)}
}

func (w *slidingWindow) push(samples []float64) []float64 {
	if len(samples) >= len(w.buf) {
		copy(w.buf, samples[len(samples)-len(w.buf):])
		return w.buf
	}
	copy(w.buf, w.buf[len(samples):])
	copy(w.buf[len(w.buf)-len(samples):], samples)
	return w.buf
}

// hopFor is the number of new samples per frame at the given frame rate.
func hopFor(sampleRate, frameRate float64, fftSize int) int {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	hop := int(sampleRate / frameRate)
	if hop < 1 {
		hop = 1
	}
	if hop > fftSize {
		hop = fftSize
	}
	return hop
}
