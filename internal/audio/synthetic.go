package audio

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBreathsPerMinute = 12.0

	synthToneLow   = 86.0
	synthToneHigh  = 172.0
	synthToneGain  = 0.4
	synthNoiseGain = 0.05
)

// BreathSignal renders the synthetic breath waveform: two low tones and a
// little noise, all swelling and fading with a raised-cosine envelope.
// Successive Fill calls continue the same signal.
type BreathSignal struct {
	rng        *rand.Rand
	sampleRate float64
	breathHz   float64
	pos        int64
}

func NewBreathSignal(bpm, sampleRate float64, seed int64) *BreathSignal {
	if bpm <= 0 {
		bpm = DefaultBreathsPerMinute
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &BreathSignal{
		rng:        rand.New(rand.NewSource(seed)),
		sampleRate: sampleRate,
		breathHz:   bpm / 60,
	}
}

// Envelope is the breath loudness in [0,1] at t seconds.
func (g *BreathSignal) Envelope(t float64) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*g.breathHz*t))
}

// Fill writes the next len(dst) samples.
func (g *BreathSignal) Fill(dst []float64) {
	for i := range dst {
		t := float64(g.pos) / g.sampleRate
		tone := math.Sin(2*math.Pi*synthToneLow*t) + 0.5*math.Sin(2*math.Pi*synthToneHigh*t)
		noise := g.rng.Float64()*2 - 1
		dst[i] = g.Envelope(t) * (synthToneGain*tone + synthNoiseGain*noise)
		g.pos++
	}
}

// SyntheticSource frames a BreathSignal in place of a microphone.
type SyntheticSource struct {
	analyser *Analyser
	window   *slidingWindow
	limiter  *rate.Limiter
	signal   *BreathSignal
	logger   *zap.Logger
	samples  []float64

	closed atomic.Bool
}

func NewSyntheticSource(bpm float64, seed int64, opts StreamOptions, logger *zap.Logger) (*SyntheticSource, error) {
	opts = opts.withDefaults()
	analyser, err := NewAnalyser(opts.FFTSize, opts.SampleRate)
	if err != nil {
		return nil, err
	}

	return &SyntheticSource{
		analyser: analyser,
		window:   newSlidingWindow(opts.FFTSize),
		limiter:  opts.limiter(),
		signal:   NewBreathSignal(bpm, opts.SampleRate, seed),
		logger:   logger,
		samples:  make([]float64, hopFor(opts.SampleRate, opts.FrameRate, opts.FFTSize)),
	}, nil
}

func (s *SyntheticSource) Envelope(t float64) float64 {
	return s.signal.Envelope(t)
}

func (s *SyntheticSource) Next(ctx context.Context) (domain.SpectralFrame, error) {
	if s.closed.Load() {
		return domain.SpectralFrame{}, ErrSourceClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.SpectralFrame{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.SpectralFrame{}, err
	}

	s.signal.Fill(s.samples)
	return s.analyser.Frame(s.window.push(s.samples))
}

func (s *SyntheticSource) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.logger.Debug("synthetic source closed", zap.Float64("breath_hz", s.signal.breathHz))
	}
	return nil
}
