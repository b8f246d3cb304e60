package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, sampleRate, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestNewAnalyser_RejectsBadSizes(t *testing.T) {
	for _, size := range []int{0, 16, 31, 100, 3000, 65536} {
		_, err := NewAnalyser(size, DefaultSampleRate)
		assert.ErrorIs(t, err, ErrInvalidFrameSize, "size %d", size)
	}

	_, err := NewAnalyser(2048, 0)
	assert.Error(t, err)
}

func TestAnalyser_FrameLength(t *testing.T) {
	a, err := NewAnalyser(1024, DefaultSampleRate)
	require.NoError(t, err)

	_, err = a.Frame(make([]float64, 1000))
	assert.ErrorIs(t, err, ErrInvalidFrameSize)

	f, err := a.Frame(make([]float64, 1024))
	require.NoError(t, err)
	assert.Len(t, f.Bins, 512)
	assert.Equal(t, 1024, f.FFTSize)
	assert.Equal(t, DefaultSampleRate, f.SampleRate)
}

func TestAnalyser_Silence(t *testing.T) {
	a, err := NewAnalyser(2048, DefaultSampleRate)
	require.NoError(t, err)

	f, err := a.Frame(make([]float64, 2048))
	require.NoError(t, err)
	for k, v := range f.Bins {
		if v != 0 {
			t.Fatalf("bin %d = %d on silence", k, v)
		}
	}
}

func TestAnalyser_ToneLandsInItsBin(t *testing.T) {
	const n, bin = 2048, 8
	a, err := NewAnalyser(n, DefaultSampleRate)
	require.NoError(t, err)

	freq := float64(bin) * DefaultSampleRate / n
	f, err := a.Frame(sine(n, freq, DefaultSampleRate, 0.5))
	require.NoError(t, err)

	assert.Equal(t, uint8(255), f.Bins[bin])
	assert.Less(t, f.Bins[200], uint8(128))
}

func TestAnalyser_Smoothing(t *testing.T) {
	const n, bin = 2048, 8
	freq := float64(bin) * DefaultSampleRate / n
	tone := sine(n, freq, DefaultSampleRate, 0.5)

	a, err := NewAnalyser(n, DefaultSampleRate)
	require.NoError(t, err)
	_, err = a.Frame(tone)
	require.NoError(t, err)
	f, err := a.Frame(make([]float64, n))
	require.NoError(t, err)
	assert.Greater(t, f.Bins[bin], uint8(0), "smoothing carries energy into the next frame")

	a.Reset()
	f, err = a.Frame(make([]float64, n))
	require.NoError(t, err)
	assert.Zero(t, f.Bins[bin])

	a.SetSmoothing(0)
	_, err = a.Frame(tone)
	require.NoError(t, err)
	f, err = a.Frame(make([]float64, n))
	require.NoError(t, err)
	assert.Zero(t, f.Bins[bin])
}

func TestSlidingWindow(t *testing.T) {
	w := newSlidingWindow(4)
	assert.Equal(t, []float64{0, 0, 1, 2}, w.push([]float64{1, 2}))
	assert.Equal(t, []float64{1, 2, 3, 4}, w.push([]float64{3, 4}))
	assert.Equal(t, []float64{6, 7, 8, 9}, w.push([]float64{5, 6, 7, 8, 9}))
}

func TestHopFor(t *testing.T) {
	assert.Equal(t, 735, hopFor(44100, 60, 2048))
	assert.Equal(t, 735, hopFor(44100, 0, 2048))
	assert.Equal(t, 2048, hopFor(44100, 1, 2048))
	assert.Equal(t, 1, hopFor(10, 60, 2048))
}
