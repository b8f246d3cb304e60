package store

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(base time.Time, ms int, amp float64) domain.BreathSample {
	return domain.BreathSample{
		Amplitude: amp,
		Timestamp: base.Add(time.Duration(ms) * time.Millisecond),
	}
}

func TestBreathHistory_EvictsOutsideWindow(t *testing.T) {
	base := time.Unix(1700000000, 0)
	h := NewBreathHistory(DefaultHistoryWindow)

	for ms := 0; ms <= 25000; ms += 250 {
		h.Append(sampleAt(base, ms, 0.5))

		snap := h.Snapshot()
		require.NotEmpty(t, snap)
		newest := snap[len(snap)-1].Timestamp
		for _, s := range snap {
			assert.Less(t, newest.Sub(s.Timestamp), 10*time.Second)
		}
	}

	// 10 s / 250 ms = 40 samples, the one exactly 10 s old is evicted.
	assert.Equal(t, 40, h.Len())
}

func TestBreathHistory_PreservesOrder(t *testing.T) {
	base := time.Unix(1700000000, 0)
	h := NewBreathHistory(time.Second)

	for i := 0; i < 50; i++ {
		h.Append(sampleAt(base, i*100, float64(i)))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 10)
	for i := 1; i < len(snap); i++ {
		assert.True(t, snap[i].Timestamp.After(snap[i-1].Timestamp))
	}
	assert.Equal(t, 49.0, snap[len(snap)-1].Amplitude)
	assert.Equal(t, 40.0, snap[0].Amplitude)
}

func TestBreathHistory_LargeGapEvictsEverythingButNewest(t *testing.T) {
	base := time.Unix(1700000000, 0)
	h := NewBreathHistory(DefaultHistoryWindow)

	for i := 0; i < 20; i++ {
		h.Append(sampleAt(base, i*100, 0.3))
	}
	h.Append(sampleAt(base, 60000, 0.9))

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0.9, snap[0].Amplitude)
}

func TestBreathHistory_SnapshotIsNotAppendable(t *testing.T) {
	base := time.Unix(1700000000, 0)
	h := NewBreathHistory(DefaultHistoryWindow)
	h.Append(sampleAt(base, 0, 0.1))
	h.Append(sampleAt(base, 100, 0.2))

	snap := h.Snapshot()
	_ = append(snap, sampleAt(base, 200, 0.3))

	assert.Equal(t, 2, h.Len())
	h.Append(sampleAt(base, 200, 0.4))
	assert.Equal(t, 0.4, h.Snapshot()[2].Amplitude)
}

func TestBreathHistory_Reset(t *testing.T) {
	h := NewBreathHistory(0)
	assert.Equal(t, DefaultHistoryWindow, h.Window())

	h.Append(sampleAt(time.Now(), 0, 0.5))
	h.Reset()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Snapshot())
}
