package store

import (
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

// DefaultHistoryWindow is how far back the breath window reaches from its newest sample.
const DefaultHistoryWindow = 10 * time.Second

// BreathHistory is a time-windowed, time-ordered log of breath samples.
// It is owned by a single audio driver and is not safe for concurrent use.
type BreathHistory struct {
	window  time.Duration
	samples []domain.BreathSample
	head    int
}

func NewBreathHistory(window time.Duration) *BreathHistory {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &BreathHistory{window: window}
}

// Append records s and evicts everything at least one window older than s.
// Samples must arrive in time order.
func (h *BreathHistory) Append(s domain.BreathSample) {
	h.samples = append(h.samples, s)

	for h.head < len(h.samples) && s.Timestamp.Sub(h.samples[h.head].Timestamp) >= h.window {
		h.head++
	}

	// Reclaim the evicted prefix once it dominates the backing array.
	if h.head > 0 && h.head >= len(h.samples)/2 {
		n := copy(h.samples, h.samples[h.head:])
		clear(h.samples[n:])
		h.samples = h.samples[:n]
		h.head = 0
	}
}

// Snapshot returns the retained samples oldest first. The slice is a read-only
// view that stays valid until the next Append.
func (h *BreathHistory) Snapshot() []domain.BreathSample {
	live := h.samples[h.head:]
	return live[:len(live):len(live)]
}

func (h *BreathHistory) Len() int {
	return len(h.samples) - h.head
}

func (h *BreathHistory) Window() time.Duration {
	return h.window
}

func (h *BreathHistory) Reset() {
	h.samples = nil
	h.head = 0
}
