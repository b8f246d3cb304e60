package domain

import "context"

// HistoryStore is the rolling breath sample window.
type HistoryStore interface {
	Append(s BreathSample)
	Snapshot() []BreathSample
	Len() int
	Reset()
}

// EntityStore owns every live entity. Pointers returned by Get stay valid
// until the next Insert or Reset.
type EntityStore interface {
	Insert(e Entity) Handle
	Get(h Handle) (*Entity, bool)
	Retain(keep func(*Entity) bool) int
	Handles() []Handle
	Len() int
	Reset()
}

// FrameSource yields spectral frames at the host's audio cadence. Next blocks
// until a frame is available, the source is exhausted (io.EOF) or ctx ends.
type FrameSource interface {
	Next(ctx context.Context) (SpectralFrame, error)
	Close() error
}

// RandomSource drives every stochastic rule. *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}
