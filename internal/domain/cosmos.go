package domain

// CosmicState holds four session-scoped accumulators, each kept within [0,1].
type CosmicState struct {
	Consciousness float64 `json:"consciousness"`
	Complexity    float64 `json:"complexity"`
	Unity         float64 `json:"unity"`
	Transcendence float64 `json:"transcendence"`
}

// Clamp01 bounds v to [0,1]; NaN collapses to 0.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Viewport is the host-owned simulation bounds. It may change between ticks.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
