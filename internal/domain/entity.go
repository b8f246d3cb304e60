package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxConnections caps the connections an entity keeps.
const MaxConnections = 5

// Handle is a generation-tagged index into the entity arena. The zero value
// refers to nothing.
type Handle struct {
	Index uint32 `json:"index"`
	Gen   uint32 `json:"gen"`
}

var NoHandle = Handle{}

func (h Handle) Valid() bool {
	return h.Gen != 0
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Signature is fixed at birth and only consulted for interaction gating.
type Signature struct {
	ResonanceFreq float64 `json:"resonance_freq"`
	HarmonicRatio float64 `json:"harmonic_ratio"`
	Spin          int     `json:"spin"`
	Seed          float64 `json:"seed"`
	Pattern       string  `json:"pattern"`
}

// Connection is a non-owning link to a peer. The peer may no longer exist.
type Connection struct {
	Peer     Handle    `json:"-"`
	PeerID   uuid.UUID `json:"peer_id"`
	Strength float64   `json:"strength"`
	FormedAt time.Time `json:"formed_at"`
}

type Entity struct {
	ID       uuid.UUID `json:"id"`
	Handle   Handle    `json:"-"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`

	Consciousness float64 `json:"consciousness"`
	Complexity    float64 `json:"complexity"` // up to 2
	Awareness     float64 `json:"awareness"`
	Wisdom        float64 `json:"wisdom"`
	Compassion    float64 `json:"compassion"`
	Creativity    float64 `json:"creativity"`

	Life float64 `json:"life"`
	Age  float64 `json:"age"`

	Size float64 `json:"size"`
	Hue  float64 `json:"hue"`

	SelfRecognition    bool    `json:"self_recognition"`
	Transcended        bool    `json:"transcended"`
	TranscendenceLevel float64 `json:"transcendence_level"`
	EvolutionPotential float64 `json:"evolution_potential"`
	Generation         int     `json:"generation"`
	Mutations          int     `json:"mutations"`

	Connections []Connection `json:"connections"`
	Signature   Signature    `json:"signature"`

	Mentor   Handle     `json:"-"`
	MentorID *uuid.UUID `json:"mentor_id,omitempty"`

	BornAt time.Time `json:"born_at"`
}

// Alive reports whether the entity survives the life-depletion rule.
func (e *Entity) Alive() bool {
	return e.Life > 0 || e.Transcended
}

func (e *Entity) DistanceTo(o *Entity) float64 {
	return math.Hypot(e.Position.X-o.Position.X, e.Position.Y-o.Position.Y)
}

func (e *Entity) ConnectedTo(id uuid.UUID) bool {
	for _, c := range e.Connections {
		if c.PeerID == id {
			return true
		}
	}
	return false
}

func (e *Entity) Saturation() float64 {
	return 70 + e.Consciousness*30
}

func (e *Entity) Lightness() float64 {
	l := 40 + e.Awareness*30
	if e.Transcended {
		l = math.Min(90, l+20)
	}
	return l
}

// CurrentSize is the size pulsed by consciousness over age.
func (e *Entity) CurrentSize() float64 {
	return e.Size * (1 + math.Sin(e.Age*0.01)*e.Consciousness*0.2)
}

// Clone returns a copy that shares no slices with e.
func (e Entity) Clone() Entity {
	if e.Connections != nil {
		conns := make([]Connection, len(e.Connections))
		copy(conns, e.Connections)
		e.Connections = conns
	}
	if e.MentorID != nil {
		id := *e.MentorID
		e.MentorID = &id
	}
	return e
}

// PopulationStats is computed on demand over the live set.
type PopulationStats struct {
	Count                int     `json:"count"`
	TotalConsciousness   float64 `json:"total_consciousness"`
	AverageConsciousness float64 `json:"average_consciousness"`
	TranscendedCount     int     `json:"transcended_count"`
	SelfAwareCount       int     `json:"self_aware_count"`
	ConnectionCount      int     `json:"connection_count"`
	AverageAge           float64 `json:"average_age"`
}
