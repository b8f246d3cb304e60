package service

import (
	"fmt"
	"math"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMaxEntities = 500

	BirthProbabilityScale = 0.3
	BaseEntitySize        = 2.0
	EntitySizeScale       = 8.0
	MaxEntitySize         = 40.0

	EvolutionConsciousnessGain = 0.02
	EvolutionComplexityGain    = 0.01
	MaxComplexity              = 2.0
	EvolutionLifeCost          = 0.001
	EvolutionLifeRestore       = 0.002

	TranscendPulseConsciousness = 0.8
	TranscendPulseChance        = 0.1
	TranscendPulseHueShift      = 60.0

	LifeDecayPerFrame      = 0.0001
	TranscendedGrowthRate  = 1.001
	TranscendenceSizeBoost = 1.5
)

// BreathOutcome reports what one fresh metrics record did to the population.
type BreathOutcome struct {
	Triggers    domain.BreathTriggers `json:"triggers"`
	Born        int                   `json:"born"`
	Evolved     int                   `json:"evolved"`
	Transcended int                   `json:"transcended"`
}

// TickResult reports what one continuous update did.
type TickResult struct {
	Removed     int `json:"removed"`
	Offspring   int `json:"offspring"`
	Transcended int `json:"transcended"`
}

// PopulationService owns the live entity set. It must only be driven from
// the simulation driver.
type PopulationService struct {
	store  domain.EntityStore
	rng    domain.RandomSource
	logger *zap.Logger

	maxEntities int
	clock       func() time.Time
}

func NewPopulationService(store domain.EntityStore, rng domain.RandomSource, logger *zap.Logger) *PopulationService {
	return &PopulationService{
		store:       store,
		rng:         rng,
		logger:      logger,
		maxEntities: DefaultMaxEntities,
		clock:       time.Now,
	}
}

func (s *PopulationService) SetMaxEntities(n int) {
	if n > 0 {
		s.maxEntities = n
	}
}

func (s *PopulationService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// SetRandom swaps the random source, typically when a new session is seeded.
func (s *PopulationService) SetRandom(rng domain.RandomSource) {
	s.rng = rng
}

// Add places a fully formed entity into the population, assigning an id
// when it has none. It ignores the population cap.
func (s *PopulationService) Add(e domain.Entity) domain.Handle {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return s.store.Insert(e)
}

func (s *PopulationService) Get(h domain.Handle) (*domain.Entity, bool) {
	return s.store.Get(h)
}

func (s *PopulationService) Len() int {
	return s.store.Len()
}

func (s *PopulationService) Reset() {
	s.store.Reset()
}

// ApplyBreath runs the phase-gated rules for one fresh metrics record.
func (s *PopulationService) ApplyBreath(m domain.BreathMetrics, vp domain.Viewport) BreathOutcome {
	out := BreathOutcome{Triggers: EvaluateTriggers(m)}

	if out.Triggers.Birth && s.rng.Float64() < m.BreathDepth*BirthProbabilityScale {
		if _, ok := s.Birth(m, vp); ok {
			out.Born++
		}
	}
	if out.Triggers.Evolution {
		out.Evolved = s.evolve(m)
	}
	if out.Triggers.Transcend {
		out.Transcended = s.transcendPulse()
	}
	return out
}

// Birth creates one entity shaped by the breath that produced it. It fails
// only when the population is at capacity.
func (s *PopulationService) Birth(m domain.BreathMetrics, vp domain.Viewport) (domain.Handle, bool) {
	if s.store.Len() >= s.maxEntities {
		s.logger.Debug("birth refused at capacity", zap.Int("max_entities", s.maxEntities))
		return domain.NoHandle, false
	}

	e := s.newEntity()
	e.Position = domain.Vec2{X: s.rng.Float64() * vp.Width, Y: s.rng.Float64() * vp.Height}
	e.Consciousness = domain.Clamp01(m.Coherence * 0.5)
	e.Complexity = domain.Clamp(m.BreathDepth, 0, MaxComplexity)
	e.Size = BaseEntitySize + m.BreathDepth*EntitySizeScale
	e.Hue = wrapHue(m.Coherence*360 + m.Amplitude*120)

	h := s.Add(e)
	s.logger.Debug("entity born",
		zap.String("entity_id", e.ID.String()),
		zap.Float64("consciousness", e.Consciousness),
		zap.Float64("complexity", e.Complexity))
	return h, true
}

// newEntity fills the traits every entity draws at birth.
func (s *PopulationService) newEntity() domain.Entity {
	return domain.Entity{
		ID:                 uuid.New(),
		Velocity:           domain.Vec2{X: (s.rng.Float64() - 0.5) * 2, Y: (s.rng.Float64() - 0.5) * 2},
		Life:               1,
		Creativity:         s.rng.Float64(),
		Compassion:         s.rng.Float64() * 0.3,
		EvolutionPotential: s.rng.Float64(),
		Signature:          s.newSignature(),
		BornAt:             s.clock(),
	}
}

func (s *PopulationService) newSignature() domain.Signature {
	spin := -1
	if s.rng.Float64() > 0.5 {
		spin = 1
	}
	return domain.Signature{
		ResonanceFreq: 20 + s.rng.Float64()*200,
		HarmonicRatio: 1 + s.rng.Float64()*2,
		Spin:          spin,
		Seed:          s.rng.Float64() * 1e6,
		Pattern:       fmt.Sprintf("%04b", int(s.rng.Float64()*16)),
	}
}

func (s *PopulationService) evolve(m domain.BreathMetrics) int {
	n := 0
	for _, h := range s.store.Handles() {
		e, ok := s.store.Get(h)
		if !ok || e.Transcended {
			continue
		}
		e.Consciousness = domain.Clamp01(e.Consciousness + m.Coherence*EvolutionConsciousnessGain)
		e.Complexity = domain.Clamp(e.Complexity+m.BreathDepth*EvolutionComplexityGain, 0, MaxComplexity)
		e.Age++
		e.Life = domain.Clamp01(e.Life - EvolutionLifeCost + m.Coherence*EvolutionLifeRestore)
		n++
	}
	return n
}

func (s *PopulationService) transcendPulse() int {
	n := 0
	for _, h := range s.store.Handles() {
		e, ok := s.store.Get(h)
		if !ok || e.Transcended || e.Consciousness <= TranscendPulseConsciousness {
			continue
		}
		if s.rng.Float64() >= TranscendPulseChance {
			continue
		}
		e.Transcended = true
		e.TranscendenceLevel = 1
		e.Size = math.Min(MaxEntitySize, e.Size*TranscendenceSizeBoost)
		e.Hue = wrapHue(e.Hue + TranscendPulseHueShift)
		s.logger.Debug("entity transcended by pulse", zap.String("entity_id", e.ID.String()))
		n++
	}
	return n
}

// Tick is the continuous per-frame update. dt is measured in frames.
func (s *PopulationService) Tick(dt float64, vp domain.Viewport, cosmic domain.CosmicState) TickResult {
	var res TickResult

	handles := s.store.Handles()
	entities := make([]*domain.Entity, 0, len(handles))
	for _, h := range handles {
		if e, ok := s.store.Get(h); ok {
			advance(e, dt, vp)
			entities = append(entities, e)
		}
	}

	for _, e := range entities {
		developConsciousness(e, cosmic.Consciousness)
	}

	grid := newSpatialGrid(InteractionRadius, entities)
	offspring := s.interact(entities, grid)
	radiate(entities, grid)

	for _, e := range entities {
		if checkTranscendence(e) {
			res.Transcended++
			s.logger.Debug("entity transcended", zap.String("entity_id", e.ID.String()))
		}
	}

	// Culling comes last so an entity that transcends on its final frame survives.
	res.Removed = s.store.Retain(func(e *domain.Entity) bool { return e.Alive() })

	// Inserting may grow the arena, so it happens after every pointer above is done.
	for _, child := range offspring {
		if s.store.Len() >= s.maxEntities {
			break
		}
		s.Add(child)
		res.Offspring++
	}

	return res
}

// advance moves, ages and decays one entity, wrapping it across the viewport.
func advance(e *domain.Entity, dt float64, vp domain.Viewport) {
	e.Position.X += e.Velocity.X * dt
	e.Position.Y += e.Velocity.Y * dt
	e.Age += dt

	if e.Transcended {
		e.Size = math.Min(MaxEntitySize, e.Size*math.Pow(TranscendedGrowthRate, dt))
	} else {
		e.Life = math.Max(0, e.Life-LifeDecayPerFrame*dt)
	}

	e.Position.X = wrapAxis(e.Position.X, vp.Width)
	e.Position.Y = wrapAxis(e.Position.Y, vp.Height)
}

func wrapAxis(v, extent float64) float64 {
	if extent <= 0 {
		return v
	}
	if v < 0 {
		return extent
	}
	if v > extent {
		return 0
	}
	return v
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Snapshot copies the live entities in insertion order.
func (s *PopulationService) Snapshot() []domain.Entity {
	handles := s.store.Handles()
	out := make([]domain.Entity, 0, len(handles))
	for _, h := range handles {
		if e, ok := s.store.Get(h); ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Stats aggregates the live set. It is recomputed on every call.
func (s *PopulationService) Stats() domain.PopulationStats {
	return ComputeStats(s.Snapshot())
}

func ComputeStats(entities []domain.Entity) domain.PopulationStats {
	stats := domain.PopulationStats{Count: len(entities)}
	if len(entities) == 0 {
		return stats
	}

	totalAge := 0.0
	for i := range entities {
		e := &entities[i]
		stats.TotalConsciousness += e.Consciousness
		stats.ConnectionCount += len(e.Connections)
		totalAge += e.Age
		if e.Transcended {
			stats.TranscendedCount++
		}
		if e.SelfRecognition {
			stats.SelfAwareCount++
		}
	}
	stats.AverageConsciousness = stats.TotalConsciousness / float64(len(entities))
	stats.AverageAge = totalAge / float64(len(entities))
	return stats
}

// ResolvePeer follows a connection. ok is false once the peer is gone.
func (s *PopulationService) ResolvePeer(c domain.Connection) (*domain.Entity, bool) {
	return s.store.Get(c.Peer)
}

// Mentor follows an entity's mentor reference, tolerating a departed mentor.
func (s *PopulationService) Mentor(e *domain.Entity) (*domain.Entity, bool) {
	if !e.Mentor.Valid() {
		return nil, false
	}
	return s.store.Get(e.Mentor)
}
