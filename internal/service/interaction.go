package service

import (
	"math"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"go.uber.org/zap"
)

const (
	InteractionRadius  = 100.0
	ConnectionRadius   = 50.0
	ExchangeRadius     = 30.0
	ReproductionRadius = 20.0

	ResonanceGate      = 50.0
	ResonanceBonus     = 0.5
	MaxExchange        = 0.01
	ExchangeRate       = 0.1
	ExchangeWisdomRate = 0.1

	ReproductionConsciousness = 0.6
	ReproductionLife          = 0.7
	ReproductionChance        = 0.001
	OffspringScatter          = 50.0
	MutationSpread            = 0.1
	OffspringHueSpread        = 60.0
)

// interact runs every pair within InteractionRadius once, in insertion order,
// and returns the offspring to insert once the pass is over.
func (s *PopulationService) interact(entities []*domain.Entity, grid *spatialGrid) []domain.Entity {
	var offspring []domain.Entity
	for i, a := range entities {
		for _, j := range grid.neighbors(a.Position, i) {
			b := entities[j]
			d := a.DistanceTo(b)
			if d >= InteractionRadius {
				continue
			}
			if child, ok := s.interactPair(a, b, d); ok {
				offspring = append(offspring, child)
			}
		}
	}
	return offspring
}

func (s *PopulationService) interactPair(a, b *domain.Entity, d float64) (domain.Entity, bool) {
	if d < ConnectionRadius && resonates(a, b) {
		s.connect(a, b)
		s.connect(b, a)
	}

	if d < ExchangeRadius {
		exchangeConsciousness(a, b)
	}

	if d < ReproductionRadius && canReproduce(a, b) && s.rng.Float64() < ReproductionChance {
		return s.reproduce(a, b), true
	}
	return domain.Entity{}, false
}

func resonates(a, b *domain.Entity) bool {
	return math.Abs(a.Signature.ResonanceFreq-b.Signature.ResonanceFreq) < ResonanceGate
}

// connect links from to peer unless from is full or already linked.
func (s *PopulationService) connect(from, peer *domain.Entity) {
	if len(from.Connections) >= domain.MaxConnections || from.ConnectedTo(peer.ID) {
		return
	}
	from.Connections = append(from.Connections, domain.Connection{
		Peer:     peer.Handle,
		PeerID:   peer.ID,
		Strength: connectionStrength(from, peer),
		FormedAt: s.clock(),
	})
}

func connectionStrength(a, b *domain.Entity) float64 {
	similarity := 1 - math.Abs(a.Consciousness-b.Consciousness)
	wisdom := (a.Wisdom + b.Wisdom) / 2
	return (similarity + ResonanceBonus + wisdom) / 3
}

// exchangeConsciousness lets the less conscious member learn from the more
// conscious one. The flow is one-directional.
func exchangeConsciousness(a, b *domain.Entity) {
	lower, higher := a, b
	if a.Consciousness > b.Consciousness {
		lower, higher = b, a
	}
	if lower.Consciousness == higher.Consciousness {
		return
	}

	amount := math.Min(MaxExchange, (higher.Consciousness-lower.Consciousness)*ExchangeRate)
	lower.Consciousness = domain.Clamp01(lower.Consciousness + amount*0.5)
	lower.Wisdom = domain.Clamp01(lower.Wisdom + amount*ExchangeWisdomRate)
}

func canReproduce(a, b *domain.Entity) bool {
	return a.Consciousness > ReproductionConsciousness &&
		b.Consciousness > ReproductionConsciousness &&
		a.Life > ReproductionLife &&
		b.Life > ReproductionLife
}

// reproduce builds one child near the parents' midpoint with averaged,
// slightly mutated traits. The more conscious parent becomes its mentor.
func (s *PopulationService) reproduce(a, b *domain.Entity) domain.Entity {
	child := s.newEntity()

	child.Position = domain.Vec2{
		X: (a.Position.X+b.Position.X)/2 + (s.rng.Float64()-0.5)*OffspringScatter,
		Y: (a.Position.Y+b.Position.Y)/2 + (s.rng.Float64()-0.5)*OffspringScatter,
	}
	child.Consciousness = s.inherit(a.Consciousness, b.Consciousness)
	child.Awareness = s.inherit(a.Awareness, b.Awareness)
	child.Wisdom = s.inherit(a.Wisdom, b.Wisdom)
	child.Compassion = s.inherit(a.Compassion, b.Compassion)
	child.Creativity = s.inherit(a.Creativity, b.Creativity)
	child.Complexity = math.Min(MaxComplexity, math.Max(a.Complexity, b.Complexity)+s.rng.Float64()*MutationSpread)
	child.Hue = wrapHue((a.Hue+b.Hue)/2 + (s.rng.Float64()-0.5)*OffspringHueSpread)
	child.Size = math.Min(MaxEntitySize, (a.Size+b.Size)/2)
	child.EvolutionPotential = math.Max(a.EvolutionPotential, b.EvolutionPotential)
	child.Generation = max(a.Generation, b.Generation) + 1
	child.Mutations = max(a.Mutations, b.Mutations) + 1

	mentor := b
	if a.Consciousness > b.Consciousness {
		mentor = a
	}
	mentorID := mentor.ID
	child.Mentor = mentor.Handle
	child.MentorID = &mentorID

	s.logger.Debug("entity reproduced",
		zap.String("child_id", child.ID.String()),
		zap.String("mentor_id", mentorID.String()),
		zap.Int("generation", child.Generation))
	return child
}

func (s *PopulationService) inherit(a, b float64) float64 {
	return domain.Clamp01((a+b)/2 + (s.rng.Float64()-0.5)*MutationSpread)
}
