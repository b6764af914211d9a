package maximization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

// MemoryFunc returns the best decision the agent remembers, if any.
type MemoryFunc[A comparable, T any] func(agent A) (T, bool)

// ParticleSwarmConfig holds the tunables of a particle swarm.
type ParticleSwarmConfig[A comparable, T any] struct {
	Inertia      float64
	MemoryWeight float64
	SocialWeight float64
	Dimensions   int

	BestMemory  MemoryFunc[A, T]
	Transformer adaptation.CoordinateTransformer[A, T]
	Bounder     adaptation.Bounder // optional

	// One per dimension.
	VelocityShocks    []float64
	InitialVelocities []adaptation.DoubleParameter
}

// ParticleSwarm is a PSO over the coordinate space: velocity keeps momentum
// and is pulled towards the agent's best memory and its fittest peer.
type ParticleSwarm[A comparable, T any] struct {
	inertia      float64
	memoryWeight float64
	socialWeight float64
	dimensions   int

	bestMemory     MemoryFunc[A, T]
	transformer    adaptation.CoordinateTransformer[A, T]
	bounder        adaptation.Bounder
	velocityShocks []float64

	// nil until the agent's value could be transformed.
	coordinates []float64
	velocities  []float64
	world       any
}

// NewParticleSwarm validates cfg and draws the initial velocities from rng.
func NewParticleSwarm[A comparable, T any](cfg ParticleSwarmConfig[A, T], rng adaptation.Rand) (*ParticleSwarm[A, T], error) {
	switch {
	case cfg.Dimensions <= 0:
		return nil, fmt.Errorf("pso dimensions %d must be positive: %w", cfg.Dimensions, adaptation.ErrInvalidConfig)
	case len(cfg.VelocityShocks) != cfg.Dimensions:
		return nil, fmt.Errorf("pso has %d velocity shocks for %d dimensions: %w",
			len(cfg.VelocityShocks), cfg.Dimensions, adaptation.ErrInvalidConfig)
	case len(cfg.InitialVelocities) != cfg.Dimensions:
		return nil, fmt.Errorf("pso has %d initial velocities for %d dimensions: %w",
			len(cfg.InitialVelocities), cfg.Dimensions, adaptation.ErrInvalidConfig)
	case cfg.Transformer == nil:
		return nil, fmt.Errorf("pso needs a coordinate transformer: %w", adaptation.ErrInvalidConfig)
	case cfg.BestMemory == nil:
		return nil, fmt.Errorf("pso needs a best memory accessor: %w", adaptation.ErrInvalidConfig)
	case rng == nil:
		return nil, fmt.Errorf("pso needs a random source: %w", adaptation.ErrInvalidConfig)
	}
	for i, shock := range cfg.VelocityShocks {
		if shock < 0 || math.IsNaN(shock) {
			return nil, fmt.Errorf("pso velocity shock %d is %v: %w", i, shock, adaptation.ErrInvalidConfig)
		}
	}

	velocities := make([]float64, cfg.Dimensions)
	for i, p := range cfg.InitialVelocities {
		velocities[i] = p.Draw(rng)
	}
	return &ParticleSwarm[A, T]{
		inertia:        cfg.Inertia,
		memoryWeight:   cfg.MemoryWeight,
		socialWeight:   cfg.SocialWeight,
		dimensions:     cfg.Dimensions,
		bestMemory:     cfg.BestMemory,
		transformer:    cfg.Transformer,
		bounder:        cfg.Bounder,
		velocityShocks: append([]float64(nil), cfg.VelocityShocks...),
		velocities:     velocities,
	}, nil
}

func (p *ParticleSwarm[A, T]) Start(world any, agent A, initial T) {
	p.world = world
	p.locate(agent, initial)
}

// locate fills in the coordinates if they are still unknown and reports
// whether they are known now.
func (p *ParticleSwarm[A, T]) locate(agent A, current T) bool {
	if p.coordinates != nil {
		return true
	}
	coords := p.transformer.ToCoordinates(current, agent, p.world)
	if len(coords) != p.dimensions {
		return false
	}
	p.coordinates = cloneCoords(coords)
	return true
}

// Coordinates returns a copy of the current position, nil if unknown.
func (p *ParticleSwarm[A, T]) Coordinates() []float64 { return cloneCoords(p.coordinates) }

// Velocities returns a copy of the current velocity.
func (p *ParticleSwarm[A, T]) Velocities() []float64 { return cloneCoords(p.velocities) }

// Randomize shocks every velocity component; use sparingly.
func (p *ParticleSwarm[A, T]) Randomize(rng adaptation.Rand, agent A, fitness float64, current T) T {
	if !p.locate(agent, current) {
		return current
	}
	for i, shock := range p.velocityShocks {
		p.velocities[i] += rng.Float64()*2*shock - shock
	}
	return p.move(agent)
}

func (p *ParticleSwarm[A, T]) JudgeRandomization(rng adaptation.Rand, agent A, previousFitness, currentFitness float64, previous, current T) adaptation.Judgement[T] {
	return adaptation.Keep(current)
}

// Imitate is the canonical PSO update, pulling towards the best memory and
// the fittest peer that beats us.
func (p *ParticleSwarm[A, T]) Imitate(rng adaptation.Rand, agent A, fitness float64, current T, peers []A,
	objective adaptation.ObjectiveFunction[A], sensor adaptation.Sensor[A, T]) adaptation.Imitation[A, T] {
	if !p.locate(agent, current) {
		return adaptation.Stay[A](current)
	}

	var bestPeer A
	var socialCoordinates []float64
	bestFitness := math.Inf(-1)
	valid := 0
	for _, peer := range peers {
		if peer == agent {
			continue
		}
		f := objective(agent, peer)
		if !adaptation.IsFinite(f) {
			continue
		}
		coords := p.transformer.ToCoordinates(sensor(peer), peer, p.world)
		if len(coords) != p.dimensions {
			continue
		}
		valid++
		if valid == 1 || f > bestFitness {
			bestPeer, bestFitness, socialCoordinates = peer, f, coords
		}
	}
	if valid == 0 {
		return adaptation.Stay[A](p.Exploit(rng, agent, fitness, current))
	}

	self := fitness
	if math.IsNaN(self) {
		self = math.Inf(-1)
	}
	imitated := bestFitness > self
	if !imitated {
		socialCoordinates = nil
	}

	var memoryCoordinates []float64
	if memory, ok := p.bestMemory(agent); ok {
		memoryCoordinates = p.transformer.ToCoordinates(memory, agent, p.world)
		if len(memoryCoordinates) != p.dimensions {
			memoryCoordinates = nil
		}
	}

	for i := range p.velocities {
		p.velocities[i] *= p.inertia
		if memoryCoordinates != nil {
			p.velocities[i] += p.memoryWeight * (memoryCoordinates[i] - p.coordinates[i])
		}
		if socialCoordinates != nil {
			p.velocities[i] += p.socialWeight * (socialCoordinates[i] - p.coordinates[i])
		}
	}

	next := p.move(agent)
	if imitated {
		return adaptation.Copied(next, bestPeer)
	}
	return adaptation.Stay[A](next)
}

func (p *ParticleSwarm[A, T]) JudgeImitation(rng adaptation.Rand, agent A, peer A, fitnessBefore, fitnessAfter float64,
	previous, current T) (adaptation.Judgement[T], adaptation.PeerAction[A]) {
	return adaptation.Keep(current), adaptation.NoPeerAction[A]()
}

// Exploit drifts on, slowing down through inertia.
func (p *ParticleSwarm[A, T]) Exploit(rng adaptation.Rand, agent A, fitness float64, current T) T {
	if !p.locate(agent, current) {
		return current
	}
	floats.Scale(p.inertia, p.velocities)
	return p.move(agent)
}

func (p *ParticleSwarm[A, T]) move(agent A) T {
	floats.Add(p.coordinates, p.velocities)
	if p.bounder != nil {
		p.bounder(p.coordinates)
	}
	return p.transformer.FromCoordinates(cloneCoords(p.coordinates), agent, p.world)
}
