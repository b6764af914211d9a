package maximization

import (
	"fmt"
	"log/slog"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

// GravitationalSearchConfig holds the tunables of a gravitational search.
type GravitationalSearchConfig[A comparable, T any] struct {
	Transformer adaptation.CoordinateTransformer[A, T]
	Sensor      adaptation.Sensor[A, T]
	// Mass is how the agent judges itself and others; fitter means heavier.
	Mass adaptation.ObjectiveFunction[A]
	// Population lists every agent Randomize pulls from. Optional.
	Population func() []A

	// The higher it is the faster agents fall towards heavier ones.
	GravitationalConstant float64
	// Only this many of the heaviest agents attract.
	ExplorationMaximum int
	InitialSpeed       adaptation.DoubleParameter
	Bounder            adaptation.Bounder // optional
}

// GravitationalSearch treats agents as bodies whose mass is their relative
// fitness; each tick the agent is accelerated towards the heaviest ones.
type GravitationalSearch[A comparable, T any] struct {
	transformer        adaptation.CoordinateTransformer[A, T]
	sensor             adaptation.Sensor[A, T]
	mass               adaptation.ObjectiveFunction[A]
	population         func() []A
	gravity            float64
	explorationMaximum int
	initialSpeed       adaptation.DoubleParameter
	bounder            adaptation.Bounder

	// Kept rather than re-derived each tick: transforming back and forth may discretize.
	coordinates []float64
	speed       []float64
	world       any
}

// NewGravitationalSearch validates cfg.
func NewGravitationalSearch[A comparable, T any](cfg GravitationalSearchConfig[A, T]) (*GravitationalSearch[A, T], error) {
	switch {
	case cfg.Transformer == nil:
		return nil, fmt.Errorf("gravitational search needs a coordinate transformer: %w", adaptation.ErrInvalidConfig)
	case cfg.Sensor == nil:
		return nil, fmt.Errorf("gravitational search needs a sensor: %w", adaptation.ErrInvalidConfig)
	case cfg.Mass == nil:
		return nil, fmt.Errorf("gravitational search needs a mass function: %w", adaptation.ErrInvalidConfig)
	case cfg.GravitationalConstant < 0:
		return nil, fmt.Errorf("gravitational constant %v negative: %w", cfg.GravitationalConstant, adaptation.ErrInvalidConfig)
	case cfg.ExplorationMaximum <= 0:
		return nil, fmt.Errorf("exploration maximum %d must be positive: %w", cfg.ExplorationMaximum, adaptation.ErrInvalidConfig)
	}
	initialSpeed := cfg.InitialSpeed
	if initialSpeed == nil {
		initialSpeed = adaptation.FixedParameter{}
	}
	return &GravitationalSearch[A, T]{
		transformer:        cfg.Transformer,
		sensor:             cfg.Sensor,
		mass:               cfg.Mass,
		population:         cfg.Population,
		gravity:            cfg.GravitationalConstant,
		explorationMaximum: cfg.ExplorationMaximum,
		initialSpeed:       initialSpeed,
		bounder:            cfg.Bounder,
	}, nil
}

func (g *GravitationalSearch[A, T]) Start(world any, agent A, initial T) {
	g.world = world
	if coords := g.transformer.ToCoordinates(initial, agent, world); coords != nil {
		g.coordinates = cloneCoords(coords)
	}
}

// TurnOff has nothing to release.
func (g *GravitationalSearch[A, T]) TurnOff(agent A) {}

// Coordinates returns a copy of the current position, nil if unknown.
func (g *GravitationalSearch[A, T]) Coordinates() []float64 { return cloneCoords(g.coordinates) }

// Speed returns a copy of the current speed, nil before the first step.
func (g *GravitationalSearch[A, T]) Speed() []float64 { return cloneCoords(g.speed) }

// ready transforms the agent lazily and draws the initial speed on first use.
func (g *GravitationalSearch[A, T]) ready(rng adaptation.Rand, agent A, current T) bool {
	if g.coordinates == nil {
		coords := g.transformer.ToCoordinates(current, agent, g.world)
		if coords == nil {
			return false
		}
		g.coordinates = cloneCoords(coords)
	}
	if g.speed == nil {
		g.speed = make([]float64, len(g.coordinates))
		for i := range g.speed {
			g.speed[i] = g.initialSpeed.Draw(rng)
		}
	}
	return true
}

// Randomize feels the pull of the whole population.
func (g *GravitationalSearch[A, T]) Randomize(rng adaptation.Rand, agent A, fitness float64, current T) T {
	if !g.ready(rng, agent, current) {
		return current
	}
	var everyone []A
	if g.population != nil {
		everyone = g.population()
	}
	acceleration, _, _ := g.force(rng, agent, everyone, g.mass, g.sensor)
	return g.move(rng, agent, acceleration)
}

func (g *GravitationalSearch[A, T]) JudgeRandomization(rng adaptation.Rand, agent A, previousFitness, currentFitness float64, previous, current T) adaptation.Judgement[T] {
	return adaptation.Keep(current)
}

// Imitate feels the pull of peers only, weighing and locating them with the
// objective and sensor it is handed; nil falls back to the configured ones.
// The heaviest attracting peer is reported as the one imitated.
func (g *GravitationalSearch[A, T]) Imitate(rng adaptation.Rand, agent A, fitness float64, current T, peers []A,
	objective adaptation.ObjectiveFunction[A], sensor adaptation.Sensor[A, T]) adaptation.Imitation[A, T] {
	if !g.ready(rng, agent, current) {
		return adaptation.Stay[A](current)
	}
	if objective == nil {
		objective = g.mass
	}
	if sensor == nil {
		sensor = g.sensor
	}
	acceleration, leader, pulled := g.force(rng, agent, peers, objective, sensor)
	next := g.move(rng, agent, acceleration)
	if pulled {
		return adaptation.Copied(next, leader)
	}
	return adaptation.Stay[A](next)
}

func (g *GravitationalSearch[A, T]) JudgeImitation(rng adaptation.Rand, agent A, peer A, fitnessBefore, fitnessAfter float64,
	previous, current T) (adaptation.Judgement[T], adaptation.PeerAction[A]) {
	return adaptation.Keep(current), adaptation.NoPeerAction[A]()
}

// Exploit drifts under damped momentum with no attraction.
func (g *GravitationalSearch[A, T]) Exploit(rng adaptation.Rand, agent A, fitness float64, current T) T {
	if !g.ready(rng, agent, current) {
		return current
	}
	return g.move(rng, agent, make([]float64, len(g.speed)))
}

// massTable pairs the agent and every other agent with defined coordinates
// and finite mass.
func (g *GravitationalSearch[A, T]) massTable(agent A, others []A, mass adaptation.ObjectiveFunction[A],
	sensor adaptation.Sensor[A, T]) (table []massEntry[A], personal float64) {
	personal = mass(agent, agent)
	if adaptation.IsFinite(personal) {
		table = append(table, massEntry[A]{agent: agent, coords: g.coordinates, mass: personal, self: true})
	}
	for _, other := range others {
		if other == agent {
			continue
		}
		coords := g.transformer.ToCoordinates(sensor(other), other, g.world)
		if len(coords) != len(g.coordinates) {
			continue
		}
		m := mass(agent, other)
		if !adaptation.IsFinite(m) {
			continue
		}
		table = append(table, massEntry[A]{agent: other, coords: coords, mass: m})
	}
	return table, personal
}

// force returns the acceleration acting on the agent and the heaviest other
// body that contributed to it.
func (g *GravitationalSearch[A, T]) force(rng adaptation.Rand, agent A, others []A, mass adaptation.ObjectiveFunction[A],
	sensor adaptation.Sensor[A, T]) (acceleration []float64, leader A, pulled bool) {
	acceleration = make([]float64, len(g.coordinates))

	table, personal := g.massTable(agent, others, mass, sensor)
	if !adaptation.IsFinite(personal) {
		slog.Debug("gravitational search: personal mass undefined, drifting")
		return acceleration, leader, false
	}
	personalMass, ok := normalizeMasses(table, personal)
	if !ok {
		return acceleration, leader, false
	}

	for _, body := range heaviest(table, g.explorationMaximum) {
		distance := squaredDistance(g.coordinates, body.coords)
		if distance <= 0 {
			continue
		}
		for d := range acceleration {
			acceleration[d] += rng.Float64() * g.gravity * (body.coords[d] - g.coordinates[d]) *
				(personalMass * body.mass) / (distance + distanceEpsilon)
		}
		if !body.self && !pulled {
			leader, pulled = body.agent, true
		}
	}
	for d := range acceleration {
		acceleration[d] /= personalMass
	}
	return acceleration, leader, pulled
}

func (g *GravitationalSearch[A, T]) move(rng adaptation.Rand, agent A, acceleration []float64) T {
	for i := range g.speed {
		g.speed[i] = acceleration[i] + g.speed[i]*rng.Float64()
		if g.speed[i] > maximumSpeed {
			g.speed[i] = maximumSpeed
		}
		if g.speed[i] < -maximumSpeed {
			g.speed[i] = -maximumSpeed
		}
		g.coordinates[i] += g.speed[i]
	}
	if g.bounder != nil {
		g.bounder(g.coordinates)
	}
	return g.transformer.FromCoordinates(cloneCoords(g.coordinates), agent, g.world)
}
