package maximization

import (
	"math"
	"math/rand"
	"slices"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

type agent int

// vectors treats the decision itself as a coordinate vector.
type vectors struct{}

func (vectors) ToCoordinates(value []float64, _ agent, _ any) []float64 {
	return cloneCoords(value)
}

func (vectors) FromCoordinates(coords []float64, _ agent, _ any) []float64 {
	return cloneCoords(coords)
}

// board is a tiny world: where everyone stands and how fit they are.
type board struct {
	position map[agent][]float64
	fitness  map[agent]float64
}

func newBoard() *board {
	return &board{position: map[agent][]float64{}, fitness: map[agent]float64{}}
}

func (b *board) place(a agent, fitness float64, coords ...float64) {
	b.position[a] = coords
	b.fitness[a] = fitness
}

func (b *board) sensor(a agent) []float64 { return b.position[a] }

func (b *board) objective(_, observed agent) float64 {
	f, ok := b.fitness[observed]
	if !ok {
		return math.NaN()
	}
	return f
}

func (b *board) everyone() []agent {
	out := make([]agent, 0, len(b.position))
	for a := range b.position {
		out = append(out, a)
	}
	// stable order keeps rng consumption deterministic
	slices.Sort(out)
	return out
}

func seeded(seed int64) adaptation.Rand {
	return rand.New(rand.NewSource(seed))
}

func noMemory(agent) ([]float64, bool) { return nil, false }

func fixedVelocities(v ...float64) []adaptation.DoubleParameter {
	out := make([]adaptation.DoubleParameter, len(v))
	for i, x := range v {
		out[i] = adaptation.FixedParameter{Value: x}
	}
	return out
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
