// Package maximization holds the three adaptation strategies: beam hill
// climbing, particle swarm and gravitational search.
package maximization

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// massFloor keeps the personal mass away from zero before dividing by it.
	massFloor = 1e-5
	// distanceEpsilon avoids dividing by a zero distance.
	distanceEpsilon = 1e-5
	// maximumSpeed bounds every speed component in gravitational search.
	maximumSpeed = 2.0
)

func euclideanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// squaredDistance is what gravitational force divides by, so the pull of a
// body falls off with its distance rather than staying constant.
func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func cloneCoords(c []float64) []float64 {
	if c == nil {
		return nil
	}
	out := make([]float64, len(c))
	copy(out, c)
	return out
}

// massEntry is one row of the per-call mass table.
type massEntry[A comparable] struct {
	agent  A
	coords []float64
	mass   float64
	self   bool
}

// normalizeMasses rescales masses in place to [0,1] by min/max and then to
// sum to one. It returns the normalized personal mass, floored at massFloor.
// ok is false when fewer than two masses exist or they are all equal, in
// which case nothing is modified.
func normalizeMasses[A comparable](table []massEntry[A], personal float64) (normalizedPersonal float64, ok bool) {
	if len(table) < 2 {
		return 0, false
	}
	raw := make([]float64, len(table))
	for i, e := range table {
		raw[i] = e.mass
	}
	lo, hi := floats.Min(raw), floats.Max(raw)
	if hi == lo {
		return 0, false
	}
	ratio := hi - lo
	floats.AddConst(-lo, raw)
	floats.Scale(1/ratio, raw)
	sum := floats.Sum(raw)
	floats.Scale(1/sum, raw)
	for i := range table {
		table[i].mass = raw[i]
	}
	return math.Max(((personal-lo)/ratio)/sum, massFloor), true
}

// heaviest returns the k entries with the largest mass, heaviest first.
// Ties keep table order.
func heaviest[A comparable](table []massEntry[A], k int) []massEntry[A] {
	sorted := append([]massEntry[A](nil), table...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].mass > sorted[j].mass })
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}
