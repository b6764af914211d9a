// Package adaptation provides the exploration/imitation/exploitation protocol
// agents use to improve a decision variable from fitness feedback and peers.
// Concrete strategies live in the maximization subpackage.
package adaptation

import (
	"errors"
	"math"
)

// ErrInvalidConfig is wrapped by every constructor that rejects its parameters.
var ErrInvalidConfig = errors.New("invalid adaptation config")

// Rand is the pseudorandom source an agent adapts with. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
	NormFloat64() float64
}

// Chance returns true with probability p.
func Chance(rng Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// Sensor reads an agent's current value of the decision variable.
type Sensor[A comparable, T any] func(agent A) T

// Actuator applies a chosen value back onto an agent.
type Actuator[A comparable, T any] func(agent A, value T, world any)

// ObjectiveFunction scores observed from observer's point of view. Higher is
// better; NaN or infinite means unknown.
type ObjectiveFunction[A comparable] func(observer, observed A) float64

// CoordinateTransformer maps a decision value to a fixed-length real vector and
// back. ToCoordinates returns nil when the value cannot be represented yet.
type CoordinateTransformer[A comparable, T any] interface {
	ToCoordinates(value T, agent A, world any) []float64
	FromCoordinates(coords []float64, agent A, world any) T
}

// RandomStep produces a randomized neighbor of current.
type RandomStep[A comparable, T any] func(world any, rng Rand, agent A, current T) T

// Bounder clamps coordinates in place after every move.
type Bounder func(coords []float64)

// Verdict is the outcome of judging a change one tick after it was made.
type Verdict uint8

const (
	VerdictNoOpinion Verdict = iota // let the driver decide
	VerdictKeep                     // keep the new value
	VerdictBacktrack                // revert to the value before the change
)

// Judgement carries a Verdict and, unless there is no opinion, the value to use.
type Judgement[T any] struct {
	Verdict Verdict
	Value   T
}

// Keep accepts the current value.
func Keep[T any](current T) Judgement[T] {
	return Judgement[T]{Verdict: VerdictKeep, Value: current}
}

// Backtrack reverts to the previous value.
func Backtrack[T any](previous T) Judgement[T] {
	return Judgement[T]{Verdict: VerdictBacktrack, Value: previous}
}

// NoOpinion leaves the decision to the caller.
func NoOpinion[T any]() Judgement[T] {
	return Judgement[T]{}
}

// Resolve returns the value the judgement settles on; with no opinion that is current.
func (j Judgement[T]) Resolve(current T) T {
	if j.Verdict == VerdictNoOpinion {
		return current
	}
	return j.Value
}

// PeerActionKind enumerates side effects a judgement asks the driver to perform.
type PeerActionKind uint8

const (
	PeerNone  PeerActionKind = iota
	PeerSever                // drop the peer and replace it with a random one
)

// PeerAction is returned alongside an imitation judgement.
type PeerAction[A comparable] struct {
	Kind PeerActionKind
	Peer A
}

// NoPeerAction returns the empty action.
func NoPeerAction[A comparable]() PeerAction[A] {
	return PeerAction[A]{}
}

// Sever asks the driver to cut the relationship with peer.
func Sever[A comparable](peer A) PeerAction[A] {
	return PeerAction[A]{Kind: PeerSever, Peer: peer}
}

// Imitation is the result of an imitate call. Peer is only meaningful when
// Imitated is true.
type Imitation[A comparable, T any] struct {
	Value    T
	Peer     A
	Imitated bool
}

// Stay returns an imitation that copied nobody.
func Stay[A comparable, T any](current T) Imitation[A, T] {
	return Imitation[A, T]{Value: current}
}

// Copied returns an imitation sourced from peer.
func Copied[A comparable, T any](value T, peer A) Imitation[A, T] {
	return Imitation[A, T]{Value: value, Peer: peer, Imitated: true}
}

// Algorithm is the contract every adaptation strategy satisfies. An instance
// belongs to exactly one agent and is called synchronously once per tick.
type Algorithm[A comparable, T any] interface {
	// Start seeds internal state from the agent's initial value.
	Start(world any, agent A, initial T)

	// Randomize perturbs current into a new candidate.
	Randomize(rng Rand, agent A, fitness float64, current T) T

	// JudgeRandomization is called the tick after Randomize.
	JudgeRandomization(rng Rand, agent A, previousFitness, currentFitness float64, previous, current T) Judgement[T]

	// Imitate looks at peers and returns a candidate plus the peer it copied, if any.
	Imitate(rng Rand, agent A, fitness float64, current T, peers []A,
		objective ObjectiveFunction[A], sensor Sensor[A, T]) Imitation[A, T]

	// JudgeImitation is called the tick after a successful Imitate.
	JudgeImitation(rng Rand, agent A, peer A, fitnessBefore, fitnessAfter float64,
		previous, current T) (Judgement[T], PeerAction[A])

	// Exploit is the fallback when neither exploring nor imitating.
	Exploit(rng Rand, agent A, fitness float64, current T) T
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
