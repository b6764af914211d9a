package maximization

import (
	"fmt"
	"math"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

// Beam defaults used by scenarios that do not say otherwise.
const (
	DefaultAlwaysCopyBest             = true
	DefaultBacktracksOnBadExploration = true
)

// UnfriendPredicate looks at fitness before and after imitating a peer and
// decides whether the relationship should be cut.
type UnfriendPredicate func(fitnessBefore, fitnessAfter float64) bool

// NeverUnfriend keeps the network static.
func NeverUnfriend(float64, float64) bool { return false }

// UnfriendOnDrop cuts a peer when imitating it lost more than threshold of
// the fitness we had before (0.1 = a 10% drop).
func UnfriendOnDrop(threshold float64) UnfriendPredicate {
	return func(before, after float64) bool {
		if !adaptation.IsFinite(before) || !adaptation.IsFinite(after) {
			return false
		}
		return before-after > threshold*math.Abs(before)
	}
}

// BeamHillClimbing is local stochastic search: explore with a random step,
// backtrack when it hurt, copy strictly better peers.
type BeamHillClimbing[A comparable, T any] struct {
	step                       adaptation.RandomStep[A, T]
	alwaysCopyBest             bool
	backtracksOnBadExploration bool
	unfriend                   UnfriendPredicate
	world                      any
}

// NewBeamHillClimbing builds the search. A nil unfriend predicate never severs.
func NewBeamHillClimbing[A comparable, T any](
	step adaptation.RandomStep[A, T],
	alwaysCopyBest, backtracksOnBadExploration bool,
	unfriend UnfriendPredicate,
) (*BeamHillClimbing[A, T], error) {
	if step == nil {
		return nil, fmt.Errorf("beam hill climbing needs a random step: %w", adaptation.ErrInvalidConfig)
	}
	if unfriend == nil {
		unfriend = NeverUnfriend
	}
	return &BeamHillClimbing[A, T]{
		step:                       step,
		alwaysCopyBest:             alwaysCopyBest,
		backtracksOnBadExploration: backtracksOnBadExploration,
		unfriend:                   unfriend,
	}, nil
}

func (b *BeamHillClimbing[A, T]) Start(world any, agent A, initial T) {
	b.world = world
}

func (b *BeamHillClimbing[A, T]) Randomize(rng adaptation.Rand, agent A, fitness float64, current T) T {
	return b.step(b.world, rng, agent, current)
}

func (b *BeamHillClimbing[A, T]) JudgeRandomization(rng adaptation.Rand, agent A, previousFitness, currentFitness float64, previous, current T) adaptation.Judgement[T] {
	if b.backtracksOnBadExploration && previousFitness > currentFitness {
		return adaptation.Backtrack(previous)
	}
	return adaptation.Keep(current)
}

// Imitate copies the best (or a random) peer that is strictly fitter than us.
func (b *BeamHillClimbing[A, T]) Imitate(rng adaptation.Rand, agent A, fitness float64, current T, peers []A,
	objective adaptation.ObjectiveFunction[A], sensor adaptation.Sensor[A, T]) adaptation.Imitation[A, T] {
	if math.IsNaN(fitness) {
		fitness = math.Inf(-1)
	}

	var better []A
	var best A
	bestFitness := math.Inf(-1)
	for _, peer := range peers {
		if peer == agent {
			continue
		}
		f := objective(agent, peer)
		// NaN fails this comparison too.
		if !(f > fitness) {
			continue
		}
		better = append(better, peer)
		if len(better) == 1 || f > bestFitness {
			best, bestFitness = peer, f
		}
	}
	if len(better) == 0 {
		return adaptation.Stay[A](current)
	}
	if !b.alwaysCopyBest {
		best = better[rng.Intn(len(better))]
	}
	return adaptation.Copied(sensor(best), best)
}

func (b *BeamHillClimbing[A, T]) JudgeImitation(rng adaptation.Rand, agent A, peer A, fitnessBefore, fitnessAfter float64,
	previous, current T) (adaptation.Judgement[T], adaptation.PeerAction[A]) {
	action := adaptation.NoPeerAction[A]()
	if b.unfriend(fitnessBefore, fitnessAfter) {
		action = adaptation.Sever(peer)
	}
	if fitnessAfter >= fitnessBefore {
		return adaptation.Keep(current), action
	}
	return adaptation.Backtrack(previous), action
}

func (b *BeamHillClimbing[A, T]) Exploit(rng adaptation.Rand, agent A, fitness float64, current T) T {
	return current
}
