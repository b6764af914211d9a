package maximization

import (
	"fmt"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// HomeFunc returns the agent's home cell, if it has one.
type HomeFunc[A comparable] func(agent A) (seascape.Coord, bool)

// GridStep returns a random step over the sea grid: a signed offset of at
// most maxStep per axis, retried up to attempts times. Candidates off the grid,
// on land, equal to current or equal to home are rejected. The world handle
// must implement seascape.Waters; otherwise the step stays put.
func GridStep[A comparable](maxStep, attempts int, home HomeFunc[A]) adaptation.RandomStep[A, seascape.Coord] {
	return func(world any, rng adaptation.Rand, agent A, current seascape.Coord) seascape.Coord {
		waters, ok := world.(seascape.Waters)
		if !ok {
			return current
		}
		var homeCell seascape.Coord
		hasHome := false
		if home != nil {
			homeCell, hasHome = home(agent)
		}
		for i := 0; i < attempts; i++ {
			candidate := seascape.Coord{
				X: current.X + rng.Intn(2*maxStep+1) - maxStep,
				Y: current.Y + rng.Intn(2*maxStep+1) - maxStep,
			}
			if candidate == current || !waters.InBounds(candidate) || waters.IsLand(candidate) {
				continue
			}
			if hasHome && candidate == homeCell {
				continue
			}
			return candidate
		}
		return current
	}
}

// NewDefaultBeamHillClimbing is beam hill climbing over grid cells.
func NewDefaultBeamHillClimbing[A comparable](
	alwaysCopyBest, backtracksOnBadExploration bool,
	unfriend UnfriendPredicate,
	maxStep, attempts int,
	home HomeFunc[A],
) (*BeamHillClimbing[A, seascape.Coord], error) {
	if maxStep <= 0 {
		return nil, fmt.Errorf("max step %d must be positive: %w", maxStep, adaptation.ErrInvalidConfig)
	}
	if attempts <= 0 {
		return nil, fmt.Errorf("attempts %d must be positive: %w", attempts, adaptation.ErrInvalidConfig)
	}
	return NewBeamHillClimbing[A, seascape.Coord](GridStep[A](maxStep, attempts, home), alwaysCopyBest, backtracksOnBadExploration, unfriend)
}

// NewBeamHillClimbingWithUnfriending severs peers whose imitation dropped
// fitness by more than threshold, and always backtracks bad explorations.
func NewBeamHillClimbingWithUnfriending[A comparable](
	alwaysCopyBest bool,
	threshold float64,
	maxStep, attempts int,
	home HomeFunc[A],
) (*BeamHillClimbing[A, seascape.Coord], error) {
	if threshold < 0 {
		return nil, fmt.Errorf("unfriend threshold %v negative: %w", threshold, adaptation.ErrInvalidConfig)
	}
	return NewDefaultBeamHillClimbing[A](alwaysCopyBest, true, UnfriendOnDrop(threshold), maxStep, attempts, home)
}
