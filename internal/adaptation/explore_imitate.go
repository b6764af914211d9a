package adaptation

import (
	"fmt"
	"log/slog"
)

// Network supplies an agent's peers and performs severing on its behalf.
type Network[A comparable] interface {
	Peers(agent A, rng Rand) []A
	// Sever drops peer from agent's peers and replaces it with a random agent.
	Sever(agent, peer A, rng Rand)
}

// Action records which branch of the cycle ran on a tick.
type Action uint8

const (
	ActionSkipped Action = iota
	ActionJudgedExploration
	ActionJudgedImitation
	ActionExplored
	ActionImitated
	ActionExploited
)

var actionNames = [...]string{"skipped", "judged_exploration", "judged_imitation", "explored", "imitated", "exploited"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", a)
}

// Step summarizes one call to Adapt. A tick that is not skipped always makes
// exactly one new decision (Action); it may first judge last tick's change.
type Step[A comparable, T any] struct {
	Action Action // explored, imitated, exploited or skipped
	Value  T      // the value handed to the actuator
	Acted  bool
	Peer   A // the peer copied this tick, if any

	// Judged is ActionJudgedExploration or ActionJudgedImitation when a
	// change from the previous tick was judged, ActionSkipped otherwise.
	Judged  Action
	Verdict Verdict
	Settled T // the value the judgement settled on before deciding anew

	Severed     bool
	SeveredPeer A
}

type pendingChange[A comparable, T any] struct {
	previous T
	fitness  float64
	peer     A
}

// ExploreImitate drives one Algorithm for one agent through the
// exploration/imitation/exploitation cycle.
type ExploreImitate[A comparable, T any] struct {
	// Validator aborts the tick when it returns false. Nil means always ready.
	Validator func(agent A) bool

	algorithm   Algorithm[A, T]
	actuator    Actuator[A, T]
	sensor      Sensor[A, T]
	objective   ObjectiveFunction[A]
	probability Probability
	network     Network[A]

	world       any
	exploration *pendingChange[A, T]
	imitation   *pendingChange[A, T]
}

// NewExploreImitate wires a driver. network may be nil for agents without peers.
func NewExploreImitate[A comparable, T any](
	algorithm Algorithm[A, T],
	actuator Actuator[A, T],
	sensor Sensor[A, T],
	objective ObjectiveFunction[A],
	probability Probability,
	network Network[A],
) (*ExploreImitate[A, T], error) {
	switch {
	case algorithm == nil:
		return nil, fmt.Errorf("algorithm is required: %w", ErrInvalidConfig)
	case actuator == nil:
		return nil, fmt.Errorf("actuator is required: %w", ErrInvalidConfig)
	case sensor == nil:
		return nil, fmt.Errorf("sensor is required: %w", ErrInvalidConfig)
	case objective == nil:
		return nil, fmt.Errorf("objective is required: %w", ErrInvalidConfig)
	case probability == nil:
		return nil, fmt.Errorf("probability is required: %w", ErrInvalidConfig)
	}
	return &ExploreImitate[A, T]{
		algorithm:   algorithm,
		actuator:    actuator,
		sensor:      sensor,
		objective:   objective,
		probability: probability,
		network:     network,
	}, nil
}

// Algorithm returns the strategy being driven.
func (e *ExploreImitate[A, T]) Algorithm() Algorithm[A, T] { return e.algorithm }

// Probability returns the exploration/imitation policy.
func (e *ExploreImitate[A, T]) Probability() Probability { return e.probability }

// Start captures the world and seeds the algorithm from the agent's current value.
func (e *ExploreImitate[A, T]) Start(world any, agent A) {
	e.world = world
	e.algorithm.Start(world, agent, e.sensor(agent))
}

// Adapt runs one tick of the cycle for agent.
func (e *ExploreImitate[A, T]) Adapt(agent A, rng Rand) Step[A, T] {
	if e.Validator != nil && !e.Validator(agent) {
		return Step[A, T]{Action: ActionSkipped}
	}

	fitness := e.objective(agent, agent)
	current := e.sensor(agent)

	var step Step[A, T]

	// Judge whatever we did last tick first, then decide anew from the outcome.
	if start := e.exploration; start != nil {
		e.exploration = nil
		judgement := e.algorithm.JudgeRandomization(rng, agent, start.fitness, fitness, start.previous, current)
		e.probability.JudgeExploration(start.fitness, fitness)
		if judgement.Verdict != VerdictNoOpinion {
			step.Judged, step.Verdict = ActionJudgedExploration, judgement.Verdict
			current, fitness = settle(judgement, fitness, start.fitness)
		}
	} else if start := e.imitation; start != nil {
		e.imitation = nil
		judgement, peerAction := e.algorithm.JudgeImitation(rng, agent, start.peer, start.fitness, fitness, start.previous, current)
		if peerAction.Kind == PeerSever && e.network != nil {
			e.network.Sever(agent, peerAction.Peer, rng)
			step.Severed, step.SeveredPeer = true, peerAction.Peer
			slog.Debug("peer severed after imitation", "before", start.fitness, "after", fitness)
		}
		if judgement.Verdict != VerdictNoOpinion {
			step.Judged, step.Verdict = ActionJudgedImitation, judgement.Verdict
			current, fitness = settle(judgement, fitness, start.fitness)
		}
	}
	step.Settled = current
	step.Acted = true

	if p := e.probability.Exploration(); p > 0 && Chance(rng, p) {
		future := e.algorithm.Randomize(rng, agent, fitness, current)
		e.exploration = &pendingChange[A, T]{previous: current, fitness: fitness}
		e.act(agent, future)
		step.Action, step.Value = ActionExplored, future
		return step
	}

	var peers []A
	if e.network != nil {
		peers = e.network.Peers(agent, rng)
	}
	if p := e.probability.Imitation(); p > 0 && len(peers) > 0 && Chance(rng, p) {
		imitation := e.algorithm.Imitate(rng, agent, fitness, current, peers, e.objective, e.sensor)
		if imitation.Imitated {
			e.imitation = &pendingChange[A, T]{previous: current, fitness: fitness, peer: imitation.Peer}
		}
		e.act(agent, imitation.Value)
		step.Action, step.Value, step.Peer = ActionImitated, imitation.Value, imitation.Peer
		return step
	}

	next := e.algorithm.Exploit(rng, agent, fitness, current)
	e.act(agent, next)
	step.Action, step.Value = ActionExploited, next
	return step
}

// settle applies a judgement; a backtrack also restores the fitness measured
// before the change.
func settle[T any](j Judgement[T], fitness, previousFitness float64) (T, float64) {
	if j.Verdict == VerdictBacktrack {
		return j.Value, previousFitness
	}
	return j.Value, fitness
}

func (e *ExploreImitate[A, T]) act(agent A, value T) {
	e.actuator(agent, value, e.world)
}
