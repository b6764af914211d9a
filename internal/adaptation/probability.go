package adaptation

import (
	"fmt"
	"math"
)

// Probability decides how likely an agent is to explore or imitate on a tick.
type Probability interface {
	Exploration() float64
	Imitation() float64
	// JudgeExploration lets the policy react to how the last exploration went.
	JudgeExploration(previousFitness, currentFitness float64)
}

// FixedProbability never changes.
type FixedProbability struct {
	ExploreP float64
	ImitateP float64
}

// NewFixedProbability validates both probabilities lie in [0,1].
func NewFixedProbability(explore, imitate float64) (*FixedProbability, error) {
	if err := checkUnit("exploration probability", explore); err != nil {
		return nil, err
	}
	if err := checkUnit("imitation probability", imitate); err != nil {
		return nil, err
	}
	return &FixedProbability{ExploreP: explore, ImitateP: imitate}, nil
}

func (p *FixedProbability) Exploration() float64 { return p.ExploreP }
func (p *FixedProbability) Imitation() float64   { return p.ImitateP }

func (p *FixedProbability) JudgeExploration(previousFitness, currentFitness float64) {}

// ExplorationPenaltyProbability raises the exploration probability after
// explorations that paid off and lowers it after ones that did not.
type ExplorationPenaltyProbability struct {
	explore   float64
	imitate   float64
	increment float64 // multiplicative step, e.g. 0.02 = 2%
	minimum   float64 // exploration never drops below this
}

// NewExplorationPenaltyProbability builds the adaptive policy.
func NewExplorationPenaltyProbability(explore, imitate, increment, minimum float64) (*ExplorationPenaltyProbability, error) {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"exploration probability", explore},
		{"imitation probability", imitate},
		{"exploration minimum", minimum},
		{"increment", increment},
	} {
		if err := checkUnit(c.name, c.v); err != nil {
			return nil, err
		}
	}
	if minimum > explore {
		return nil, fmt.Errorf("exploration minimum %v above starting probability %v: %w", minimum, explore, ErrInvalidConfig)
	}
	return &ExplorationPenaltyProbability{
		explore:   explore,
		imitate:   imitate,
		increment: increment,
		minimum:   minimum,
	}, nil
}

func (p *ExplorationPenaltyProbability) Exploration() float64 { return p.explore }
func (p *ExplorationPenaltyProbability) Imitation() float64   { return p.imitate }

func (p *ExplorationPenaltyProbability) JudgeExploration(previousFitness, currentFitness float64) {
	if !IsFinite(previousFitness) || !IsFinite(currentFitness) {
		return
	}
	switch {
	case currentFitness > previousFitness:
		p.explore = math.Min(1, p.explore*(1+p.increment))
	case currentFitness < previousFitness:
		p.explore = math.Max(p.minimum, p.explore*(1-p.increment))
	}
}

func checkUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s %v outside [0,1]: %w", name, v, ErrInvalidConfig)
	}
	return nil
}
