package engine

import (
	"fmt"
	"math/rand"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/adaptation/maximization"
	"github.com/talgya/fleet-adapt/internal/config"
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// buildAdapter gives f its own algorithm instance and driver.
func (s *Simulation) buildAdapter(f *fleet.Fisher, rng *rand.Rand) (*Adapter, error) {
	cfg := s.scenario.Adaptation

	algorithm, err := s.buildAlgorithm(cfg, rng)
	if err != nil {
		return nil, err
	}

	var probability adaptation.Probability
	if cfg.Penalty != nil {
		probability, err = adaptation.NewExplorationPenaltyProbability(cfg.Explore, cfg.Imitate, cfg.Penalty.Increment, cfg.Penalty.Minimum)
	} else {
		probability, err = adaptation.NewFixedProbability(cfg.Explore, cfg.Imitate)
	}
	if err != nil {
		return nil, err
	}

	adapter, err := adaptation.NewExploreImitate[*fleet.Fisher, seascape.Coord](
		algorithm,
		fleet.SpotActuator,
		fleet.SpotSensor,
		fleet.ProfitObjective,
		probability,
		s.Network,
	)
	if err != nil {
		return nil, err
	}
	// Nothing to judge before the first haul.
	adapter.Validator = (*fleet.Fisher).HasFished
	return adapter, nil
}

func (s *Simulation) buildAlgorithm(cfg config.Adaptation, rng *rand.Rand) (adaptation.Algorithm[*fleet.Fisher, seascape.Coord], error) {
	switch cfg.Algorithm {
	case config.AlgorithmBeam:
		if cfg.Beam.Unfriend {
			return maximization.NewBeamHillClimbingWithUnfriending[*fleet.Fisher](
				cfg.Beam.AlwaysCopyBest,
				cfg.Beam.UnfriendThreshold,
				cfg.Beam.MaxStep,
				cfg.Beam.Attempts,
				fleet.HomePort,
			)
		}
		return maximization.NewDefaultBeamHillClimbing[*fleet.Fisher](
			cfg.Beam.AlwaysCopyBest,
			cfg.Beam.Backtracks,
			maximization.NeverUnfriend,
			cfg.Beam.MaxStep,
			cfg.Beam.Attempts,
			fleet.HomePort,
		)

	case config.AlgorithmPSO:
		velocity, err := cfg.PSO.InitialVelocity.Build()
		if err != nil {
			return nil, err
		}
		return maximization.NewParticleSwarm(maximization.ParticleSwarmConfig[*fleet.Fisher, seascape.Coord]{
			Inertia:           cfg.PSO.Inertia,
			MemoryWeight:      cfg.PSO.MemoryWeight,
			SocialWeight:      cfg.PSO.SocialWeight,
			Dimensions:        2,
			BestMemory:        fleet.BestSpot,
			Transformer:       fleet.SpotTransformer{},
			Bounder:           fleet.GridBounder(s.Sea.Width, s.Sea.Height),
			VelocityShocks:    []float64{cfg.PSO.VelocityShock, cfg.PSO.VelocityShock},
			InitialVelocities: []adaptation.DoubleParameter{velocity, velocity},
		}, rng)

	case config.AlgorithmGravitational:
		speed, err := cfg.Gravitational.InitialSpeed.Build()
		if err != nil {
			return nil, err
		}
		return maximization.NewGravitationalSearch(maximization.GravitationalSearchConfig[*fleet.Fisher, seascape.Coord]{
			Transformer:           fleet.SpotTransformer{},
			Sensor:                fleet.SpotSensor,
			Mass:                  fleet.ProfitObjective,
			Population:            func() []*fleet.Fisher { return s.Fishers },
			GravitationalConstant: cfg.Gravitational.Constant,
			ExplorationMaximum:    cfg.Gravitational.ExplorationMaximum,
			InitialSpeed:          speed,
			Bounder:               fleet.GridBounder(s.Sea.Width, s.Sea.Height),
		})

	default:
		return nil, fmt.Errorf("unknown algorithm %q: %w", cfg.Algorithm, adaptation.ErrInvalidConfig)
	}
}
