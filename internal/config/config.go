// Package config loads fleet simulation scenarios from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/adaptation/maximization"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// Algorithm names accepted in scenario files.
const (
	AlgorithmBeam          = "beam"
	AlgorithmPSO           = "pso"
	AlgorithmGravitational = "gravitational"
)

// Scenario is a complete simulation setup.
type Scenario struct {
	Seed       int64              `yaml:"seed"`
	Map        seascape.GenConfig `yaml:"map"`
	Fleet      Fleet              `yaml:"fleet"`
	Engine     Engine             `yaml:"engine"`
	Adaptation Adaptation         `yaml:"adaptation"`
	Storage    Storage            `yaml:"storage"`
	API        API                `yaml:"api"`
}

// Fleet sizes the fleet and prices its work.
type Fleet struct {
	Fishers      int     `yaml:"fishers"`
	Friends      int     `yaml:"friends"` // out-degree of the friendship network
	Catchability float64 `yaml:"catchability"`
	Price        float64 `yaml:"price"`       // per unit of catch
	TravelCost   float64 `yaml:"travel_cost"` // per cell sailed from home
}

// Engine controls the tick loop.
type Engine struct {
	Ticks       uint64  `yaml:"ticks"`
	TicksPerDay uint64  `yaml:"ticks_per_day"`
	AdaptEvery  uint64  `yaml:"adapt_every"`
	RegrowRate  float64 `yaml:"regrow_rate"`
	Workers     int     `yaml:"workers"` // fishing phase parallelism, 0 = one per CPU
}

// Adaptation picks the algorithm and its tunables.
type Adaptation struct {
	Algorithm     string        `yaml:"algorithm"`
	Explore       float64       `yaml:"explore"`
	Imitate       float64       `yaml:"imitate"`
	Penalty       *Penalty      `yaml:"penalty,omitempty"` // nil = fixed probabilities
	Beam          Beam          `yaml:"beam"`
	PSO           PSO           `yaml:"pso"`
	Gravitational Gravitational `yaml:"gravitational"`
}

// Penalty makes exploration adapt to how well it pays.
type Penalty struct {
	Increment float64 `yaml:"increment"`
	Minimum   float64 `yaml:"minimum"`
}

// Beam tunes grid hill climbing.
type Beam struct {
	AlwaysCopyBest    bool    `yaml:"always_copy_best"`
	Backtracks        bool    `yaml:"backtracks"`
	MaxStep           int     `yaml:"max_step"`
	Attempts          int     `yaml:"attempts"`
	Unfriend          bool    `yaml:"unfriend"`
	UnfriendThreshold float64 `yaml:"unfriend_threshold"`
}

// Parameter is a random draw as written in scenario files.
type Parameter struct {
	Kind string  `yaml:"kind"` // fixed, uniform or normal
	A    float64 `yaml:"a"`
	B    float64 `yaml:"b"`
}

// Build turns the parameter into something that can be drawn from.
func (p Parameter) Build() (adaptation.DoubleParameter, error) {
	return adaptation.ParseParameter(p.Kind, p.A, p.B)
}

// PSO tunes the particle swarm.
type PSO struct {
	Inertia         float64   `yaml:"inertia"`
	MemoryWeight    float64   `yaml:"memory_weight"`
	SocialWeight    float64   `yaml:"social_weight"`
	VelocityShock   float64   `yaml:"velocity_shock"`
	InitialVelocity Parameter `yaml:"initial_velocity"`
}

// Gravitational tunes gravitational search.
type Gravitational struct {
	Constant           float64   `yaml:"constant"`
	ExplorationMaximum int       `yaml:"exploration_maximum"`
	InitialSpeed       Parameter `yaml:"initial_speed"`
}

// Storage locates the SQLite database. An empty path disables persistence.
type Storage struct {
	Path string `yaml:"path"`
}

// API configures the read-only HTTP server. An empty address disables it.
type API struct {
	Addr string `yaml:"addr"`
}

// Default returns a scenario that runs out of the box.
func Default() Scenario {
	return Scenario{
		Seed: 42,
		Map:  seascape.DefaultGenConfig(),
		Fleet: Fleet{
			Fishers:      100,
			Friends:      4,
			Catchability: 0.01,
			Price:        10,
			TravelCost:   5,
		},
		Engine: Engine{
			Ticks:       24 * 365,
			TicksPerDay: 24,
			AdaptEvery:  24,
			RegrowRate:  0.01,
		},
		Adaptation: Adaptation{
			Algorithm: AlgorithmBeam,
			Explore:   0.2,
			Imitate:   0.6,
			Beam: Beam{
				AlwaysCopyBest: maximization.DefaultAlwaysCopyBest,
				Backtracks:     maximization.DefaultBacktracksOnBadExploration,
				MaxStep:        3,
				Attempts:       10,
			},
			PSO: PSO{
				Inertia:         0.7,
				MemoryWeight:    0.5,
				SocialWeight:    0.5,
				VelocityShock:   2,
				InitialVelocity: Parameter{Kind: "uniform", A: -1, B: 1},
			},
			Gravitational: Gravitational{
				Constant:           1,
				ExplorationMaximum: 5,
				InitialSpeed:       Parameter{Kind: "uniform", A: -1, B: 1},
			},
		},
		Storage: Storage{Path: "data/fleet.db"},
	}
}

// Load reads a scenario file over the defaults, so files only need to name
// what they change. Environment overrides are applied last.
func Load(path string) (Scenario, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read scenario: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse scenario %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if cfg.Map.Seed == 0 {
		cfg.Map.Seed = cfg.Seed
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Scenario) {
	if v, ok := os.LookupEnv("FLEETSIM_DB"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := os.LookupEnv("FLEETSIM_ADDR"); ok {
		cfg.API.Addr = v
	}
}

// Validate reports every problem with the scenario at once.
func (s Scenario) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(s.Map.Width > 0 && s.Map.Height > 0, "map size %dx%d must be positive", s.Map.Width, s.Map.Height)
	check(s.Map.SeaLevel > 0 && s.Map.SeaLevel <= 1, "sea level %v outside (0,1]", s.Map.SeaLevel)
	check(s.Fleet.Fishers > 0, "fleet needs at least one fisher")
	check(s.Fleet.Friends >= 0, "friends %d negative", s.Fleet.Friends)
	check(s.Fleet.Catchability > 0 && s.Fleet.Catchability <= 1, "catchability %v outside (0,1]", s.Fleet.Catchability)
	check(s.Fleet.Price >= 0 && s.Fleet.TravelCost >= 0, "price and travel cost must not be negative")
	check(s.Engine.TicksPerDay > 0, "ticks per day must be positive")
	check(s.Engine.AdaptEvery > 0, "adapt every must be positive")
	check(s.Engine.RegrowRate >= 0 && s.Engine.RegrowRate <= 1, "regrow rate %v outside [0,1]", s.Engine.RegrowRate)
	check(s.Engine.Workers >= 0, "workers %d negative", s.Engine.Workers)

	a := s.Adaptation
	check(a.Explore >= 0 && a.Explore <= 1, "explore probability %v outside [0,1]", a.Explore)
	check(a.Imitate >= 0 && a.Imitate <= 1, "imitate probability %v outside [0,1]", a.Imitate)
	if a.Penalty != nil {
		check(a.Penalty.Minimum <= a.Explore, "penalty minimum %v above explore %v", a.Penalty.Minimum, a.Explore)
		check(a.Penalty.Increment >= 0 && a.Penalty.Increment <= 1, "penalty increment %v outside [0,1]", a.Penalty.Increment)
	}
	switch a.Algorithm {
	case AlgorithmBeam:
		check(a.Beam.MaxStep > 0, "beam max step %d must be positive", a.Beam.MaxStep)
		check(a.Beam.Attempts > 0, "beam attempts %d must be positive", a.Beam.Attempts)
		check(!a.Beam.Unfriend || a.Beam.UnfriendThreshold >= 0, "unfriend threshold %v negative", a.Beam.UnfriendThreshold)
		check(!a.Beam.Unfriend || a.Beam.Backtracks, "unfriending beam always backtracks bad explorations")
	case AlgorithmPSO:
		check(a.PSO.VelocityShock >= 0, "pso velocity shock %v negative", a.PSO.VelocityShock)
		if _, err := a.PSO.InitialVelocity.Build(); err != nil {
			errs = append(errs, fmt.Errorf("pso initial velocity: %w", err))
		}
	case AlgorithmGravitational:
		check(a.Gravitational.Constant >= 0, "gravitational constant %v negative", a.Gravitational.Constant)
		check(a.Gravitational.ExplorationMaximum > 0, "exploration maximum %d must be positive", a.Gravitational.ExplorationMaximum)
		if _, err := a.Gravitational.InitialSpeed.Build(); err != nil {
			errs = append(errs, fmt.Errorf("gravitational initial speed: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown algorithm %q", a.Algorithm))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", adaptation.ErrInvalidConfig, err)
	}
	return nil
}
