package persistence

import (
	"github.com/talgya/fleet-adapt/internal/config"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

func testScenario() config.Scenario {
	cfg := config.Default()
	cfg.Map = seascape.SmallTestConfig()
	cfg.Fleet.Fishers = 5
	cfg.Fleet.Friends = 2
	cfg.Engine.AdaptEvery = 1
	return cfg
}
