package engine

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/config"
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

func testScenario(algorithm string) config.Scenario {
	cfg := config.Default()
	cfg.Map = seascape.SmallTestConfig()
	cfg.Fleet.Fishers = 8
	cfg.Fleet.Friends = 2
	cfg.Engine.AdaptEvery = 2
	cfg.Engine.Workers = 4
	cfg.Adaptation.Algorithm = algorithm
	cfg.Adaptation.Beam.MaxStep = 1
	cfg.Adaptation.Beam.Attempts = 5
	return cfg
}

func run(t *testing.T, sim *Simulation, ticks uint64) {
	t.Helper()
	e := NewEngine(sim.Scenario().Engine.TicksPerDay)
	e.OnTick = sim.Tick
	e.OnDay = sim.TickDay
	if err := e.RunFor(context.Background(), ticks); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHaulSplitsSharedCell(t *testing.T) {
	cfg := testScenario(config.AlgorithmBeam)
	cfg.Fleet.Price = 1
	cfg.Fleet.TravelCost = 0
	sea := seascape.Open(5, 5, 100)
	spot := seascape.Coord{X: 2, Y: 2}
	fishers := []*fleet.Fisher{
		{ID: 1, Spot: spot, Catchability: 0.6, LastProfit: math.NaN()},
		{ID: 2, Spot: spot, Catchability: 0.6, LastProfit: math.NaN()},
	}
	sim, err := New(cfg, sea, fishers)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	total := sim.haul(1)
	if total != 100 {
		t.Fatalf("landed %v, want the whole stock", total)
	}
	if fishers[0].LastProfit != 60 || fishers[1].LastProfit != 40 {
		t.Fatalf("profits %v and %v, want 60 and 40", fishers[0].LastProfit, fishers[1].LastProfit)
	}
	if sea.Get(spot).Biomass != 0 {
		t.Fatalf("stock left %v", sea.Get(spot).Biomass)
	}
}

func TestProfitChargesTravel(t *testing.T) {
	cfg := testScenario(config.AlgorithmBeam)
	cfg.Fleet.Price = 2
	cfg.Fleet.TravelCost = 3
	sea := seascape.Open(10, 10, 50)
	f := &fleet.Fisher{ID: 1, Home: seascape.Coord{X: 0, Y: 0}, Spot: seascape.Coord{X: 3, Y: 4}, Catchability: 0.1, LastProfit: math.NaN()}
	sim, err := New(cfg, sea, []*fleet.Fisher{f})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sim.Tick(1)
	// 5 units landed at 2 each, 5 cells out at 3 each.
	if f.LastProfit != -5 {
		t.Fatalf("profit %v, want -5", f.LastProfit)
	}
}

func TestAdaptWaitsForFirstHaul(t *testing.T) {
	sim, err := NewSimulation(testScenario(config.AlgorithmBeam))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sim.adapt(0)
	if got := sim.DrainDecisions(); len(got) != 0 {
		t.Fatalf("adapted before any haul: %+v", got)
	}
}

func TestEveryAlgorithmKeepsFishersAtSea(t *testing.T) {
	for _, algorithm := range []string{config.AlgorithmBeam, config.AlgorithmPSO, config.AlgorithmGravitational} {
		t.Run(algorithm, func(t *testing.T) {
			sim, err := NewSimulation(testScenario(algorithm))
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			run(t, sim, 120)

			for _, f := range sim.Fishers {
				if !sim.Sea.InBounds(f.Spot) || sim.Sea.IsLand(f.Spot) {
					t.Errorf("%s ended on %v", f.Name, f.Spot)
				}
			}
			decisions := sim.DrainDecisions()
			if len(decisions) == 0 {
				t.Fatalf("no decisions recorded")
			}
			if len(sim.DrainDecisions()) != 0 {
				t.Fatalf("drain did not clear decisions")
			}
			// 120 ticks adapting every 2: each fisher decides once on each of 60 adapt ticks.
			if want := 60 * len(sim.Fishers); len(decisions) != want {
				t.Fatalf("%d decisions, want %d", len(decisions), want)
			}
			for _, d := range decisions {
				switch d.Action {
				case "explored", "imitated", "exploited":
				default:
					t.Fatalf("decision without a new action: %+v", d)
				}
			}
			st := sim.Status()
			if got := st.Stats.Explored + st.Stats.Imitated + st.Stats.Exploited; got != len(decisions) {
				t.Fatalf("counted %d actions for %d decisions: %+v", got, len(decisions), st.Stats)
			}
		})
	}
}

func TestSimulationIsDeterministic(t *testing.T) {
	cfg := testScenario(config.AlgorithmBeam)
	cfg.Adaptation.Beam.Unfriend = true
	cfg.Adaptation.Beam.UnfriendThreshold = 0.1

	a, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	run(t, a, 200)
	run(t, b, 200)

	for i := range a.Fishers {
		fa, fb := a.Fishers[i], b.Fishers[i]
		if fa.Spot != fb.Spot || fa.Cash != fb.Cash {
			t.Fatalf("fisher %d diverged: %v/%v vs %v/%v", fa.ID, fa.Spot, fa.Cash, fb.Spot, fb.Cash)
		}
	}
	if a.Network.Severed() != b.Network.Severed() {
		t.Fatalf("severed %d vs %d", a.Network.Severed(), b.Network.Severed())
	}
}

func TestViewsAreJSONSafe(t *testing.T) {
	sim, err := NewSimulation(testScenario(config.AlgorithmPSO))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := json.Marshal(sim.FisherViews()); err != nil {
		t.Fatalf("marshal before hauling: %v", err)
	}
	run(t, sim, 30)

	if _, err := json.Marshal(sim.Status()); err != nil {
		t.Fatalf("marshal status: %v", err)
	}
	v, ok := sim.FisherView(sim.Fishers[0].ID, 5)
	if !ok || v.LastProfit == nil || len(v.Recent) != 5 {
		t.Fatalf("view %+v", v)
	}
	if _, ok := sim.FisherView(9999, 5); ok {
		t.Fatalf("found a fisher that does not exist")
	}
}

func TestRequeueKeepsOrder(t *testing.T) {
	sim, err := NewSimulation(testScenario(config.AlgorithmBeam))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sim.decisions = []DecisionEvent{{Tick: 3}}
	sim.RequeueDecisions([]DecisionEvent{{Tick: 1}, {Tick: 2}})
	got := sim.DrainDecisions()
	if len(got) != 3 || got[0].Tick != 1 || got[1].Tick != 2 || got[2].Tick != 3 {
		t.Fatalf("decisions %+v, want ticks 1 2 3", got)
	}

	sim.recordEvent(5, "stock", "later")
	sim.RequeueEvents([]Event{{Tick: 4, Category: "network"}})
	_, events, _ := sim.Snapshot()
	if len(events) != 2 || events[0].Tick != 4 || events[1].Tick != 5 {
		t.Fatalf("events %+v, want ticks 4 5", events)
	}
}

func TestBeamUnfriendingIsWired(t *testing.T) {
	cfg := testScenario(config.AlgorithmBeam)
	cfg.Adaptation.Beam.Unfriend = true
	cfg.Adaptation.Beam.UnfriendThreshold = 0.5
	sim, err := New(cfg, seascape.Open(5, 5, 10), []*fleet.Fisher{
		{ID: 1, LastProfit: math.NaN()},
		{ID: 2, LastProfit: math.NaN()},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	alg, err := sim.buildAlgorithm(cfg.Adaptation, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	me, peer := sim.Fishers[0], sim.Fishers[1]
	here, there := seascape.Coord{X: 1, Y: 1}, seascape.Coord{X: 3, Y: 3}

	judgement, action := alg.JudgeImitation(rand.New(rand.NewSource(1)), me, peer, 100, 10, here, there)
	if action.Kind != adaptation.PeerSever || action.Peer != peer {
		t.Fatalf("a 90%% drop should sever, got %+v", action)
	}
	if judgement.Value != here {
		t.Fatalf("a losing imitation should revert, got %+v", judgement)
	}
	if _, action = alg.JudgeImitation(rand.New(rand.NewSource(1)), me, peer, 100, 80, here, there); action.Kind != adaptation.PeerNone {
		t.Fatalf("a 20%% drop should not sever, got %+v", action)
	}
}
