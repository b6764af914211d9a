package persistence

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/talgya/fleet-adapt/internal/engine"
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fleet.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartRunAndList(t *testing.T) {
	db := openTemp(t)
	first, err := db.StartRun(1, "beam", 10)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := db.StartRun(2, "pso", 20)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.ID == second.ID || len(first.ID) != 36 {
		t.Fatalf("run ids %q %q", first.ID, second.ID)
	}

	runs, err := db.Runs(10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[0].Algorithm != "pso" {
		t.Fatalf("runs %+v", runs)
	}
}

func TestDecisionsRoundTrip(t *testing.T) {
	db := openTemp(t)
	run, err := db.StartRun(1, "beam", 2)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	decisions := []engine.DecisionEvent{
		{Tick: 2, Fisher: 1, Action: "explored", Spot: seascape.Coord{X: 3, Y: 4}, Profit: math.NaN()},
		{Tick: 4, Fisher: 1, Action: "explored", Verdict: "backtrack", Spot: seascape.Coord{X: 2, Y: 4}, Profit: 12.5},
		{Tick: 4, Fisher: 2, Action: "imitated", Verdict: "keep", Spot: seascape.Coord{X: 1, Y: 1}, Profit: 3, Peer: 1, Severed: true},
	}
	if err := db.SaveDecisions(run.ID, decisions); err != nil {
		t.Fatalf("save: %v", err)
	}

	history, err := db.FisherHistory(run.ID, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Tick != 2 || history[0].Profit != nil {
		t.Fatalf("history %+v", history)
	}
	if history[1].Profit == nil || *history[1].Profit != 12.5 || history[1].Verdict != "backtrack" {
		t.Fatalf("second decision %+v", history[1])
	}

	recent, err := db.RecentDecisions(run.ID, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].FisherID != 2 || !recent[0].Severed || recent[0].PeerID != 1 {
		t.Fatalf("recent %+v", recent)
	}

	other, err := db.RecentDecisions("no-such-run", 10)
	if err != nil || len(other) != 0 {
		t.Fatalf("decisions leaked across runs: %+v %v", other, err)
	}
}

func TestSaveFishersReplaces(t *testing.T) {
	db := openTemp(t)
	run, _ := db.StartRun(1, "beam", 2)
	fishers := []*fleet.Fisher{
		{ID: 1, Name: "Silver Gull", LastProfit: math.NaN()},
		{ID: 2, Name: "Lucky Tern", LastProfit: 4, Cash: 40, Trips: 10},
	}
	if err := db.SaveFishers(run.ID, fishers); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveFishers(run.ID, fishers[1:]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM fishers WHERE run_id = ?", run.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("%d fishers stored after replace", count)
	}
}

func TestSaveRunState(t *testing.T) {
	db := openTemp(t)
	cfg := testScenario()
	sim, err := engine.NewSimulation(cfg)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	for tick := uint64(1); tick <= 10; tick++ {
		sim.Tick(tick)
	}
	run, _ := db.StartRun(cfg.Seed, cfg.Adaptation.Algorithm, len(sim.Fishers))
	if err := db.SaveRunState(run.ID, sim); err != nil {
		t.Fatalf("save: %v", err)
	}

	tick, err := db.GetMeta(run.ID, "last_tick")
	if err != nil || tick != "10" {
		t.Fatalf("last tick %q %v", tick, err)
	}
	recent, err := db.RecentDecisions(run.ID, 1000)
	if err != nil || len(recent) == 0 {
		t.Fatalf("no decisions saved: %v", err)
	}
	if again := sim.DrainDecisions(); len(again) != 0 {
		t.Fatalf("saved decisions were not drained")
	}
}

func TestFailedSaveKeepsDecisions(t *testing.T) {
	db := openTemp(t)
	cfg := testScenario()
	sim, err := engine.NewSimulation(cfg)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	for tick := uint64(1); tick <= 10; tick++ {
		sim.Tick(tick)
	}
	run, _ := db.StartRun(cfg.Seed, cfg.Adaptation.Algorithm, len(sim.Fishers))

	pending := sim.DrainDecisions()
	if len(pending) == 0 {
		t.Fatalf("no decisions recorded")
	}
	sim.RequeueDecisions(pending)

	db.Close()
	if err := db.SaveRunState(run.ID, sim); err == nil {
		t.Fatalf("save on a closed database succeeded")
	}
	kept := sim.DrainDecisions()
	if len(kept) != len(pending) || kept[0].Tick != pending[0].Tick || kept[0].Fisher != pending[0].Fisher {
		t.Fatalf("kept %d decisions after a failed save, want %d", len(kept), len(pending))
	}
}
