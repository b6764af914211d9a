package fleet

import (
	"math"
	"testing"

	"github.com/talgya/fleet-adapt/internal/seascape"
)

func TestRecordTripKeepsMostProfitable(t *testing.T) {
	f := &Fisher{LastProfit: math.NaN()}
	if f.HasFished() {
		t.Fatalf("new fisher reports a trip")
	}
	for i := 0; i < MaxTrips; i++ {
		RecordTrip(f, Trip{Tick: uint64(i), Spot: seascape.Coord{X: i}, Profit: float64(i)})
	}
	RecordTrip(f, Trip{Tick: 100, Spot: seascape.Coord{X: 99}, Profit: 500})
	RecordTrip(f, Trip{Tick: 101, Spot: seascape.Coord{X: 98}, Profit: -5})

	if len(f.Memory) != MaxTrips {
		t.Fatalf("memory grew to %d", len(f.Memory))
	}
	if f.Trips != MaxTrips+2 || f.LastProfit != -5 {
		t.Fatalf("trips %d last profit %v", f.Trips, f.LastProfit)
	}
	best, ok := BestSpot(f)
	if !ok || best.X != 99 {
		t.Fatalf("best spot %v %v", best, ok)
	}
	for _, trip := range f.Memory {
		if trip.Profit == 0 || trip.Profit == -5 {
			t.Fatalf("kept an unprofitable trip over a better one: %+v", trip)
		}
	}
	if recent := RecentTrips(f, 1); len(recent) != 1 || recent[0].Tick != 100 {
		t.Fatalf("recent trips %+v", recent)
	}
}

func TestBestSpotEmpty(t *testing.T) {
	if _, ok := BestSpot(&Fisher{}); ok {
		t.Fatalf("empty memory has a best spot")
	}
}

func TestSpawnOnGeneratedSea(t *testing.T) {
	m := seascape.Generate(seascape.SmallTestConfig())
	fishers, err := NewSpawner(1).Spawn(m, 10, 0.01)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if len(fishers) != 10 {
		t.Fatalf("spawned %d fishers", len(fishers))
	}
	seen := map[FisherID]bool{}
	for _, f := range fishers {
		if seen[f.ID] {
			t.Fatalf("duplicate id %d", f.ID)
		}
		seen[f.ID] = true
		if m.IsLand(f.Spot) || f.Spot == f.Home {
			t.Errorf("%s starts at %v (home %v)", f.Name, f.Spot, f.Home)
		}
		if f.HasFished() || f.Catchability < 0.007 || f.Catchability > 0.013 {
			t.Errorf("%s spawned with catchability %v, profit %v", f.Name, f.Catchability, f.LastProfit)
		}
	}
}

func TestSpawnNeedsSea(t *testing.T) {
	m := seascape.Open(2, 2, 1)
	for _, c := range m.Cells {
		c.Land = true
	}
	if _, err := NewSpawner(1).Spawn(m, 3, 0.01); err != ErrNoSea {
		t.Fatalf("got %v, want ErrNoSea", err)
	}
}
