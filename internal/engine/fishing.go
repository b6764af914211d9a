package engine

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// haul plans every fisher's catch in parallel against the stock as it stood
// at the start of the tick, then lands the catches in fleet order so boats
// sharing a cell split what is really there. It returns the total landed.
func (s *Simulation) haul(tick uint64) float64 {
	planned := make([]float64, len(s.Fishers))

	workers := s.scenario.Engine.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i, f := range s.Fishers {
		p.Go(func() {
			planned[i] = plannedCatch(s.Sea, f)
		})
	}
	p.Wait()

	total := 0.0
	for i, f := range s.Fishers {
		cell := s.Sea.Get(f.Spot)
		landed := 0.0
		if cell != nil && !cell.Land {
			landed = min(planned[i], cell.Biomass)
			cell.Biomass -= landed
		}
		total += landed
		fleet.RecordTrip(f, fleet.Trip{
			Tick:   tick,
			Spot:   f.Spot,
			Catch:  landed,
			Profit: s.profit(f, landed),
		})
	}
	return total
}

func plannedCatch(sea *seascape.Map, f *fleet.Fisher) float64 {
	cell := sea.Get(f.Spot)
	if cell == nil || cell.Land {
		return 0
	}
	return f.Catchability * cell.Biomass
}

// profit is the catch's value minus the cost of sailing out from port.
func (s *Simulation) profit(f *fleet.Fisher, landed float64) float64 {
	return landed*s.scenario.Fleet.Price - s.scenario.Fleet.TravelCost*seascape.Distance(f.Home, f.Spot)
}
