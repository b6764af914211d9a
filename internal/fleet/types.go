// Package fleet provides the fisher data model, the friendship network and
// the fishing-spot decision the adaptation engine tunes.
package fleet

import (
	"math"
	"sort"

	"github.com/talgya/fleet-adapt/internal/seascape"
)

// FisherID is a unique identifier for a fisher.
type FisherID uint64

// MaxTrips bounds the per-fisher trip memory.
const MaxTrips = 30

// Trip records one completed day at sea.
type Trip struct {
	Tick   uint64         `json:"tick"`
	Spot   seascape.Coord `json:"spot"`
	Catch  float64        `json:"catch"`
	Profit float64        `json:"profit"`
}

// Fisher is a boat working out of a home port.
type Fisher struct {
	ID   FisherID `json:"id"`
	Name string   `json:"name"`

	Home seascape.Coord `json:"home"` // port it sails from
	Spot seascape.Coord `json:"spot"` // where it fishes, the adapted decision

	Catchability float64 `json:"catchability"` // fraction of a cell's stock caught per trip
	Cash         float64 `json:"cash"`

	// LastProfit is NaN until the first trip.
	LastProfit float64 `json:"-"`
	Trips      uint64  `json:"trips"`
	Memory     []Trip  `json:"-"`
}

// HasFished reports whether the fisher has completed at least one trip.
func (f *Fisher) HasFished() bool {
	return !math.IsNaN(f.LastProfit)
}

// RecordTrip books a trip and remembers it. When memory is full the least
// profitable trip is dropped to make room.
func RecordTrip(f *Fisher, t Trip) {
	f.LastProfit = t.Profit
	f.Cash += t.Profit
	f.Trips++

	if len(f.Memory) < MaxTrips {
		f.Memory = append(f.Memory, t)
		return
	}
	worst := 0
	for i := 1; i < len(f.Memory); i++ {
		if f.Memory[i].Profit < f.Memory[worst].Profit {
			worst = i
		}
	}
	if t.Profit > f.Memory[worst].Profit {
		f.Memory[worst] = t
	}
}

// BestSpot returns the most profitable spot the fisher remembers.
func BestSpot(f *Fisher) (seascape.Coord, bool) {
	if len(f.Memory) == 0 {
		return seascape.Coord{}, false
	}
	best := f.Memory[0]
	for _, t := range f.Memory[1:] {
		if t.Profit > best.Profit {
			best = t
		}
	}
	return best.Spot, true
}

// RecentTrips returns the most recent n trips, newest first.
func RecentTrips(f *Fisher, n int) []Trip {
	if len(f.Memory) == 0 {
		return nil
	}
	sorted := make([]Trip, len(f.Memory))
	copy(sorted, f.Memory)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Tick > sorted[j].Tick
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
