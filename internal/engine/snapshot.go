package engine

import (
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// Status is a point-in-time summary for the API.
type Status struct {
	Tick      uint64   `json:"tick"`
	SimTime   string   `json:"sim_time"`
	Algorithm string   `json:"algorithm"`
	MapWidth  int      `json:"map_width"`
	MapHeight int      `json:"map_height"`
	Stats     SimStats `json:"stats"`
}

// FisherView is a JSON-safe copy of a fisher.
type FisherView struct {
	ID         fleet.FisherID   `json:"id"`
	Name       string           `json:"name"`
	Home       seascape.Coord   `json:"home"`
	Spot       seascape.Coord   `json:"spot"`
	Cash       float64          `json:"cash"`
	LastProfit *float64         `json:"last_profit"` // null before the first haul
	Trips      uint64           `json:"trips"`
	BestSpot   *seascape.Coord  `json:"best_spot,omitempty"`
	Friends    []fleet.FisherID `json:"friends"`
	Recent     []fleet.Trip     `json:"recent,omitempty"`
}

// Status summarizes the simulation.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Tick:      s.LastTick,
		SimTime:   SimTime(s.LastTick, s.scenario.Engine.TicksPerDay),
		Algorithm: s.scenario.Adaptation.Algorithm,
		MapWidth:  s.Sea.Width,
		MapHeight: s.Sea.Height,
		Stats:     s.Stats,
	}
}

// FisherViews lists every fisher without trip detail.
func (s *Simulation) FisherViews() []FisherView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]FisherView, 0, len(s.Fishers))
	for _, f := range s.Fishers {
		views = append(views, s.view(f, 0))
	}
	return views
}

// FisherView returns one fisher with its recent trips.
func (s *Simulation) FisherView(id fleet.FisherID, recent int) (FisherView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.Index[id]
	if !ok {
		return FisherView{}, false
	}
	return s.view(f, recent), true
}

func (s *Simulation) view(f *fleet.Fisher, recent int) FisherView {
	v := FisherView{
		ID:      f.ID,
		Name:    f.Name,
		Home:    f.Home,
		Spot:    f.Spot,
		Cash:    f.Cash,
		Trips:   f.Trips,
		Friends: s.Network.Friends(f.ID),
	}
	if f.HasFished() {
		p := f.LastProfit
		v.LastProfit = &p
	}
	if best, ok := fleet.BestSpot(f); ok {
		v.BestSpot = &best
	}
	if recent > 0 {
		v.Recent = fleet.RecentTrips(f, recent)
	}
	return v
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	return append([]Event(nil), s.Events[start:]...)
}
