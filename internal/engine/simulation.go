// Simulation ties the sea, the fleet and the adaptation drivers together and
// runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/config"
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// Adapter drives one fisher's choice of fishing spot.
type Adapter = adaptation.ExploreImitate[*fleet.Fisher, seascape.Coord]

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Simulation holds the complete fleet state. All exported methods are safe
// for concurrent use; the API reads while the engine ticks.
type Simulation struct {
	mu sync.RWMutex

	Sea      *seascape.Map
	Fishers  []*fleet.Fisher
	Index    map[fleet.FisherID]*fleet.Fisher
	Network  *fleet.Network
	Events   []Event // Recent events, oldest first
	LastTick uint64  // Most recent tick processed
	Stats    SimStats

	scenario  config.Scenario
	adapters  []*Adapter   // aligned with Fishers
	rngs      []*rand.Rand // one per fisher so parallel phases stay deterministic
	decisions []DecisionEvent
	unsaved   []Event
}

// Event is a notable occurrence at sea.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "network", "stock"
}

// DecisionEvent records one fisher's adaptation step.
type DecisionEvent struct {
	Tick    uint64         `json:"tick"`
	Fisher  fleet.FisherID `json:"fisher"`
	Action  string         `json:"action"`
	Verdict string         `json:"verdict,omitempty"`
	Spot    seascape.Coord `json:"spot"`
	Profit  float64        `json:"profit"` // fitness the step was taken on
	Peer    fleet.FisherID `json:"peer,omitempty"`
	Severed bool           `json:"severed,omitempty"`
}

// SimStats tracks aggregate fleet statistics.
type SimStats struct {
	Fishers      int     `json:"fishers"`
	Fishing      int     `json:"fishing"` // fishers with at least one haul
	TotalCash    float64 `json:"total_cash"`
	MeanProfit   float64 `json:"mean_profit"`
	LastCatch    float64 `json:"last_catch"`
	TotalBiomass float64 `json:"total_biomass"`
	Severed      int     `json:"severed"`

	Explored  int `json:"explored"`
	Imitated  int `json:"imitated"`
	Exploited int `json:"exploited"`
	Reverted  int `json:"reverted"` // judged changes that were backtracked
}

// NewSimulation generates the sea and the fleet described by cfg.
func NewSimulation(cfg config.Scenario) (*Simulation, error) {
	gen := cfg.Map
	if gen.Seed == 0 {
		gen.Seed = cfg.Seed
	}
	sea := seascape.Generate(gen)

	fishers, err := fleet.NewSpawner(cfg.Seed).Spawn(sea, cfg.Fleet.Fishers, cfg.Fleet.Catchability)
	if err != nil {
		return nil, fmt.Errorf("spawn fleet: %w", err)
	}
	return New(cfg, sea, fishers)
}

// New builds a simulation over an existing sea and fleet.
func New(cfg config.Scenario, sea *seascape.Map, fishers []*fleet.Fisher) (*Simulation, error) {
	index := make(map[fleet.FisherID]*fleet.Fisher, len(fishers))
	for _, f := range fishers {
		index[f.ID] = f
	}

	s := &Simulation{
		Sea:      sea,
		Fishers:  fishers,
		Index:    index,
		Network:  fleet.NewNetwork(fishers, cfg.Fleet.Friends, rand.New(rand.NewSource(cfg.Seed+500))),
		scenario: cfg,
		adapters: make([]*Adapter, len(fishers)),
		rngs:     make([]*rand.Rand, len(fishers)),
	}
	for i, f := range fishers {
		s.rngs[i] = rand.New(rand.NewSource(cfg.Seed + 1000 + int64(f.ID)))
		adapter, err := s.buildAdapter(f, s.rngs[i])
		if err != nil {
			return nil, fmt.Errorf("fisher %d: %w", f.ID, err)
		}
		adapter.Start(sea, f)
		s.adapters[i] = adapter
	}
	s.updateStats()
	return s, nil
}

// Scenario returns the configuration the simulation was built from.
func (s *Simulation) Scenario() config.Scenario { return s.scenario }

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Tick runs one tick: every fisher hauls, the stock regrows and, every
// AdaptEvery ticks, every fisher reconsiders its spot.
func (s *Simulation) Tick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	s.Stats.LastCatch = s.haul(tick)
	s.Sea.Regrow(s.scenario.Engine.RegrowRate)

	if tick%s.scenario.Engine.AdaptEvery == 0 {
		s.adapt(tick)
	}
}

// adapt runs every fisher's driver once, in fleet order.
func (s *Simulation) adapt(tick uint64) {
	for i, f := range s.Fishers {
		fitness := f.LastProfit
		step := s.adapters[i].Adapt(f, s.rngs[i])
		if step.Action == adaptation.ActionSkipped {
			continue
		}

		ev := DecisionEvent{
			Tick:    tick,
			Fisher:  f.ID,
			Action:  step.Action.String(),
			Spot:    f.Spot,
			Profit:  fitness,
			Severed: step.Severed,
		}
		switch {
		case step.Peer != nil:
			ev.Peer = step.Peer.ID
		case step.Severed && step.SeveredPeer != nil:
			ev.Peer = step.SeveredPeer.ID
		}

		switch step.Action {
		case adaptation.ActionExplored:
			s.Stats.Explored++
		case adaptation.ActionImitated:
			s.Stats.Imitated++
		case adaptation.ActionExploited:
			s.Stats.Exploited++
		}
		if step.Judged != adaptation.ActionSkipped {
			ev.Verdict = verdictName(step.Verdict)
			if step.Verdict == adaptation.VerdictBacktrack {
				s.Stats.Reverted++
			}
		}
		if step.Severed && step.SeveredPeer != nil {
			s.recordEvent(tick, "network", fmt.Sprintf("%s stopped following %s", f.Name, step.SeveredPeer.Name))
		}
		s.decisions = append(s.decisions, ev)
	}
}

func verdictName(v adaptation.Verdict) string {
	switch v {
	case adaptation.VerdictKeep:
		return "keep"
	case adaptation.VerdictBacktrack:
		return "backtrack"
	default:
		return ""
	}
}

// DrainDecisions hands over the decisions recorded since the last call.
func (s *Simulation) DrainDecisions() []DecisionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.decisions
	s.decisions = nil
	return out
}

// RequeueDecisions puts decisions that could not be stored back in front of
// any recorded since they were drained.
func (s *Simulation) RequeueDecisions(decisions []DecisionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(append([]DecisionEvent(nil), decisions...), s.decisions...)
}

// RequeueEvents does the same for events handed out by Snapshot.
func (s *Simulation) RequeueEvents(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved = append(append([]Event(nil), events...), s.unsaved...)
}

// TickDay runs every sim-day: statistics, stock warnings, daily summary.
func (s *Simulation) TickDay(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateStats()
	s.checkStock(tick)

	eventCounts := make(map[string]int)
	for _, e := range s.Events {
		eventCounts[e.Category]++
	}

	slog.Info("daily report",
		"tick", tick,
		"time", SimTime(tick, s.scenario.Engine.TicksPerDay),
		"fishing", s.Stats.Fishing,
		"mean_profit", fmt.Sprintf("%.2f", s.Stats.MeanProfit),
		"last_catch", fmt.Sprintf("%.1f", s.Stats.LastCatch),
		"biomass", fmt.Sprintf("%.0f", s.Stats.TotalBiomass),
		"explored", s.Stats.Explored,
		"imitated", s.Stats.Imitated,
		"exploited", s.Stats.Exploited,
		"reverted", s.Stats.Reverted,
		"severed", s.Stats.Severed,
		"events_network", eventCounts["network"],
		"events_stock", eventCounts["stock"],
	)

	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// checkStock warns once per day about spots fished down below a tenth of
// their carrying capacity.
func (s *Simulation) checkStock(tick uint64) {
	seen := make(map[seascape.Coord]bool)
	for _, f := range s.Fishers {
		if seen[f.Spot] {
			continue
		}
		seen[f.Spot] = true
		cell := s.Sea.Get(f.Spot)
		if cell == nil || cell.Carrying <= 0 {
			continue
		}
		if cell.Biomass < 0.1*cell.Carrying {
			s.recordEvent(tick, "stock", fmt.Sprintf("stock at %s is depleted (%.0f of %.0f)", f.Spot, cell.Biomass, cell.Carrying))
		}
	}
}

func (s *Simulation) recordEvent(tick uint64, category, description string) {
	e := Event{Tick: tick, Description: description, Category: category}
	s.Events = append(s.Events, e)
	s.unsaved = append(s.unsaved, e)
}

// Snapshot copies the fleet and hands over the events recorded since the
// last snapshot, for saving outside the lock.
func (s *Simulation) Snapshot() (fishers []*fleet.Fisher, events []Event, tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fishers = make([]*fleet.Fisher, len(s.Fishers))
	for i, f := range s.Fishers {
		c := *f
		c.Memory = append([]fleet.Trip(nil), f.Memory...)
		fishers[i] = &c
	}
	events, s.unsaved = s.unsaved, nil
	return fishers, events, s.LastTick
}

func (s *Simulation) updateStats() {
	fishing := 0
	cash := 0.0
	profit := 0.0
	for _, f := range s.Fishers {
		cash += f.Cash
		if f.HasFished() {
			fishing++
			profit += f.LastProfit
		}
	}

	s.Stats.Fishers = len(s.Fishers)
	s.Stats.Fishing = fishing
	s.Stats.TotalCash = cash
	s.Stats.MeanProfit = 0
	if fishing > 0 {
		s.Stats.MeanProfit = profit / float64(fishing)
	}
	s.Stats.TotalBiomass = s.Sea.TotalBiomass()
	s.Stats.Severed = s.Network.Severed()
}
