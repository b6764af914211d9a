// Fleet spawning: fishers get a home port, a first spot near it and a
// catchability drawn around the fleet mean.
package fleet

import (
	"errors"
	"math"
	"math/rand"

	"github.com/talgya/fleet-adapt/internal/seascape"
)

// ErrNoSea is returned when a map has no sea cell to fish.
var ErrNoSea = errors.New("map has no sea cells")

// spawnRadius is how far from home a fisher's first spot may be.
const spawnRadius = 4

// Spawner creates fishers for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID FisherID
}

// NewSpawner creates a fisher spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next fisher ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id FisherID) {
	s.nextID = id
}

// Spawn creates count fishers spread across the map's ports. Maps without
// ports (such as Open grids) home each fisher on a random sea cell instead.
func (s *Spawner) Spawn(m *seascape.Map, count int, catchability float64) ([]*Fisher, error) {
	sea := m.SeaCells()
	if len(sea) == 0 {
		return nil, ErrNoSea
	}
	ports := m.Ports()

	fishers := make([]*Fisher, 0, count)
	for i := 0; i < count; i++ {
		var home seascape.Coord
		if len(ports) > 0 {
			home = ports[i%len(ports)].Coord
		} else {
			home = sea[s.rng.Intn(len(sea))].Coord
		}
		fishers = append(fishers, s.spawnOne(home, sea, catchability))
	}
	return fishers, nil
}

func (s *Spawner) spawnOne(home seascape.Coord, sea []*seascape.Cell, catchability float64) *Fisher {
	id := s.nextID
	s.nextID++

	// Skill varies ±30% around the fleet mean.
	c := catchability * (0.7 + s.rng.Float64()*0.6)

	return &Fisher{
		ID:           id,
		Name:         s.generateName(),
		Home:         home,
		Spot:         s.firstSpot(home, sea),
		Catchability: c,
		LastProfit:   math.NaN(),
	}
}

// firstSpot picks a sea cell close to home, falling back to any sea cell.
func (s *Spawner) firstSpot(home seascape.Coord, sea []*seascape.Cell) seascape.Coord {
	var near []seascape.Coord
	for _, cell := range sea {
		if cell.Coord != home && seascape.Distance(cell.Coord, home) <= spawnRadius {
			near = append(near, cell.Coord)
		}
	}
	if len(near) > 0 {
		return near[s.rng.Intn(len(near))]
	}
	for tries := 0; tries < 10; tries++ {
		if c := sea[s.rng.Intn(len(sea))].Coord; c != home {
			return c
		}
	}
	return sea[0].Coord
}

var boatPrefixes = []string{
	"Northern", "Silver", "Saint", "Grey", "Good", "Lucky", "Morning", "Evening",
	"Brave", "Little", "Old", "Western", "Faithful", "Swift", "Quiet", "Bonny",
}

var boatNames = []string{
	"Gull", "Tern", "Herring", "Mackerel", "Petrel", "Dawn", "Harvest", "Star",
	"Tide", "Wanderer", "Providence", "Hope", "Marlin", "Skerry", "Shoal", "Haddock",
	"Puffin", "Kittiwake", "Cormorant", "Selkie",
}

func (s *Spawner) generateName() string {
	return boatPrefixes[s.rng.Intn(len(boatPrefixes))] + " " + boatNames[s.rng.Intn(len(boatNames))]
}
