// Grid generation using layered simplex noise: an elevation layer decides
// land and sea, a second layer spreads the fish carrying capacity.
package seascape

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds grid generation parameters.
type GenConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Seed     int64   `yaml:"seed"`      // 0 = random
	SeaLevel float64 `yaml:"sea_level"` // elevation threshold for land (0.0–1.0)
	Carrying float64 `yaml:"carrying"`  // mean carrying capacity per sea cell
}

// DefaultGenConfig returns a coastline along the east edge of a 50x50 grid.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:    50,
		Height:   50,
		Seed:     0,
		SeaLevel: 0.62,
		Carrying: 5000,
	}
}

// SmallTestConfig returns a tiny grid for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:    12,
		Height:   12,
		Seed:     42,
		SeaLevel: 0.62,
		Carrying: 1000,
	}
}

// Generate creates a complete map with land, ports and fish.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	fishNoise := opensimplex.NewNormalized(seed + 1)

	m := NewMap(cfg.Width, cfg.Height)

	for _, cell := range m.Cells {
		x := float64(cell.Coord.X)
		y := float64(cell.Coord.Y)

		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)

		// Continental shaping: the land mass rises towards the east edge.
		east := x / math.Max(1, float64(cfg.Width-1))
		elev = elev*0.5 + math.Pow(east, 3)*0.6

		cell.Elevation = math.Min(1, elev)
		cell.Land = cell.Elevation >= cfg.SeaLevel
		if cell.Land {
			continue
		}

		richness := octaveNoise(fishNoise, x, y, 3, 0.06, 0.5)
		cell.Carrying = cfg.Carrying * (0.25 + 1.5*richness)
		cell.Biomass = cell.Carrying
	}

	// Post-pass: land cells adjacent to sea become ports.
	markPorts(m)

	return m
}

// markPorts flags land cells with at least one sea neighbor.
func markPorts(m *Map) {
	for _, cell := range m.Cells {
		if !cell.Land {
			continue
		}
		for _, n := range cell.Coord.Neighbors() {
			nc := m.Get(n)
			if nc != nil && !nc.Land {
				cell.Port = true
				break
			}
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Counts summarizes the grid.
type Counts struct {
	Sea   int `json:"sea"`
	Land  int `json:"land"`
	Ports int `json:"ports"`
}

// CellCounts returns how many cells of each kind the map has.
func CellCounts(m *Map) Counts {
	var c Counts
	for _, cell := range m.Cells {
		switch {
		case !cell.Land:
			c.Sea++
		case cell.Port:
			c.Ports++
			c.Land++
		default:
			c.Land++
		}
	}
	return c
}
