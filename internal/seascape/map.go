package seascape

import "fmt"

// Cell is a single tile of the grid.
type Cell struct {
	Coord     Coord   `json:"coord"`
	Elevation float64 `json:"elevation"` // 0.0 (deep) to 1.0 (peak)
	Land      bool    `json:"land"`
	Port      bool    `json:"port"` // land cell touching the sea

	// Fish stock, regrowing logistically towards Carrying.
	Biomass  float64 `json:"biomass"`
	Carrying float64 `json:"carrying"`
}

// Waters is what exploration needs to know about the world.
type Waters interface {
	InBounds(c Coord) bool
	IsLand(c Coord) bool
}

// Map holds the complete grid, row-major.
type Map struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Cells  []*Cell `json:"-"`
}

// NewMap creates an empty map of the given size; every cell is sea with no fish.
func NewMap(width, height int) *Map {
	m := &Map{
		Width:  width,
		Height: height,
		Cells:  make([]*Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Cells[y*width+x] = &Cell{Coord: Coord{X: x, Y: y}}
		}
	}
	return m
}

// Open returns an all-sea map where every cell carries the same stock.
func Open(width, height int, biomass float64) *Map {
	m := NewMap(width, height)
	for _, c := range m.Cells {
		c.Biomass = biomass
		c.Carrying = biomass
	}
	return m
}

// Get returns the cell at c, or nil if out of bounds.
func (m *Map) Get(c Coord) *Cell {
	if !m.InBounds(c) {
		return nil
	}
	return m.Cells[c.Y*m.Width+c.X]
}

// InBounds returns true if c lies on the grid.
func (m *Map) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < m.Width && c.Y < m.Height
}

// IsLand reports whether c is land. Out-of-bounds cells count as land.
func (m *Map) IsLand(c Coord) bool {
	cell := m.Get(c)
	return cell == nil || cell.Land
}

// SeaCells returns every cell fishers can work.
func (m *Map) SeaCells() []*Cell {
	var out []*Cell
	for _, c := range m.Cells {
		if !c.Land {
			out = append(out, c)
		}
	}
	return out
}

// Ports returns every land cell adjacent to the sea.
func (m *Map) Ports() []*Cell {
	var out []*Cell
	for _, c := range m.Cells {
		if c.Port {
			out = append(out, c)
		}
	}
	return out
}

// TotalBiomass sums the stock over all sea cells.
func (m *Map) TotalBiomass() float64 {
	total := 0.0
	for _, c := range m.Cells {
		if !c.Land {
			total += c.Biomass
		}
	}
	return total
}

// Regrow applies one step of logistic growth with the given rate to every sea cell.
func (m *Map) Regrow(rate float64) {
	for _, c := range m.Cells {
		if c.Land || c.Carrying <= 0 {
			continue
		}
		c.Biomass += rate * c.Biomass * (1 - c.Biomass/c.Carrying)
		if c.Biomass > c.Carrying {
			c.Biomass = c.Carrying
		}
		if c.Biomass < 0 {
			c.Biomass = 0
		}
	}
}

// CellCount returns the total number of cells in the map.
func (m *Map) CellCount() int {
	return len(m.Cells)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, cells=%d)", m.Width, m.Height, m.CellCount())
}
