// Package seascape provides the rectangular sea grid fishers work on:
// coordinates, land/sea cells, fish biomass and its regrowth.
package seascape

import (
	"fmt"
	"math"
)

// Coord is a cell position; X grows east, Y grows south.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// NeighborDirections are the eight surrounding offsets (Moore neighborhood).
var NeighborDirections = [8]Coord{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Neighbors returns the eight adjacent coordinates, possibly out of bounds.
func (c Coord) Neighbors() [8]Coord {
	var result [8]Coord
	for i, dir := range NeighborDirections {
		result[i] = Coord{X: c.X + dir.X, Y: c.Y + dir.Y}
	}
	return result
}

// Distance returns the straight-line distance between two cells.
func Distance(a, b Coord) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
