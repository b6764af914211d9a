package fleet

import (
	"math"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

// SpotSensor reads where a fisher currently fishes.
func SpotSensor(f *Fisher) seascape.Coord { return f.Spot }

// SpotActuator moves the fisher to spot. Spots off the grid or on land are
// refused and the fisher stays where it was.
func SpotActuator(f *Fisher, spot seascape.Coord, world any) {
	if waters, ok := world.(seascape.Waters); ok {
		if !waters.InBounds(spot) || waters.IsLand(spot) {
			return
		}
	}
	f.Spot = spot
}

// ProfitObjective scores a fisher by its last trip's profit. Every observer
// sees the same number; NaN before the first trip.
func ProfitObjective(_, observed *Fisher) float64 { return observed.LastProfit }

// HomePort is the home lookup grid exploration uses to avoid fishing in port.
func HomePort(f *Fisher) (seascape.Coord, bool) { return f.Home, true }

// SpotTransformer maps a grid cell to [x, y] and back, rounding to the
// nearest cell.
type SpotTransformer struct{}

var _ adaptation.CoordinateTransformer[*Fisher, seascape.Coord] = SpotTransformer{}

func (SpotTransformer) ToCoordinates(spot seascape.Coord, _ *Fisher, _ any) []float64 {
	return []float64{float64(spot.X), float64(spot.Y)}
}

func (SpotTransformer) FromCoordinates(coords []float64, _ *Fisher, _ any) seascape.Coord {
	return seascape.Coord{X: int(math.Round(coords[0])), Y: int(math.Round(coords[1]))}
}

// GridBounder clamps continuous coordinates inside a width x height grid.
func GridBounder(width, height int) adaptation.Bounder {
	return func(coords []float64) {
		coords[0] = clamp(coords[0], 0, float64(width-1))
		coords[1] = clamp(coords[1], 0, float64(height-1))
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
