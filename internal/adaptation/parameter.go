package adaptation

import "fmt"

// DoubleParameter draws a number, usually to seed initial velocities.
type DoubleParameter interface {
	Draw(rng Rand) float64
}

// FixedParameter always returns Value.
type FixedParameter struct{ Value float64 }

func (p FixedParameter) Draw(Rand) float64 { return p.Value }

// UniformParameter draws from [Min, Max).
type UniformParameter struct{ Min, Max float64 }

func (p UniformParameter) Draw(rng Rand) float64 {
	return p.Min + rng.Float64()*(p.Max-p.Min)
}

// NormalParameter draws from N(Mean, StdDev²).
type NormalParameter struct{ Mean, StdDev float64 }

func (p NormalParameter) Draw(rng Rand) float64 {
	return p.Mean + rng.NormFloat64()*p.StdDev
}

// ParseParameter builds a parameter from a kind name and two numbers, as found
// in scenario files: "fixed" uses a, "uniform" is [a,b), "normal" is mean a,
// deviation b.
func ParseParameter(kind string, a, b float64) (DoubleParameter, error) {
	switch kind {
	case "", "fixed":
		return FixedParameter{Value: a}, nil
	case "uniform":
		if b < a {
			return nil, fmt.Errorf("uniform parameter max %v below min %v: %w", b, a, ErrInvalidConfig)
		}
		return UniformParameter{Min: a, Max: b}, nil
	case "normal":
		if b < 0 {
			return nil, fmt.Errorf("normal parameter deviation %v negative: %w", b, ErrInvalidConfig)
		}
		return NormalParameter{Mean: a, StdDev: b}, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %q: %w", kind, ErrInvalidConfig)
	}
}
