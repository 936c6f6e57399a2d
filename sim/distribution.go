package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// ServiceSampler generates service-time samples for one station.
type ServiceSampler interface {
	// Sample returns a positive service time.
	Sample(rng *rand.Rand) float64
}

// ExponentialSampler produces exponentially-distributed service times with
// the given mean. This is the default service process (Markovian service).
type ExponentialSampler struct {
	Mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	val := rng.ExpFloat64() * s.Mean
	if val <= 0 {
		// ExpFloat64 can return exactly 0; service times must be positive.
		return math.SmallestNonzeroFloat64
	}
	return val
}

// DeterministicSampler always returns the same service time. Useful for
// stations with fixed processing times and for exact-arithmetic tests.
type DeterministicSampler struct {
	Value float64
}

func (s *DeterministicSampler) Sample(_ *rand.Rand) float64 {
	return s.Value
}

// UniformSampler produces service times uniform on [Min, Max).
type UniformSampler struct {
	Min, Max float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.Min + rng.Float64()*(s.Max-s.Min)
}

// NewServiceSampler creates a ServiceSampler by name, using mean as the
// distribution's location parameter. Valid names: "exponential" (default),
// "deterministic", "uniform" (uniform on [0, 2*mean), preserving the mean).
// Empty string defaults to exponential.
func NewServiceSampler(name string, mean float64) (ServiceSampler, error) {
	switch name {
	case "", "exponential":
		return &ExponentialSampler{Mean: mean}, nil
	case "deterministic":
		return &DeterministicSampler{Value: mean}, nil
	case "uniform":
		return &UniformSampler{Min: 0, Max: 2 * mean}, nil
	default:
		return nil, fmt.Errorf("%w: unknown service distribution %q", ErrConfiguration, name)
	}
}
