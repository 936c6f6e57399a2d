package sim

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RowSumTolerance is the allowed deviation of a routing row's probability
// mass from 1.0.
const RowSumTolerance = 1e-9

// RoutingTable is the stochastic matrix governing which station a job visits
// after finishing service. Row i holds the transition probabilities out of
// station i; every row must sum to 1 because the network is closed. The
// table is validated at construction and immutable during a run.
type RoutingTable struct {
	p *mat.Dense
	n int
}

// NewRoutingTable validates the matrix and builds a routing table.
// The matrix must be square with non-negative entries and unit row sums
// (within RowSumTolerance).
func NewRoutingTable(rows [][]float64) (*RoutingTable, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: routing matrix is empty", ErrConfiguration)
	}
	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: routing matrix is not square: row %d has %d entries, want %d",
				ErrConfiguration, i, len(row), n)
		}
		sum := 0.0
		for j, p := range row {
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("%w: routing probability [%d][%d] = %v is not a probability",
					ErrConfiguration, i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > RowSumTolerance {
			return nil, fmt.Errorf("%w: routing row %d sums to %v, want 1.0", ErrConfiguration, i, sum)
		}
		flat = append(flat, row...)
	}
	return &RoutingTable{p: mat.NewDense(n, n, flat), n: n}, nil
}

// Dim returns the number of stations the table routes between.
func (rt *RoutingTable) Dim() int {
	return rt.n
}

// Prob returns the probability of routing from station i to station j.
func (rt *RoutingTable) Prob(i, j int) float64 {
	return rt.p.At(i, j)
}

// Route draws the destination station for a job departing from the given
// station: a uniform draw in [0,1) selected against the cumulative
// probabilities of the station's row. Deterministic given a seeded rng.
func (rt *RoutingTable) Route(from int, rng *rand.Rand) int {
	u := rng.Float64()
	cum := 0.0
	for j := 0; j < rt.n; j++ {
		cum += rt.p.At(from, j)
		if u < cum {
			return j
		}
	}
	// Row sums to 1 within tolerance; u can still land in the residual gap.
	return rt.n - 1
}

// VisitRatios solves the stationary flow-balance equations v = vP,
// normalized so the reference station has ratio 1. The ratio for station i is
// the expected number of visits to i per circulation through the reference
// station, which makes v[i] * meanService[i] / servers[i] the station's
// service demand per circulation (the analytical bottleneck indicator).
//
// Fails if the flow equations are singular under the normalization, which
// happens when part of the network is unreachable from the reference station.
func (rt *RoutingTable) VisitRatios(ref int) ([]float64, error) {
	if ref < 0 || ref >= rt.n {
		return nil, fmt.Errorf("%w: reference station %d outside [0, %d)", ErrConfiguration, ref, rt.n)
	}

	// v = vP  <=>  (Pᵀ - I) vᵀ = 0. Replace the row for the reference
	// station with v[ref] = 1 to pin the otherwise rank-deficient system.
	a := mat.NewDense(rt.n, rt.n, nil)
	b := mat.NewVecDense(rt.n, nil)
	for i := 0; i < rt.n; i++ {
		if i == ref {
			a.Set(i, ref, 1)
			b.SetVec(i, 1)
			continue
		}
		for j := 0; j < rt.n; j++ {
			v := rt.p.At(j, i) // transpose
			if i == j {
				v -= 1
			}
			a.Set(i, j, v)
		}
	}

	var v mat.VecDense
	if err := v.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("visit-ratio system is singular (station unreachable from reference?): %w", err)
	}
	ratios := make([]float64, rt.n)
	for i := range ratios {
		ratios[i] = v.AtVec(i)
	}
	return ratios, nil
}
