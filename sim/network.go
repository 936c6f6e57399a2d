package sim

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultMaxEvents is the event budget applied when a network is built
// without WithMaxEvents. Generous enough for long runs, small enough to
// terminate same-time event storms quickly.
const DefaultMaxEvents = 10_000_000

// DefaultSeed matches the CLI default so that library and CLI runs agree.
const DefaultSeed = 42

type netState int

const (
	stateConfiguring netState = iota
	stateReady
	stateCompleted
)

type stationSpec struct {
	servers int
	mean    float64
	name    string
	sampler ServiceSampler
}

// Network is the public construction surface for a closed queuing network.
// Build order: NewNetwork → AddStation (once per routing-matrix row) →
// InitializeJobs → Run → Report. Each Run constructs a fresh engine, so a
// Network holds no cross-run state beyond its configuration and the last
// report; independent networks may run concurrently.
type Network struct {
	numJobs    int
	routing    *RoutingTable
	specs      []stationSpec
	placement  map[int]int
	seed       int64
	maxEvents  int64
	refStation int // -1 until set; defaults to the lowest initialized station

	state  netState
	report *Report
}

// Option configures optional Network parameters.
type Option func(*Network)

// WithSeed sets the master random seed. Identical configurations with the
// same seed produce bit-identical runs.
func WithSeed(seed int64) Option {
	return func(n *Network) { n.seed = seed }
}

// WithMaxEvents overrides the event budget.
func WithMaxEvents(max int64) Option {
	return func(n *Network) { n.maxEvents = max }
}

// WithReferenceStation sets the station whose departures count as completed
// circulations. Defaults to the station jobs are initialized at.
func WithReferenceStation(station int) Option {
	return func(n *Network) { n.refStation = station }
}

// NewNetwork creates a closed network holding numJobs circulating jobs,
// governed by the given routing matrix. The matrix is validated eagerly:
// it must be square with non-negative entries and unit row sums.
func NewNetwork(numJobs int, routing [][]float64, opts ...Option) (*Network, error) {
	if numJobs < 1 {
		return nil, fmt.Errorf("%w: num_jobs must be at least 1, got %d", ErrConfiguration, numJobs)
	}
	rt, err := NewRoutingTable(routing)
	if err != nil {
		return nil, err
	}
	n := &Network{
		numJobs:    numJobs,
		routing:    rt,
		seed:       DefaultSeed,
		maxEvents:  DefaultMaxEvents,
		refStation: -1,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.maxEvents < 1 {
		return nil, fmt.Errorf("%w: max_events must be at least 1, got %d", ErrConfiguration, n.maxEvents)
	}
	if n.refStation >= rt.Dim() {
		return nil, fmt.Errorf("%w: reference station %d outside routing dimension %d",
			ErrConfiguration, n.refStation, rt.Dim())
	}
	return n, nil
}

// AddStation appends a station with the given server count and mean service
// time (exponential by default; see SetServiceSampler). Stations are indexed
// in the order added and must match the routing matrix dimension before a
// run. Returns the new station's index.
func (n *Network) AddStation(servers int, meanServiceTime float64, name string) (int, error) {
	if n.state == stateCompleted {
		return 0, fmt.Errorf("%w: cannot add stations after a run; call Reset first", ErrState)
	}
	if servers < 1 {
		return 0, fmt.Errorf("%w: station needs at least 1 server, got %d", ErrConfiguration, servers)
	}
	if meanServiceTime <= 0 {
		return 0, fmt.Errorf("%w: mean service time must be positive, got %v", ErrConfiguration, meanServiceTime)
	}
	if len(n.specs) >= n.routing.Dim() {
		return 0, fmt.Errorf("%w: routing matrix is %dx%d but a %s station was added",
			ErrConfiguration, n.routing.Dim(), n.routing.Dim(), ordinal(len(n.specs)+1))
	}
	n.specs = append(n.specs, stationSpec{
		servers: servers,
		mean:    meanServiceTime,
		name:    name,
		sampler: &ExponentialSampler{Mean: meanServiceTime},
	})
	return len(n.specs) - 1, nil
}

// SetServiceSampler replaces the service-time distribution of one station.
// The sampler must honor the positivity contract: samplers that can produce
// non-positive values must clamp or resample before returning.
func (n *Network) SetServiceSampler(station int, sampler ServiceSampler) error {
	if n.state == stateCompleted {
		return fmt.Errorf("%w: cannot reconfigure stations after a run; call Reset first", ErrState)
	}
	if station < 0 || station >= len(n.specs) {
		return fmt.Errorf("%w: station %d does not exist", ErrConfiguration, station)
	}
	if sampler == nil {
		return fmt.Errorf("%w: nil service sampler", ErrConfiguration)
	}
	n.specs[station].sampler = sampler
	return nil
}

// InitializeJobs places the entire population at one station.
func (n *Network) InitializeJobs(initialStation int) error {
	return n.InitializeJobsSpread(map[int]int{initialStation: n.numJobs})
}

// InitializeJobsSpread places the population according to a station→count
// map. Counts must be non-negative and sum to the configured population.
func (n *Network) InitializeJobsSpread(placement map[int]int) error {
	if n.state == stateCompleted {
		return fmt.Errorf("%w: cannot re-place jobs after a run; call Reset first", ErrState)
	}
	total := 0
	for st, count := range placement {
		if st < 0 || st >= len(n.specs) {
			return fmt.Errorf("%w: initial placement references station %d, have %d stations",
				ErrConfiguration, st, len(n.specs))
		}
		if count < 0 {
			return fmt.Errorf("%w: negative job count %d for station %d", ErrConfiguration, count, st)
		}
		total += count
	}
	if total != n.numJobs {
		return fmt.Errorf("%w: initial placement covers %d jobs, network holds %d",
			ErrConfiguration, total, n.numJobs)
	}
	n.placement = make(map[int]int, len(placement))
	for st, count := range placement {
		if count > 0 {
			n.placement[st] = count
		}
	}
	n.state = stateReady
	return nil
}

// Run executes the simulation to the given stop time, excluding activity
// before warmupTime from the statistics. Returns an error wrapping
// ErrConfiguration for invalid parameters, ErrState if jobs were never
// initialized or a previous run was not Reset, and ErrBudgetExceeded when
// the event budget halts the run (the report is still available, flagged
// incomplete).
func (n *Network) Run(simulationTime, warmupTime float64) error {
	if n.state == stateCompleted {
		return fmt.Errorf("%w: network already ran; call Reset before running again", ErrState)
	}
	if n.state != stateReady {
		return fmt.Errorf("%w: jobs not initialized", ErrState)
	}
	if simulationTime <= 0 {
		return fmt.Errorf("%w: simulation time must be positive, got %v", ErrConfiguration, simulationTime)
	}
	if warmupTime < 0 {
		return fmt.Errorf("%w: warmup time must be non-negative, got %v", ErrConfiguration, warmupTime)
	}
	if warmupTime >= simulationTime {
		return fmt.Errorf("%w: warmup time %v must be less than simulation time %v",
			ErrConfiguration, warmupTime, simulationTime)
	}
	if len(n.specs) != n.routing.Dim() {
		return fmt.Errorf("%w: %d stations added but routing matrix is %dx%d",
			ErrConfiguration, len(n.specs), n.routing.Dim(), n.routing.Dim())
	}

	ref := n.refStation
	if ref < 0 {
		ref = lowestStation(n.placement)
	}

	rng := NewPartitionedRNG(NewSimulationKey(n.seed))
	stations := make([]*Station, len(n.specs))
	for i, spec := range n.specs {
		stations[i] = NewStation(i, spec.servers, spec.mean, spec.name, spec.sampler,
			rng.ForSubsystem(SubsystemStation(i)))
		stations[i].warmupCutoff = warmupTime
	}

	engine := NewSimulator(stations, n.routing, n.placement, simulationTime, warmupTime,
		n.maxEvents, ref, rng)
	err := engine.Run()
	if err != nil && !errors.Is(err, ErrBudgetExceeded) {
		return err
	}

	n.report = buildReport(engine, errors.Is(err, ErrBudgetExceeded))
	n.state = stateCompleted
	return err
}

// Report returns the read-only results of the last run. Fails with ErrState
// before the first Run.
func (n *Network) Report() (*Report, error) {
	if n.report == nil {
		return nil, fmt.Errorf("%w: no results available before Run", ErrState)
	}
	return n.report, nil
}

// Reset discards the last run's results and re-arms the network for another
// Run. Configuration and job placement are retained, so an unchanged network
// re-run with the same seed reproduces its results exactly.
func (n *Network) Reset() {
	n.report = nil
	if n.placement != nil {
		n.state = stateReady
	} else {
		n.state = stateConfiguring
	}
}

// NumStations returns the number of stations added so far.
func (n *Network) NumStations() int {
	return len(n.specs)
}

// NumJobs returns the configured population.
func (n *Network) NumJobs() int {
	return n.numJobs
}

func lowestStation(placement map[int]int) int {
	keys := make([]int, 0, len(placement))
	for st := range placement {
		keys = append(keys, st)
	}
	sort.Ints(keys)
	return keys[0]
}

func ordinal(i int) string {
	switch i % 10 {
	case 1:
		if i%100 != 11 {
			return fmt.Sprintf("%dst", i)
		}
	case 2:
		if i%100 != 12 {
			return fmt.Sprintf("%dnd", i)
		}
	case 3:
		if i%100 != 13 {
			return fmt.Sprintf("%drd", i)
		}
	}
	return fmt.Sprintf("%dth", i)
}
