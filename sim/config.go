package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NetworkFile is a complete network definition, loadable from a YAML file.
// It is the file-based face of the Network construction API: stations in
// index order, the routing matrix, job population and placement, and run
// parameters.
type NetworkFile struct {
	Name           string  `yaml:"name"`
	Jobs           int     `yaml:"jobs"`
	Seed           int64   `yaml:"seed"`
	SimulationTime float64 `yaml:"simulation_time"`
	WarmupTime     float64 `yaml:"warmup_time"`
	MaxEvents      int64   `yaml:"max_events"`

	// Exactly one placement form: a single initial station (default 0),
	// or a station→count map.
	InitialStation   *int        `yaml:"initial_station"`
	InitialPlacement map[int]int `yaml:"initial_placement"`

	// ReferenceStation overrides the circulation reference station.
	ReferenceStation *int `yaml:"reference_station"`

	Stations []StationFile `yaml:"stations"`
	Routing  [][]float64   `yaml:"routing"`
}

// StationFile describes one station in a network file.
type StationFile struct {
	Name            string  `yaml:"name"`
	Servers         int     `yaml:"servers"`
	MeanServiceTime float64 `yaml:"mean_service_time"`
	// Distribution selects the service sampler: "exponential" (default),
	// "deterministic", or "uniform".
	Distribution string `yaml:"distribution"`
}

// LoadNetworkFile reads and parses a YAML network definition.
func LoadNetworkFile(path string) (*NetworkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	var file NetworkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing network file: %w", err)
	}
	return &file, nil
}

// Validate checks the file-level constraints that Build and Run would
// otherwise only reject one at a time.
func (f *NetworkFile) Validate() error {
	if f.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrConfiguration, f.Jobs)
	}
	if f.SimulationTime <= 0 {
		return fmt.Errorf("%w: simulation_time must be positive, got %v", ErrConfiguration, f.SimulationTime)
	}
	if f.WarmupTime < 0 || f.WarmupTime >= f.SimulationTime {
		return fmt.Errorf("%w: warmup_time %v must be in [0, simulation_time)", ErrConfiguration, f.WarmupTime)
	}
	if len(f.Stations) == 0 {
		return fmt.Errorf("%w: no stations defined", ErrConfiguration)
	}
	if len(f.Routing) != len(f.Stations) {
		return fmt.Errorf("%w: %d stations but %dx? routing matrix",
			ErrConfiguration, len(f.Stations), len(f.Routing))
	}
	if f.InitialStation != nil && len(f.InitialPlacement) > 0 {
		return fmt.Errorf("%w: initial_station and initial_placement are mutually exclusive", ErrConfiguration)
	}
	return nil
}

// Build validates the file and constructs the Network, with stations added
// in file order and jobs placed. The returned network is ready to Run with
// the file's simulation_time and warmup_time (or any other pair).
func (f *NetworkFile) Build() (*Network, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{}
	if f.Seed != 0 {
		opts = append(opts, WithSeed(f.Seed))
	}
	if f.MaxEvents > 0 {
		opts = append(opts, WithMaxEvents(f.MaxEvents))
	}
	if f.ReferenceStation != nil {
		opts = append(opts, WithReferenceStation(*f.ReferenceStation))
	}

	net, err := NewNetwork(f.Jobs, f.Routing, opts...)
	if err != nil {
		return nil, err
	}
	for i, st := range f.Stations {
		idx, err := net.AddStation(st.Servers, st.MeanServiceTime, st.Name)
		if err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		if st.Distribution != "" {
			sampler, err := NewServiceSampler(st.Distribution, st.MeanServiceTime)
			if err != nil {
				return nil, fmt.Errorf("station %d: %w", i, err)
			}
			if err := net.SetServiceSampler(idx, sampler); err != nil {
				return nil, fmt.Errorf("station %d: %w", i, err)
			}
		}
	}

	if len(f.InitialPlacement) > 0 {
		err = net.InitializeJobsSpread(f.InitialPlacement)
	} else {
		initial := 0
		if f.InitialStation != nil {
			initial = *f.InitialStation
		}
		err = net.InitializeJobs(initial)
	}
	if err != nil {
		return nil, err
	}
	return net, nil
}
