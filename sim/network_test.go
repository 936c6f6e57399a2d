package sim

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// alternating is the 2x2 matrix where jobs bounce between both stations.
func alternating() [][]float64 {
	return [][]float64{
		{0.0, 1.0},
		{1.0, 0.0},
	}
}

// twoStationNet builds the canonical A(1.0)/B(1.5) loop with jobs at A.
func twoStationNet(t *testing.T, jobs int, opts ...Option) *Network {
	t.Helper()
	net, err := NewNetwork(jobs, alternating(), opts...)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if _, err := net.AddStation(1, 1.0, "A"); err != nil {
		t.Fatalf("AddStation A: %v", err)
	}
	if _, err := net.AddStation(1, 1.5, "B"); err != nil {
		t.Fatalf("AddStation B: %v", err)
	}
	if err := net.InitializeJobs(0); err != nil {
		t.Fatalf("InitializeJobs: %v", err)
	}
	return net
}

func TestNewNetwork_ConfigurationErrors(t *testing.T) {
	if _, err := NewNetwork(0, alternating()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("num_jobs=0: err = %v, want ErrConfiguration", err)
	}
	if _, err := NewNetwork(5, [][]float64{{0.49, 0.49}, {0.5, 0.5}}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("row sum 0.98: err = %v, want ErrConfiguration", err)
	}
	if _, err := NewNetwork(5, alternating(), WithReferenceStation(9)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("reference out of range: err = %v, want ErrConfiguration", err)
	}
	if _, err := NewNetwork(5, alternating(), WithMaxEvents(0)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("max_events=0: err = %v, want ErrConfiguration", err)
	}
}

func TestAddStation_ConfigurationErrors(t *testing.T) {
	net, err := NewNetwork(5, alternating())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := net.AddStation(0, 1.0, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero servers: err = %v", err)
	}
	if _, err := net.AddStation(1, 0, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero mean service: err = %v", err)
	}
	net.AddStation(1, 1.0, "")
	net.AddStation(1, 1.0, "")
	if _, err := net.AddStation(1, 1.0, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("station beyond matrix dimension: err = %v", err)
	}
}

func TestRun_StationCountMustMatchMatrix(t *testing.T) {
	net, err := NewNetwork(5, alternating())
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(1, 1.0, "")
	if err := net.InitializeJobs(0); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(100, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("1 station vs 2x2 matrix: err = %v, want ErrConfiguration", err)
	}
}

func TestRun_TimeParameterValidation(t *testing.T) {
	cases := []struct {
		name     string
		simTime  float64
		warmup   float64
	}{
		{"zero simulation time", 0, 0},
		{"negative simulation time", -10, 0},
		{"negative warmup", 100, -1},
		{"warmup equals total", 100, 100},
		{"warmup beyond total", 100, 150},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			net := twoStationNet(t, 5)
			if err := net.Run(c.simTime, c.warmup); !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestInitializeJobs_Validation(t *testing.T) {
	net, err := NewNetwork(5, alternating())
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(1, 1.0, "")
	net.AddStation(1, 1.0, "")

	if err := net.InitializeJobs(7); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad initial station: err = %v", err)
	}
	if err := net.InitializeJobsSpread(map[int]int{0: 2, 1: 2}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("placement sums to 4 of 5: err = %v", err)
	}
	if err := net.InitializeJobsSpread(map[int]int{0: 6, 1: -1}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("negative count: err = %v", err)
	}
	if err := net.InitializeJobsSpread(map[int]int{0: 3, 1: 2}); err != nil {
		t.Errorf("valid spread rejected: %v", err)
	}
}

func TestStateErrors(t *testing.T) {
	net := twoStationNet(t, 3)

	if _, err := net.Report(); !errors.Is(err, ErrState) {
		t.Errorf("report before run: err = %v, want ErrState", err)
	}
	if err := net.Run(50, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := net.Run(50, 5); !errors.Is(err, ErrState) {
		t.Errorf("second run without reset: err = %v, want ErrState", err)
	}
	if _, err := net.AddStation(1, 1.0, ""); !errors.Is(err, ErrState) {
		t.Errorf("add station after run: err = %v, want ErrState", err)
	}
	if err := net.SetServiceSampler(0, &DeterministicSampler{Value: 1}); !errors.Is(err, ErrState) {
		t.Errorf("set sampler after run: err = %v, want ErrState", err)
	}
	if err := net.InitializeJobs(0); !errors.Is(err, ErrState) {
		t.Errorf("re-place jobs after run: err = %v, want ErrState", err)
	}

	net.Reset()
	if err := net.Run(50, 5); err != nil {
		t.Errorf("run after reset: %v", err)
	}
}

func TestRunBeforeInitialize(t *testing.T) {
	net, err := NewNetwork(5, alternating())
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(1, 1.0, "")
	net.AddStation(1, 1.0, "")
	if err := net.Run(100, 0); !errors.Is(err, ErrState) {
		t.Errorf("run without jobs: err = %v, want ErrState", err)
	}
}

func TestRun_SingleServerSaturation(t *testing.T) {
	// One job in a single-server self-loop: the server is never idle
	// after warmup, so utilization must be exactly 1.
	net, err := NewNetwork(1, [][]float64{{1.0}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := net.AddStation(1, 1.0, "Solo"); err != nil {
		t.Fatal(err)
	}
	if err := net.InitializeJobs(0); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(1000, 100); err != nil {
		t.Fatalf("run: %v", err)
	}

	report, err := net.Report()
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Stations[0].Utilization; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("utilization = %v, want exactly 1.0", got)
	}
	if report.Stations[0].AvgQueueLength != 0 {
		t.Errorf("avg queue length = %v, want 0", report.Stations[0].AvgQueueLength)
	}
	// Throughput of the loop is 1/mean service time.
	if math.Abs(report.Throughput-1.0) > 0.15 {
		t.Errorf("throughput = %v, want ≈ 1.0", report.Throughput)
	}
	if !report.LittleLawConsistent(0.05) {
		t.Errorf("Little's Law violated: WIP=%v vs λ×CT=%v", report.WIP, report.LittleLawWIP)
	}
}

func TestRun_LittlesLawConvergence(t *testing.T) {
	net := twoStationNet(t, 5)
	if err := net.Run(5000, 500); err != nil {
		t.Fatalf("run: %v", err)
	}
	report, err := net.Report()
	if err != nil {
		t.Fatal(err)
	}

	if report.WIP != 5 {
		t.Fatalf("reported WIP = %v, want 5", report.WIP)
	}
	if !report.LittleLawConsistent(0.05) {
		t.Errorf("Little's Law check failed: λ×CT = %v vs WIP = 5 (rel err %v)",
			report.LittleLawWIP, report.LittleLawError)
	}
	// The slower station is the bottleneck.
	if report.Bottleneck != 1 {
		t.Errorf("bottleneck = station %d, want 1", report.Bottleneck)
	}
}

func TestRun_BottleneckDetection(t *testing.T) {
	net, err := NewNetwork(5, alternating(), WithSeed(123))
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(2, 0.5, "Fast")
	net.AddStation(1, 3.0, "Slow")
	if err := net.InitializeJobs(0); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(500, 50); err != nil {
		t.Fatalf("run: %v", err)
	}
	report, _ := net.Report()

	fast, slow := report.Stations[0], report.Stations[1]
	if slow.Utilization <= fast.Utilization {
		t.Errorf("slow station util %v not above fast %v", slow.Utilization, fast.Utilization)
	}
	if slow.AvgQueueLength <= fast.AvgQueueLength {
		t.Errorf("slow station queue %v not above fast %v", slow.AvgQueueLength, fast.AvgQueueLength)
	}
	if report.Bottleneck != 1 {
		t.Errorf("bottleneck = %d, want 1", report.Bottleneck)
	}
}

func TestRun_DeterministicReproducibility(t *testing.T) {
	run := func() *Report {
		net := twoStationNet(t, 5, WithSeed(7))
		if err := net.Run(1000, 100); err != nil {
			t.Fatalf("run: %v", err)
		}
		r, err := net.Report()
		if err != nil {
			t.Fatal(err)
		}
		return r
	}
	r1, r2 := run(), run()
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("identical seeds produced different reports:\n%+v\n%+v", r1, r2)
	}

	net3 := twoStationNet(t, 5, WithSeed(8))
	if err := net3.Run(1000, 100); err != nil {
		t.Fatal(err)
	}
	r3, _ := net3.Report()
	if r1.Throughput == r3.Throughput && r1.EventsProcessed == r3.EventsProcessed {
		t.Error("different seeds produced identical event sequences")
	}
}

func TestRun_ResetReproducesResults(t *testing.T) {
	net := twoStationNet(t, 4, WithSeed(11))
	if err := net.Run(300, 30); err != nil {
		t.Fatal(err)
	}
	r1, _ := net.Report()

	net.Reset()
	if err := net.Run(300, 30); err != nil {
		t.Fatal(err)
	}
	r2, _ := net.Report()

	if !reflect.DeepEqual(r1, r2) {
		t.Error("reset run diverged from original run")
	}
}

func TestRun_BudgetExceededYieldsPartialReport(t *testing.T) {
	net := twoStationNet(t, 5, WithMaxEvents(50))
	err := net.Run(1e9, 0)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
	report, rerr := net.Report()
	if rerr != nil {
		t.Fatalf("report unavailable after budget halt: %v", rerr)
	}
	if !report.Incomplete {
		t.Error("budget-halted report not flagged Incomplete")
	}
	if report.EventsProcessed != 50 {
		t.Errorf("events processed = %d, want 50", report.EventsProcessed)
	}
}

func TestRun_SpreadPlacement(t *testing.T) {
	net, err := NewNetwork(7, [][]float64{
		{0, 1, 0},
		{0, 0, 1},
		{1, 0, 0},
	}, WithSeed(456))
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(1, 1.0, "S1")
	net.AddStation(1, 1.2, "S2")
	net.AddStation(1, 0.8, "S3")
	if err := net.InitializeJobsSpread(map[int]int{0: 3, 2: 4}); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(200, 20); err != nil {
		t.Fatalf("run: %v", err)
	}

	report, _ := net.Report()
	if report.Throughput <= 0 {
		t.Error("no circulations recorded")
	}
	// Default reference is the lowest station holding jobs.
	if report.ReferenceStation != 0 {
		t.Errorf("reference station = %d, want 0", report.ReferenceStation)
	}
}

func TestReport_VisitRatiosAndDemands(t *testing.T) {
	net, err := NewNetwork(10, [][]float64{
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
		{1, 0, 0, 0},
	}, WithSeed(123))
	if err != nil {
		t.Fatal(err)
	}
	net.AddStation(2, 0.8, "Loading")
	net.AddStation(1, 2.0, "Processing")
	net.AddStation(2, 1.0, "Inspection")
	net.AddStation(1, 0.5, "Unloading")
	if err := net.InitializeJobs(0); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(2000, 200); err != nil {
		t.Fatalf("run: %v", err)
	}
	report, _ := net.Report()

	wantDemands := []float64{0.4, 2.0, 0.5, 0.5}
	for i, want := range wantDemands {
		if math.Abs(report.VisitRatios[i]-1.0) > 1e-12 {
			t.Errorf("visit ratio[%d] = %v, want 1.0", i, report.VisitRatios[i])
		}
		if math.Abs(report.ServiceDemands[i]-want) > 1e-12 {
			t.Errorf("service demand[%d] = %v, want %v", i, report.ServiceDemands[i], want)
		}
	}
	// Both the analytical demands and the simulation agree on the bottleneck.
	if report.Bottleneck != 1 {
		t.Errorf("bottleneck = %d, want Processing (1)", report.Bottleneck)
	}
}

func TestRun_PluggableSampler(t *testing.T) {
	// Deterministic service makes the whole run exactly predictable:
	// one job, service time 2, so departures at t=2,4,...,100.
	net, err := NewNetwork(1, [][]float64{{1.0}})
	if err != nil {
		t.Fatal(err)
	}
	idx, err := net.AddStation(1, 2.0, "Fixed")
	if err != nil {
		t.Fatal(err)
	}
	if err := net.SetServiceSampler(idx, &DeterministicSampler{Value: 2.0}); err != nil {
		t.Fatal(err)
	}
	if err := net.InitializeJobs(0); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(100, 0); err != nil {
		t.Fatalf("run: %v", err)
	}
	report, _ := net.Report()

	if report.Circulations != 50 {
		t.Errorf("circulations = %d, want 50", report.Circulations)
	}
	if math.Abs(report.AvgCycleTime-2.0) > 1e-12 {
		t.Errorf("avg cycle time = %v, want exactly 2.0", report.AvgCycleTime)
	}
	if math.Abs(report.Stations[0].Utilization-1.0) > 1e-12 {
		t.Errorf("utilization = %v, want exactly 1.0", report.Stations[0].Utilization)
	}
}
