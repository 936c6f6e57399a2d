// Tracks system-wide statistics and assembles the end-of-run report.

package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates system-wide accumulators during a run. Per-station
// accumulators live on the stations themselves; everything here concerns
// circulations through the reference station.
type Metrics struct {
	Circulations int64     // completed circulations after the warmup cutoff
	CycleTimeSum float64   // sum of those circulations' durations
	CycleTimes   []float64 // individual durations, kept for quantiles
}

// NewMetrics creates an empty metrics accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCirculation books one post-warmup circulation of the given duration.
func (m *Metrics) RecordCirculation(cycleTime float64) {
	m.Circulations++
	m.CycleTimeSum += cycleTime
	m.CycleTimes = append(m.CycleTimes, cycleTime)
}

// StationReport holds the per-station estimators of one run.
type StationReport struct {
	Name              string
	Servers           int
	MeanServiceTime   float64
	Utilization       float64 // busy-server time / (servers × measured duration)
	AvgQueueLength    float64 // queue-length time integral / measured duration
	Arrivals          int64   // post-warmup arrivals
	CompletedServices int64   // post-warmup service completions
	FinalQueueLength  int     // queue depth when the run ended
}

// Report is the read-only result structure of a completed run.
//
// Circulation convention: a circulation completes when a job departs the
// reference station. Cycle time is the interval between a job's successive
// reference departures; throughput is post-warmup circulations per unit of
// measured time. Under this convention WIP ≈ Throughput × AvgCycleTime
// (Little's Law) is a genuine cross-check, not an identity.
type Report struct {
	NumJobs          int
	ReferenceStation int

	SimulationTime   float64
	WarmupTime       float64
	MeasuredDuration float64 // end clock − warmup, the estimator denominator
	EndClock         float64
	EventsProcessed  int64
	// Incomplete is set when the run halted on the event budget; the
	// estimators then cover only the portion of time actually simulated.
	Incomplete bool

	Stations []StationReport

	Throughput   float64 // circulations per unit time
	AvgCycleTime float64
	CycleTimeP50 float64
	CycleTimeP90 float64
	CycleTimeP99 float64
	Circulations int64

	// Little's Law diagnostic: the closed network holds WIP jobs by
	// construction, and Throughput × AvgCycleTime should estimate the
	// same quantity.
	WIP            float64
	LittleLawWIP   float64
	LittleLawError float64 // relative error |WIP − LittleLawWIP| / WIP

	// Analytical bottleneck indicators from the routing matrix: expected
	// visits per circulation and service demand (visits × mean service
	// time / servers) per station. Nil when the flow equations are
	// singular.
	VisitRatios    []float64
	ServiceDemands []float64
	// Bottleneck is the index of the station with the highest simulated
	// utilization.
	Bottleneck int
}

// buildReport finalizes the estimators of a finished (or budget-halted) run.
func buildReport(s *Simulator, incomplete bool) *Report {
	r := &Report{
		NumJobs:          len(s.Jobs),
		ReferenceStation: s.RefStation,
		SimulationTime:   s.StopTime,
		WarmupTime:       s.WarmupTime,
		EndClock:         s.endClock,
		EventsProcessed:  s.eventsProcessed,
		Incomplete:       incomplete,
		Circulations:     s.Metrics.Circulations,
		WIP:              float64(len(s.Jobs)),
		Bottleneck:       -1,
	}

	measured := s.endClock - s.WarmupTime
	if measured < 0 {
		// Budget halt inside the warmup window: nothing was measured.
		measured = 0
	}
	r.MeasuredDuration = measured

	bottleneckUtil := -1.0
	for _, st := range s.Stations {
		sr := StationReport{
			Name:              st.Name,
			Servers:           st.Servers,
			MeanServiceTime:   st.MeanServiceTime,
			Arrivals:          st.arrivals,
			CompletedServices: st.completed,
			FinalQueueLength:  st.QueueLen(),
		}
		if measured > 0 {
			sr.Utilization = st.busyArea / (float64(st.Servers) * measured)
			sr.AvgQueueLength = st.queueArea / measured
		}
		if sr.Utilization > bottleneckUtil {
			bottleneckUtil = sr.Utilization
			r.Bottleneck = st.ID
		}
		r.Stations = append(r.Stations, sr)
	}

	if measured > 0 && s.Metrics.Circulations > 0 {
		r.Throughput = float64(s.Metrics.Circulations) / measured
		r.AvgCycleTime = s.Metrics.CycleTimeSum / float64(s.Metrics.Circulations)
		r.LittleLawWIP = r.Throughput * r.AvgCycleTime
		r.LittleLawError = absf(r.WIP-r.LittleLawWIP) / r.WIP

		sorted := make([]float64, len(s.Metrics.CycleTimes))
		copy(sorted, s.Metrics.CycleTimes)
		sort.Float64s(sorted)
		r.CycleTimeP50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
		r.CycleTimeP90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
		r.CycleTimeP99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	}

	ratios, err := s.Routing.VisitRatios(s.RefStation)
	if err != nil {
		logrus.Warnf("visit-ratio analysis unavailable: %v", err)
	} else {
		r.VisitRatios = ratios
		r.ServiceDemands = make([]float64, len(ratios))
		for i, st := range s.Stations {
			r.ServiceDemands[i] = ratios[i] * st.MeanServiceTime / float64(st.Servers)
		}
	}

	return r
}

// LittleLawConsistent reports whether WIP ≈ Throughput × AvgCycleTime within
// the given relative tolerance. A diagnostic, not an error condition.
func (r *Report) LittleLawConsistent(tolerance float64) bool {
	if r.Circulations == 0 {
		return false
	}
	return r.LittleLawError <= tolerance
}

// Print displays the report in the style of the original manufacturing
// analysis output: network configuration, per-station estimators, and a
// bottleneck section.
func (r *Report) Print() {
	fmt.Println("=== Closed Queuing Network Results ===")
	fmt.Printf("Jobs in system (WIP) : %d\n", r.NumJobs)
	fmt.Printf("Stations             : %d\n", len(r.Stations))
	fmt.Printf("Simulated time       : %.2f (warmup %.2f, measured %.2f)\n",
		r.EndClock, r.WarmupTime, r.MeasuredDuration)
	fmt.Printf("Events processed     : %d\n", r.EventsProcessed)
	if r.Incomplete {
		fmt.Println("WARNING: run halted on event budget; statistics are partial")
	}
	if r.Circulations > 0 {
		fmt.Printf("Throughput           : %.4f circulations/time\n", r.Throughput)
		fmt.Printf("Avg cycle time       : %.4f (p50 %.4f, p90 %.4f, p99 %.4f)\n",
			r.AvgCycleTime, r.CycleTimeP50, r.CycleTimeP90, r.CycleTimeP99)
		fmt.Printf("Little's Law check   : λ×CT = %.4f vs WIP = %.0f (%.2f%% relative error)\n",
			r.LittleLawWIP, r.WIP, 100*r.LittleLawError)
	}
	fmt.Println("\nStation statistics:")
	for i, st := range r.Stations {
		fmt.Printf("  %s: servers=%d mean_service=%.2f util=%.2f%% avg_queue=%.2f completed=%d final_queue=%d\n",
			st.Name, st.Servers, st.MeanServiceTime, 100*st.Utilization,
			st.AvgQueueLength, st.CompletedServices, st.FinalQueueLength)
		if r.ServiceDemands != nil {
			fmt.Printf("    visits/circulation=%.3f service_demand=%.3f\n",
				r.VisitRatios[i], r.ServiceDemands[i])
		}
	}
	if r.Bottleneck >= 0 {
		b := r.Stations[r.Bottleneck]
		fmt.Printf("\nBottleneck: %s at %.2f%% utilization\n", b.Name, 100*b.Utilization)
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
