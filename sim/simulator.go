// sim/simulator.go
package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// Simulator is the core engine: it owns simulation time, the event queue,
// and all mutable network state for exactly one run. Execution is
// single-threaded; strict event ordering is the correctness mechanism.
// Simulators are never shared or reused across runs.
type Simulator struct {
	Clock      float64
	StopTime   float64
	WarmupTime float64
	// MaxEvents bounds the pop/dispatch/push loop so that pathological
	// configurations (e.g. zero-service self-loop storms) fail fast
	// instead of looping forever.
	MaxEvents  int64
	EventQueue *EventHeap
	Stations   []*Station
	Routing    *RoutingTable
	Jobs       []*Job
	Metrics    *Metrics
	// RefStation is the station whose departures mark completed
	// circulations (the reference-station convention for cycle time).
	RefStation int

	routingRNG      *rand.Rand
	inTransit       int
	eventsProcessed int64
	budgetHit       bool
	endClock        float64
}

// NewSimulator wires a run-scoped engine. The placement map gives the number
// of jobs initially placed at each station; one ARRIVAL event per job is
// scheduled at time 0.
func NewSimulator(stations []*Station, routing *RoutingTable, placement map[int]int,
	stopTime, warmupTime float64, maxEvents int64, refStation int, rng *PartitionedRNG) *Simulator {
	s := &Simulator{
		StopTime:   stopTime,
		WarmupTime: warmupTime,
		MaxEvents:  maxEvents,
		EventQueue: NewEventHeap(),
		Stations:   stations,
		Routing:    routing,
		Metrics:    NewMetrics(),
		RefStation: refStation,
		routingRNG: rng.ForSubsystem(SubsystemRouting),
	}

	// Deterministic job numbering: fill stations in index order.
	targets := make([]int, 0, len(placement))
	for st := range placement {
		targets = append(targets, st)
	}
	sort.Ints(targets)
	jobID := 0
	for _, st := range targets {
		for k := 0; k < placement[st]; k++ {
			job := &Job{ID: jobID, Location: LocationInTransit}
			s.Jobs = append(s.Jobs, job)
			s.inTransit++
			s.Schedule(&ArrivalEvent{time: 0, Job: job, Station: st})
			jobID++
		}
	}
	return s
}

// Schedule pushes an event into the simulator's event queue.
func (s *Simulator) Schedule(ev Event) {
	s.EventQueue.Schedule(ev)
}

// Run executes the event loop until the stop time is reached, the queue
// drains, or the event budget is exhausted. A budget exhaustion returns an
// error wrapping ErrBudgetExceeded; statistics up to the halt remain valid.
func (s *Simulator) Run() error {
	logrus.Infof("starting run: %d jobs, %d stations, stop=%.2f, warmup=%.2f",
		len(s.Jobs), len(s.Stations), s.StopTime, s.WarmupTime)

	stopped := false
	for {
		ev := s.EventQueue.PopNext()
		if ev == nil {
			break
		}
		t := ev.Timestamp()
		if t > s.StopTime {
			stopped = true
			break
		}
		if t < s.Clock {
			panic(fmt.Sprintf("event time regression: %v before clock %v", t, s.Clock))
		}
		s.Clock = t
		ev.Execute(s)
		s.eventsProcessed++
		s.checkPopulation()
		if s.eventsProcessed >= s.MaxEvents && s.EventQueue.Len() > 0 {
			s.budgetHit = true
			break
		}
	}

	// Integrals run to the stop time on a completed run; on a budget halt
	// they close at the time actually reached.
	s.endClock = s.Clock
	if stopped || !s.budgetHit {
		s.endClock = s.StopTime
		s.Clock = s.StopTime
	}
	for _, st := range s.Stations {
		st.finalize(s.endClock)
	}

	if s.budgetHit {
		logrus.Warnf("event budget exhausted after %d events at t=%.6f", s.eventsProcessed, s.endClock)
		return fmt.Errorf("%w: halted after %d events at t=%.6f", ErrBudgetExceeded, s.eventsProcessed, s.endClock)
	}
	logrus.Infof("run completed at t=%.2f after %d events", s.endClock, s.eventsProcessed)
	return nil
}

// recordCirculation books one completed pass through the reference station.
// Only circulations completing after the warmup cutoff contribute to the
// statistics; the job's own bookkeeping always advances.
func (s *Simulator) recordCirculation(j *Job, now float64) {
	cycle := now - j.LastCirculation
	j.LastCirculation = now
	j.Circulations++
	if now > s.WarmupTime {
		s.Metrics.RecordCirculation(cycle)
	}
}

// EventsProcessed returns the number of events dispatched so far.
func (s *Simulator) EventsProcessed() int64 {
	return s.eventsProcessed
}

// JobsInSystem returns the current population count across servers, queues,
// and transit.
func (s *Simulator) JobsInSystem() int {
	total := s.inTransit
	for _, st := range s.Stations {
		total += st.Busy() + st.QueueLen()
	}
	return total
}

// checkPopulation aborts the run if a job was lost or duplicated. Population
// conservation is the defining property of a closed network; continuing past
// a violation would silently corrupt every downstream statistic.
func (s *Simulator) checkPopulation() {
	if got := s.JobsInSystem(); got != len(s.Jobs) {
		panic(fmt.Sprintf("population not conserved: %d jobs in system, want %d", got, len(s.Jobs)))
	}
	for _, st := range s.Stations {
		st.checkInvariants()
	}
}
