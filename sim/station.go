package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Station models one workstation: a bounded set of identical parallel
// servers, an unbounded FIFO wait queue, and a service-time sampler.
//
// Time-weighted accumulators (busy-server area, queue-length area) are
// updated lazily at every state change, weighted by the time elapsed since
// the previous change. Contributions are clipped to the post-warmup portion
// of each interval, so warmup activity drives true state transitions without
// polluting the statistics.
type Station struct {
	ID              int
	Name            string
	Servers         int
	MeanServiceTime float64

	sampler ServiceSampler
	rng     *rand.Rand

	busy  int
	queue FIFO

	warmupCutoff float64
	lastChange   float64
	busyArea     float64 // integral of busy-server count, post-warmup portion
	queueArea    float64 // integral of queue length, post-warmup portion
	arrivals     int64   // arrivals after the warmup cutoff
	completed    int64   // service completions after the warmup cutoff
}

// NewStation creates a station with the given capacity and service sampler.
// The rng must be the station's own partitioned stream.
func NewStation(id int, servers int, meanServiceTime float64, name string, sampler ServiceSampler, rng *rand.Rand) *Station {
	if name == "" {
		name = fmt.Sprintf("Station_%d", id)
	}
	return &Station{
		ID:              id,
		Name:            name,
		Servers:         servers,
		MeanServiceTime: meanServiceTime,
		sampler:         sampler,
		rng:             rng,
	}
}

// GenerateServiceTime draws the next service time from the station's sampler.
// Panics if the sampler violates its positivity contract.
func (st *Station) GenerateServiceTime() float64 {
	svc := st.sampler.Sample(st.rng)
	if svc <= 0 {
		panic(fmt.Sprintf("station %d: sampler returned non-positive service time %v", st.ID, svc))
	}
	return svc
}

// OnArrival handles a job arriving at the station. If a server is free the
// job begins service immediately and the corresponding departure event is
// returned; otherwise the job joins the tail of the FIFO queue and nil is
// returned.
func (st *Station) OnArrival(j *Job, now float64) *DepartureEvent {
	st.accumulate(now)
	if now > st.warmupCutoff {
		st.arrivals++
	}
	if st.busy < st.Servers {
		st.busy++
		dep := &DepartureEvent{time: now + st.GenerateServiceTime(), Job: j, Station: st.ID}
		logrus.Debugf("station %d: job %d starts service, departure at %.6f", st.ID, j.ID, dep.time)
		return dep
	}
	st.queue.Enqueue(j)
	logrus.Debugf("station %d: job %d queued (depth %d)", st.ID, j.ID, st.queue.Len())
	return nil
}

// OnDeparture handles a job finishing service. It frees the job's server and,
// if the queue is non-empty, starts service for the head job and returns its
// departure event. The departed job itself is routed by the caller.
func (st *Station) OnDeparture(j *Job, now float64) *DepartureEvent {
	st.accumulate(now)
	st.busy--
	if st.busy < 0 {
		panic(fmt.Sprintf("station %d: departure of job %d with no busy server", st.ID, j.ID))
	}
	if now > st.warmupCutoff {
		st.completed++
	}
	if next := st.queue.Dequeue(); next != nil {
		st.busy++
		dep := &DepartureEvent{time: now + st.GenerateServiceTime(), Job: next, Station: st.ID}
		logrus.Debugf("station %d: job %d dequeued into service, departure at %.6f", st.ID, next.ID, dep.time)
		return dep
	}
	return nil
}

// accumulate advances the time-weighted integrals to now, counting only the
// portion of the elapsed interval that lies after the warmup cutoff.
func (st *Station) accumulate(now float64) {
	from := st.lastChange
	if from < st.warmupCutoff {
		from = st.warmupCutoff
	}
	if now > from {
		dt := now - from
		st.busyArea += float64(st.busy) * dt
		st.queueArea += float64(st.queue.Len()) * dt
	}
	if now > st.lastChange {
		st.lastChange = now
	}
}

// finalize closes the integrals at the end-of-run clock.
func (st *Station) finalize(end float64) {
	st.accumulate(end)
}

// Busy returns the number of servers currently serving a job.
func (st *Station) Busy() int {
	return st.busy
}

// QueueLen returns the number of jobs currently waiting.
func (st *Station) QueueLen() int {
	return st.queue.Len()
}

// checkInvariants panics if the server-occupancy invariant is violated:
// the busy count must stay within [0, Servers], and no job may wait while a
// server is idle.
func (st *Station) checkInvariants() {
	if st.busy < 0 || st.busy > st.Servers {
		panic(fmt.Sprintf("station %d: busy count %d outside [0, %d]", st.ID, st.busy, st.Servers))
	}
	if st.queue.Len() > 0 && st.busy < st.Servers {
		panic(fmt.Sprintf("station %d: %d jobs queued while %d of %d servers idle",
			st.ID, st.queue.Len(), st.Servers-st.busy, st.Servers))
	}
}
