package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulated seconds) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Execute(*Simulator)
}

// ArrivalEvent represents a job arriving at a station, either at
// initialization or after routing from another station.
type ArrivalEvent struct {
	time    float64
	Job     *Job
	Station int
}

// Timestamp returns the scheduled time of the ArrivalEvent.
func (e *ArrivalEvent) Timestamp() float64 {
	return e.time
}

// Execute lands the job at the target station: it begins service if a server
// is free (scheduling its departure), or joins the FIFO queue.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: job %d at station %d, t=%.6f", e.Job.ID, e.Station, e.time)

	sim.inTransit--
	e.Job.Location = e.Station
	e.Job.StationArrival = e.time

	if dep := sim.Stations[e.Station].OnArrival(e.Job, e.time); dep != nil {
		sim.Schedule(dep)
	}
}

// DepartureEvent represents a job completing service at a station.
type DepartureEvent struct {
	time    float64
	Job     *Job
	Station int
}

// Timestamp returns the scheduled time of the DepartureEvent.
func (e *DepartureEvent) Timestamp() float64 {
	return e.time
}

// Execute frees the job's server (pulling the next queued job into service,
// if any), records a circulation when the job leaves the reference station,
// and routes the job to its next station. Transit is instantaneous: the
// arrival is scheduled at the departure's own timestamp.
func (e *DepartureEvent) Execute(sim *Simulator) {
	logrus.Debugf(">> Departure: job %d from station %d, t=%.6f", e.Job.ID, e.Station, e.time)

	if next := sim.Stations[e.Station].OnDeparture(e.Job, e.time); next != nil {
		sim.Schedule(next)
	}

	if e.Station == sim.RefStation {
		sim.recordCirculation(e.Job, e.time)
	}

	dest := sim.Routing.Route(e.Station, sim.routingRNG)
	e.Job.Location = LocationInTransit
	sim.inTransit++
	sim.Schedule(&ArrivalEvent{time: e.time, Job: e.Job, Station: dest})
}
