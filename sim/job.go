package sim

import "fmt"

// LocationInTransit marks a job that has departed one station and has not yet
// arrived at the next. Routing is instantaneous, so a job is only in transit
// between a departure event and the arrival event scheduled at the same
// timestamp.
const LocationInTransit = -1

// Job is a token circulating through the closed network. Jobs are created
// once at initialization and never destroyed: the population is conserved for
// the entire run, and only a job's location and running statistics mutate.
type Job struct {
	ID int

	// Location is the index of the station currently holding the job
	// (in its queue or in a server), or LocationInTransit.
	Location int

	// StationArrival is the clock time at which the job arrived at its
	// current station.
	StationArrival float64

	// LastCirculation is the clock time of the job's most recent departure
	// from the reference station (or 0 before its first). The interval
	// between successive reference departures is one cycle time.
	LastCirculation float64

	// Circulations counts completed passes through the reference station
	// over the whole run, warmup included.
	Circulations int64
}

func (j *Job) String() string {
	if j.Location == LocationInTransit {
		return fmt.Sprintf("Job{%d in transit}", j.ID)
	}
	return fmt.Sprintf("Job{%d at station %d}", j.ID, j.Location)
}
