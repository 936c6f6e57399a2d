// Package sim provides a discrete-event simulation engine for closed queuing
// networks: a fixed population of jobs circulating among workstations, used
// to estimate throughput, cycle time, utilization, and queue lengths for
// manufacturing-style systems.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: the two event kinds (Arrival, Departure) that drive all state transitions
//   - station.go: server/queue bookkeeping and time-weighted statistics at one workstation
//   - simulator.go: the event loop, clock, warmup cutoff, and population invariant
//
// # Architecture
//
// The engine is single-threaded and event-driven. The Simulator pops the
// earliest event from a deterministic heap (event_heap.go), advances the
// clock, and dispatches to the owning Station, which may schedule a future
// event back into the heap. Routing decisions consult the stochastic
// RoutingTable (routing.go); all randomness flows through per-subsystem
// seeded streams (rng.go), so a run is bit-reproducible from its seed.
//
// Network (network.go) is the construction surface: it validates
// configuration eagerly, builds one fresh Simulator per Run, and exposes the
// results as a read-only Report (metrics.go). NetworkFile (config.go) loads
// the same configuration from YAML, and RunWIPSweep (analysis.go) drives
// repeated runs across WIP levels.
//
// # Extension points
//
//   - ServiceSampler: per-station service-time distribution (exponential by default)
//   - WithReferenceStation: which station's departures count as circulations
package sim
