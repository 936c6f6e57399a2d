package sim

import "container/heap"

// EventHeap implements a priority queue with deterministic ordering.
// Ordering: timestamp → insertion sequence.
//
// The sequence tie-break matters in a closed network: routing is
// instantaneous, so a departure and the arrival it triggers share a
// timestamp, and simultaneous arrivals at a contended station must begin
// service in the order they were scheduled. Breaking ties by container
// iteration order would make runs irreproducible.
type EventHeap struct {
	entries []eventEntry
	nextSeq int64
}

type eventEntry struct {
	ev  Event
	seq int64
}

// NewEventHeap creates a new event heap.
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		entries: make([]eventEntry, 0),
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface.
func (h *EventHeap) Len() int {
	return len(h.entries)
}

// Less implements heap.Interface with deterministic ordering.
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.entries[i], h.entries[j]

	// Primary: timestamp (earlier first)
	if ei.ev.Timestamp() != ej.ev.Timestamp() {
		return ei.ev.Timestamp() < ej.ev.Timestamp()
	}

	// Secondary: insertion sequence (earlier first, deterministic tie-breaker)
	return ei.seq < ej.seq
}

// Swap implements heap.Interface.
func (h *EventHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

// Push implements heap.Interface.
func (h *EventHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(eventEntry))
}

// Pop implements heap.Interface.
func (h *EventHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap, assigning it the next insertion
// sequence number.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, eventEntry{ev: e, seq: h.nextSeq})
	h.nextSeq++
}

// PopNext removes and returns the next event.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(eventEntry).ev
}

// Peek returns the next event without removing it.
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.entries[0].ev
}

// PeekTime returns the timestamp of the next event, or (0, false) when the
// heap is empty.
func (h *EventHeap) PeekTime() (float64, bool) {
	if h.Len() == 0 {
		return 0, false
	}
	return h.entries[0].ev.Timestamp(), true
}
