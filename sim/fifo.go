// Implements the station wait queue. Jobs that find every server busy on
// arrival wait here in strict arrival order.

package sim

import (
	"fmt"
	"strings"
)

// FIFO is a first-in-first-out queue of jobs waiting for a free server.
// Queue discipline is part of the station contract: the head of the queue is
// always the job that has waited longest.
type FIFO struct {
	queue []*Job
}

// Enqueue adds a job to the back of the queue.
func (q *FIFO) Enqueue(j *Job) {
	if j == nil {
		panic("Enqueue: job must not be nil")
	}
	q.queue = append(q.queue, j)
}

// Dequeue removes and returns the job at the front of the queue.
// Returns nil if the queue is empty.
func (q *FIFO) Dequeue() *Job {
	if len(q.queue) == 0 {
		return nil
	}
	head := q.queue[0]
	q.queue = q.queue[1:]
	return head
}

// Peek returns the job at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (q *FIFO) Peek() *Job {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Len returns the number of waiting jobs.
func (q *FIFO) Len() int {
	return len(q.queue)
}

func (q *FIFO) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, j := range q.queue {
		sb.WriteString(fmt.Sprintf("J%d", j.ID))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
