package session

import (
	"sync"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeEdit submits a delta computed against Base.
	EventTypeEdit EventType = iota + 1
	// EventTypeUndo replaces the undone group set with Groups.
	EventTypeUndo
)

// String returns the lowercase event name used in logs.
func (t EventType) String() string {
	switch t {
	case EventTypeEdit:
		return "edit"
	case EventTypeUndo:
		return "undo"
	default:
		return "unknown"
	}
}

// Event is a mutation submitted to the session loop.
type Event struct {
	Type EventType

	// Edit fields.
	Priority int
	Group    int
	Base     engine.RevID
	Delta    delta.Delta

	// Undo fields.
	Groups engine.Groups

	// Reply, when non-nil, receives the outcome. The loop never blocks on
	// it: use a buffered channel.
	Reply chan<- Result
}

// Result is the outcome of a processed Event.
type Result struct {
	Rev engine.RevID
	Err error
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so that producers (remote clients) never block on
// a slow writer.
//
// Thread-safety is provided for external enqueuing while the Session's Run
// loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64), // Pre-allocate for typical workloads
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Clear the slot so the backing array does not pin the delta and reply
	// channel.
	q.events[0] = Event{}

	// Fix memory retention: reset slice when empty
	if len(q.events) == 1 {
		// Last element - reset to empty slice with original capacity
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// closedAndEmpty reports whether the queue is closed with nothing left
// to drain.
func (q *eventQueue) closedAndEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // Already closed
	}

	q.closed = true
	close(q.signal) // Wakes all waiters
}
