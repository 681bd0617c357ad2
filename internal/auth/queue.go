package auth

import (
	"sync"

	"github.com/fittrack/fittrack/types"
)

// queuedEvent is a provider change tagged with the store epoch current when
// it arrived.
type queuedEvent struct {
	change types.AuthStateChange
	epoch  uint64
}

// eventQueue is an unbounded FIFO with a single consumer. push never blocks,
// so a provider emitting from inside a sign-in call cannot stall on a slow
// profile fetch.
type eventQueue struct {
	mu     sync.Mutex
	items  []queuedEvent
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev queuedEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pop() (queuedEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return queuedEvent{}, false
	}
	ev := q.items[0]
	q.items[0] = queuedEvent{}
	q.items = q.items[1:]
	return ev, true
}
