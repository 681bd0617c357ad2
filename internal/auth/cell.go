package auth

import (
	"sync"

	"github.com/fittrack/fittrack/types"
)

// Listener observes published auth states.
type Listener func(types.AuthState)

type subscription struct {
	id uint64
	fn Listener
}

// cell holds the current AuthState and notifies subscribers synchronously,
// in subscription order, on every set. Listeners run under publishMu and
// must not call set; unsubscribing from inside a listener is allowed.
type cell struct {
	publishMu sync.Mutex

	mu     sync.Mutex
	state  types.AuthState
	subs   []subscription
	nextID uint64
}

func newCell(initial types.AuthState) *cell {
	return &cell{state: initial}
}

func (c *cell) get() types.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// subscribe delivers the current state to fn before returning, so a
// subscriber never misses the value that was current when it joined.
func (c *cell) subscribe(fn Listener) func() {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	current := c.state
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

func (c *cell) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

func (c *cell) set(state types.AuthState) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.state = state
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(state)
	}
}

func (c *cell) subscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
