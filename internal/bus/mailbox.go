package bus

import (
	"context"
	"sync"

	"main/internal/event"
)

// LatestMailbox is a single-producer single-consumer delivery point
// holding at most one pending item. Put overwrites whatever is waiting
// and unconsumed; drops are intended, not an error. The consumer loop
// always receives the newest item as of pickup time.
type LatestMailbox struct {
	mu     sync.Mutex
	slot   event.Event
	filled bool
	notify chan struct{}
}

// NewLatestMailbox creates an empty coalescing mailbox.
func NewLatestMailbox() *LatestMailbox {
	return &LatestMailbox{notify: make(chan struct{}, 1)}
}

// Put delivers an item, replacing any unconsumed one.
func (m *LatestMailbox) Put(e event.Event) {
	m.mu.Lock()
	wasEmpty := !m.filled
	m.slot = e
	m.filled = true
	m.mu.Unlock()

	// A wakeup is already pending when the slot was occupied.
	if wasEmpty {
		select {
		case m.notify <- struct{}{}:
		default:
		}
	}
}

// Run invokes handler with the newest pending item, one at a time,
// until the context is done.
func (m *LatestMailbox) Run(ctx context.Context, handler func(event.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.notify:
			m.mu.Lock()
			e := m.slot
			m.slot = nil
			m.filled = false
			m.mu.Unlock()
			handler(e)
		}
	}
}

// FIFOMailbox is a single-producer single-consumer delivery point with
// an unbounded tail. Handler invocation order equals enqueue order,
// with no drops. The loop advances past an item once its handler
// returns; there is no redelivery.
type FIFOMailbox struct {
	mu     sync.Mutex
	queue  []event.Event
	notify chan struct{}
}

// NewFIFOMailbox creates an empty FIFO mailbox.
func NewFIFOMailbox() *FIFOMailbox {
	return &FIFOMailbox{notify: make(chan struct{}, 1)}
}

// Put appends an item to the tail.
func (m *FIFOMailbox) Put(e event.Event) {
	m.mu.Lock()
	m.queue = append(m.queue, e)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of pending items.
func (m *FIFOMailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run invokes handler for each item in arrival order until the context
// is done.
func (m *FIFOMailbox) Run(ctx context.Context, handler func(event.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.notify:
			for ctx.Err() == nil {
				m.mu.Lock()
				if len(m.queue) == 0 {
					m.queue = nil
					m.mu.Unlock()
					break
				}
				e := m.queue[0]
				m.queue[0] = nil
				m.queue = m.queue[1:]
				m.mu.Unlock()

				handler(e)
			}
		}
	}
}
