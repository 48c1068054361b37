package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/event"
)

func TestLatestMailboxCoalesces(t *testing.T) {
	m := NewLatestMailbox()

	// Three puts before the consumer starts; only the newest survives.
	m.Put(event.Query{ID: 1})
	m.Put(event.Query{ID: 2})
	m.Put(event.Query{ID: 3})

	got := make(chan event.Event, 1)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, func(e event.Event) { got <- e })

	select {
	case e := <-got:
		assert.Equal(t, uint64(3), e.(event.Query).ID)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}

	select {
	case e := <-got:
		t.Fatalf("coalesced items must not be delivered, got %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLatestMailboxDeliversEachWhenConsumerKeepsUp(t *testing.T) {
	m := NewLatestMailbox()
	got := make(chan event.Event)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, func(e event.Event) { got <- e })

	for id := uint64(1); id <= 5; id++ {
		m.Put(event.Query{ID: id})
		select {
		case e := <-got:
			assert.Equal(t, id, e.(event.Query).ID)
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
}

func TestLatestMailboxSameValueTwice(t *testing.T) {
	m := NewLatestMailbox()
	m.Put(event.Query{ID: 7})
	m.Put(event.Query{ID: 7})

	var mu sync.Mutex
	count := 0
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, func(event.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestFIFOMailboxPreservesOrder(t *testing.T) {
	m := NewFIFOMailbox()
	const n = 100
	for id := uint64(1); id <= n; id++ {
		m.Put(event.Query{ID: id})
	}
	require.Equal(t, n, m.Len())

	seen := make([]uint64, 0, n)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, func(e event.Event) {
		seen = append(seen, e.(event.Query).ID)
		if len(seen) == n {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timeout, delivered %d of %d", len(seen), n)
	}
	for i, id := range seen {
		require.Equal(t, uint64(i+1), id)
	}
	assert.Equal(t, 0, m.Len())
}

func TestFIFOMailboxInterleavedProducer(t *testing.T) {
	m := NewFIFOMailbox()
	const n = 500
	seen := make([]uint64, 0, n)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, func(e event.Event) {
		seen = append(seen, e.(event.Query).ID)
		if len(seen) == n {
			close(done)
		}
	})

	for id := uint64(1); id <= n; id++ {
		m.Put(event.Query{ID: id})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout, delivered %d of %d", len(seen), n)
	}
	for i, id := range seen {
		require.Equal(t, uint64(i+1), id)
	}
}

func TestFIFOMailboxStopsOnContext(t *testing.T) {
	m := NewFIFOMailbox()
	ctx, cancel := context.WithCancel(t.Context())

	started := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		m.Run(ctx, func(event.Event) {
			select {
			case started <- struct{}{}:
			default:
			}
		})
	}()

	m.Put(event.Query{ID: 1})
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
}
