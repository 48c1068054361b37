package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/event"
	"main/internal/model"
)

var feedPair = model.Pair{Name: "WETH/USDC", Base: "WETH", Quote: "USDC"}

func TestSimPublishesSnapshots(t *testing.T) {
	queue := bus.NewQueue(64)
	sim := NewSim(SimConfig{Seed: 1, Tick: time.Millisecond, Levels: 3}, feedPair, queue, nil)

	ctx, cancel := context.WithCancel(t.Context())
	go func() { _ = sim.Run(ctx) }()

	books := make(chan model.OrderBook, 64)
	go queue.Run(ctx, func(e event.Event) {
		books <- e.(event.Book).Book
	})

	for i := 0; i < 5; i++ {
		select {
		case book := <-books:
			assert.Equal(t, feedPair.Name, book.Pair)
			require.Len(t, book.Bids, 3)
			require.Len(t, book.Asks, 3)
			assert.False(t, book.Crossed())
			assert.NotZero(t, book.TsNano)

			// Bids descending, asks ascending.
			for j := 1; j < len(book.Bids); j++ {
				assert.Less(t, book.Bids[j].Price, book.Bids[j-1].Price)
				assert.Greater(t, book.Asks[j].Price, book.Asks[j-1].Price)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for snapshot")
		}
	}
	cancel()
}

func TestSimDeterministicWithSeed(t *testing.T) {
	run := func() []model.Price {
		queue := bus.NewQueue(16)
		sim := NewSim(SimConfig{Seed: 42, Tick: time.Millisecond}, feedPair, queue, nil)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = sim.Run(ctx) }()

		mids := make([]model.Price, 0, 3)
		done := make(chan struct{})
		go queue.Run(ctx, func(e event.Event) {
			if len(mids) == 3 {
				return
			}
			mid, ok := e.(event.Book).Book.MidPrice()
			if ok {
				mids = append(mids, mid)
			}
			if len(mids) == 3 {
				close(done)
			}
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
		cancel()
		return mids
	}

	assert.Equal(t, run(), run())
}

func TestSimStopsWhenQueueCloses(t *testing.T) {
	queue := bus.NewQueue(1)
	sim := NewSim(SimConfig{Seed: 1, Tick: time.Millisecond}, feedPair, queue, nil)
	queue.Close()

	done := make(chan error, 1)
	go func() { done <- sim.Run(t.Context()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feed did not stop on closed queue")
	}
}
