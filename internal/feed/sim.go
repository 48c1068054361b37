// Package feed provides the paper-trading market data source: a
// random-walk order book generator publishing snapshots into the
// inbound queue.
package feed

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/event"
	"main/internal/model"
	"main/internal/obs"
)

// SimConfig controls the synthetic feed.
type SimConfig struct {
	Seed      int64
	BasePrice model.Price
	BaseSize  model.Size
	Spread    model.Price
	// MaxStep bounds the per-tick random walk of the mid price.
	MaxStep model.Price
	Levels  int
	Tick    time.Duration
}

func (c SimConfig) withDefaults() SimConfig {
	if c.BasePrice <= 0 {
		c.BasePrice = 1_000_000
	}
	if c.BaseSize <= 0 {
		c.BaseSize = 100
	}
	if c.Spread <= 0 {
		c.Spread = 2
	}
	if c.MaxStep <= 0 {
		c.MaxStep = 5
	}
	if c.Levels <= 0 {
		c.Levels = 5
	}
	if c.Tick <= 0 {
		c.Tick = 250 * time.Millisecond
	}
	return c
}

// Sim publishes synthetic order book snapshots for one pair.
type Sim struct {
	cfg     SimConfig
	pair    model.Pair
	queue   *bus.Queue
	metrics *obs.Metrics
	rng     *rand.Rand
	mid     model.Price
}

// NewSim creates a synthetic feed for the pair.
func NewSim(cfg SimConfig, pair model.Pair, queue *bus.Queue, metrics *obs.Metrics) *Sim {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Sim{
		cfg:     cfg,
		pair:    pair,
		queue:   queue,
		metrics: metrics,
		rng:     rand.New(rand.NewSource(seed)),
		mid:     cfg.BasePrice,
	}
}

// Run publishes one snapshot per tick until the context is done.
// Snapshots are dropped, not queued, when the inbound queue is full;
// the consumer coalesces them anyway.
func (s *Sim) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			err := s.queue.TryPublish(event.Book{Book: s.next(now)})
			switch {
			case err == nil:
			case errors.Is(err, bus.ErrQueueFull):
				s.metrics.IncQueueDrop()
			case errors.Is(err, bus.ErrQueueClosed):
				s.metrics.IncQueueClosed()
				logs.Info("feed stopping: inbound queue closed")
				return nil
			}
		}
	}
}

// next advances the random walk and builds a full snapshot.
func (s *Sim) next(now time.Time) model.OrderBook {
	step := model.Price(s.rng.Int63n(int64(2*s.cfg.MaxStep)+1)) - s.cfg.MaxStep
	s.mid += step
	if floor := s.cfg.Spread * model.Price(s.cfg.Levels); s.mid < floor {
		s.mid = floor
	}

	book := model.OrderBook{
		Pair:   s.pair.Name,
		Bids:   make([]model.BookLevel, 0, s.cfg.Levels),
		Asks:   make([]model.BookLevel, 0, s.cfg.Levels),
		TsNano: now.UnixNano(),
	}
	half := s.cfg.Spread / 2
	if half <= 0 {
		half = 1
	}
	for i := 0; i < s.cfg.Levels; i++ {
		depth := model.Price(i) * s.cfg.Spread
		size := s.cfg.BaseSize + model.Size(s.rng.Int63n(int64(s.cfg.BaseSize)))
		book.Bids = append(book.Bids, model.BookLevel{Price: s.mid - half - depth, Size: size})
		book.Asks = append(book.Asks, model.BookLevel{Price: s.mid + half + depth, Size: size})
	}
	return book
}
