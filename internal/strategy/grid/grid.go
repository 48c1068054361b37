// Package grid implements a symmetric grid quoting strategy: a ladder
// of resting buy orders below mid price and sell orders above it,
// re-placed whenever mid moves a full step.
package grid

import (
	"context"
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/chain"
	"main/internal/event"
	"main/internal/framework"
	"main/internal/guard"
	"main/internal/model"
	"main/internal/model/enum"
)

var _ framework.Strategy = (*Strategy)(nil)

// Placer accepts sequenced transaction placements.
type Placer interface {
	Place(exec chain.ExecuteFunc, tx *chain.Transaction) (uint64, error)
}

// Config defines the quoting ladder.
type Config struct {
	// Levels per side.
	Levels int `json:"levels"`
	// Step is the price distance between levels, in the pair's price
	// scale. Quotes are refreshed when mid moves at least one step.
	Step model.Price `json:"step"`
	// Size per level, in the pair's size scale.
	Size model.Size `json:"size"`
}

func (c Config) withDefaults() Config {
	if c.Levels <= 0 {
		c.Levels = 3
	}
	if c.Step <= 0 {
		c.Step = 1
	}
	if c.Size <= 0 {
		c.Size = 1
	}
	return c
}

// Quote is one order of a quote batch.
type Quote struct {
	Side  enum.OrderSide
	Price model.Price
	Size  model.Size
}

// QuoteBatch is the transaction payload placed by the strategy: the
// full replacement ladder for one pair.
type QuoteBatch struct {
	Pair   string
	Quotes []Quote
}

// Strategy is the grid trading strategy. Each handler runs on its own
// framework consumer loop, so one mutex guards all mutable state: the
// breaker, the reducers and the quoting cursor.
type Strategy struct {
	cfg    Config
	pair   model.Pair
	owner  string
	placer Placer
	exec   chain.ExecuteFunc

	mu      sync.Mutex
	breaker *guard.Breaker
	active  *book.ActiveOrders
	inv     *book.Inventory
	quoted  bool
	lastMid model.Price
}

// New creates a grid strategy quoting one pair through the given
// placer and chain executor. owner filters order events down to our
// own orders.
func New(cfg Config, pair model.Pair, owner string, placer Placer, exec chain.ExecuteFunc, breaker *guard.Breaker) *Strategy {
	return &Strategy{
		cfg:     cfg.withDefaults(),
		pair:    pair,
		owner:   owner,
		placer:  placer,
		exec:    exec,
		breaker: breaker,
		active:  book.NewActiveOrders(),
		inv:     book.NewInventory(),
	}
}

func (s *Strategy) OnStartup(_ context.Context) error {
	logs.Infof("grid strategy starting: pair=%s levels=%d step=%d size=%d",
		s.pair.Name, s.cfg.Levels, s.cfg.Step, s.cfg.Size)
	return nil
}

func (s *Strategy) OnShutdown() {
	s.mu.Lock()
	resting := s.active.Count()
	s.mu.Unlock()
	logs.Infof("grid strategy stopped: pair=%s resting=%d", s.pair.Name, resting)
}

// OnOrderBook requotes the ladder around the new mid price. Snapshots
// arrive coalesced, so only the freshest book is ever seen here.
func (s *Strategy) OnOrderBook(ob model.OrderBook) {
	if ob.Pair != s.pair.Name || ob.Crossed() {
		return
	}
	mid, ok := ob.MidPrice()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.breaker.Allow() {
		return
	}
	if s.quoted && absPrice(mid-s.lastMid) < s.cfg.Step {
		return
	}

	batch := s.buildBatch(mid)
	tx := &chain.Transaction{Payload: batch}
	nonce, err := s.placer.Place(s.exec, tx)
	if err != nil {
		logs.Errorf("place quote batch: %+v", err)
		return
	}

	s.quoted = true
	s.lastMid = mid
	logs.Infof("quoted pair=%s mid=%d nonce=%d orders=%d", s.pair.Name, mid, nonce, len(batch.Quotes))
}

// OnOrderEvent maintains the local view of our resting orders and the
// inventory they trade.
func (s *Strategy) OnOrderEvent(ev model.OrderEvent) {
	if ev.Owner != s.owner || ev.Pair != s.pair.Name {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Kind == enum.OrderEventTake {
		s.inv.ApplyTake(s.pair, ev.Side, ev.Price, ev.Size)
	}
	if _, err := s.active.Apply(ev); err != nil {
		logs.Errorf("apply order event kind=%s id=%d: %+v", ev.Kind, ev.OrderID, err)
	}
}

// OnQueryResult ingests startup balance queries; other topics are
// informational only.
func (s *Strategy) OnQueryResult(res event.Query) {
	if res.Err != nil {
		logs.Errorf("query %s failed: %+v", res.Topic, res.Err)
		return
	}
	if res.Topic != "balances" {
		return
	}
	balances, ok := res.Data.(map[string]int64)
	if !ok {
		logs.Errorf("query %s carried unexpected payload %T", res.Topic, res.Data)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for asset, amount := range balances {
		s.inv.Deposit(asset, amount)
	}
}

// OnTxResult feeds the breaker and schedules a requote after any
// failure, since the failed batch never reached the book.
func (s *Strategy) OnTxResult(res event.TxResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAllowed := s.breaker.Allow()
	s.breaker.Observe(res.Status)

	if res.Status == event.TxFailure {
		s.quoted = false
	}
	if wasAllowed && s.breaker.Tripped() {
		logs.Errorf("breaker tripped after %d consecutive failures, quoting disabled", s.breaker.Consecutive())
	}
}

// Inventory exposes the tracked balances for inspection once the
// consumer loops are quiet.
func (s *Strategy) Inventory() *book.Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inv
}

// ActiveOrders exposes the tracked resting orders for inspection once
// the consumer loops are quiet.
func (s *Strategy) ActiveOrders() *book.ActiveOrders {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Strategy) buildBatch(mid model.Price) QuoteBatch {
	quotes := make([]Quote, 0, 2*s.cfg.Levels)
	for level := 1; level <= s.cfg.Levels; level++ {
		offset := model.Price(level) * s.cfg.Step
		if mid > offset {
			quotes = append(quotes, Quote{
				Side:  enum.OrderSideBuy,
				Price: mid - offset,
				Size:  s.cfg.Size,
			})
		}
		quotes = append(quotes, Quote{
			Side:  enum.OrderSideSell,
			Price: mid + offset,
			Size:  s.cfg.Size,
		})
	}
	return QuoteBatch{Pair: s.pair.Name, Quotes: quotes}
}

func absPrice(p model.Price) model.Price {
	if p < 0 {
		return -p
	}
	return p
}
