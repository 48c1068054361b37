package grid

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/chain"
	"main/internal/event"
	"main/internal/guard"
	"main/internal/model"
	"main/internal/model/enum"
)

var gridPair = model.Pair{
	Name:  "WETH/USDC",
	Base:  "WETH",
	Quote: "USDC",
	Scale: model.ScaleSpec{PriceScale: 2, SizeScale: 2},
}

type fakePlacer struct {
	placed []*chain.Transaction
	next   uint64
	err    error
}

func (p *fakePlacer) Place(_ chain.ExecuteFunc, tx *chain.Transaction) (uint64, error) {
	if p.err != nil {
		return 0, p.err
	}
	tx.Nonce = p.next
	p.next++
	p.placed = append(p.placed, tx)
	return tx.Nonce, nil
}

func noopExec(_ context.Context, _ *chain.Transaction) (chain.Receipt, error) {
	return chain.Receipt{Status: chain.StatusConfirmed}, nil
}

func bookAt(mid model.Price) model.OrderBook {
	return model.OrderBook{
		Pair: gridPair.Name,
		Bids: []model.BookLevel{{Price: mid - 1, Size: 100}},
		Asks: []model.BookLevel{{Price: mid + 1, Size: 100}},
	}
}

func newStrategy(cfg Config, placer Placer) *Strategy {
	return New(cfg, gridPair, "grid-1", placer, noopExec, guard.NewBreaker(guard.Config{Threshold: 2}))
}

func TestQuotesLadderAroundMid(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 2, Step: 10, Size: 5}, placer)

	s.OnOrderBook(bookAt(1000))
	require.Len(t, placer.placed, 1)

	batch, ok := placer.placed[0].Payload.(QuoteBatch)
	require.True(t, ok)
	assert.Equal(t, gridPair.Name, batch.Pair)
	require.Len(t, batch.Quotes, 4)

	assert.Equal(t, Quote{Side: enum.OrderSideBuy, Price: 990, Size: 5}, batch.Quotes[0])
	assert.Equal(t, Quote{Side: enum.OrderSideSell, Price: 1010, Size: 5}, batch.Quotes[1])
	assert.Equal(t, Quote{Side: enum.OrderSideBuy, Price: 980, Size: 5}, batch.Quotes[2])
	assert.Equal(t, Quote{Side: enum.OrderSideSell, Price: 1020, Size: 5}, batch.Quotes[3])
}

func TestSkipsBuysBelowZero(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 3, Step: 10, Size: 5}, placer)

	s.OnOrderBook(bookAt(15))
	require.Len(t, placer.placed, 1)

	batch := placer.placed[0].Payload.(QuoteBatch)
	buys := 0
	for _, q := range batch.Quotes {
		if q.Side == enum.OrderSideBuy {
			buys++
			assert.Greater(t, q.Price, model.Price(0))
		}
	}
	assert.Equal(t, 1, buys)
}

func TestRequotesOnlyAfterFullStep(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 1, Step: 10, Size: 1}, placer)

	s.OnOrderBook(bookAt(1000))
	s.OnOrderBook(bookAt(1005))
	assert.Len(t, placer.placed, 1)

	s.OnOrderBook(bookAt(1010))
	assert.Len(t, placer.placed, 2)
}

func TestIgnoresForeignAndCrossedBooks(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{}, placer)

	other := bookAt(1000)
	other.Pair = "WBTC/USDC"
	s.OnOrderBook(other)

	crossed := model.OrderBook{
		Pair: gridPair.Name,
		Bids: []model.BookLevel{{Price: 1010, Size: 1}},
		Asks: []model.BookLevel{{Price: 1000, Size: 1}},
	}
	s.OnOrderBook(crossed)

	s.OnOrderBook(model.OrderBook{Pair: gridPair.Name})

	assert.Empty(t, placer.placed)
}

func TestStopsQuotingWhenBreakerTrips(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 1, Step: 10, Size: 1}, placer)

	s.OnTxResult(event.TxResult{Status: event.TxFailure, Tx: &chain.Transaction{Nonce: 0}})
	s.OnTxResult(event.TxResult{Status: event.TxFailure, Tx: &chain.Transaction{Nonce: 1}})

	s.OnOrderBook(bookAt(1000))
	assert.Empty(t, placer.placed)
}

func TestRequotesAfterFailure(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 1, Step: 10, Size: 1}, placer)

	s.OnOrderBook(bookAt(1000))
	require.Len(t, placer.placed, 1)

	// A failed batch never reached the book; the same mid gets quoted
	// again.
	s.OnTxResult(event.TxResult{Status: event.TxFailure, Tx: placer.placed[0]})
	s.OnOrderBook(bookAt(1000))
	assert.Len(t, placer.placed, 2)
}

func TestTracksOwnOrdersAndInventory(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{}, placer)

	s.OnOrderEvent(model.OrderEvent{
		Kind:    enum.OrderEventNew,
		OrderID: 1,
		Owner:   "grid-1",
		Pair:    gridPair.Name,
		Side:    enum.OrderSideBuy,
		Price:   990,
		Size:    100,
	})
	assert.Equal(t, 1, s.ActiveOrders().Count())

	s.OnOrderEvent(model.OrderEvent{
		Kind:    enum.OrderEventNew,
		OrderID: 2,
		Owner:   "someone-else",
		Pair:    gridPair.Name,
		Side:    enum.OrderSideBuy,
		Price:   990,
		Size:    100,
	})
	assert.Equal(t, 1, s.ActiveOrders().Count())

	s.OnOrderEvent(model.OrderEvent{
		Kind:    enum.OrderEventTake,
		OrderID: 1,
		Owner:   "grid-1",
		Pair:    gridPair.Name,
		Side:    enum.OrderSideBuy,
		Price:   990,
		Size:    100,
	})
	assert.Equal(t, 0, s.ActiveOrders().Count())
	assert.Equal(t, int64(100), s.Inventory().Balance(gridPair.Base))
	assert.Equal(t, int64(-990), s.Inventory().Balance(gridPair.Quote))
}

// Each handler runs on its own framework consumer loop, so they must
// tolerate fully concurrent invocation.
func TestHandlersSafeAcrossConsumerLoops(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{Levels: 1, Step: 1, Size: 1}, placer)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.OnOrderBook(bookAt(model.Price(1000 + 2*i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			status := event.TxSuccess
			if i%3 == 0 {
				status = event.TxFailure
			}
			s.OnTxResult(event.TxResult{Status: status, Tx: &chain.Transaction{Nonce: uint64(i)}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.OnOrderEvent(model.OrderEvent{
				Kind:    enum.OrderEventNew,
				OrderID: uint64(i + 1),
				Owner:   "grid-1",
				Pair:    gridPair.Name,
				Side:    enum.OrderSideBuy,
				Price:   990,
				Size:    10,
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.OnQueryResult(event.Query{
				Topic: "balances",
				Data:  map[string]int64{"WETH": 1},
			})
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(n), s.Inventory().Balance("WETH"))
	assert.Equal(t, n, s.ActiveOrders().Count())
}

func TestIngestsBalanceQuery(t *testing.T) {
	placer := &fakePlacer{}
	s := newStrategy(Config{}, placer)

	s.OnQueryResult(event.Query{
		Topic: "balances",
		Data:  map[string]int64{"WETH": 1_000, "USDC": 2_000},
	})
	assert.Equal(t, int64(1_000), s.Inventory().Balance("WETH"))
	assert.Equal(t, int64(2_000), s.Inventory().Balance("USDC"))

	s.OnQueryResult(event.Query{Topic: "balances", Data: "garbage"})
	assert.Equal(t, int64(1_000), s.Inventory().Balance("WETH"))
}
