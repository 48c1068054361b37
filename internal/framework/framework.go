package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	yerrors "github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/event"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/txmgr"
)

var (
	ErrNilQueue       = errors.New("framework: nil inbound queue")
	ErrNilManager     = errors.New("framework: nil transaction manager")
	ErrNilStrategy    = errors.New("framework: nil strategy")
	ErrQueueMismatch  = errors.New("framework: manager must publish results to the inbound queue")
	ErrAlreadyRunning = errors.New("framework: already running")
)

// Strategy is the business-logic callback boundary. Handlers run
// inline inside their consumer loop, one loop per event kind, so they
// must not block indefinitely. A handler may place transactions
// through the manager; the outcome comes back through OnTxResult.
type Strategy interface {
	OnStartup(ctx context.Context) error
	OnShutdown()
	OnOrderBook(book model.OrderBook)
	OnOrderEvent(ev model.OrderEvent)
	OnQueryResult(res event.Query)
	OnTxResult(res event.TxResult)
}

// Framework owns the inbound queue, one mailbox per event kind, the
// strategy and the transaction manager lifecycle.
type Framework struct {
	queue    *bus.Queue
	manager  *txmgr.Manager
	strategy Strategy
	metrics  *obs.Metrics

	books     *bus.LatestMailbox
	orders    *bus.FIFOMailbox
	queries   *bus.FIFOMailbox
	txResults *bus.FIFOMailbox

	running atomic.Bool
}

// New wires a framework. The manager must publish its results into the
// same queue the framework consumes, so strategies see their own
// transaction outcomes as ordinary events.
func New(queue *bus.Queue, manager *txmgr.Manager, strategy Strategy, metrics *obs.Metrics) (*Framework, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	if manager == nil {
		return nil, ErrNilManager
	}
	if strategy == nil {
		return nil, ErrNilStrategy
	}
	if manager.Results() != queue {
		return nil, ErrQueueMismatch
	}
	return &Framework{
		queue:     queue,
		manager:   manager,
		strategy:  strategy,
		metrics:   metrics,
		books:     bus.NewLatestMailbox(),
		orders:    bus.NewFIFOMailbox(),
		queries:   bus.NewFIFOMailbox(),
		txResults: bus.NewFIFOMailbox(),
	}, nil
}

// Run starts the strategy, the transaction manager and all consumer
// loops, then dispatches inbound events until the context is done or
// the queue is closed.
func (f *Framework) Run(ctx context.Context) error {
	if f.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer f.running.Store(false)

	if err := f.strategy.OnStartup(ctx); err != nil {
		return yerrors.Wrap(err, "strategy startup")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	run := func(loop func(context.Context, func(event.Event)), handler func(event.Event)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx, handler)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		f.manager.Run(ctx)
	}()

	run(f.books.Run, func(e event.Event) {
		f.strategy.OnOrderBook(e.(event.Book).Book)
	})
	run(f.orders.Run, func(e event.Event) {
		f.strategy.OnOrderEvent(e.(event.Order).Order)
	})
	run(f.queries.Run, func(e event.Event) {
		f.strategy.OnQueryResult(e.(event.Query))
	})
	run(f.txResults.Run, func(e event.Event) {
		f.strategy.OnTxResult(e.(event.TxResult))
	})

	logs.Info("framework started")
	f.queue.Run(ctx, f.dispatch)

	f.strategy.OnShutdown()
	cancel()
	wg.Wait()
	logs.Info("framework stopped")
	return nil
}

// dispatch classifies one inbound event into its mailbox. It runs on
// the single queue consumer goroutine, so the total inbound order is
// preserved up to the enqueue boundary.
func (f *Framework) dispatch(e event.Event) {
	start := time.Now()
	switch ev := e.(type) {
	case event.Book:
		f.books.Put(ev)
	case event.Order:
		f.orders.Put(ev)
	case event.Query:
		f.queries.Put(ev)
	case event.TxResult:
		f.txResults.Put(ev)
	default:
		// A kind outside the closed event set means the producer and
		// this consumer disagree on the contract. Not recoverable.
		panic(fmt.Sprintf("framework: unrecognized inbound event %T", e))
	}
	f.metrics.ObserveEvent(e.Kind())
	f.metrics.ObserveDispatch(time.Since(start))
}
