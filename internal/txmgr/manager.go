// Package txmgr owns the signing account's nonce. Every placed
// transaction consumes exactly one nonce, in order, with no gaps and
// no reuse; results resolve strictly in placement order regardless of
// how the underlying executions interleave.
package txmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/chain"
	"main/internal/event"
	"main/internal/obs"
)

var (
	ErrNilResultQueue = errors.New("txmgr: nil result queue")
	ErrNilChainClient = errors.New("txmgr: nil chain client")
	ErrNilExecutor    = errors.New("txmgr: nil executor")
	ErrNilTransaction = errors.New("txmgr: nil transaction")
)

// Config controls the transaction manager.
type Config struct {
	// MaxInflight bounds concurrent executions. Placement itself never
	// blocks; executions past the bound wait for a slot.
	MaxInflight int `json:"maxInflight"`
	// DrainOnStop resolves in-flight work before Run returns instead of
	// abandoning it.
	DrainOnStop bool `json:"drainOnStop"`
}

func (c Config) withDefaults() Config {
	if c.MaxInflight <= 0 {
		c.MaxInflight = 8
	}
	return c
}

type outcome struct {
	receipt chain.Receipt
	err     error
}

type pendingTx struct {
	tx       *chain.Transaction
	placedAt time.Time
	done     chan outcome
}

// Manager assigns nonces and resolves transaction results in
// placement order. The nonce counter and pending list form one unit
// of state under a single mutex, held only for O(1) bookkeeping.
type Manager struct {
	cfg     Config
	results *bus.Queue
	client  chain.Client
	metrics *obs.Metrics
	sem     *semaphore.Weighted

	mu      sync.Mutex
	nonce   uint64
	pending []*pendingTx

	notify  chan struct{}
	running atomic.Bool
	runCtx  atomic.Pointer[context.Context]
}

// NewManager creates a manager publishing results to the given queue.
// startNonce is the account's next usable nonce, normally taken from
// chain.Client.PendingNonce at startup.
func NewManager(cfg Config, results *bus.Queue, client chain.Client, startNonce uint64, metrics *obs.Metrics) (*Manager, error) {
	if results == nil {
		return nil, ErrNilResultQueue
	}
	if client == nil {
		return nil, ErrNilChainClient
	}
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:     cfg,
		results: results,
		client:  client,
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(cfg.MaxInflight)),
		nonce:   startNonce,
		notify:  make(chan struct{}, 1),
	}, nil
}

// Results returns the queue results are published to.
func (m *Manager) Results() *bus.Queue {
	return m.results
}

// Nonce returns the next nonce to assign.
func (m *Manager) Nonce() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonce
}

// PendingCount returns the number of unresolved transactions.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Place assigns the next nonce to tx, starts exec on the worker pool
// and returns the assigned nonce immediately. The caller learns the
// outcome from the TxResult published on the result queue.
func (m *Manager) Place(exec chain.ExecuteFunc, tx *chain.Transaction) (uint64, error) {
	if exec == nil {
		return 0, ErrNilExecutor
	}
	if tx == nil {
		return 0, ErrNilTransaction
	}

	m.mu.Lock()
	tx.Nonce = m.nonce
	p := &pendingTx{tx: tx, placedAt: time.Now(), done: make(chan outcome, 1)}
	m.pending = append(m.pending, p)
	m.nonce++
	m.mu.Unlock()

	m.metrics.IncTxPlaced()

	go m.execute(exec, p)

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return tx.Nonce, nil
}

func (m *Manager) execute(exec chain.ExecuteFunc, p *pendingTx) {
	ctx := m.context()
	if m.cfg.DrainOnStop {
		ctx = context.WithoutCancel(ctx)
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		p.done <- outcome{err: err}
		return
	}
	defer m.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("tx executor panicked: %+v", r)
			p.done <- outcome{err: errors.New("txmgr: executor panic")}
		}
	}()

	start := time.Now()
	receipt, err := exec(ctx, p.tx)
	m.metrics.ObserveSubmit(time.Since(start))
	p.done <- outcome{receipt: receipt, err: err}
}

// Run resolves pending transactions in placement order until the
// context is done. One resolver loop per manager.
func (m *Manager) Run(ctx context.Context) {
	if m.running.Swap(true) {
		return
	}
	defer m.running.Store(false)

	m.runCtx.Store(&ctx)

	for {
		select {
		case <-ctx.Done():
			if m.cfg.DrainOnStop {
				m.drain()
			}
			return
		case <-m.notify:
			m.resolveReady(ctx)
		}
	}
}

func (m *Manager) context() context.Context {
	if ctx := m.runCtx.Load(); ctx != nil {
		return *ctx
	}
	return context.Background()
}

func (m *Manager) resolveReady(ctx context.Context) {
	for {
		p := m.popHead()
		if p == nil {
			return
		}

		var o outcome
		select {
		case <-ctx.Done():
			if !m.cfg.DrainOnStop {
				return
			}
			o = <-p.done
		case o = <-p.done:
		}

		m.resolve(ctx, p, o)

		if ctx.Err() != nil && !m.cfg.DrainOnStop {
			return
		}
	}
}

func (m *Manager) popHead() *pendingTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	p := m.pending[0]
	m.pending[0] = nil
	m.pending = m.pending[1:]
	return p
}

func (m *Manager) resolve(ctx context.Context, p *pendingTx, o outcome) {
	m.metrics.ObserveResolve(time.Since(p.placedAt))

	if o.err == nil && o.receipt.Status == chain.StatusConfirmed {
		receipt := o.receipt
		m.publish(ctx, event.TxResult{
			Status:  event.TxSuccess,
			Tx:      p.tx,
			Receipt: &receipt,
		})
		return
	}

	// The failed transaction poisons every later pending one: each was
	// signed against a nonce that now never gets consumed.
	var dropped []*pendingTx
	m.mu.Lock()
	dropped = m.pending
	m.pending = nil
	m.nonce = p.tx.Nonce
	m.mu.Unlock()

	m.metrics.IncNonceRewind()

	if o.err != nil {
		logs.Errorf("tx nonce=%d failed, dropping %d queued after it: %+v", p.tx.Nonce, len(dropped), o.err)
	} else {
		logs.Errorf("tx nonce=%d reverted on chain, dropping %d queued after it", p.tx.Nonce, len(dropped))
	}

	failed := event.TxResult{Status: event.TxFailure, Tx: p.tx}
	if o.err == nil {
		receipt := o.receipt
		failed.Receipt = &receipt
	}
	m.publish(ctx, failed)
	for _, q := range dropped {
		m.publish(ctx, event.TxResult{Status: event.TxFailure, Tx: q.tx})
	}

	var desync *chain.NonceDesyncError
	if errors.As(o.err, &desync) {
		m.resync(ctx)
	}
}

// resync queries the chain for the true next nonce. It runs without
// the mutex so placements are not serialized behind the network call;
// a placement racing the resync is assigned a stale nonce, fails with
// another desync and is repaired by the next recovery round.
func (m *Manager) resync(ctx context.Context) {
	next, err := m.client.PendingNonce(ctx)
	if err != nil {
		logs.Errorf("nonce resync query failed, keeping rewound counter: %+v", err)
		return
	}

	m.mu.Lock()
	prev := m.nonce
	m.nonce = next
	m.mu.Unlock()

	m.metrics.IncNonceResync()
	logs.Infof("nonce resynced from chain: %d -> %d", prev, next)
}

func (m *Manager) publish(ctx context.Context, res event.TxResult) {
	err := m.results.Publish(ctx, res)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = m.results.TryPublish(res)
	}
	if err != nil {
		logs.Errorf("publish tx result nonce=%d: %+v", res.Nonce(), err)
		return
	}
	m.metrics.IncTxResolved(res.Status)
}

// drain resolves everything left pending after shutdown began. The
// dispatch loop may already be gone, so publication must never block:
// a pre-cancelled context routes every publish through the
// non-blocking fallback.
func (m *Manager) drain() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for {
		p := m.popHead()
		if p == nil {
			return
		}
		o := <-p.done
		m.resolve(ctx, p, o)
	}
}
