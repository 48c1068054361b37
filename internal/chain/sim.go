package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrSimBroadcast = errors.New("chain: simulated broadcast failure")

// SimConfig controls the simulated chain behavior.
type SimConfig struct {
	StartNonce uint64
	// RevertEvery makes every Nth mined transaction revert (0 = never).
	// A reverted transaction still consumes its nonce.
	RevertEvery int
	// FailEvery makes every Nth execution fail before reaching the
	// chain (0 = never). The nonce is not consumed.
	FailEvery int
	Latency   time.Duration
}

// Sim is an in-process chain stub enforcing the real per-account nonce
// discipline: each nonce is consumed exactly once, a nonce below the
// expected next one is rejected, and nonces ahead of it are queued
// until the gap fills.
type Sim struct {
	cfg SimConfig

	mu    sync.Mutex
	next  uint64
	block uint64
	count int
	ahead map[uint64]struct{}
}

// NewSim creates a simulated chain.
func NewSim(cfg SimConfig) *Sim {
	return &Sim{
		cfg:   cfg,
		next:  cfg.StartNonce,
		ahead: make(map[uint64]struct{}),
	}
}

// PendingNonce returns the next usable nonce for the account.
func (s *Sim) PendingNonce(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next, nil
}

// Execute mines one transaction. It satisfies chain.ExecuteFunc.
func (s *Sim) Execute(ctx context.Context, tx *Transaction) (Receipt, error) {
	if s.cfg.Latency > 0 {
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-time.After(s.cfg.Latency):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.cfg.FailEvery > 0 && s.count%s.cfg.FailEvery == 0 {
		return Receipt{}, ErrSimBroadcast
	}

	if tx.Nonce < s.next {
		return Receipt{}, &NonceDesyncError{Have: tx.Nonce, Want: s.next}
	}
	if _, dup := s.ahead[tx.Nonce]; dup {
		return Receipt{}, &NonceDesyncError{Have: tx.Nonce, Want: s.next}
	}

	s.ahead[tx.Nonce] = struct{}{}
	for {
		if _, ok := s.ahead[s.next]; !ok {
			break
		}
		delete(s.ahead, s.next)
		s.next++
	}

	s.block++
	receipt := Receipt{
		TxHash:      fmt.Sprintf("0x%016x%016x", s.block, tx.Nonce),
		BlockNumber: s.block,
		Status:      StatusConfirmed,
		GasUsed:     21_000,
	}
	if s.cfg.RevertEvery > 0 && s.count%s.cfg.RevertEvery == 0 {
		receipt.Status = StatusReverted
	}
	return receipt, nil
}
