package obs

import (
	"sync/atomic"
	"time"

	"main/internal/event"
)

const maxEventKind = int(event.KindTxResult)

// Metrics collects lightweight counters for the trading core. All
// methods are safe on a nil receiver so instrumentation can be left
// unwired in tools and tests.
type Metrics struct {
	eventCounts [maxEventKind + 1]uint64
	queueDrops  uint64
	queueClosed uint64

	txPlaced     uint64
	txSucceeded  uint64
	txFailed     uint64
	nonceRewinds uint64
	nonceResyncs uint64

	dispatchLatency LatencyStats
	submitLatency   LatencyStats
	resolveLatency  LatencyStats
}

// Snapshot is a point-in-time view of the metrics.
type Snapshot struct {
	EventCounts  map[event.Kind]uint64
	QueueDrops   uint64
	QueueClosed  uint64
	TxPlaced     uint64
	TxSucceeded  uint64
	TxFailed     uint64
	NonceRewinds uint64
	NonceResyncs uint64
	Dispatch     LatencySnapshot
	Submit       LatencySnapshot
	Resolve      LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts one routed inbound event.
func (m *Metrics) ObserveEvent(kind event.Kind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// IncQueueDrop records a dropped publish.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// IncTxPlaced records an accepted transaction placement.
func (m *Metrics) IncTxPlaced() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.txPlaced, 1)
}

// IncTxResolved records a published transaction result.
func (m *Metrics) IncTxResolved(status event.TxStatus) {
	if m == nil {
		return
	}
	if status == event.TxSuccess {
		atomic.AddUint64(&m.txSucceeded, 1)
	} else {
		atomic.AddUint64(&m.txFailed, 1)
	}
}

// IncNonceRewind records a nonce counter rewind.
func (m *Metrics) IncNonceRewind() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.nonceRewinds, 1)
}

// IncNonceResync records a nonce resynchronization from the chain.
func (m *Metrics) IncNonceResync() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.nonceResyncs, 1)
}

// ObserveDispatch measures one classify-and-enqueue step.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchLatency.Observe(d)
}

// ObserveSubmit measures one chain execution, broadcast to outcome.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(d)
}

// ObserveResolve measures one transaction from placement to resolution.
func (m *Metrics) ObserveResolve(d time.Duration) {
	if m == nil {
		return
	}
	m.resolveLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[event.Kind]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[event.Kind(i)] = v
		}
	}
	return Snapshot{
		EventCounts:  eventCounts,
		QueueDrops:   atomic.LoadUint64(&m.queueDrops),
		QueueClosed:  atomic.LoadUint64(&m.queueClosed),
		TxPlaced:     atomic.LoadUint64(&m.txPlaced),
		TxSucceeded:  atomic.LoadUint64(&m.txSucceeded),
		TxFailed:     atomic.LoadUint64(&m.txFailed),
		NonceRewinds: atomic.LoadUint64(&m.nonceRewinds),
		NonceResyncs: atomic.LoadUint64(&m.nonceResyncs),
		Dispatch:     m.dispatchLatency.Snapshot(),
		Submit:       m.submitLatency.Snapshot(),
		Resolve:      m.resolveLatency.Snapshot(),
	}
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
