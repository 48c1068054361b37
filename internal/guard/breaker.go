package guard

import "main/internal/event"

// Config controls the submission circuit breaker.
type Config struct {
	// Threshold trips the breaker after this many consecutive
	// transaction failures. Zero or negative disables it.
	Threshold int `json:"threshold"`
}

// Breaker counts consecutive transaction failures and disables
// further submission once the threshold is reached. It never resets
// itself; a deliberate Reset is required after the operator looked at
// why transactions keep failing. Not safe for concurrent use.
type Breaker struct {
	cfg         Config
	consecutive int
	tripped     bool
}

// NewBreaker creates a breaker with the given config.
func NewBreaker(cfg Config) *Breaker {
	return &Breaker{cfg: cfg}
}

// Observe feeds one transaction result into the breaker.
func (b *Breaker) Observe(status event.TxStatus) {
	if status == event.TxSuccess {
		b.consecutive = 0
		return
	}
	b.consecutive++
	if b.cfg.Threshold > 0 && b.consecutive >= b.cfg.Threshold {
		b.tripped = true
	}
}

// Allow reports whether new submissions are permitted.
func (b *Breaker) Allow() bool {
	return !b.tripped
}

// Tripped reports whether the breaker has fired.
func (b *Breaker) Tripped() bool {
	return b.tripped
}

// Consecutive returns the current consecutive failure count.
func (b *Breaker) Consecutive() int {
	return b.consecutive
}

// Reset re-enables submission and clears the failure count.
func (b *Breaker) Reset() {
	b.consecutive = 0
	b.tripped = false
}
