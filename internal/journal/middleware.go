package journal

import (
	"context"

	"github.com/yanun0323/logs"

	"main/internal/event"
	"main/internal/framework"
	"main/internal/model"
)

var _ framework.Strategy = (*recordingStrategy)(nil)

// Wrap decorates a strategy so every order event and transaction
// result it sees is also journaled. Write failures are logged and do
// not interrupt trading.
func Wrap(inner framework.Strategy, j *Journal) framework.Strategy {
	return &recordingStrategy{inner: inner, journal: j}
}

type recordingStrategy struct {
	inner   framework.Strategy
	journal *Journal
}

func (s *recordingStrategy) OnStartup(ctx context.Context) error {
	return s.inner.OnStartup(ctx)
}

func (s *recordingStrategy) OnShutdown() {
	s.inner.OnShutdown()
	if err := s.journal.Close(); err != nil {
		logs.Errorf("close journal: %+v", err)
	}
}

func (s *recordingStrategy) OnOrderBook(ob model.OrderBook) {
	s.inner.OnOrderBook(ob)
}

func (s *recordingStrategy) OnOrderEvent(ev model.OrderEvent) {
	if err := s.journal.RecordOrderEvent(ev); err != nil {
		logs.Errorf("journal order event id=%d: %+v", ev.OrderID, err)
	}
	s.inner.OnOrderEvent(ev)
}

func (s *recordingStrategy) OnQueryResult(res event.Query) {
	s.inner.OnQueryResult(res)
}

func (s *recordingStrategy) OnTxResult(res event.TxResult) {
	if err := s.journal.RecordTxResult(res); err != nil {
		logs.Errorf("journal tx result nonce=%d: %+v", res.Nonce(), err)
	}
	s.inner.OnTxResult(res)
}
