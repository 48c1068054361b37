// Package event defines the closed set of messages flowing through the
// trading core. Every inbound message is exactly one of the kinds
// below; the router dispatches on the concrete type, so adding a kind
// means adding a mailbox and a strategy callback with it.
package event

import (
	"main/internal/chain"
	"main/internal/model"
)

type Kind uint8

const (
	_kind_beg Kind = iota
	KindOrderBook
	KindOrderEvent
	KindQueryResult
	KindTxResult
	_kind_end
)

func (k Kind) IsAvailable() bool {
	return k > _kind_beg && k < _kind_end
}

func (k Kind) String() string {
	switch k {
	case KindOrderBook:
		return "orderbook"
	case KindOrderEvent:
		return "order"
	case KindQueryResult:
		return "query"
	case KindTxResult:
		return "tx_result"
	default:
		return "unknown"
	}
}

// Event is implemented only by the types in this package.
type Event interface {
	Kind() Kind
	sealed()
}

// Book carries a full order book snapshot. Each snapshot fully
// replaces the previous one, so stale snapshots may be dropped.
type Book struct {
	Book model.OrderBook
}

func (Book) Kind() Kind { return KindOrderBook }
func (Book) sealed()    {}

// Order carries one order lifecycle notification.
type Order struct {
	Order model.OrderEvent
}

func (Order) Kind() Kind { return KindOrderEvent }
func (Order) sealed()    {}

// Query carries the response to an external data query.
type Query struct {
	ID     uint64
	Topic  string
	Data   any
	Err    error
	TsNano int64
}

func (Query) Kind() Kind { return KindQueryResult }
func (Query) sealed()    {}

// TxStatus classifies a submission outcome.
type TxStatus uint8

const (
	_tx_status_beg TxStatus = iota
	TxSuccess
	TxFailure
	_tx_status_end
)

func (s TxStatus) IsAvailable() bool {
	return s > _tx_status_beg && s < _tx_status_end
}

func (s TxStatus) String() string {
	switch s {
	case TxSuccess:
		return "success"
	case TxFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TxResult reports the outcome of one placed transaction. Receipt is
// nil when the transaction never reached the chain, including
// transactions force-failed by an earlier failure in the nonce
// sequence.
type TxResult struct {
	Status  TxStatus
	Tx      *chain.Transaction
	Receipt *chain.Receipt
}

// Nonce returns the nonce assigned to the underlying transaction.
func (r TxResult) Nonce() uint64 {
	if r.Tx == nil {
		return 0
	}
	return r.Tx.Nonce
}

func (TxResult) Kind() Kind { return KindTxResult }
func (TxResult) sealed()    {}
