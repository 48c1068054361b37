package chain

import (
	"context"
	"fmt"
)

// ReceiptStatus is the chain-reported status flag of a mined transaction.
type ReceiptStatus uint8

const (
	StatusReverted  ReceiptStatus = 0
	StatusConfirmed ReceiptStatus = 1
)

// Transaction is an outgoing transaction. The payload is opaque to the
// sequencing layer; Nonce is assigned by the transaction manager.
type Transaction struct {
	Nonce   uint64
	Payload any
}

// Receipt is the chain's confirmation record for a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      ReceiptStatus
	GasUsed     uint64
}

// ExecuteFunc signs, broadcasts and waits for confirmation of one
// transaction. It may block on I/O and is always invoked off the
// caller's goroutine.
type ExecuteFunc func(ctx context.Context, tx *Transaction) (Receipt, error)

// Client is the minimal chain query surface the core depends on.
type Client interface {
	// PendingNonce returns the next usable nonce for the signing account,
	// including transactions still in the mempool.
	PendingNonce(ctx context.Context) (uint64, error)
}

// NonceDesyncError reports that the chain rejected a transaction
// because the local nonce counter diverged from the chain's view.
type NonceDesyncError struct {
	Have uint64
	Want uint64
}

func (e *NonceDesyncError) Error() string {
	return fmt.Sprintf("chain: nonce desync, have %d want %d", e.Have, e.Want)
}
