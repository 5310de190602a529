package confirm

import (
	"context"
	"errors"
	"time"

	"github.com/LumeraProtocol/testnet-seeder/types"
)

// ErrAbsent is returned by a Lookup when the transaction's events are not indexed yet.
var ErrAbsent = errors.New("tx events not indexed yet")

// Lookup fetches the ordered events emitted by a transaction. It must be safe
// to call repeatedly for the same hash.
type Lookup interface {
	Lookup(ctx context.Context, txHash types.TxHandle) ([]types.EventRecord, error)
}

// Backoff controls polling cadence.
type Backoff interface {
	Next(attempt int) time.Duration
}
