package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	sdklog "github.com/LumeraProtocol/testnet-seeder/pkg/log"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

// Tracker polls a Lookup until a transaction's success event shows up.
// A Tracker holds no per-transaction state and may be shared across goroutines.
type Tracker struct {
	lookup      Lookup
	backoff     Backoff
	settleDelay time.Duration
	maxRetries  int
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a tracker from the confirmation config.
func New(lookup Lookup, cfg clientconfig.ConfirmTxConfig, logger *zap.Logger) (*Tracker, error) {
	if lookup == nil {
		return nil, fmt.Errorf("lookup is required")
	}

	normalized := cfg
	clientconfig.ApplyConfirmTxDefaults(&normalized)

	return &Tracker{
		lookup:      lookup,
		backoff:     NewBackoff(normalized.InitialBackoff),
		settleDelay: normalized.SettleDelay,
		maxRetries:  normalized.MaxRetries,
		logger:      sdklog.OrNop(logger),
		sleep:       sleepCtx,
	}, nil
}

// Confirm waits for the settle delay, then looks up the events of txHash up to
// maxRetries times. It returns the full event set once an event matching spec
// is present. An indexed event set without a match fails immediately with
// types.ErrEventNotFound; a transaction whose events never appear fails with
// types.ErrConfirmationExhausted. Cancelling ctx stops the loop.
func (t *Tracker) Confirm(ctx context.Context, txHash types.TxHandle, spec types.ConfirmationSpec) ([]types.EventRecord, error) {
	log := t.logger.With(zap.String("tx_hash", string(txHash)), zap.Stringer("expected_event", spec))
	log.Info("checking transaction success")

	if err := t.sleep(ctx, t.settleDelay); err != nil {
		return nil, err
	}

	attempt := 0
	for {
		events, err := t.lookup.Lookup(ctx, txHash)
		switch {
		case err == nil && len(events) > 0:
			if _, ok := types.FindEvent(events, spec); ok {
				log.Info("event confirmed", zap.Int("events", len(events)))
				return events, nil
			}
			return nil, &types.TxError{
				Kind:     types.ErrEventNotFound,
				TxHash:   txHash,
				Spec:     spec,
				Attempts: attempt + 1,
			}
		case err == nil, errors.Is(err, ErrAbsent):
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("lookup events for tx %s: %w", txHash, err)
		}

		attempt++
		if attempt >= t.maxRetries {
			log.Warn("event not found within retry budget", zap.Int("attempts", attempt))
			return nil, &types.TxError{
				Kind:     types.ErrConfirmationExhausted,
				TxHash:   txHash,
				Spec:     spec,
				Attempts: attempt,
			}
		}

		delay := t.backoff.Next(attempt)
		log.Info("tx events not available, retrying",
			zap.Duration("backoff", delay),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", t.maxRetries),
		)
		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
