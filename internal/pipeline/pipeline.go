package pipeline

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

// Dispatcher signs and broadcasts a transaction, returning its hash.
type Dispatcher interface {
	Dispatch(ctx context.Context, signer types.Signer, tx types.Tx) (types.TxHandle, error)
}

// Confirmer waits for a dispatched transaction's success event.
type Confirmer interface {
	Confirm(ctx context.Context, txHash types.TxHandle, spec types.ConfirmationSpec) ([]types.EventRecord, error)
}

// Pipeline dispatches a transaction and races its confirmation against MaxWait.
type Pipeline struct {
	dispatcher Dispatcher
	confirmer  Confirmer
	maxWait    time.Duration
	logger     *zap.Logger
}

// New creates a pipeline. cfg.MaxWait bounds every Submit call.
func New(d Dispatcher, c Confirmer, cfg clientconfig.ConfirmTxConfig, logger *zap.Logger) (*Pipeline, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if c == nil {
		return nil, fmt.Errorf("confirmer is required")
	}

	normalized := cfg
	clientconfig.ApplyConfirmTxDefaults(&normalized)

	return &Pipeline{
		dispatcher: d,
		confirmer:  c,
		maxWait:    normalized.MaxWait,
		logger:     sdklog.OrNop(logger),
	}, nil
}

type confirmResult struct {
	events []types.EventRecord
	err    error
}

// Submit dispatches tx signed by signer and waits until an event matching spec
// is confirmed. Dispatch failures are never retried. When MaxWait elapses first
// the confirmation is cancelled and a types.ErrSubmissionTimeout error carrying
// the tx hash is returned.
func (p *Pipeline) Submit(ctx context.Context, signer types.Signer, tx types.Tx, spec types.ConfirmationSpec) (types.TxResult, error) {
	txHash, err := p.dispatcher.Dispatch(ctx, signer, tx)
	if err != nil {
		p.logger.Error("dispatch failed", zap.Stringer("expected_event", spec), zap.Error(err))
		return types.TxResult{}, &types.TxError{Kind: types.ErrDispatchRejected, Spec: spec, Err: err}
	}
	log := p.logger.With(zap.String("tx_hash", string(txHash)), zap.Stringer("expected_event", spec))
	log.Debug("transaction dispatched")

	waitCtx, cancel := context.WithTimeout(ctx, p.maxWait)
	defer cancel()

	resCh := make(chan confirmResult, 1)
	go func() {
		events, err := p.confirmer.Confirm(waitCtx, txHash, spec)
		resCh <- confirmResult{events: events, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			if waitCtx.Err() != nil && isContextErr(res.err) {
				return types.TxResult{}, p.cancelled(ctx, log, txHash, spec)
			}
			log.Error("transaction confirmation failed", zap.Error(res.err))
			return types.TxResult{}, res.err
		}
		log.Info("transaction processing completed successfully")
		return types.TxResult{TxHash: txHash, Events: res.events}, nil
	case <-waitCtx.Done():
		return types.TxResult{}, p.cancelled(ctx, log, txHash, spec)
	}
}

// cancelled reports why the wait stopped: the caller's own context, or MaxWait.
func (p *Pipeline) cancelled(parent context.Context, log *zap.Logger, txHash types.TxHandle, spec types.ConfirmationSpec) error {
	if err := parent.Err(); err != nil {
		log.Warn("transaction wait cancelled", zap.Error(err))
		return fmt.Errorf("wait for tx %s: %w", txHash, err)
	}
	log.Error("transaction timed out", zap.Duration("max_wait", p.maxWait))
	return &types.TxError{
		Kind:   types.ErrSubmissionTimeout,
		TxHash: txHash,
		Spec:   spec,
		Err:    fmt.Errorf("no confirmation after %s", p.maxWait),
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
