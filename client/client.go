package client

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"go.uber.org/zap"

	"github.com/LumeraProtocol/testnet-seeder/blockchain"
	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	"github.com/LumeraProtocol/testnet-seeder/internal/confirm"
	"github.com/LumeraProtocol/testnet-seeder/internal/pipeline"
	sdklog "github.com/LumeraProtocol/testnet-seeder/pkg/log"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

// Client submits transactions for one signer and waits for their confirmation.
type Client struct {
	Blockchain *blockchain.Client

	pipeline *pipeline.Pipeline
	signer   types.Signer
	config   *Config
	logger   *zap.Logger
}

// New creates a client bound to the keyring identity keyName.
func New(ctx context.Context, cfg Config, kr keyring.Keyring, keyName string, opts ...Option) (*Client, error) {
	// Apply options
	for _, opt := range opts {
		opt(&cfg)
	}

	if kr == nil {
		return nil, fmt.Errorf("keyring is required")
	}
	if keyName == "" {
		return nil, fmt.Errorf("key name is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}

	bc, err := blockchain.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blockchain client: %w", err)
	}

	lookup, err := newLookup(bc, cfg)
	if err != nil {
		_ = bc.Close()
		return nil, err
	}

	c, err := newWithCollaborators(cfg, bc, lookup, types.Signer{Keyring: kr, KeyName: keyName})
	if err != nil {
		_ = bc.Close()
		return nil, err
	}
	c.Blockchain = bc
	return c, nil
}

func newLookup(bc *blockchain.Client, cfg Config) (confirm.Lookup, error) {
	if cfg.EventSource == clientconfig.EventSourceRPC {
		l, err := blockchain.NewRPCLookup(cfg.RPCEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rpc lookup: %w", err)
		}
		return l, nil
	}
	return blockchain.NewGRPCLookup(bc.GRPCConn()), nil
}

func newWithCollaborators(cfg Config, d pipeline.Dispatcher, lookup confirm.Lookup, signer types.Signer) (*Client, error) {
	logger := sdklog.OrNop(cfg.Logger).With(zap.String("signer", signer.KeyName))

	tracker, err := confirm.New(lookup, cfg.ConfirmTx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracker: %w", err)
	}
	p, err := pipeline.New(d, tracker, cfg.ConfirmTx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	return &Client{
		pipeline: p,
		signer:   signer,
		config:   &cfg,
		logger:   logger,
	}, nil
}

// SubmitTx submits a plain transaction, confirmed by System.ExtrinsicSuccess.
func (c *Client) SubmitTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	return c.Submit(ctx, tx, types.PlainTxSpec)
}

// SubmitBatchTx submits an atomic multi-message transaction, confirmed by Utility.BatchCompleted.
func (c *Client) SubmitBatchTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	return c.Submit(ctx, tx, types.BatchTxSpec)
}

// SubmitClearingTx submits a clearing transaction, confirmed by AddressPools.CTProcessingCompleted.
func (c *Client) SubmitClearingTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	return c.Submit(ctx, tx, types.ClearingTxSpec)
}

// Submit signs and dispatches tx and waits for an event matching spec.
// The returned events are the transaction's full event set.
func (c *Client) Submit(ctx context.Context, tx types.Tx, spec types.ConfirmationSpec) (types.TxResult, error) {
	return c.pipeline.Submit(ctx, c.signer, tx, spec)
}

// Signer returns the identity this client signs with.
func (c *Client) Signer() types.Signer {
	return c.signer
}

// Close releases all resources
func (c *Client) Close() error {
	if c.Blockchain != nil {
		if err := c.Blockchain.Close(); err != nil {
			return fmt.Errorf("blockchain close: %w", err)
		}
	}
	return nil
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return *c.config
}
