package config

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"
)

// Config holds all configuration for the seeder client.
type Config struct {
	// Blockchain connection
	ChainID      string
	GRPCEndpoint string // Cosmos SDK gRPC endpoint
	RPCEndpoint  string // CometBFT RPC endpoint, used when EventSource is "rpc"
	InsecureGRPC bool

	// Account settings
	AccountHRP string
	FeeDenom   string
	GasPrice   sdkmath.LegacyDec

	// Timeouts
	BlockchainTimeout time.Duration

	MaxRecvMsgSize int // Max message size for gRPC (default: 50MB)
	MaxSendMsgSize int

	// EventSource selects the event lookup backend ("grpc" | "rpc").
	EventSource string

	// ConfirmTx controls transaction confirmation behaviour.
	ConfirmTx ConfirmTxConfig

	// Logger is optional; nil disables logging.
	Logger *zap.Logger
}

// ConfirmTxConfig configures how the seeder waits for a transaction's events.
type ConfirmTxConfig struct {
	// SettleDelay is the wait before the first lookup, roughly the time a
	// dispatched transaction needs to be included and indexed. Zero skips the
	// wait; a negative value selects the default.
	SettleDelay time.Duration
	// MaxRetries bounds the number of event lookups.
	MaxRetries int
	// InitialBackoff is the delay before the second lookup; it doubles on every retry.
	InitialBackoff time.Duration
	// MaxWait is the wall-clock budget for the whole confirmation.
	MaxWait time.Duration
}

const (
	EventSourceGRPC = "grpc"
	EventSourceRPC  = "rpc"
)

// Validate checks if the configuration is valid and populates defaults.
func (c *Config) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if c.GRPCEndpoint == "" {
		return fmt.Errorf("grpc_addr is required")
	}

	if c.EventSource == "" {
		c.EventSource = EventSourceGRPC
	}
	switch c.EventSource {
	case EventSourceGRPC:
	case EventSourceRPC:
		if c.RPCEndpoint == "" {
			return fmt.Errorf("rpc_addr is required for event source %q", c.EventSource)
		}
	default:
		return fmt.Errorf("unknown event source %q", c.EventSource)
	}

	// Set defaults
	if c.AccountHRP == "" {
		c.AccountHRP = "cosmos"
	}
	if c.FeeDenom == "" {
		c.FeeDenom = "stake"
	}
	if c.GasPrice.IsNil() || c.GasPrice.IsZero() {
		c.GasPrice = sdkmath.LegacyNewDecWithPrec(25, 3) // 0.025
	}
	if c.BlockchainTimeout == 0 {
		c.BlockchainTimeout = 10 * time.Second
	}
	if c.MaxRecvMsgSize == 0 {
		c.MaxRecvMsgSize = 1024 * 1024 * 50 // 50MB
	}
	if c.MaxSendMsgSize == 0 {
		c.MaxSendMsgSize = 1024 * 1024 * 50 // 50MB
	}
	ApplyConfirmTxDefaults(&c.ConfirmTx)

	return nil
}

// Default returns a configuration with sensible defaults for a local testnet.
func Default() Config {
	return Config{
		ChainID:           "seeder-testnet",
		GRPCEndpoint:      "localhost:9090",
		RPCEndpoint:       "http://localhost:26657",
		AccountHRP:        "cosmos",
		FeeDenom:          "stake",
		GasPrice:          sdkmath.LegacyNewDecWithPrec(25, 3),
		BlockchainTimeout: 10 * time.Second,
		MaxRecvMsgSize:    1024 * 1024 * 50,
		MaxSendMsgSize:    1024 * 1024 * 50,
		EventSource:       EventSourceGRPC,
		ConfirmTx:         DefaultConfirmTxConfig(),
	}
}

// DefaultConfirmTxConfig returns recommended defaults for confirmation behaviour.
func DefaultConfirmTxConfig() ConfirmTxConfig {
	return ConfirmTxConfig{
		SettleDelay:    45 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 30 * time.Second,
		MaxWait:        10 * time.Minute,
	}
}

// ApplyConfirmTxDefaults normalizes unset values using defaults. An entirely
// zero config becomes the default config. Otherwise zero or negative counts and
// durations are replaced, except SettleDelay where only negative values are.
func ApplyConfirmTxDefaults(cfg *ConfirmTxConfig) {
	if cfg == nil {
		return
	}
	def := DefaultConfirmTxConfig()
	if *cfg == (ConfirmTxConfig{}) {
		*cfg = def
		return
	}

	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = def.MaxWait
	}
}
