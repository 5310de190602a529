package client

import (
	"time"

	"go.uber.org/zap"

	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
)

// Option is a function that modifies Config
type Option func(*Config)

// WithChainID sets the chain ID
func WithChainID(chainID string) Option {
	return func(c *Config) {
		c.ChainID = chainID
	}
}

// WithGRPCAddr sets the gRPC address
func WithGRPCAddr(addr string) Option {
	return func(c *Config) {
		c.GRPCEndpoint = addr
	}
}

// WithRPCEventSource looks up tx events through the CometBFT RPC endpoint instead of gRPC.
func WithRPCEventSource(endpoint string) Option {
	return func(c *Config) {
		c.RPCEndpoint = endpoint
		c.EventSource = clientconfig.EventSourceRPC
	}
}

// WithBlockchainTimeout sets the blockchain timeout
func WithBlockchainTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.BlockchainTimeout = timeout
	}
}

// WithConfirmTx replaces the confirmation timings
func WithConfirmTx(cfg ConfirmTxConfig) Option {
	return func(c *Config) {
		c.ConfirmTx = cfg
	}
}

// WithMaxWait sets the wall-clock budget for a single submission
func WithMaxWait(d time.Duration) Option {
	return func(c *Config) {
		if c.ConfirmTx == (ConfirmTxConfig{}) {
			c.ConfirmTx = DefaultConfirmTxConfig()
		}
		c.ConfirmTx.MaxWait = d
	}
}

// WithMaxMessageSize sets both send and receive message sizes
func WithMaxMessageSize(size int) Option {
	return func(c *Config) {
		c.MaxRecvMsgSize = size
		c.MaxSendMsgSize = size
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
