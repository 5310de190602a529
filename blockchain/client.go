package blockchain

import (
	"context"
	"fmt"
	"strings"

	txtypes "cosmossdk.io/api/cosmos/tx/v1beta1"
	"github.com/cosmos/cosmos-sdk/client"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	sdkcrypto "github.com/LumeraProtocol/testnet-seeder/pkg/crypto"
	sdklog "github.com/LumeraProtocol/testnet-seeder/pkg/log"
)

// accountQuerier is the subset of the x/auth query client used for signing.
type accountQuerier interface {
	AccountInfo(ctx context.Context, in *authtypes.QueryAccountInfoRequest, opts ...grpc.CallOption) (*authtypes.QueryAccountInfoResponse, error)
}

// Client provides Cosmos SDK gRPC and tx helpers. It is safe for concurrent use.
type Client struct {
	conn     *grpc.ClientConn
	config   clientconfig.Config
	txConfig client.TxConfig
	txSvc    txtypes.ServiceClient
	auth     accountQuerier
	logger   *zap.Logger
}

// New creates a blockchain client with a gRPC connection. cfg must have been validated.
func New(ctx context.Context, cfg clientconfig.Config) (*Client, error) {
	// Use TLS if: port is 443, or hostname isn't local.
	useTLS := shouldUseTLS(cfg.GRPCEndpoint)
	if cfg.InsecureGRPC {
		useTLS = false
	}

	var creds credentials.TransportCredentials
	if useTLS {
		creds = credentials.NewTLS(nil)
	} else {
		creds = insecure.NewCredentials()
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
	}

	conn, err := grpc.NewClient(cfg.GRPCEndpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gRPC: %w", err)
	}

	c, err := newClient(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn *grpc.ClientConn, cfg clientconfig.Config) (*Client, error) {
	txCfg, err := sdkcrypto.NewDefaultTxConfig(cfg.AccountHRP)
	if err != nil {
		return nil, fmt.Errorf("tx config: %w", err)
	}
	return &Client{
		conn:     conn,
		config:   cfg,
		txConfig: txCfg,
		txSvc:    txtypes.NewServiceClient(conn),
		auth:     authtypes.NewQueryClient(conn),
		logger:   sdklog.OrNop(cfg.Logger),
	}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GRPCConn exposes the underlying gRPC connection for specialized queries.
func (c *Client) GRPCConn() *grpc.ClientConn {
	return c.conn
}

// TxConfig returns the encoding config used for building transactions.
func (c *Client) TxConfig() client.TxConfig {
	return c.txConfig
}

// shouldUseTLS determines if TLS should be used based on the gRPC address.
func shouldUseTLS(addr string) bool {
	if strings.HasSuffix(addr, ":443") {
		return true
	}

	if strings.HasPrefix(addr, "localhost:") ||
		strings.HasPrefix(addr, "127.0.0.1:") ||
		strings.HasPrefix(addr, "0.0.0.0:") ||
		strings.HasPrefix(addr, ":") { // Just port, implies localhost.
		return false
	}

	return !strings.Contains(addr, "localhost") &&
		!strings.Contains(addr, "127.0.0.1") &&
		!strings.Contains(addr, "0.0.0.0")
}
