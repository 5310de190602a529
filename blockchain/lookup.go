package blockchain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	txtypes "cosmossdk.io/api/cosmos/tx/v1beta1"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LumeraProtocol/testnet-seeder/internal/confirm"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

// GRPCLookup reads tx events from the Cosmos SDK tx service.
type GRPCLookup struct {
	svc txtypes.ServiceClient
}

// NewGRPCLookup creates a lookup over an existing gRPC connection.
func NewGRPCLookup(conn grpc.ClientConnInterface) *GRPCLookup {
	return &GRPCLookup{svc: txtypes.NewServiceClient(conn)}
}

// Lookup returns the events of txHash, or confirm.ErrAbsent while the tx is not indexed.
func (l *GRPCLookup) Lookup(ctx context.Context, txHash types.TxHandle) ([]types.EventRecord, error) {
	resp, err := l.svc.GetTx(ctx, &txtypes.GetTxRequest{Hash: strings.TrimPrefix(string(txHash), "0x")})
	if err != nil {
		// NotFound means the tx is not yet included or indexed
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return nil, confirm.ErrAbsent
		}
		return nil, fmt.Errorf("get tx: %w", err)
	}
	if resp == nil || resp.TxResponse == nil || resp.TxResponse.Txhash == "" {
		return nil, confirm.ErrAbsent
	}

	tr := resp.TxResponse
	events := fromAPIEvents(tr.GetEvents())
	msgs := len(resp.GetTx().GetBody().GetMessages())
	if msgs == 0 {
		msgs = countMsgs(events)
	}
	return append(events, resultRecords(tr.Code, tr.Codespace, tr.RawLog, msgs)...), nil
}

// txFetcher is the subset of the CometBFT RPC client used by RPCLookup.
type txFetcher interface {
	Tx(ctx context.Context, hash []byte, prove bool) (*coretypes.ResultTx, error)
}

// RPCLookup reads tx events from a CometBFT RPC node's tx index.
type RPCLookup struct {
	rpc txFetcher
}

// NewRPCLookup creates a lookup against the given RPC endpoint.
func NewRPCLookup(endpoint string) (*RPCLookup, error) {
	client, err := rpchttp.New(endpoint, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("tm client init: %w", err)
	}
	return &RPCLookup{rpc: client}, nil
}

// Lookup returns the events of txHash, or confirm.ErrAbsent while the tx is not indexed.
func (l *RPCLookup) Lookup(ctx context.Context, txHash types.TxHandle) ([]types.EventRecord, error) {
	hash, err := hex.DecodeString(strings.TrimPrefix(string(txHash), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode tx hash %s: %w", txHash, err)
	}
	res, err := l.rpc.Tx(ctx, hash, false)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, confirm.ErrAbsent
		}
		return nil, fmt.Errorf("rpc tx: %w", err)
	}
	if res == nil {
		return nil, confirm.ErrAbsent
	}

	result := res.TxResult
	events := fromCometEvents(result.Events)
	return append(events, resultRecords(result.Code, result.Codespace, result.Log, countMsgs(events))...), nil
}
