package blockchain

import (
	"context"
	"fmt"

	txtypes "cosmossdk.io/api/cosmos/tx/v1beta1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	signingtypes "github.com/cosmos/cosmos-sdk/types/tx/signing"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"go.uber.org/zap"

	sdkcrypto "github.com/LumeraProtocol/testnet-seeder/pkg/crypto"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

const (
	defaultGasLimit = 200000
	gasAdjustment   = 1.3
)

// Dispatch builds, signs and broadcasts tx in SYNC mode and returns its hash.
// A transaction rejected by CheckTx is returned as an error.
func (c *Client) Dispatch(ctx context.Context, signer types.Signer, tx types.Tx) (types.TxHandle, error) {
	txBytes, err := c.BuildAndSignTx(ctx, signer, tx)
	if err != nil {
		return "", err
	}
	hash, err := c.Broadcast(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_SYNC)
	if err != nil {
		return "", err
	}
	c.logger.Debug("tx broadcast", zap.String("tx_hash", hash), zap.String("signer", signer.KeyName), zap.Int("msgs", len(tx.Msgs)))
	return types.TxHandle(hash), nil
}

// Simulate runs a gas simulation for a provided tx bytes
func (c *Client) Simulate(ctx context.Context, txBytes []byte) (uint64, error) {
	resp, err := c.txSvc.Simulate(ctx, &txtypes.SimulateRequest{
		TxBytes: txBytes,
	})
	if err != nil {
		return 0, fmt.Errorf("simulate tx: %w", err)
	}
	if resp == nil || resp.GasInfo == nil {
		return 0, nil
	}
	return resp.GasInfo.GasUsed, nil
}

// Broadcast broadcasts a signed transaction with a chosen broadcast mode
func (c *Client) Broadcast(ctx context.Context, txBytes []byte, mode txtypes.BroadcastMode) (string, error) {
	resp, err := c.txSvc.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    mode,
	})
	if err != nil {
		return "", fmt.Errorf("broadcast tx: %w", err)
	}

	if resp == nil || resp.TxResponse == nil {
		return "", fmt.Errorf("empty tx response")
	}

	if resp.TxResponse.Code != 0 {
		return "", fmt.Errorf("tx failed with code %d (%s): %s", resp.TxResponse.Code, resp.TxResponse.Codespace, resp.TxResponse.RawLog)
	}

	return resp.TxResponse.GetTxhash(), nil
}

// BuildAndSignTx builds a transaction carrying all of tx's messages, simulates
// gas, then signs it with the signer's key.
func (c *Client) BuildAndSignTx(ctx context.Context, signer types.Signer, tx types.Tx) ([]byte, error) {
	if len(tx.Msgs) == 0 {
		return nil, fmt.Errorf("tx has no messages")
	}

	builder := c.txConfig.NewTxBuilder()
	if err := builder.SetMsgs(tx.Msgs...); err != nil {
		return nil, fmt.Errorf("set msgs: %w", err)
	}
	if tx.Memo != "" {
		builder.SetMemo(tx.Memo)
	}

	// Resolve account number/sequence BEFORE simulation
	addr, err := sdkcrypto.AddressFromKey(signer.Keyring, signer.KeyName, c.config.AccountHRP)
	if err != nil {
		return nil, fmt.Errorf("signer address: %w", err)
	}
	acctResp, err := c.auth.AccountInfo(ctx, &authtypes.QueryAccountInfoRequest{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("query account info: %w", err)
	}
	if acctResp == nil || acctResp.Info == nil {
		return nil, fmt.Errorf("empty account info response")
	}

	// Simulate with a placeholder signature carrying the real sequence
	rec, err := signer.Keyring.Key(signer.KeyName)
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", signer.KeyName, err)
	}
	pk, err := rec.GetPubKey()
	if err != nil {
		return nil, fmt.Errorf("get pubkey for %q: %w", signer.KeyName, err)
	}
	placeholder := signingtypes.SignatureV2{
		PubKey: pk,
		Data: &signingtypes.SingleSignatureData{
			SignMode: signingtypes.SignMode(c.txConfig.SignModeHandler().DefaultMode()),
		},
		Sequence: acctResp.Info.Sequence,
	}
	if err := builder.SetSignatures(placeholder); err != nil {
		return nil, fmt.Errorf("set placeholder signature: %w", err)
	}
	unsignedBytes, err := c.txConfig.TxEncoder()(builder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("encode unsigned tx: %w", err)
	}

	gas := uint64(defaultGasLimit)
	if gasUsed, err := c.Simulate(ctx, unsignedBytes); err != nil {
		c.logger.Warn("gas simulation failed, using default gas", zap.Uint64("gas", gas), zap.Error(err))
	} else if gasUsed > 0 {
		gas = uint64(float64(gasUsed) * gasAdjustment)
	}
	builder.SetGasLimit(gas)

	if err := builder.SetSignatures(); err != nil {
		return nil, fmt.Errorf("clear placeholder signature: %w", err)
	}

	fee := c.config.GasPrice.MulInt64(int64(gas)).Ceil().TruncateInt()
	builder.SetFeeAmount(sdk.NewCoins(sdk.NewCoin(c.config.FeeDenom, fee)))

	if err := sdkcrypto.SignTx(
		ctx, c.txConfig, signer, builder,
		c.config.ChainID, acctResp.Info.AccountNumber, acctResp.Info.Sequence,
	); err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	signedBytes, err := c.txConfig.TxEncoder()(builder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("encode signed tx: %w", err)
	}
	return signedBytes, nil
}
