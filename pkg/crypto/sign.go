package crypto

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/LumeraProtocol/testnet-seeder/types"
)

// SignTx signs the provided TxBuilder with the signer's keyring identity.
// The caller must supply chainID, account number and sequence.
func SignTx(
	ctx context.Context,
	txCfg client.TxConfig,
	signer types.Signer,
	builder client.TxBuilder,
	chainID string,
	accountNumber uint64,
	sequence uint64,
) error {
	if signer.Keyring == nil {
		return fmt.Errorf("signer keyring is nil")
	}
	factory := tx.Factory{}.
		WithChainID(chainID).
		WithTxConfig(txCfg).
		WithAccountNumber(accountNumber).
		WithSequence(sequence).
		WithKeybase(signer.Keyring)

	return tx.Sign(ctx, factory, signer.KeyName, builder, true)
}
