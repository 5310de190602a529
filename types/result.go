package types

import (
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Signer is a keyring identity used to authorize a transaction. The keyring is
// owned by the caller; submissions only borrow it while signing.
type Signer struct {
	Keyring keyring.Keyring
	KeyName string
}

// Tx is a transaction payload. Multiple messages are executed atomically.
type Tx struct {
	Msgs []sdk.Msg
	Memo string
}

// TxResult contains the confirmed outcome of a submission
type TxResult struct {
	TxHash TxHandle
	Events []EventRecord
}
