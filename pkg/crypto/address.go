package crypto

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdkbech32 "github.com/cosmos/cosmos-sdk/types/bech32"
)

// AddressFromKey derives the bech32 account address for hrp from the public
// key stored under keyName. The global bech32 config is left untouched.
func AddressFromKey(kr keyring.Keyring, keyName, hrp string) (string, error) {
	if kr == nil {
		return "", fmt.Errorf("keyring is required")
	}
	if keyName == "" {
		return "", fmt.Errorf("key name is required")
	}
	rec, err := kr.Key(keyName)
	if err != nil {
		return "", fmt.Errorf("key %s not found: %w", keyName, err)
	}
	pub, err := rec.GetPubKey()
	if err != nil {
		return "", fmt.Errorf("get pubkey: %w", err)
	}
	if pub == nil {
		return "", fmt.Errorf("nil pubkey for key %s", keyName)
	}
	return sdkbech32.ConvertAndEncode(hrp, pub.Address())
}

// ValidateAddress checks that addr is a well-formed bech32 address for hrp.
func ValidateAddress(addr, hrp string) error {
	gotHRP, bz, err := sdkbech32.DecodeAndConvert(addr)
	if err != nil {
		return fmt.Errorf("decode %s: %w", addr, err)
	}
	if gotHRP != hrp {
		return fmt.Errorf("address %s has prefix %q, want %q", addr, gotHRP, hrp)
	}
	if len(bz) == 0 {
		return fmt.Errorf("address %s is empty", addr)
	}
	return nil
}
