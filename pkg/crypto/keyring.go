package crypto

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/x/tx/signing"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/go-bip39"
	"github.com/cosmos/gogoproto/proto"
)

// KeyringParams holds configuration for initializing a Cosmos keyring.
type KeyringParams struct {
	// AppName names the keyring namespace. Default: "seeder"
	AppName string
	// Backend selects the keyring backend ("memory" | "os" | "file" | "test"). Default: "memory"
	Backend string
	// Dir is the root directory for the keyring (if Backend="file" or "test"). Default: $HOME/.seeder
	Dir string
	// Input is an optional io.Reader for interactive backends (nil for non-interactive)
	Input io.Reader
}

// DefaultKeyringParams returns an in-memory keyring rooted at $HOME/.seeder.
// Seeding accounts are imported from mnemonics on every run, so nothing is persisted.
func DefaultKeyringParams() KeyringParams {
	home, _ := os.UserHomeDir()
	return KeyringParams{
		AppName: "seeder",
		Backend: keyring.BackendMemory,
		Dir:     filepath.Join(home, ".seeder"),
	}
}

// NewKeyring creates a new Cosmos keyring with the provided parameters.
func NewKeyring(p KeyringParams) (keyring.Keyring, error) {
	def := DefaultKeyringParams()
	app := p.AppName
	if app == "" {
		app = def.AppName
	}
	backend := p.Backend
	if backend == "" {
		backend = def.Backend
	}
	dir := p.Dir
	if dir == "" {
		dir = def.Dir
	}
	in := p.Input
	if in == nil {
		in = bufio.NewReader(os.Stdin)
	}

	// Create a proto codec for keyring operations
	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	return keyring.New(app, backend, dir, in, cdc)
}

// ImportMnemonic imports the mnemonic under keyName unless the key already
// exists, returning the account address for the provided HRP.
func ImportMnemonic(kr keyring.Keyring, keyName, mnemonic, hrp string) (string, error) {
	if kr == nil {
		return "", fmt.Errorf("keyring is nil")
	}
	if keyName == "" {
		return "", fmt.Errorf("key name is required")
	}
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("invalid mnemonic for key %s", keyName)
	}

	if _, err := kr.Key(keyName); err != nil {
		if _, err := kr.NewAccount(keyName, mnemonic, "", sdk.FullFundraiserPath, hd.Secp256k1); err != nil {
			return "", fmt.Errorf("import key: %w", err)
		}
	}
	return AddressFromKey(kr, keyName, hrp)
}

// ImportMnemonicFile is ImportMnemonic with the mnemonic read from a file.
func ImportMnemonicFile(kr keyring.Keyring, keyName, mnemonicFile, hrp string) (string, error) {
	mnemonic, err := readMnemonicFile(mnemonicFile)
	if err != nil {
		return "", err
	}
	return ImportMnemonic(kr, keyName, mnemonic, hrp)
}

// NewDefaultTxConfig constructs a client.TxConfig backed by a protobuf codec
// whose signer extraction uses bech32 addresses with the given HRP.
func NewDefaultTxConfig(hrp string) (client.TxConfig, error) {
	reg, err := codectypes.NewInterfaceRegistryWithOptions(codectypes.InterfaceRegistryOptions{
		ProtoFiles: proto.HybridResolver,
		SigningOptions: signing.Options{
			AddressCodec:          address.NewBech32Codec(hrp),
			ValidatorAddressCodec: address.NewBech32Codec(hrp + sdk.PrefixValidator + sdk.PrefixOperator),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("interface registry: %w", err)
	}
	std.RegisterInterfaces(reg)
	banktypes.RegisterInterfaces(reg)

	cdc := codec.NewProtoCodec(reg)
	return authtx.NewTxConfig(cdc, authtx.DefaultSignModes), nil
}

func readMnemonicFile(mnemonicFile string) (string, error) {
	mnemonicRaw, err := os.ReadFile(mnemonicFile)
	if err != nil {
		return "", fmt.Errorf("read mnemonic file: %w", err)
	}
	mnemonic := strings.TrimSpace(string(mnemonicRaw))
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic file is empty")
	}
	return mnemonic, nil
}
