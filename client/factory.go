package client

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
)

// Factory keeps a base configuration and keyring so callers can easily create
// per-signer clients without re-specifying shared settings.
type Factory struct {
	baseCfg Config
	keyring keyring.Keyring
	opts    []Option
}

// NewFactory captures the shared configuration and keyring.
func NewFactory(cfg Config, kr keyring.Keyring, opts ...Option) (*Factory, error) {
	if kr == nil {
		return nil, fmt.Errorf("keyring is required")
	}
	return &Factory{
		baseCfg: cfg,
		keyring: kr,
		opts:    append([]Option{}, opts...),
	}, nil
}

// WithSigner returns a Client signing with keyName. Extra options
// override/extend the factory defaults for this instance.
func (f *Factory) WithSigner(ctx context.Context, keyName string, extraOpts ...Option) (*Client, error) {
	if keyName == "" {
		return nil, fmt.Errorf("key name is required")
	}
	if _, err := f.keyring.Key(keyName); err != nil {
		return nil, fmt.Errorf("key %s not found: %w", keyName, err)
	}

	opts := append([]Option{}, f.opts...)
	opts = append(opts, extraOpts...)

	return New(ctx, f.baseCfg, f.keyring, keyName, opts...)
}

// Keyring returns the shared keyring.
func (f *Factory) Keyring() keyring.Keyring {
	return f.keyring
}
