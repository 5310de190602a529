package client

import clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"

// Config re-exports the config.Config type.
type Config = clientconfig.Config

// ConfirmTxConfig re-exports the confirmation config type.
type ConfirmTxConfig = clientconfig.ConfirmTxConfig

// DefaultConfig mirrors config.Default.
func DefaultConfig() Config {
	return clientconfig.Default()
}

// DefaultConfirmTxConfig mirrors config.DefaultConfirmTxConfig.
func DefaultConfirmTxConfig() ConfirmTxConfig {
	return clientconfig.DefaultConfirmTxConfig()
}
