package config

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SEEDER_CONFIRM_TX_MAX_RETRIES.
const EnvPrefix = "SEEDER"

// Load reads configuration from an optional YAML file and SEEDER_* environment
// variables on top of Default(). An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("chain_id", def.ChainID)
	v.SetDefault("grpc_addr", def.GRPCEndpoint)
	v.SetDefault("rpc_addr", def.RPCEndpoint)
	v.SetDefault("insecure_grpc", def.InsecureGRPC)
	v.SetDefault("account_hrp", def.AccountHRP)
	v.SetDefault("fee_denom", def.FeeDenom)
	v.SetDefault("gas_price", def.GasPrice.String())
	v.SetDefault("blockchain_timeout", def.BlockchainTimeout)
	v.SetDefault("event_source", def.EventSource)
	v.SetDefault("confirm_tx.settle_delay", def.ConfirmTx.SettleDelay)
	v.SetDefault("confirm_tx.max_retries", def.ConfirmTx.MaxRetries)
	v.SetDefault("confirm_tx.initial_backoff", def.ConfirmTx.InitialBackoff)
	v.SetDefault("confirm_tx.max_wait", def.ConfirmTx.MaxWait)
}

func fromViper(v *viper.Viper) (Config, error) {
	gasPrice, err := sdkmath.LegacyNewDecFromStr(v.GetString("gas_price"))
	if err != nil {
		return Config{}, fmt.Errorf("parse gas_price: %w", err)
	}

	cfg := Config{
		ChainID:           v.GetString("chain_id"),
		GRPCEndpoint:      v.GetString("grpc_addr"),
		RPCEndpoint:       v.GetString("rpc_addr"),
		InsecureGRPC:      v.GetBool("insecure_grpc"),
		AccountHRP:        v.GetString("account_hrp"),
		FeeDenom:          v.GetString("fee_denom"),
		GasPrice:          gasPrice,
		BlockchainTimeout: v.GetDuration("blockchain_timeout"),
		EventSource:       v.GetString("event_source"),
		ConfirmTx: ConfirmTxConfig{
			SettleDelay:    v.GetDuration("confirm_tx.settle_delay"),
			MaxRetries:     v.GetInt("confirm_tx.max_retries"),
			InitialBackoff: v.GetDuration("confirm_tx.initial_backoff"),
			MaxWait:        v.GetDuration("confirm_tx.max_wait"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
