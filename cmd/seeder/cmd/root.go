package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	seeder "github.com/LumeraProtocol/testnet-seeder/client"
	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	sdkcrypto "github.com/LumeraProtocol/testnet-seeder/pkg/crypto"
	sdklog "github.com/LumeraProtocol/testnet-seeder/pkg/log"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags
	cfgFile  string
	logLevel string
	devLog   bool
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Seed a test network with demo accounts and assets",
	Long: `seeder submits signed transactions to a test network and waits for
their success events before moving on.

Configuration (in order of priority):
  1. Environment variables (SEEDER_CHAIN_ID, SEEDER_GRPC_ADDR, SEEDER_CONFIRM_TX_MAX_WAIT, ...)
  2. Config file (--config)
  3. Built-in defaults

Signer mnemonics are read from SEEDER_<NAME>_MNEMONIC, e.g. SEEDER_FAUCET_MNEMONIC.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seeder version %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human-readable console logs")

	rootCmd.AddCommand(versionCmd)
}

// session bundles what every seeding command needs.
type session struct {
	cfg     clientconfig.Config
	factory *seeder.Factory
	logger  *zap.Logger
}

func newSession() (*session, error) {
	logger, err := sdklog.New(logLevel, devLog)
	if err != nil {
		return nil, err
	}
	cfg, err := clientconfig.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logger = logger

	kr, err := sdkcrypto.NewKeyring(sdkcrypto.DefaultKeyringParams())
	if err != nil {
		return nil, fmt.Errorf("create keyring: %w", err)
	}
	factory, err := seeder.NewFactory(cfg, kr)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, factory: factory, logger: logger}, nil
}

// importSigner loads the mnemonic for name from SEEDER_<NAME>_MNEMONIC and
// returns the account address.
func (s *session) importSigner(name string) (string, error) {
	v := viper.New()
	v.SetEnvPrefix(clientconfig.EnvPrefix)
	key := name + "_mnemonic"
	if err := v.BindEnv(key); err != nil {
		return "", err
	}
	mnemonic := v.GetString(key)
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic for %s not set", name)
	}
	return sdkcrypto.ImportMnemonic(s.factory.Keyring(), name, mnemonic, s.cfg.AccountHRP)
}
