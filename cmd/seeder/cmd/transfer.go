package cmd

import (
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sdkcrypto "github.com/LumeraProtocol/testnet-seeder/pkg/crypto"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

var (
	fromKey  string
	amount   int64
	denom    string
	memo     string
	clearing bool
)

var fundCmd = &cobra.Command{
	Use:   "fund <account>...",
	Short: "Fund accounts from the faucet in one atomic batch",
	Long: `Fund sends --amount to every account in a single multi-message
transaction and waits for Utility.BatchCompleted.

An account is either a bech32 address or a key name whose mnemonic is set in
SEEDER_<NAME>_MNEMONIC.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFund,
}

var sendCmd = &cobra.Command{
	Use:   "send <account>",
	Short: "Send a single transfer and wait for System.ExtrinsicSuccess",
	Long: `Send transfers --amount to one account and waits for System.ExtrinsicSuccess.

With --clearing it waits for AddressPools.CTProcessingCompleted instead, which
only chains running an address pools module emit.`,
	Args: cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	for _, c := range []*cobra.Command{fundCmd, sendCmd} {
		c.Flags().StringVar(&fromKey, "from", "faucet", "key name of the sender")
		c.Flags().Int64Var(&amount, "amount", 0, "amount per account, in base units")
		c.Flags().StringVar(&denom, "denom", "", "coin denom (default: fee denom)")
		c.Flags().StringVar(&memo, "memo", "", "transaction memo")
		_ = c.MarkFlagRequired("amount")
		rootCmd.AddCommand(c)
	}
	sendCmd.Flags().BoolVar(&clearing, "clearing", false, "wait for AddressPools.CTProcessingCompleted instead")
}

func runFund(cmd *cobra.Command, args []string) error {
	return transfer(cmd, args, true)
}

func runSend(cmd *cobra.Command, args []string) error {
	return transfer(cmd, args, false)
}

func transfer(cmd *cobra.Command, recipients []string, batch bool) error {
	if amount <= 0 {
		return fmt.Errorf("--amount must be positive")
	}
	start := time.Now()

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.logger.Sync() //nolint:errcheck

	from, err := s.importSigner(fromKey)
	if err != nil {
		return err
	}
	coinDenom := denom
	if coinDenom == "" {
		coinDenom = s.cfg.FeeDenom
	}
	coins := sdk.NewCoins(sdk.NewCoin(coinDenom, sdkmath.NewInt(amount)))

	tx := types.Tx{Memo: memo}
	for _, r := range recipients {
		to, err := s.resolveAccount(r)
		if err != nil {
			return err
		}
		tx.Msgs = append(tx.Msgs, &banktypes.MsgSend{FromAddress: from, ToAddress: to, Amount: coins})
	}

	c, err := s.factory.WithSigner(cmd.Context(), fromKey)
	if err != nil {
		return err
	}
	defer c.Close() //nolint:errcheck

	var res types.TxResult
	switch {
	case batch:
		res, err = c.SubmitBatchTx(cmd.Context(), tx)
	case clearing:
		res, err = c.SubmitClearingTx(cmd.Context(), tx)
	default:
		res, err = c.SubmitTx(cmd.Context(), tx)
	}
	if err != nil {
		s.logger.Error("transfer failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s %s to %d account(s) in tx %s (%d events, %s)\n",
		humanize.Comma(amount), coinDenom, len(recipients), res.TxHash, len(res.Events),
		humanize.RelTime(start, time.Now(), "", ""))
	return nil
}

// resolveAccount returns account as is when it is an address for the configured
// HRP, otherwise imports it as a named signer.
func (s *session) resolveAccount(account string) (string, error) {
	if strings.HasPrefix(account, s.cfg.AccountHRP+"1") {
		if err := sdkcrypto.ValidateAddress(account, s.cfg.AccountHRP); err != nil {
			return "", err
		}
		return account, nil
	}
	return s.importSigner(account)
}
