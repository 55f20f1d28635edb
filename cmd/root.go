package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agefix/agxcl/api"
)

var (
	version = api.Version
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	rpcURL       string
	chainID      string
	network      string
	networksFile string
	timeout      time.Duration
	retries      int
	verbose      bool

	home string
	log  *zap.Logger
}

// NewRootCmd builds the agxcl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "agxcl",
		Short: "Deploy and call AGXCL smart contracts on AgeFix",
		Long: `agxcl is a command-line client for the AgeFix AGXCL contract RPC service.
It deploys contracts, queries and executes contract methods, fetches receipts
and balances, and keeps an encrypted local signing key.

Features:
  • Contract deployment, queries and transactions
  • Token and NFT contract helpers
  • BIP-39 recovery phrase and encrypted key vault
  • Mainnet, testnet and custom networks from a YAML file
  • Local deployment history with CSV/JSON/TXT export

Configuration precedence:
  flags > AGXCL_* environment > networks.yaml > built-in presets

Examples:
  agxcl key init                                  # Create a signing key
  agxcl key unlock                                # Unlock it for 30 minutes
  agxcl token deploy "My Token" MTK 1000000       # Deploy a token
  agxcl token balance 0xabc... 0xuser...          # Query a token balance
  agxcl execute 0xabc... transfer 0xto... 100     # Call a contract method
  agxcl receipt 0x1234... --wait                  # Wait for a receipt
  agxcl network testnet                           # Switch to testnet`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.rpcURL, "rpc-url", "", "RPC endpoint (overrides "+api.EnvRPCURL+")")
	flags.StringVar(&opts.chainID, "chain-id", "", "chain identifier (overrides "+api.EnvChainID+")")
	flags.StringVarP(&opts.network, "network", "n", "", "network name: mainnet, testnet or one from the networks file")
	flags.StringVar(&opts.networksFile, "networks", "", "YAML file with network definitions (default ~/.agxcl/networks.yaml)")
	flags.DurationVar(&opts.timeout, "timeout", api.DefaultTimeout, "per-request timeout")
	flags.IntVar(&opts.retries, "retries", 0, "retries for read-only calls")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(
		newDeployCmd(opts),
		newQueryCmd(opts),
		newExecuteCmd(opts),
		newReceiptCmd(opts),
		newBalanceCmd(opts),
		newEstimateGasCmd(opts),
		newTokenCmd(opts),
		newNFTCmd(opts),
		newKeyCmd(opts),
		newNetworkCmd(opts),
		newDeploymentsCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with os.Args. An interrupt cancels the
// request in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *globalOptions) init() error {
	if o.home == "" {
		home, err := homeDir()
		if err != nil {
			return err
		}
		o.home = home
	}
	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		o.log = logger
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agxcl v%s\n", version)
		},
	}
}
