package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/api"
	"github.com/agefix/agxcl/wallet"
)

func newNetworkCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "network [mainnet|testnet]",
		Short: "Show or change network",
		Long: `Show the current network or switch between mainnet and testnet.

Custom networks from networks.yaml are selected per command with --network.

Examples:
  agxcl network            # Show current network
  agxcl network mainnet    # Switch to mainnet
  agxcl network testnet    # Switch to testnet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no arguments provided, show current network
			if len(args) == 0 {
				return showCurrentNetwork(cmd.OutOrStdout(), opts)
			}

			network := strings.ToLower(args[0])
			if network != wallet.NetworkMainnet && network != wallet.NetworkTestnet {
				return fmt.Errorf("invalid network: %s. Use 'mainnet' or 'testnet'", network)
			}
			return setNetwork(cmd.OutOrStdout(), opts, network)
		},
	}
}

func showCurrentNetwork(out io.Writer, opts *globalOptions) error {
	network := opts.activeNetwork()
	cfg, err := opts.resolveConfig()
	if err != nil {
		return err
	}

	var label string
	switch network {
	case api.NetworkMainnet:
		label = color.GreenString("Mainnet")
	case api.NetworkTestnet:
		label = color.YellowString("Testnet")
	default:
		label = color.YellowString(network)
	}
	fmt.Fprintf(out, "🌐 Current network: %s\n", label)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Network details:")
	fmt.Fprintf(out, "   - RPC URL:  %s\n", cfg.RPCURL)
	fmt.Fprintf(out, "   - Chain ID: %s\n", cfg.ChainID)

	defs, err := opts.loadNetworks()
	if err != nil {
		return err
	}
	if names := defs.Names(); len(names) > 0 {
		fmt.Fprintf(out, "   - Custom networks: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(out, "💡 Mainnet and testnet keys use different derivation paths")
	return nil
}

func setNetwork(out io.Writer, opts *globalOptions, network string) error {
	if err := wallet.WriteNetwork(opts.home, network); err != nil {
		return err
	}

	fmt.Fprintf(out, "🌐 Switched to %s network\n", strings.ToUpper(network))
	fmt.Fprintln(out)
	if network == wallet.NetworkTestnet {
		fmt.Fprintln(out, "⚠️  You are now on TESTNET mode")
		fmt.Fprintf(out, "   - RPC URL:  %s\n", api.TestnetRPC)
		fmt.Fprintf(out, "   - Chain ID: %s\n", api.TestnetChainID)
	} else {
		fmt.Fprintln(out, "✅ You are now on MAINNET mode")
		fmt.Fprintf(out, "   - RPC URL:  %s\n", api.MainnetRPC)
		fmt.Fprintf(out, "   - Chain ID: %s\n", api.MainnetChainID)
	}
	fmt.Fprintln(out, "🔐 Run 'agxcl key unlock' again, sessions are bound to a network")
	return nil
}
