package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/wallet"
)

// AGX has 18 decimal places; balances are reported in the smallest unit.
const agxDecimals = 18

func newBalanceCmd(opts *globalOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Check an AGX balance",
		Long: `Check the AGX balance of an address. Without an address the balance of the
unlocked wallet is shown.

Examples:
  agxcl balance 0xabc...     # Check a specific address
  agxcl balance              # Check your own balance
  agxcl balance --raw        # Show the balance in the smallest unit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(cmd, opts, args, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the balance in the smallest unit")
	return cmd
}

func runBalance(cmd *cobra.Command, opts *globalOptions, args []string, raw bool) error {
	var address string
	if len(args) == 1 {
		address = args[0]
	} else {
		manager := wallet.NewManagerAt(opts.home)
		if !manager.IsUnlocked() {
			return fmt.Errorf("wallet is locked. Run 'agxcl key unlock' first or pass an address")
		}
		addr, err := manager.Address()
		if err != nil {
			return fmt.Errorf("failed to get address: %w", err)
		}
		address = addr.Hex()
	}

	client, err := opts.newClient(false)
	if err != nil {
		return err
	}

	balance, err := client.GetBalance(cmd.Context(), address)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if raw {
		fmt.Fprintln(out, balance)
		return nil
	}
	fmt.Fprintln(out, "💰 AGX Balance")
	fmt.Fprintf(out, "🌐 Network: %s\n", opts.activeNetwork())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   %s AGX\n", formatAGX(balance))
	fmt.Fprintf(out, "   📍 Address: %s\n", address)
	return nil
}

// formatAGX converts a balance in the smallest unit to AGX. Values that do
// not parse as numbers are returned unchanged.
func formatAGX(balance string) string {
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return balance
	}
	return d.Shift(-agxDecimals).String()
}
