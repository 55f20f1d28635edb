package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newKeyAddressCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Show the signing address",
		Long: `Show the account address of your signing key for the active network.
Mainnet and testnet use different derivation paths, so the addresses differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := opts.manager()

			// Check if unlocked
			if !manager.IsUnlocked() {
				return fmt.Errorf("key is locked. Run 'agxcl key unlock' first")
			}

			address, err := manager.Address()
			if err != nil {
				return fmt.Errorf("failed to get address: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🌐 Network: %s\n", strings.ToUpper(manager.Network()))
			fmt.Fprintf(out, "🔑 Address: %s\n", address.Hex())
			return nil
		},
	}
}
