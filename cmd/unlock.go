package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/crypto"
	"github.com/agefix/agxcl/wallet"
)

func newKeyUnlockCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the signing key for 30 minutes",
		Long: `Unlock your signing key for the current session.
The vault is decrypted and the key stays available for 30 minutes or until
you run 'agxcl key lock'. Sessions are bound to the active network.

Example:
  agxcl key unlock`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyUnlock(cmd, opts)
		},
	}
}

func runKeyUnlock(cmd *cobra.Command, opts *globalOptions) error {
	manager := opts.manager()
	out := cmd.OutOrStdout()

	// Check if a key exists
	if !manager.VaultExists() {
		return fmt.Errorf("no key found. Run 'agxcl key init' to create one")
	}

	// Check if already unlocked
	if manager.IsUnlocked() {
		fmt.Fprintln(out, "✅ Key is already unlocked")
		return nil
	}

	password, err := readPassword(cmd, "Enter your key password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprintln(out, "Unlocking key...")
	if err := manager.Unlock(password); err != nil {
		if errors.Is(err, crypto.ErrInvalidPassword) {
			return fmt.Errorf("failed to unlock key: wrong password")
		}
		return fmt.Errorf("failed to unlock key: %w", err)
	}

	fmt.Fprintf(out, "✅ Key unlocked for %d minutes\n", wallet.SessionDuration)
	fmt.Fprintln(out, "💡 Use 'agxcl key address' to see your address")
	return nil
}

func newKeyLockCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Lock the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.manager().Lock()
			fmt.Fprintln(cmd.OutOrStdout(), "🔒 Key locked")
			return nil
		},
	}
}
