package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/wallet"
)

func newKeyCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the local signing key",
		Long: `Manage the encrypted signing key used for deployments and transactions.

The key is stored in ~/.agxcl/key.vault, encrypted with scrypt and AES-256-GCM.
Unlocking keeps it available for 30 minutes. AGXCL_PRIVATE_KEY, when set,
takes precedence over the vault.

Examples:
  agxcl key init                 # Create a key with a new recovery phrase
  agxcl key import               # Import a recovery phrase or hex key
  agxcl key unlock               # Unlock for 30 minutes
  agxcl key address              # Show the signing address
  agxcl key recovery-phrase      # Show the recovery phrase
  agxcl key lock                 # Forget the unlocked key`,
	}

	cmd.AddCommand(
		newKeyInitCmd(opts),
		newKeyImportCmd(opts),
		newKeyUnlockCmd(opts),
		newKeyLockCmd(opts),
		newKeyAddressCmd(opts),
		newKeyRecoveryPhraseCmd(opts),
	)
	return cmd
}

func (o *globalOptions) manager() *wallet.Manager {
	return wallet.NewManagerAt(o.home)
}
