package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/wallet"
)

func newKeyRecoveryPhraseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recovery-phrase",
		Short: "Show the recovery phrase",
		Long: `Display the recovery phrase (mnemonic) of an unlocked key.
Keys imported from a raw private key have no recovery phrase.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRecoveryPhrase(cmd, opts.manager())
		},
	}
}

func showRecoveryPhrase(cmd *cobra.Command, manager *wallet.Manager) error {
	out := cmd.OutOrStdout()

	// Check if a key exists
	if !manager.VaultExists() {
		return fmt.Errorf("no key found. Run 'agxcl key init' first")
	}

	// Check if unlocked
	if !manager.IsUnlocked() {
		return fmt.Errorf("key is locked. Run 'agxcl key unlock' first")
	}

	mnemonic, err := manager.Mnemonic()
	if err != nil {
		if errors.Is(err, wallet.ErrNoMnemonic) {
			return err
		}
		return fmt.Errorf("failed to get mnemonic: %w", err)
	}

	fmt.Fprintln(out, "🔐 Recovery Phrase:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   %s\n", mnemonic)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "⚠️  Security Warning:")
	fmt.Fprintln(out, "   - Keep this phrase secure and private")
	fmt.Fprintln(out, "   - Anyone with this phrase can sign transactions as you")
	fmt.Fprintln(out, "   - Never share it with anyone")

	return nil
}

func newKeyImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import a recovery phrase or private key",
		Long: `Import an existing key. Enter either a BIP-39 recovery phrase or a
hex-encoded secp256k1 private key when prompted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return importKey(cmd, opts.manager())
		},
	}
}

func importKey(cmd *cobra.Command, manager *wallet.Manager) error {
	out := cmd.OutOrStdout()

	// Check if a key already exists
	if manager.VaultExists() {
		return fmt.Errorf("key already exists. Remove the existing key first")
	}

	fmt.Fprintln(out, "📝 Import Signing Key")
	fmt.Fprintln(out)

	secret, err := readPassword(cmd, "Enter recovery phrase or private key: ")
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("nothing to import")
	}

	password, err := promptNewPassword(cmd)
	if err != nil {
		return err
	}

	if isMnemonic(secret) {
		err = manager.ImportFromMnemonic(secret, password)
	} else {
		err = manager.ImportPrivateKey(secret, password)
	}
	if err != nil {
		return fmt.Errorf("failed to import key: %w", err)
	}

	address, err := manager.Address()
	if err != nil {
		return fmt.Errorf("failed to derive address: %w", err)
	}

	fmt.Fprintln(out, "✅ Key imported successfully!")
	fmt.Fprintf(out, "📍 Address (%s): %s\n", manager.Network(), address.Hex())
	return nil
}

func isMnemonic(secret string) bool {
	return len(strings.Fields(secret)) > 1
}
