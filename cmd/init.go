package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeyInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new signing key",
		Long: `Create a new signing key with a secure recovery phrase.

This command will:
  - Generate a new 24-word recovery phrase
  - Derive the signing key (m/44'/60'/0'/0/0, m/44'/1'/0'/0/0 on testnet)
  - Create an encrypted vault`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyInit(cmd, opts)
		},
	}
}

func runKeyInit(cmd *cobra.Command, opts *globalOptions) error {
	manager := opts.manager()
	out := cmd.OutOrStdout()

	// Check if a key already exists
	if manager.VaultExists() {
		return fmt.Errorf("key already exists. Remove %s/key.vault to create a new one", opts.home)
	}

	fmt.Fprintln(out, "🚀 Creating AGXCL signing key")
	fmt.Fprintln(out)

	password, err := promptNewPassword(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Generating key...")
	mnemonic, err := manager.Initialize(password)
	if err != nil {
		return fmt.Errorf("failed to initialize key: %w", err)
	}
	address, err := manager.Address()
	if err != nil {
		return fmt.Errorf("failed to derive address: %w", err)
	}

	fmt.Fprintln(out, "✅ Key created successfully!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "🔐 Recovery Phrase (24 words):")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   %s\n", mnemonic)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "📍 Address (%s): %s\n", manager.Network(), address.Hex())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "⚠️  IMPORTANT:")
	fmt.Fprintln(out, "   - Write down this recovery phrase and store it securely")
	fmt.Fprintln(out, "   - Anyone with this phrase can sign transactions as you")
	fmt.Fprintln(out, "   - This is the only way to recover your key")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "🔑 Next steps:")
	fmt.Fprintln(out, "   - Run 'agxcl balance' to check your balance")
	fmt.Fprintln(out, "   - Run 'agxcl token deploy' to deploy your first token")

	return nil
}
