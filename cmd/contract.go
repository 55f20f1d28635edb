package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/api"
	"github.com/agefix/agxcl/ledger"
)

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "deploy <file>",
		Short: "Deploy an AGXCL contract",
		Long: `Deploy AGXCL contract source code. Use "-" to read the source from stdin.

Constructor arguments are passed with --args-json.

Examples:
  agxcl deploy counter.agx
  agxcl deploy vault.agx --args-json '["0xowner", 1000]'
  cat counter.agx | agxcl deploy -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, opts, args[0], argsJSON)
		},
	}
	addArgsFlag(cmd, &argsJSON)
	return cmd
}

func runDeploy(cmd *cobra.Command, opts *globalOptions, path, argsJSON string) error {
	code, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	constructorArgs, err := contractArgs(nil, argsJSON)
	if err != nil {
		return err
	}

	client, err := opts.newClient(true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🚀 Deploying contract...")
	res, err := client.DeployContract(cmd.Context(), code, constructorArgs)
	if err != nil {
		return err
	}

	name := ""
	if path != "-" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	opts.recordDeployment(cmd, client, ledger.Entry{
		Kind:            ledger.KindContract,
		Name:            name,
		ContractAddress: res.ContractAddress,
		TxHash:          res.TransactionHash,
		BlockNumber:     res.BlockNumber,
	})
	printDeployment(out, res)
	return nil
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read contract source: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("contract source is empty")
	}
	return string(data), nil
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "query <address> <method> [args...]",
		Short: "Call a read-only contract method",
		Long: `Call a read-only contract method. Positional arguments are sent as
strings; use --args-json for typed arguments.

Examples:
  agxcl query 0xabc... balanceOf 0xuser...
  agxcl query 0xabc... ownerOf --args-json '[1]'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := contractArgs(args[2:], argsJSON)
			if err != nil {
				return err
			}
			client, err := opts.newClient(false)
			if err != nil {
				return err
			}

			res := client.QueryContract(cmd.Context(), args[0], args[1], callArgs)
			if !res.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ %s\n", color.RedString(res.Error))
				return fmt.Errorf("query %s failed", args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}
	addArgsFlag(cmd, &argsJSON)
	return cmd
}

func newExecuteCmd(opts *globalOptions) *cobra.Command {
	var (
		argsJSON string
		value    string
	)
	cmd := &cobra.Command{
		Use:   "execute <address> <method> [args...]",
		Short: "Send a transaction calling a contract method",
		Long: `Send a state-changing transaction to a contract method. Requires a signing
key from AGXCL_PRIVATE_KEY or an unlocked wallet.

Examples:
  agxcl execute 0xabc... transfer 0xto... 100
  agxcl execute 0xabc... deposit --value 1.5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := contractArgs(args[2:], argsJSON)
			if err != nil {
				return err
			}
			client, err := opts.newClient(true)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "📤 Executing %s...\n", args[1])
			res, err := client.ExecuteTransaction(cmd.Context(), args[0], args[1], callArgs, value)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addArgsFlag(cmd, &argsJSON)
	cmd.Flags().StringVar(&value, "value", "0", "AGX to send with the transaction")
	return cmd
}

func newEstimateGasCmd(opts *globalOptions) *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "estimate-gas <address> <method> [args...]",
		Short: "Estimate gas for a contract call",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := contractArgs(args[2:], argsJSON)
			if err != nil {
				return err
			}
			client, err := opts.newClient(false)
			if err != nil {
				return err
			}

			gas, err := client.EstimateGas(cmd.Context(), args[0], args[1], callArgs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⛽ Estimated gas: %d\n", gas)
			return nil
		},
	}
	addArgsFlag(cmd, &argsJSON)
	return cmd
}

func printDeployment(out io.Writer, res *api.DeploymentResult) {
	fmt.Fprintln(out, "✅ Contract deployed successfully!")
	fmt.Fprintf(out, "   Address: %s\n", color.GreenString(res.ContractAddress))
	fmt.Fprintf(out, "   Tx Hash: %s\n", res.TransactionHash)
	fmt.Fprintf(out, "   Block:   %d\n", res.BlockNumber)
}

func printTransaction(out io.Writer, res *api.TransactionResult) {
	fmt.Fprintln(out, "✅ Transaction confirmed!")
	fmt.Fprintf(out, "   Tx Hash:  %s\n", color.GreenString(res.TxHash))
	fmt.Fprintf(out, "   Block:    %d\n", res.BlockNumber)
	fmt.Fprintf(out, "   Gas Used: %d\n", res.GasUsed)
}
