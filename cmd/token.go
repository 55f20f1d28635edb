package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/contracts"
	"github.com/agefix/agxcl/ledger"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Deploy and use token contracts",
		Long: `Deploy and use ERC-20 style token contracts.

Examples:
  agxcl token deploy "My Token" MTK 1000000
  agxcl token balance 0xtoken... 0xuser...
  agxcl token transfer 0xtoken... 0xto... 100
  agxcl token approve 0xtoken... 0xspender... 50
  agxcl token transfer-from 0xtoken... 0xfrom... 0xto... 25`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "deploy <name> <symbol> <total-supply>",
			Short: "Deploy a new token",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				token := contracts.NewToken(client, "")

				fmt.Fprintf(cmd.OutOrStdout(), "🚀 Deploying token %s (%s)...\n", args[0], args[1])
				res, err := token.Deploy(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				opts.recordDeployment(cmd, client, ledger.Entry{
					Kind:            ledger.KindToken,
					Name:            args[0],
					Symbol:          args[1],
					ContractAddress: token.Address(),
					TxHash:          res.TransactionHash,
					BlockNumber:     res.BlockNumber,
				})
				printDeployment(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "balance <token> <account>",
			Short: "Show the token balance of an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(false)
				if err != nil {
					return err
				}
				balance, err := contracts.NewToken(client, args[0]).BalanceOf(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), balance)
				return nil
			},
		},
		&cobra.Command{
			Use:   "transfer <token> <to> <amount>",
			Short: "Transfer tokens",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				res, err := contracts.NewToken(client, args[0]).Transfer(cmd.Context(), args[1], args[2])
				if err != nil {
					return err
				}
				printTransaction(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "approve <token> <spender> <amount>",
			Short: "Approve a spender",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				res, err := contracts.NewToken(client, args[0]).Approve(cmd.Context(), args[1], args[2])
				if err != nil {
					return err
				}
				printTransaction(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "transfer-from <token> <from> <to> <amount>",
			Short: "Transfer tokens using an allowance",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				res, err := contracts.NewToken(client, args[0]).TransferFrom(cmd.Context(), args[1], args[2], args[3])
				if err != nil {
					return err
				}
				printTransaction(cmd.OutOrStdout(), res)
				return nil
			},
		},
	)
	return cmd
}
