package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/contracts"
	"github.com/agefix/agxcl/ledger"
)

func newNFTCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Deploy and use NFT contracts",
		Long: `Deploy NFT collections, mint tokens and look up owners and metadata.

Examples:
  agxcl nft deploy "My Collection" MNFT
  agxcl nft mint 0xnft... 0xto... ipfs://metadata-uri
  agxcl nft owner 0xnft... 1
  agxcl nft uri 0xnft... 1
  agxcl nft balance 0xnft... 0xowner...`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "deploy <name> <symbol>",
			Short: "Deploy a new NFT collection",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				nft := contracts.NewNFT(client, "")

				fmt.Fprintf(cmd.OutOrStdout(), "🚀 Deploying collection %s (%s)...\n", args[0], args[1])
				res, err := nft.Deploy(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				opts.recordDeployment(cmd, client, ledger.Entry{
					Kind:            ledger.KindNFT,
					Name:            args[0],
					Symbol:          args[1],
					ContractAddress: nft.Address(),
					TxHash:          res.TransactionHash,
					BlockNumber:     res.BlockNumber,
				})
				printDeployment(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "mint <collection> <to> <uri>",
			Short: "Mint a token",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(true)
				if err != nil {
					return err
				}
				res, err := contracts.NewNFT(client, args[0]).Mint(cmd.Context(), args[1], args[2])
				if err != nil {
					return err
				}
				printTransaction(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "owner <collection> <token-id>",
			Short: "Show the owner of a token",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runNFTLookup(cmd, opts, args, (*contracts.NFT).OwnerOf)
			},
		},
		&cobra.Command{
			Use:   "uri <collection> <token-id>",
			Short: "Show the metadata URI of a token",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runNFTLookup(cmd, opts, args, (*contracts.NFT).TokenURI)
			},
		},
		&cobra.Command{
			Use:   "balance <collection> <owner>",
			Short: "Show how many tokens an owner holds",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.newClient(false)
				if err != nil {
					return err
				}
				balance, err := contracts.NewNFT(client, args[0]).BalanceOf(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), balance)
				return nil
			},
		},
	)
	return cmd
}

type nftLookup func(n *contracts.NFT, ctx context.Context, tokenID uint64) (string, error)

func runNFTLookup(cmd *cobra.Command, opts *globalOptions, args []string, lookup nftLookup) error {
	tokenID, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token id: %s", args[1])
	}
	client, err := opts.newClient(false)
	if err != nil {
		return err
	}
	value, err := lookup(contracts.NewNFT(client, args[0]), cmd.Context(), tokenID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
