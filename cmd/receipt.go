package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agefix/agxcl/api"
)

func newReceiptCmd(opts *globalOptions) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
		maxWait  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "receipt <tx-hash>",
		Short: "Show a transaction receipt",
		Long: `Show the receipt of a transaction. With --wait the command polls until the
receipt is available.

Examples:
  agxcl receipt 0x1234...
  agxcl receipt 0x1234... --wait --max-wait 5m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(false)
			if err != nil {
				return err
			}

			var receipt api.Receipt
			if wait {
				receipt, err = waitForReceipt(cmd, opts, client, args[0], interval, maxWait)
			} else {
				receipt, err = client.GetTransactionReceipt(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the receipt is available")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval for --wait")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 2*time.Minute, "give up waiting after this long")
	return cmd
}

// waitForReceipt polls until the service returns a receipt. Not-found
// responses and transient failures keep the loop going.
func waitForReceipt(cmd *cobra.Command, opts *globalOptions, client *api.Client, hash string, interval, maxWait time.Duration) (api.Receipt, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), maxWait)
	defer cancel()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan]Waiting for receipt...[reset]"),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := client.GetTransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !pending(err) {
			return nil, err
		}
		opts.log.Debug("receipt not available yet", zap.String("tx", hash), zap.Error(err))
		_ = bar.Add(1)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt of %s", hash)
		case <-ticker.C:
		}
	}
}

// pending reports whether err means the receipt may still appear.
func pending(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.Retryable()
}

func printReceipt(cmd *cobra.Command, receipt api.Receipt) error {
	out := cmd.OutOrStdout()
	switch receipt.Status() {
	case "":
	case "success", "0x1", "1":
		fmt.Fprintf(out, "✅ Status: %s\n", color.GreenString(receipt.Status()))
	default:
		fmt.Fprintf(out, "❌ Status: %s\n", color.RedString(receipt.Status()))
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format receipt: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
