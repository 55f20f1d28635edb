package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/agefix/agxcl/ledger"
)

func newDeploymentsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "List and export contracts deployed from this machine",
	}
	cmd.AddCommand(newDeploymentsListCmd(opts), newDeploymentsExportCmd(opts))
	return cmd
}

func newDeploymentsListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.openLedger()
			if err != nil {
				return err
			}
			entries, err := l.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No deployments recorded yet")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tADDRESS\tBLOCK\tNETWORK\tTIME")
			for _, e := range entries {
				name := e.Name
				if e.Symbol != "" {
					name = fmt.Sprintf("%s (%s)", e.Name, e.Symbol)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					e.Kind, name, e.ContractAddress, e.BlockNumber, e.Network, e.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

type exportFormats struct {
	csv, json, txt bool
}

func newDeploymentsExportCmd(opts *globalOptions) *cobra.Command {
	var (
		formats exportFormats
		dir     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded deployments",
		Long: `Export the deployment history.

File formats:
  --csv        Export to CSV format (default)
  --json       Export to JSON format
  --txt        Export to txt format

Examples:
  agxcl deployments export                  # Export to CSV (default)
  agxcl deployments export --json           # Export to JSON
  agxcl deployments export --csv --json     # Export to both formats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, formats, dir)
		},
	}
	cmd.Flags().BoolVar(&formats.csv, "csv", false, "Export to CSV format")
	cmd.Flags().BoolVar(&formats.json, "json", false, "Export to JSON format")
	cmd.Flags().BoolVar(&formats.txt, "txt", false, "Export to txt format")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default ~/.agxcl/exports)")
	return cmd
}

func runExport(cmd *cobra.Command, opts *globalOptions, formats exportFormats, dir string) error {
	if !formats.csv && !formats.json && !formats.txt {
		formats.csv = true
	}
	if dir == "" {
		dir = filepath.Join(opts.home, "exports")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to prepare export directory: %w", err)
	}

	l, err := opts.openLedger()
	if err != nil {
		return err
	}
	entries, err := l.List()
	if err != nil {
		return fmt.Errorf("failed to read deployments: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📊 Exporting %d deployments...\n", len(entries))
	bar := progressbar.NewOptions(3,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("[cyan]Writing export files...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:     "[green]=[reset]",
			SaucerHead: "[green]>[reset]",
			BarStart:   "[",
			BarEnd:     "]",
		}),
	)

	now := time.Now()
	timestamp := now.Format("20060102_150405")
	var written []string
	writers := []struct {
		enabled bool
		ext     string
		write   func(io.Writer) error
	}{
		{formats.csv, "csv", func(w io.Writer) error { return ledger.ExportCSV(w, entries) }},
		{formats.json, "json", func(w io.Writer) error { return ledger.ExportJSON(w, entries, now) }},
		{formats.txt, "txt", func(w io.Writer) error { return ledger.ExportTXT(w, entries, now) }},
	}
	for _, wr := range writers {
		if wr.enabled {
			path := filepath.Join(dir, fmt.Sprintf("agxcl_deployments_%s.%s", timestamp, wr.ext))
			if err := writeExportFile(path, wr.write); err != nil {
				return fmt.Errorf("failed to write %s export: %w", strings.ToUpper(wr.ext), err)
			}
			written = append(written, path)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	fmt.Fprintln(out, "📁 Export completed successfully!")
	for _, path := range written {
		fmt.Fprintf(out, "📍 %s\n", path)
	}
	return nil
}

func writeExportFile(path string, write func(io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
