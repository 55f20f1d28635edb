package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/agefix/agxcl/api"
	"github.com/agefix/agxcl/ledger"
	"github.com/agefix/agxcl/wallet"
)

const networksFileName = "networks.yaml"

func homeDir() (string, error) {
	return wallet.HomeDir()
}

// activeNetwork is the --network flag or the network saved by 'agxcl network'.
func (o *globalOptions) activeNetwork() string {
	if n := strings.TrimSpace(o.network); n != "" {
		return n
	}
	return wallet.ReadNetwork(o.home)
}

func (o *globalOptions) loadNetworks() (api.NetworkDefinitions, error) {
	path := o.networksFile
	if path == "" {
		path = filepath.Join(o.home, networksFileName)
		if _, err := os.Stat(path); err != nil {
			return api.LoadNetworks("")
		}
	}
	return api.LoadNetworks(path)
}

// resolveConfig applies presets, the networks file, the environment and the
// flags in increasing order of precedence.
func (o *globalOptions) resolveConfig() (api.Config, error) {
	defs, err := o.loadNetworks()
	if err != nil {
		return api.Config{}, err
	}

	name := o.activeNetwork()
	cfg, ok := defs.Lookup(name)
	if !ok {
		return api.Config{}, fmt.Errorf("unknown network: %s. Use 'mainnet', 'testnet' or define it in %s", name, networksFileName)
	}

	cfg = cfg.Overlay(api.ConfigFromEnv())
	cfg = cfg.Overlay(api.Config{RPCURL: o.rpcURL, ChainID: o.chainID})
	return cfg, nil
}

// signingKey returns the configured key or, failing that, the key of the
// unlocked wallet.
func (o *globalOptions) signingKey(cfg api.Config) (string, error) {
	if cfg.HasSigner() {
		return cfg.PrivateKey, nil
	}

	manager := wallet.NewManagerAt(o.home)
	if !manager.VaultExists() {
		return "", fmt.Errorf("no signing key. Set %s or run 'agxcl key init'", api.EnvPrivateKey)
	}
	if !manager.IsUnlocked() {
		return "", fmt.Errorf("wallet is locked. Run 'agxcl key unlock' first")
	}
	return manager.PrivateKeyHex()
}

// newClient builds an api.Client. Commands that sign pass withSigner.
func (o *globalOptions) newClient(withSigner bool) (*api.Client, error) {
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}
	if withSigner {
		key, err := o.signingKey(cfg)
		if err != nil {
			return nil, err
		}
		cfg.PrivateKey = key
	}

	policy := api.DefaultRetryPolicy
	policy.MaxRetries = o.retries

	client, err := api.NewClient(cfg,
		api.WithTimeout(o.timeout),
		api.WithRetryPolicy(policy),
		api.WithLogger(o.log.Named("rpc")),
	)
	if err != nil {
		return nil, err
	}
	o.log.Debug("client ready",
		zap.String("network", o.activeNetwork()),
		zap.String("endpoint", client.Endpoint()),
		zap.String("chain_id", client.ChainID()),
		zap.Bool("signer", client.HasSigner()))
	return client, nil
}

func (o *globalOptions) openLedger() (*ledger.Ledger, error) {
	return ledger.Open(filepath.Join(o.home, ledger.FileName))
}

// recordDeployment adds a deployment to the local ledger. Failures are
// reported but do not fail the command, the contract is already on chain.
func (o *globalOptions) recordDeployment(cmd *cobra.Command, client *api.Client, entry ledger.Entry) {
	entry.Network = o.activeNetwork()
	entry.ChainID = client.ChainID()

	l, err := o.openLedger()
	if err == nil {
		_, err = l.Record(entry)
	}
	if err != nil {
		o.log.Warn("failed to record deployment", zap.Error(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Warning: failed to record deployment: %v\n", err)
	}
}

// addArgsFlag registers --args-json on cmd.
func addArgsFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "args-json", "", `method arguments as a JSON array, e.g. '["0xabc", 100]'`)
}

// contractArgs returns the positional arguments as strings, or the typed
// values of --args-json.
func contractArgs(positional []string, argsJSON string) ([]any, error) {
	if strings.TrimSpace(argsJSON) == "" {
		args := make([]any, 0, len(positional))
		for _, a := range positional {
			args = append(args, a)
		}
		return args, nil
	}
	if len(positional) > 0 {
		return nil, errors.New("use either positional arguments or --args-json, not both")
	}

	dec := json.NewDecoder(strings.NewReader(argsJSON))
	dec.UseNumber()
	var args []any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid --args-json: %w", err)
	}
	if args == nil {
		args = []any{}
	}
	return args, nil
}

// readPassword reads a password without echo when stdin is a terminal.
var readPassword = func(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	return readLine(cmd.InOrStdin())
}

// stdin keeps one buffered reader per input so consecutive prompts do not
// lose buffered lines.
var stdin struct {
	src io.Reader
	buf *bufio.Reader
}

// readLine reads one line from r without its line ending. Other whitespace
// is kept, as term.ReadPassword does.
func readLine(r io.Reader) (string, error) {
	if stdin.buf == nil || stdin.src != r {
		stdin.src = r
		stdin.buf = bufio.NewReader(r)
	}
	line, err := stdin.buf.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptNewPassword asks for a password twice.
func promptNewPassword(cmd *cobra.Command) (string, error) {
	password, err := readPassword(cmd, "Enter a password for your key: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters long")
	}

	confirm, err := readPassword(cmd, "Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
