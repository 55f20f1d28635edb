package wallet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// network type constants
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// HomeEnv overrides the default ~/.agxcl state directory.
const HomeEnv = "AGXCL_HOME"

// HomeDir returns the directory holding the vault, session, network and
// deployment ledger files.
func HomeDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".agxcl"), nil
}

// ReadNetwork returns the network persisted in dir, defaulting to mainnet
// when the file is missing or holds an unknown value.
func ReadNetwork(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "network.txt"))
	if err != nil {
		return NetworkMainnet
	}
	network := strings.TrimSpace(string(data))
	if network != NetworkMainnet && network != NetworkTestnet {
		return NetworkMainnet
	}
	return network
}

// WriteNetwork persists the active network in dir.
func WriteNetwork(dir, network string) error {
	if network != NetworkMainnet && network != NetworkTestnet {
		return fmt.Errorf("invalid network: %s. Use 'mainnet' or 'testnet'", network)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "network.txt"), []byte(network), 0600); err != nil {
		return fmt.Errorf("failed to write network file: %w", err)
	}
	return nil
}
