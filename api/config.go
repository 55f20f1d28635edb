package api

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// network type constants
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// RPC endpoints and chain identifiers
const (
	// mainnet
	MainnetRPC     = "https://rpc.agefix.com"
	MainnetChainID = "agefix-mainnet-1"

	// testnet
	TestnetRPC     = "https://rpc-testnet.agefix.com"
	TestnetChainID = "agefix-testnet-1"
)

// Environment variables consulted by ConfigFromEnv.
const (
	EnvRPCURL     = "AGXCL_RPC_URL"
	EnvChainID    = "AGXCL_CHAIN_ID"
	EnvPrivateKey = "AGXCL_PRIVATE_KEY"
)

// Config identifies the RPC endpoint, the chain and, optionally, the signing
// key used for deployments and transactions. The Client keeps its own copy.
type Config struct {
	RPCURL     string `yaml:"rpc_url"`
	ChainID    string `yaml:"chain_id"`
	PrivateKey string `yaml:"private_key,omitempty"`
}

// MainnetConfig is the built-in mainnet preset.
var MainnetConfig = Config{RPCURL: MainnetRPC, ChainID: MainnetChainID}

// TestnetConfig is the built-in testnet preset.
var TestnetConfig = Config{RPCURL: TestnetRPC, ChainID: TestnetChainID}

// Validate reports whether the config can be used to build a Client.
func (c Config) Validate() error {
	raw := strings.TrimSpace(c.RPCURL)
	if raw == "" {
		return errors.New("rpc url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid rpc url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid rpc url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid rpc url %q: missing host", raw)
	}
	if strings.TrimSpace(c.ChainID) == "" {
		return errors.New("chain id is required")
	}
	return nil
}

// HasSigner reports whether a signing key is configured.
func (c Config) HasSigner() bool {
	return strings.TrimSpace(c.PrivateKey) != ""
}

// Overlay returns c with every non-empty field of o applied on top.
func (c Config) Overlay(o Config) Config {
	if v := strings.TrimSpace(o.RPCURL); v != "" {
		c.RPCURL = v
	}
	if v := strings.TrimSpace(o.ChainID); v != "" {
		c.ChainID = v
	}
	if v := strings.TrimSpace(o.PrivateKey); v != "" {
		c.PrivateKey = v
	}
	return c
}

// ConfigFromEnv reads the AGXCL_* variables. Unset variables leave the
// corresponding field empty.
func ConfigFromEnv() Config {
	return Config{
		RPCURL:     strings.TrimSpace(os.Getenv(EnvRPCURL)),
		ChainID:    strings.TrimSpace(os.Getenv(EnvChainID)),
		PrivateKey: strings.TrimSpace(os.Getenv(EnvPrivateKey)),
	}
}

// PresetFor returns the built-in config for a network name.
func PresetFor(network string) (Config, bool) {
	switch network {
	case NetworkMainnet:
		return MainnetConfig, true
	case NetworkTestnet:
		return TestnetConfig, true
	default:
		return Config{}, false
	}
}

// NetworkDefinitions models a networks.yaml file:
//
//	networks:
//	  devnet:
//	    rpc_url: http://localhost:8545
//	    chain_id: agefix-devnet
type NetworkDefinitions struct {
	Networks map[string]Config `yaml:"networks"`
}

// LoadNetworks parses a YAML file with named network definitions. An empty
// path yields an empty set.
func LoadNetworks(path string) (NetworkDefinitions, error) {
	if strings.TrimSpace(path) == "" {
		return NetworkDefinitions{Networks: map[string]Config{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return NetworkDefinitions{}, fmt.Errorf("failed to read networks file: %w", err)
	}

	var defs NetworkDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return NetworkDefinitions{}, fmt.Errorf("failed to parse networks file: %w", err)
	}
	if defs.Networks == nil {
		defs.Networks = map[string]Config{}
	}
	return defs, nil
}

// Lookup resolves a network by name, falling back to the built-in presets.
func (d NetworkDefinitions) Lookup(name string) (Config, bool) {
	if cfg, ok := d.Networks[name]; ok {
		return cfg, true
	}
	return PresetFor(name)
}

// Names lists the networks defined in the file, sorted.
func (d NetworkDefinitions) Names() []string {
	names := make([]string, 0, len(d.Networks))
	for name := range d.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
