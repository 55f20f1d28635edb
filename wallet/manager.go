package wallet

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agefix/agxcl/crypto"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	// Derivation paths for the signing key
	DerivationPath        = "m/44'/60'/0'/0/0"
	TestnetDerivationPath = "m/44'/1'/0'/0/0" // coin type 1 for testnet

	// Session duration in minutes
	SessionDuration = 30
)

var (
	// ErrLocked is returned when key material is requested from a locked wallet.
	ErrLocked = errors.New("wallet is locked")
	// ErrNoVault is returned when no vault has been created yet.
	ErrNoVault = errors.New("no key vault found")
	// ErrNoMnemonic is returned for wallets created from an imported private key.
	ErrNoMnemonic = errors.New("wallet was imported from a private key and has no recovery phrase")
)

// SessionData holds the wallet session information
type SessionData struct {
	Token      string        `json:"token"`
	Secret     crypto.Secret `json:"secret"`
	Expiration time.Time     `json:"expiration"`
	Network    string        `json:"network"`
}

// Manager owns the encrypted signing key and the short-lived unlock session.
type Manager struct {
	vaultPath   string
	sessionPath string
	network     string

	mu       sync.Mutex
	vault    *crypto.Vault
	secret   crypto.Secret
	unlocked bool
	now      func() time.Time
}

// NewManager creates a manager rooted at the agxcl home directory.
func NewManager() (*Manager, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(dir), nil
}

// NewManagerAt creates a manager that keeps its files under dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{
		vaultPath:   filepath.Join(dir, "key.vault"),
		sessionPath: filepath.Join(dir, "session.json"),
		network:     ReadNetwork(dir),
		now:         time.Now,
	}
}

// Initialize creates a new wallet with a fresh 24-word mnemonic and returns it.
func (m *Manager) Initialize(password string) (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	if err := m.store(crypto.Secret{Mnemonic: mnemonic}, password); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// ImportFromMnemonic imports a wallet from an existing mnemonic
func (m *Manager) ImportFromMnemonic(mnemonic, password string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("invalid mnemonic")
	}
	return m.store(crypto.Secret{Mnemonic: mnemonic}, password)
}

// ImportPrivateKey imports a raw hex-encoded secp256k1 private key.
func (m *Manager) ImportPrivateKey(privateKeyHex, password string) error {
	key, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return err
	}
	return m.store(crypto.Secret{PrivateKey: hex.EncodeToString(ethcrypto.FromECDSA(key))}, password)
}

func (m *Manager) store(secret crypto.Secret, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vault, err := crypto.NewVault(secret, password)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.vaultPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := m.saveVault(vault); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	m.vault = vault
	m.secret = secret
	m.unlocked = true

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Unlock unlocks the wallet with the provided password
func (m *Manager) Unlock(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadSession() {
		return nil
	}

	if m.vault == nil {
		vault, err := m.loadVault()
		if err != nil {
			return err
		}
		m.vault = vault
	}

	secret, err := m.vault.Decrypt(password)
	if err != nil {
		return err
	}

	m.secret = secret
	m.unlocked = true

	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Lock locks the wallet and clears key material from memory
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unlocked = false
	m.secret = crypto.Secret{}
	_ = os.Remove(m.sessionPath)
}

// IsUnlocked returns whether the wallet is currently unlocked
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureUnlocked() == nil
}

// VaultExists checks if a vault file exists
func (m *Manager) VaultExists() bool {
	_, err := os.Stat(m.vaultPath)
	return err == nil
}

// PrivateKey returns the signing key for the current network.
func (m *Manager) PrivateKey() (*ecdsa.PrivateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureUnlocked(); err != nil {
		return nil, err
	}

	if m.secret.Mnemonic == "" {
		return ParsePrivateKey(m.secret.PrivateKey)
	}

	derivationPath := DerivationPath
	if m.network == NetworkTestnet {
		derivationPath = TestnetDerivationPath
	}
	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}

	seed := bip39.NewSeed(m.secret.Mnemonic, "")
	key, err := deriveSigningKey(seed, path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	return key, nil
}

// PrivateKeyHex returns the signing key as unprefixed hex, the form the
// RPC service expects.
func (m *Manager) PrivateKeyHex() (string, error) {
	key, err := m.PrivateKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(ethcrypto.FromECDSA(key)), nil
}

// Address returns the account address of the signing key.
func (m *Manager) Address() (common.Address, error) {
	key, err := m.PrivateKey()
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}

// Mnemonic returns the recovery phrase (only if unlocked)
func (m *Manager) Mnemonic() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureUnlocked(); err != nil {
		return "", err
	}
	if m.secret.Mnemonic == "" {
		return "", ErrNoMnemonic
	}
	return m.secret.Mnemonic, nil
}

// Network returns the network the manager derives keys for.
func (m *Manager) Network() string {
	return m.network
}

// IsTestnet returns true if the wallet is in testnet mode
func (m *Manager) IsTestnet() bool {
	return m.network == NetworkTestnet
}

// ParsePrivateKey parses a hex-encoded secp256k1 key, with or without 0x.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	key, err := ethcrypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// AddressOf returns the account address for a hex-encoded private key.
func AddressOf(privateKeyHex string) (common.Address, error) {
	key, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}

func (m *Manager) ensureUnlocked() error {
	if m.unlocked {
		return nil
	}
	if m.loadSession() {
		return nil
	}
	return ErrLocked
}

func generateSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func (m *Manager) createSession() error {
	token, err := generateSessionToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}

	session := SessionData{
		Token:      token,
		Secret:     m.secret,
		Expiration: m.now().Add(SessionDuration * time.Minute),
		Network:    m.network,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(m.sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// loadSession restores the secret from a live session bound to the current network.
func (m *Manager) loadSession() bool {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		return false
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		// corrupted session file
		_ = os.Remove(m.sessionPath)
		return false
	}

	if m.now().After(session.Expiration) {
		_ = os.Remove(m.sessionPath)
		return false
	}

	if session.Network != m.network {
		return false
	}

	m.secret = session.Secret
	m.unlocked = true
	return true
}

func (m *Manager) saveVault(vault *crypto.Vault) error {
	data, err := json.Marshal(vault)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}

	if err := os.WriteFile(m.vaultPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

func (m *Manager) loadVault() (*crypto.Vault, error) {
	data, err := os.ReadFile(m.vaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoVault
		}
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}

	var vault crypto.Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	return &vault, nil
}
