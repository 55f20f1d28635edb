package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	vaultVersion = 2
)

// ErrInvalidPassword is returned when the vault cannot be opened with the
// supplied password.
var ErrInvalidPassword = errors.New("invalid password")

// KDFParams records the scrypt cost parameters a vault was sealed with.
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// Vault is the on-disk, encrypted form of a Secret.
type Vault struct {
	Version int       `json:"version"`
	KDF     KDFParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Data    []byte    `json:"data"`
}

// Secret is the plaintext sealed inside a Vault. Wallets created from a
// mnemonic store only the mnemonic; imported keys store only PrivateKey.
type Secret struct {
	PrivateKey string `json:"private_key,omitempty"`
	Mnemonic   string `json:"mnemonic,omitempty"`
}

// NewVault seals secret with a key derived from password.
func NewVault(secret Secret, password string) (*Vault, error) {
	return newVault(secret, password, KDFParams{N: ScryptN, R: ScryptR, P: ScryptP})
}

func newVault(secret Secret, password string, params KDFParams) (*Vault, error) {
	if secret.PrivateKey == "" && secret.Mnemonic == "" {
		return nil, errors.New("private key or mnemonic is required")
	}

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	data, err := json.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(data)

	nonce := make([]byte, 12)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed, err := encrypt(key, nonce, data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}

	return &Vault{
		Version: vaultVersion,
		KDF:     params,
		Salt:    salt,
		Nonce:   nonce,
		Data:    sealed,
	}, nil
}

// Decrypt opens the vault. A wrong password yields ErrInvalidPassword.
func (v *Vault) Decrypt(password string) (Secret, error) {
	params := v.KDF
	if params.N == 0 {
		// vaults written before the params were recorded
		params = KDFParams{N: ScryptN, R: ScryptR, P: ScryptP}
	}

	key, err := deriveKey(password, v.Salt, params)
	if err != nil {
		return Secret{}, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	plaintext, err := decrypt(key, v.Nonce, v.Data)
	if err != nil {
		return Secret{}, err
	}
	defer clearBytes(plaintext)

	var secret Secret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return Secret{}, fmt.Errorf("failed to deserialize vault data: %w", err)
	}
	return secret, nil
}

// ValidatePassword reports whether password opens the vault.
func (v *Vault) ValidatePassword(password string) bool {
	_, err := v.Decrypt(password)
	return err == nil
}

func deriveKey(password string, salt []byte, params KDFParams) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func encrypt(key, nonce, data []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aesGCM.Seal(nil, nonce, data, nil), nil
}

func decrypt(key, nonce, data []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, data, nil)
	if err != nil {
		// GCM authentication failure: either the password is wrong or the
		// ciphertext was modified, and the two cannot be told apart.
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
