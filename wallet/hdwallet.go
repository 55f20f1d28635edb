package wallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// secp256k1 group order
var curveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// HDKey is a node of the derivation tree. Only what child derivation needs
// is kept.
type HDKey struct {
	PrivateKey []byte
	PublicKey  []byte
	ChainCode  []byte
}

// deriveSigningKey derives the secp256k1 signing key for path from a BIP-39 seed.
func deriveSigningKey(seed []byte, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	masterKey, err := newMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	childKey := masterKey
	for _, childNum := range path {
		childKey, err = deriveChild(childKey, childNum)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child: %w", err)
		}
	}

	privateKey, err := crypto.ToECDSA(childKey.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to ECDSA key: %w", err)
	}
	return privateKey, nil
}

// newMasterKey creates a master key from seed
func newMasterKey(seed []byte) (*HDKey, error) {
	hash := hmacSHA512([]byte("Bitcoin seed"), seed)

	privateKey := hash[:32]
	chainCode := hash[32:]
	if !isValidPrivateKey(privateKey) {
		return nil, fmt.Errorf("invalid private key")
	}

	return &HDKey{
		PrivateKey: privateKey,
		PublicKey:  compressedPublicKey(privateKey),
		ChainCode:  chainCode,
	}, nil
}

// deriveChild derives a child key from parent
func deriveChild(parent *HDKey, childNum uint32) (*HDKey, error) {
	var data []byte
	if isHardened(childNum) {
		data = append([]byte{0x00}, parent.PrivateKey...)
	} else {
		data = append([]byte{}, parent.PublicKey...)
	}

	childNumBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(childNumBytes, childNum)
	data = append(data, childNumBytes...)

	hash := hmacSHA512(parent.ChainCode, data)
	il := hash[:32]
	ir := hash[32:]

	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Cmp(curveOrder) >= 0 {
		return nil, fmt.Errorf("invalid child key at index %d", childNum)
	}

	childInt := new(big.Int).Add(new(big.Int).SetBytes(parent.PrivateKey), ilInt)
	childInt.Mod(childInt, curveOrder)
	if childInt.Sign() == 0 {
		return nil, fmt.Errorf("invalid private key")
	}

	// left-pad to 32 bytes
	childKey := make([]byte, 32)
	childInt.FillBytes(childKey)

	return &HDKey{
		PrivateKey: childKey,
		PublicKey:  compressedPublicKey(childKey),
		ChainCode:  ir,
	}, nil
}

func compressedPublicKey(privateKey []byte) []byte {
	_, pub := btcec.PrivKeyFromBytes(privateKey)
	return pub.SerializeCompressed()
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func isValidPrivateKey(privateKey []byte) bool {
	if len(privateKey) != 32 {
		return false
	}
	keyInt := new(big.Int).SetBytes(privateKey)
	return keyInt.Sign() != 0 && keyInt.Cmp(curveOrder) < 0
}

func isHardened(childNum uint32) bool {
	return childNum >= 0x80000000
}
