package contracts

import (
	"context"

	"github.com/agefix/agxcl/api"
)

// NFT wraps a non-fungible token contract.
type NFT struct {
	contract
}

// NewNFT returns an NFT helper. address may be empty when the collection is
// deployed through Deploy.
func NewNFT(backend Backend, address string) *NFT {
	return &NFT{contract{backend: backend, address: address}}
}

// Deploy deploys a new NFT collection and stores its address.
func (n *NFT) Deploy(ctx context.Context, name, symbol string) (*api.DeploymentResult, error) {
	code, err := NFTSource(name, symbol)
	if err != nil {
		return nil, err
	}
	return n.deploy(ctx, code)
}

// Mint mints a token with metadata uri to to.
func (n *NFT) Mint(ctx context.Context, to, uri string) (*api.TransactionResult, error) {
	return n.execute(ctx, "mint", to, uri)
}

// OwnerOf returns the owner of tokenID.
func (n *NFT) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	res, err := n.query(ctx, "ownerOf", tokenID)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// TokenURI returns the metadata uri of tokenID.
func (n *NFT) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	res, err := n.query(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// BalanceOf returns the number of tokens held by owner.
func (n *NFT) BalanceOf(ctx context.Context, owner string) (string, error) {
	res, err := n.query(ctx, "balanceOf", owner)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}
