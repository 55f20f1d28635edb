// Package contracts provides helpers for the token and NFT contracts that
// ship with the SDK. Helpers render the contract source, deploy it and wrap
// the contract's methods as typed calls on a Backend.
package contracts

import (
	"context"
	"errors"

	"github.com/agefix/agxcl/api"
)

// ErrNotDeployed is returned by helper methods before a contract address is
// known.
var ErrNotDeployed = errors.New("contract not deployed")

// Backend is the subset of *api.Client used by the helpers.
type Backend interface {
	DeployContract(ctx context.Context, code string, constructorArgs []any) (*api.DeploymentResult, error)
	QueryContract(ctx context.Context, address, method string, args []any) api.QueryResult
	ExecuteTransaction(ctx context.Context, address, method string, args []any, value string) (*api.TransactionResult, error)
}

var _ Backend = (*api.Client)(nil)

// contract holds the state shared by all helpers. The backend is shared,
// not owned; address changes only on Deploy.
type contract struct {
	backend Backend
	address string
}

// Address returns the contract address, or "" before deployment.
func (c *contract) Address() string {
	return c.address
}

func (c *contract) deploy(ctx context.Context, code string) (*api.DeploymentResult, error) {
	res, err := c.backend.DeployContract(ctx, code, nil)
	if err != nil {
		return nil, err
	}
	c.address = res.ContractAddress
	return res, nil
}

func (c *contract) query(ctx context.Context, method string, args ...any) (api.QueryResult, error) {
	if c.address == "" {
		return api.QueryResult{}, ErrNotDeployed
	}
	res := c.backend.QueryContract(ctx, c.address, method, args)
	if err := res.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (c *contract) execute(ctx context.Context, method string, args ...any) (*api.TransactionResult, error) {
	if c.address == "" {
		return nil, ErrNotDeployed
	}
	return c.backend.ExecuteTransaction(ctx, c.address, method, args, "0")
}

// Token wraps an ERC-20 style token contract.
type Token struct {
	contract
}

// NewToken returns a token helper. address may be empty when the token is
// deployed through Deploy.
func NewToken(backend Backend, address string) *Token {
	return &Token{contract{backend: backend, address: address}}
}

// Deploy deploys a new token contract and stores its address.
func (t *Token) Deploy(ctx context.Context, name, symbol, totalSupply string) (*api.DeploymentResult, error) {
	code, err := TokenSource(name, symbol, totalSupply)
	if err != nil {
		return nil, err
	}
	return t.deploy(ctx, code)
}

// BalanceOf returns the token balance of account.
func (t *Token) BalanceOf(ctx context.Context, account string) (string, error) {
	res, err := t.query(ctx, "balanceOf", account)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// Transfer moves amount tokens from the signer to to.
func (t *Token) Transfer(ctx context.Context, to, amount string) (*api.TransactionResult, error) {
	return t.execute(ctx, "transfer", to, amount)
}

// Approve lets spender move up to amount of the signer's tokens.
func (t *Token) Approve(ctx context.Context, spender, amount string) (*api.TransactionResult, error) {
	return t.execute(ctx, "approve", spender, amount)
}

// TransferFrom moves amount tokens from from to to using the signer's
// allowance.
func (t *Token) TransferFrom(ctx context.Context, from, to, amount string) (*api.TransactionResult, error) {
	return t.execute(ctx, "transferFrom", from, to, amount)
}
