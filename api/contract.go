package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// DeployContract deploys AGXCL contract source code.
func (c *Client) DeployContract(ctx context.Context, code string, constructorArgs []any) (*DeploymentResult, error) {
	req := deployRequest{
		Code:       code,
		Args:       argsOrEmpty(constructorArgs),
		ChainID:    c.config.ChainID,
		PrivateKey: optionalKey(c.config.PrivateKey),
	}

	var resp deployResponse
	if err := c.call(ctx, OpDeploy, http.MethodPost, "/deploy", req, &resp, false); err != nil {
		return nil, err
	}

	return &DeploymentResult{
		ContractAddress: *resp.ContractAddress,
		TransactionHash: *resp.TxHash,
		BlockNumber:     *resp.BlockNumber,
	}, nil
}

// QueryContract calls a read-only contract method. It never returns an
// error: failures are reported through QueryResult.Success and Error.
func (c *Client) QueryContract(ctx context.Context, address, method string, args []any) QueryResult {
	req := callRequest{
		ContractAddress: address,
		Method:          method,
		Args:            argsOrEmpty(args),
		ChainID:         c.config.ChainID,
	}

	var resp queryResponse
	if err := c.call(ctx, OpQuery, http.MethodPost, "/query", req, &resp, true); err != nil {
		return QueryResult{Success: false, Data: nil, Error: err.Error()}
	}
	return QueryResult{Success: true, Data: resp.Result}
}

// ExecuteTransaction calls a state-changing contract method, sending value
// AGX with it. An empty value means "0". The client must hold a private key.
func (c *Client) ExecuteTransaction(ctx context.Context, address, method string, args []any, value string) (*TransactionResult, error) {
	if !c.config.HasSigner() {
		return nil, ErrPrivateKeyRequired
	}

	value, err := normalizeValue(value)
	if err != nil {
		return nil, &Error{Op: OpExecute, Kind: KindInvalidArgument, Err: err}
	}

	req := executeRequest{
		ContractAddress: address,
		Method:          method,
		Args:            argsOrEmpty(args),
		Value:           value,
		ChainID:         c.config.ChainID,
		PrivateKey:      c.config.PrivateKey,
	}

	var resp executeResponse
	if err := c.call(ctx, OpExecute, http.MethodPost, "/execute", req, &resp, false); err != nil {
		return nil, err
	}

	return &TransactionResult{
		TxHash:      *resp.TxHash,
		BlockNumber: *resp.BlockNumber,
		GasUsed:     *resp.GasUsed,
		Success:     true,
	}, nil
}

// GetTransactionReceipt fetches the receipt for txHash as returned by the
// service.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (Receipt, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, &Error{Op: OpReceipt, Kind: KindInvalidArgument, Err: errors.New("transaction hash is required")}
	}

	var receipt Receipt
	if err := c.call(ctx, OpReceipt, http.MethodGet, "/tx/"+url.PathEscape(txHash), nil, &receipt, true); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, &Error{Op: OpReceipt, Kind: KindMalformedResponse, Err: errors.New("receipt is null")}
	}
	return receipt, nil
}

// GetBalance returns the AGX balance of address as decimal text.
func (c *Client) GetBalance(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", &Error{Op: OpBalance, Kind: KindInvalidArgument, Err: errors.New("address is required")}
	}

	var resp balanceResponse
	if err := c.call(ctx, OpBalance, http.MethodGet, "/balance/"+url.PathEscape(address), nil, &resp, true); err != nil {
		return "", err
	}

	balance, err := resp.value()
	if err != nil {
		return "", &Error{Op: OpBalance, Kind: KindMalformedResponse, Err: err}
	}
	return balance, nil
}

// EstimateGas estimates the gas needed to execute method on address.
func (c *Client) EstimateGas(ctx context.Context, address, method string, args []any) (uint64, error) {
	req := callRequest{
		ContractAddress: address,
		Method:          method,
		Args:            argsOrEmpty(args),
		ChainID:         c.config.ChainID,
	}

	var resp gasResponse
	if err := c.call(ctx, OpEstimate, http.MethodPost, "/estimateGas", req, &resp, true); err != nil {
		return 0, err
	}
	return *resp.GasEstimate, nil
}

// argsOrEmpty makes sure nil args are sent as [] rather than null.
func argsOrEmpty(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

// optionalKey returns nil for an empty key so it is encoded as null.
func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func normalizeValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid value %q: %w", value, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("invalid value %q: must not be negative", value)
	}
	return value, nil
}
