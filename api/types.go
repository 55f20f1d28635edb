package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DeploymentResult is returned by a successful contract deployment.
type DeploymentResult struct {
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
}

// QueryResult is the outcome of a read-only contract call. Failures are
// reported through Success and Error rather than a Go error.
type QueryResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// String renders the result payload as text: JSON strings are unquoted,
// everything else, null included, is returned as its JSON encoding. A failed
// or empty result renders as "".
func (r QueryResult) String() string {
	if !r.Success || len(r.Data) == 0 {
		return ""
	}
	data := bytes.TrimSpace(r.Data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	}
	return string(data)
}

// Decode unmarshals the result payload into v.
func (r QueryResult) Decode(v any) error {
	if !r.Success {
		return r.Err()
	}
	if len(r.Data) == 0 {
		return errors.New("query result is empty")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode query result: %w", err)
	}
	return nil
}

// Err returns nil for a successful result and an *Error otherwise.
func (r QueryResult) Err() error {
	if r.Success {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "unknown error"
	}
	return &Error{Op: OpQuery, Kind: KindQuery, Err: errors.New(msg)}
}

// TransactionResult is returned by a successful state-changing call.
type TransactionResult struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	Success     bool   `json:"success"`
}

// Receipt is the transaction receipt exactly as the service returns it.
type Receipt map[string]any

// Status returns the receipt's "status" field when it is a string.
func (r Receipt) Status() string {
	s, _ := r["status"].(string)
	return s
}

// request payloads

type deployRequest struct {
	Code       string `json:"code"`
	Args       []any  `json:"args"`
	ChainID    string `json:"chainId"`
	// nil is sent as null when the client has no key
	PrivateKey *string `json:"privateKey"`
}

type callRequest struct {
	ContractAddress string `json:"contractAddress"`
	Method          string `json:"method"`
	Args            []any  `json:"args"`
	ChainID         string `json:"chainId"`
}

type executeRequest struct {
	ContractAddress string `json:"contractAddress"`
	Method          string `json:"method"`
	Args            []any  `json:"args"`
	Value           string `json:"value"`
	ChainID         string `json:"chainId"`
	PrivateKey      string `json:"privateKey"`
}

// response payloads; required fields are pointers so absence is detectable

type deployResponse struct {
	ContractAddress *string `json:"contractAddress"`
	TxHash          *string `json:"txHash"`
	BlockNumber     *uint64 `json:"blockNumber"`
}

func (r *deployResponse) validate() error {
	return requireFields(
		field{"contractAddress", r.ContractAddress != nil && *r.ContractAddress != ""},
		field{"txHash", r.TxHash != nil && *r.TxHash != ""},
		field{"blockNumber", r.BlockNumber != nil},
	)
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

func (r *queryResponse) validate() error {
	return requireFields(field{"result", len(r.Result) > 0})
}

type executeResponse struct {
	TxHash      *string `json:"txHash"`
	BlockNumber *uint64 `json:"blockNumber"`
	GasUsed     *uint64 `json:"gasUsed"`
}

func (r *executeResponse) validate() error {
	return requireFields(
		field{"txHash", r.TxHash != nil && *r.TxHash != ""},
		field{"blockNumber", r.BlockNumber != nil},
		field{"gasUsed", r.GasUsed != nil},
	)
}

type balanceResponse struct {
	Balance json.RawMessage `json:"balance"`
}

// value accepts both "123" and 123.
func (r *balanceResponse) value() (string, error) {
	if err := requireFields(field{"balance", len(r.Balance) > 0 && string(r.Balance) != "null"}); err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(r.Balance, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(r.Balance, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("field %q is neither a string nor a number", "balance")
}

type gasResponse struct {
	GasEstimate *uint64 `json:"gasEstimate"`
}

func (r *gasResponse) validate() error {
	return requireFields(field{"gasEstimate", r.GasEstimate != nil})
}

type field struct {
	name    string
	present bool
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("missing field %q", f.name)
		}
	}
	return nil
}
