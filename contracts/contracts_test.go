package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agefix/agxcl/api"
)

type call struct {
	kind    string
	address string
	method  string
	args    []any
	code    string
}

type fakeBackend struct {
	calls   []call
	deploy  *api.DeploymentResult
	query   api.QueryResult
	execute *api.TransactionResult
	err     error
}

func (f *fakeBackend) DeployContract(_ context.Context, code string, args []any) (*api.DeploymentResult, error) {
	f.calls = append(f.calls, call{kind: "deploy", code: code, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return f.deploy, nil
}

func (f *fakeBackend) QueryContract(_ context.Context, address, method string, args []any) api.QueryResult {
	f.calls = append(f.calls, call{kind: "query", address: address, method: method, args: args})
	return f.query
}

func (f *fakeBackend) ExecuteTransaction(_ context.Context, address, method string, args []any, _ string) (*api.TransactionResult, error) {
	f.calls = append(f.calls, call{kind: "execute", address: address, method: method, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return f.execute, nil
}

func TestTokenRequiresAddress(t *testing.T) {
	backend := &fakeBackend{}
	token := NewToken(backend, "")
	ctx := context.Background()

	_, err := token.BalanceOf(ctx, "0xuser")
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = token.Transfer(ctx, "0xto", "1")
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = token.Approve(ctx, "0xspender", "1")
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = token.TransferFrom(ctx, "0xfrom", "0xto", "1")
	assert.ErrorIs(t, err, ErrNotDeployed)

	assert.Empty(t, backend.calls)
}

func TestNFTRequiresAddress(t *testing.T) {
	backend := &fakeBackend{}
	nft := NewNFT(backend, "")
	ctx := context.Background()

	_, err := nft.Mint(ctx, "0xto", "ipfs://x")
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = nft.OwnerOf(ctx, 1)
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = nft.TokenURI(ctx, 1)
	assert.ErrorIs(t, err, ErrNotDeployed)
	_, err = nft.BalanceOf(ctx, "0xowner")
	assert.ErrorIs(t, err, ErrNotDeployed)

	assert.Empty(t, backend.calls)
}

func TestTokenPropagatesDeployedAddress(t *testing.T) {
	backend := &fakeBackend{
		deploy:  &api.DeploymentResult{ContractAddress: "0xabc", TransactionHash: "0x1", BlockNumber: 10},
		query:   api.QueryResult{Success: true, Data: json.RawMessage(`"500"`)},
		execute: &api.TransactionResult{TxHash: "0x2", BlockNumber: 11, GasUsed: 21000, Success: true},
	}
	token := NewToken(backend, "")
	ctx := context.Background()

	res, err := token.Deploy(ctx, "My Token", "MTK", "1000000")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", res.ContractAddress)
	assert.Equal(t, "0xabc", token.Address())

	_, err = token.BalanceOf(ctx, "0xuser")
	require.NoError(t, err)
	_, err = token.Transfer(ctx, "0xto", "100")
	require.NoError(t, err)
	_, err = token.Approve(ctx, "0xspender", "5")
	require.NoError(t, err)
	_, err = token.TransferFrom(ctx, "0xfrom", "0xto", "5")
	require.NoError(t, err)

	require.Len(t, backend.calls, 5)
	assert.Empty(t, backend.calls[0].args)
	assert.Contains(t, backend.calls[0].code, `string name = "My Token";`)
	assert.Contains(t, backend.calls[0].code, `string symbol = "MTK";`)
	assert.Contains(t, backend.calls[0].code, `uint256 totalSupply = 1000000;`)

	want := []call{
		{kind: "query", address: "0xabc", method: "balanceOf", args: []any{"0xuser"}},
		{kind: "execute", address: "0xabc", method: "transfer", args: []any{"0xto", "100"}},
		{kind: "execute", address: "0xabc", method: "approve", args: []any{"0xspender", "5"}},
		{kind: "execute", address: "0xabc", method: "transferFrom", args: []any{"0xfrom", "0xto", "5"}},
	}
	assert.Equal(t, want, backend.calls[1:])
}

func TestNFTPropagatesDeployedAddress(t *testing.T) {
	backend := &fakeBackend{
		deploy:  &api.DeploymentResult{ContractAddress: "0xnft", TransactionHash: "0x1", BlockNumber: 3},
		query:   api.QueryResult{Success: true, Data: json.RawMessage(`"0xowner"`)},
		execute: &api.TransactionResult{TxHash: "0x2", Success: true},
	}
	nft := NewNFT(backend, "")
	ctx := context.Background()

	_, err := nft.Deploy(ctx, "Art", "ART")
	require.NoError(t, err)
	assert.Equal(t, "0xnft", nft.Address())

	_, err = nft.Mint(ctx, "0xto", "ipfs://meta")
	require.NoError(t, err)
	owner, err := nft.OwnerOf(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "0xowner", owner)
	_, err = nft.TokenURI(ctx, 7)
	require.NoError(t, err)
	_, err = nft.BalanceOf(ctx, "0xowner")
	require.NoError(t, err)

	assert.Contains(t, backend.calls[0].code, "contract NFT {")
	want := []call{
		{kind: "execute", address: "0xnft", method: "mint", args: []any{"0xto", "ipfs://meta"}},
		{kind: "query", address: "0xnft", method: "ownerOf", args: []any{uint64(7)}},
		{kind: "query", address: "0xnft", method: "tokenURI", args: []any{uint64(7)}},
		{kind: "query", address: "0xnft", method: "balanceOf", args: []any{"0xowner"}},
	}
	assert.Equal(t, want, backend.calls[1:])
}

func TestFailedDeployKeepsAddress(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	token := NewToken(backend, "0xold")

	_, err := token.Deploy(context.Background(), "T", "T", "1")
	require.Error(t, err)
	assert.Equal(t, "0xold", token.Address())
}

func TestQueryFailureIsReturned(t *testing.T) {
	backend := &fakeBackend{query: api.QueryResult{Success: false, Error: "contract query failed: connection refused"}}
	token := NewToken(backend, "0xabc")

	_, err := token.BalanceOf(context.Background(), "0xuser")
	require.Error(t, err)
	assert.Equal(t, api.KindQuery, api.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTemplateValidation(t *testing.T) {
	backend := &fakeBackend{}
	token := NewToken(backend, "")
	nft := NewNFT(backend, "")
	ctx := context.Background()

	cases := []struct{ name, symbol, supply string }{
		{"", "MTK", "1"},
		{`Evil"; }`, "MTK", "1"},
		{`back\slash`, "MTK", "1"},
		{"line\nbreak", "MTK", "1"},
		{"brace{", "MTK", "1"},
		{strings.Repeat("x", 65), "MTK", "1"},
		{"Token", "", "1"},
		{"Token", "M-T", "1"},
		{"Token", "TOOLONGSYMBOL12345", "1"},
		{"Token", "MTK", "-1"},
		{"Token", "MTK", "1.5"},
		{"Token", "MTK", "1; drop"},
		{"Token", "MTK", ""},
	}
	for _, tc := range cases {
		_, err := token.Deploy(ctx, tc.name, tc.symbol, tc.supply)
		assert.ErrorIs(t, err, ErrInvalidTemplateParam, "%q %q %q", tc.name, tc.symbol, tc.supply)
	}

	_, err := nft.Deploy(ctx, "Art", "A.R.T")
	assert.ErrorIs(t, err, ErrInvalidTemplateParam)

	assert.Empty(t, backend.calls)
}

func TestTokenSourceCanonicalSupply(t *testing.T) {
	code, err := TokenSource("Token", "TKN", "1e6")
	require.NoError(t, err)
	assert.Contains(t, code, "uint256 totalSupply = 1000000;")

	code, err = TokenSource("Ünïcode Token", "UNI", "0")
	require.NoError(t, err)
	assert.Contains(t, code, `string name = "Ünïcode Token";`)
}

// The scenarios below run the helpers against a real client and a mock
// RPC server.

func newMockRPC(t *testing.T, routes map[string]string) (*api.Client, *atomic.Int32) {
	t.Helper()
	requests := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{RPCURL: srv.URL, ChainID: "agefix-test-1", PrivateKey: "key"})
	require.NoError(t, err)
	return client, requests
}

func TestTokenScenario(t *testing.T) {
	client, requests := newMockRPC(t, map[string]string{
		"/deploy":  `{"contractAddress":"0xabc","txHash":"0x1","blockNumber":10}`,
		"/query":   `{"result":"500"}`,
		"/execute": `{"txHash":"0x2","blockNumber":11,"gasUsed":21000}`,
	})
	token := NewToken(client, "")
	ctx := context.Background()

	dep, err := token.Deploy(ctx, "MyToken", "MTK", "1000000")
	require.NoError(t, err)
	assert.Equal(t, &api.DeploymentResult{ContractAddress: "0xabc", TransactionHash: "0x1", BlockNumber: 10}, dep)
	assert.Equal(t, "0xabc", token.Address())

	balance, err := token.BalanceOf(ctx, "0xuser")
	require.NoError(t, err)
	assert.Equal(t, "500", balance)

	tx, err := token.Transfer(ctx, "0xto", "100")
	require.NoError(t, err)
	assert.Equal(t, &api.TransactionResult{TxHash: "0x2", BlockNumber: 11, GasUsed: 21000, Success: true}, tx)
	assert.EqualValues(t, 3, requests.Load())
}

func TestNFTHelperWithoutAddressMakesNoRequests(t *testing.T) {
	client, requests := newMockRPC(t, map[string]string{})
	nft := NewNFT(client, "")

	_, err := nft.Mint(context.Background(), "0xto", "ipfs://x")
	assert.ErrorIs(t, err, ErrNotDeployed)
	assert.Zero(t, requests.Load())
}
