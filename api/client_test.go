package api

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type recorder struct {
	count  atomic.Int32
	bodies chan map[string]any
}

// newTestServer serves handler and records the number of requests and the
// decoded JSON bodies.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{bodies: make(chan map[string]any, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.count.Add(1)
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				var body map[string]any
				if err := json.Unmarshal(data, &body); err == nil {
					select {
					case rec.bodies <- body:
					default:
					}
				}
			}
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, url, key string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(Config{RPCURL: url, ChainID: "agefix-test-1", PrivateKey: key}, opts...)
	require.NoError(t, err)
	return c
}

func fastRetries(n int) Option {
	return WithRetryPolicy(RetryPolicy{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

func TestNewClientValidatesConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"empty url":      {ChainID: "c"},
		"bad scheme":     {RPCURL: "ftp://rpc.agefix.com", ChainID: "c"},
		"missing host":   {RPCURL: "http://", ChainID: "c"},
		"missing chain":  {RPCURL: "https://rpc.agefix.com"},
		"relative url":   {RPCURL: "rpc.agefix.com", ChainID: "c"},
		"blank chain id": {RPCURL: "https://rpc.agefix.com", ChainID: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(cfg)
			require.Error(t, err)
		})
	}

	c, err := NewClient(Config{RPCURL: "https://rpc.agefix.com/", ChainID: "agefix-mainnet-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.agefix.com", c.Endpoint())
	assert.Equal(t, "agefix-mainnet-1", c.ChainID())
	assert.False(t, c.HasSigner())
}

func TestDeployContract(t *testing.T) {
	var headers http.Header
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deploy", r.URL.Path)
		jsonHandler(http.StatusOK, `{"contractAddress":"0xabc","txHash":"0x1","blockNumber":10}`)(w, r)
	})
	c := newTestClient(t, srv.URL, testKey)

	res, err := c.DeployContract(context.Background(), "contract A {}", nil)
	require.NoError(t, err)
	assert.Equal(t, &DeploymentResult{ContractAddress: "0xabc", TransactionHash: "0x1", BlockNumber: 10}, res)

	body := <-rec.bodies
	assert.Equal(t, "contract A {}", body["code"])
	assert.Equal(t, []any{}, body["args"])
	assert.Equal(t, "agefix-test-1", body["chainId"])
	assert.Equal(t, testKey, body["privateKey"])

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, "agxcl-go/"+Version, headers.Get("User-Agent"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
}

func TestDeployContractWithoutKeySendsNull(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `{"contractAddress":"0xabc","txHash":"0x1","blockNumber":10}`))
	c := newTestClient(t, srv.URL, "")

	_, err := c.DeployContract(context.Background(), "contract A {}", []any{"x", 1})
	require.NoError(t, err)

	body := <-rec.bodies
	require.Contains(t, body, "privateKey")
	assert.Nil(t, body["privateKey"])
	assert.Equal(t, []any{"x", float64(1)}, body["args"])
}

func TestQueryContract(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		jsonHandler(http.StatusOK, `{"result":"500"}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "")

	res := c.QueryContract(context.Background(), "0xabc", "balanceOf", []any{"0xuser"})
	require.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, "500", res.String())
	require.NoError(t, res.Err())

	body := <-rec.bodies
	assert.Equal(t, "0xabc", body["contractAddress"])
	assert.Equal(t, "balanceOf", body["method"])
	assert.Equal(t, []any{"0xuser"}, body["args"])
	assert.Equal(t, "agefix-test-1", body["chainId"])
	assert.NotContains(t, body, "privateKey")
}

func TestQueryContractStructuredResult(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `{"result":{"owner":"0xdef","count":3}}`))
	c := newTestClient(t, srv.URL, "")

	res := c.QueryContract(context.Background(), "0xabc", "info", nil)
	require.True(t, res.Success)

	var info struct {
		Owner string `json:"owner"`
		Count int    `json:"count"`
	}
	require.NoError(t, res.Decode(&info))
	assert.Equal(t, "0xdef", info.Owner)
	assert.Equal(t, 3, info.Count)
}

func TestQueryContractConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, "")
	res := c.QueryContract(context.Background(), "0xabc", "balanceOf", []any{"0xuser"})
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, "", res.String())

	err := res.Err()
	require.Error(t, err)
	assert.Equal(t, KindQuery, KindOf(err))
}

func TestQueryContractFailuresAreInBand(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"status":        jsonHandler(http.StatusInternalServerError, `{"error":"vm panic"}`),
		"invalid json":  jsonHandler(http.StatusOK, `{"result":`),
		"missing field": jsonHandler(http.StatusOK, `{"value":"500"}`),
		"empty body":    jsonHandler(http.StatusOK, ``),
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, h)
			c := newTestClient(t, srv.URL, "")
			res := c.QueryContract(context.Background(), "0xabc", "balanceOf", nil)
			assert.False(t, res.Success)
			assert.Nil(t, res.Data)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestQueryContractNullResult(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `{"result":null}`))
	c := newTestClient(t, srv.URL, "")

	res := c.QueryContract(context.Background(), "0xabc", "ownerOf", []any{1})
	assert.True(t, res.Success)
	assert.Equal(t, "null", res.String())
}

func TestQueryResultString(t *testing.T) {
	for name, tc := range map[string]struct {
		data string
		want string
	}{
		"string":       {`"0xowner"`, "0xowner"},
		"empty string": {`""`, ""},
		"number":       {`12345678901234567890`, "12345678901234567890"},
		"null":         {`null`, "null"},
		"bool":         {`true`, "true"},
		"object":       {` {"a":1} `, `{"a":1}`},
	} {
		t.Run(name, func(t *testing.T) {
			res := QueryResult{Success: true, Data: json.RawMessage(tc.data)}
			assert.Equal(t, tc.want, res.String())
		})
	}

	assert.Equal(t, "", QueryResult{Success: false, Data: json.RawMessage(`"x"`)}.String())
	assert.Equal(t, "", QueryResult{Success: true}.String())
}

func TestExecuteTransaction(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		jsonHandler(http.StatusOK, `{"txHash":"0x2","blockNumber":11,"gasUsed":21000}`)(w, r)
	})
	c := newTestClient(t, srv.URL, testKey)

	res, err := c.ExecuteTransaction(context.Background(), "0xabc", "transfer", []any{"0xto", "100"}, "")
	require.NoError(t, err)
	assert.Equal(t, &TransactionResult{TxHash: "0x2", BlockNumber: 11, GasUsed: 21000, Success: true}, res)

	body := <-rec.bodies
	assert.Equal(t, "0xabc", body["contractAddress"])
	assert.Equal(t, "transfer", body["method"])
	assert.Equal(t, []any{"0xto", "100"}, body["args"])
	assert.Equal(t, "0", body["value"])
	assert.Equal(t, testKey, body["privateKey"])
}

func TestExecuteTransactionRequiresKey(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `{"txHash":"0x2","blockNumber":11,"gasUsed":21000}`))
	c := newTestClient(t, srv.URL, "")

	res, err := c.ExecuteTransaction(context.Background(), "0xabc", "transfer", nil, "0")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrPrivateKeyRequired))
	assert.Equal(t, KindMissingKey, KindOf(err))
	assert.Equal(t, "transaction execution failed: private key required for transactions", err.Error())
	assert.Zero(t, rec.count.Load())
}

func TestExecuteTransactionRejectsInvalidValue(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `{}`))
	c := newTestClient(t, srv.URL, testKey)

	for _, v := range []string{"abc", "-1", "0x10"} {
		_, err := c.ExecuteTransaction(context.Background(), "0xabc", "transfer", nil, v)
		require.Error(t, err, v)
		assert.True(t, errors.Is(err, ErrInvalidArgument), v)
	}
	assert.Zero(t, rec.count.Load())

	srv2, rec2 := newTestServer(t, jsonHandler(http.StatusOK, `{"txHash":"0x2","blockNumber":11,"gasUsed":21000}`))
	c2 := newTestClient(t, srv2.URL, testKey)
	_, err := c2.ExecuteTransaction(context.Background(), "0xabc", "deposit", nil, "1.5")
	require.NoError(t, err)
	body := <-rec2.bodies
	assert.Equal(t, "1.5", body["value"])
	assert.EqualValues(t, 1, rec2.count.Load())
}

func TestMalformedResponses(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `{"contractAddress":"0xabc","blockNumber":10}`))
	c := newTestClient(t, srv.URL, testKey)

	_, err := c.DeployContract(context.Background(), "contract A {}", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Contains(t, err.Error(), `missing field "txHash"`)

	srv2, _ := newTestServer(t, jsonHandler(http.StatusOK, `{"txHash":"0x2","blockNumber":11}`))
	c2 := newTestClient(t, srv2.URL, testKey)
	_, err = c2.ExecuteTransaction(context.Background(), "0xabc", "transfer", nil, "0")
	assert.Equal(t, KindMalformedResponse, KindOf(err))
	assert.Contains(t, err.Error(), "gasUsed")

	srv3, _ := newTestServer(t, jsonHandler(http.StatusOK, `{}`))
	c3 := newTestClient(t, srv3.URL, "")
	_, err = c3.EstimateGas(context.Background(), "0xabc", "transfer", nil)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
	_, err = c3.GetBalance(context.Background(), "0xabc")
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestNegativeNumbersAreRejected(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `{"contractAddress":"0xabc","txHash":"0x1","blockNumber":-1}`))
	c := newTestClient(t, srv.URL, testKey)

	_, err := c.DeployContract(context.Background(), "contract A {}", nil)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestStatusErrorSurfacesServerMessage(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusBadRequest, `{"error":"syntax error at line 3"}`))
	c := newTestClient(t, srv.URL, testKey)

	_, err := c.DeployContract(context.Background(), "contract {", nil)
	require.Error(t, err)
	assert.Equal(t, "contract deployment failed: status 400: syntax error at line 3", err.Error())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, apiErr.Retryable())
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestStatusErrorPlainBody(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})
	c := newTestClient(t, srv.URL, "")

	_, err := c.GetTransactionReceipt(context.Background(), "0x1")
	require.Error(t, err)
	assert.Equal(t, "get transaction receipt failed: status 502: upstream unavailable", err.Error())
	assert.True(t, IsRetryable(err))
}

func TestWritesAreNeverRetried(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusServiceUnavailable, `{"message":"busy"}`))
	c := newTestClient(t, srv.URL, testKey, fastRetries(3))

	_, err := c.DeployContract(context.Background(), "contract A {}", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, rec.count.Load())

	_, err = c.ExecuteTransaction(context.Background(), "0xabc", "transfer", nil, "0")
	require.Error(t, err)
	assert.EqualValues(t, 2, rec.count.Load())
}

func TestReadsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			jsonHandler(http.StatusServiceUnavailable, `{"message":"busy"}`)(w, r)
			return
		}
		jsonHandler(http.StatusOK, `{"balance":"42"}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "", fastRetries(3))

	balance, err := c.GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "42", balance)
	assert.EqualValues(t, 3, rec.count.Load())
}

func TestRetriesAreBounded(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusTooManyRequests, `{}`))
	c := newTestClient(t, srv.URL, "", fastRetries(2))

	res := c.QueryContract(context.Background(), "0xabc", "balanceOf", nil)
	assert.False(t, res.Success)
	assert.EqualValues(t, 3, rec.count.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusNotFound, `{"error":"unknown tx"}`))
	c := newTestClient(t, srv.URL, "", fastRetries(3))

	_, err := c.GetTransactionReceipt(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.EqualValues(t, 1, rec.count.Load())
}

func TestDefaultPolicyMakesOneAttempt(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusServiceUnavailable, `{}`))
	c := newTestClient(t, srv.URL, "")

	_, err := c.EstimateGas(context.Background(), "0xabc", "transfer", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, rec.count.Load())
}

func TestGetTransactionReceipt(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tx/0xdead%2Fbeef", r.URL.EscapedPath())
		jsonHandler(http.StatusOK, `{"status":"success","blockNumber":12,"logs":[{"event":"Transfer"}]}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "")

	receipt, err := c.GetTransactionReceipt(context.Background(), "0xdead/beef")
	require.NoError(t, err)
	assert.Equal(t, "success", receipt.Status())
	assert.Equal(t, json.Number("12"), receipt["blockNumber"])
	assert.Len(t, receipt["logs"], 1)
}

func TestGetTransactionReceiptNull(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `null`))
	c := newTestClient(t, srv.URL, "")

	_, err := c.GetTransactionReceipt(context.Background(), "0x1")
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestGetBalance(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/balance/0xabc", r.URL.Path)
		jsonHandler(http.StatusOK, `{"balance":123456789012345678901234567890}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "")

	balance, err := c.GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", balance)

	_, err = c.GetBalance(context.Background(), " ")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestEstimateGas(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/estimateGas", r.URL.Path)
		jsonHandler(http.StatusOK, `{"gasEstimate":53000}`)(w, r)
	})
	c := newTestClient(t, srv.URL, testKey)

	gas, err := c.EstimateGas(context.Background(), "0xabc", "transfer", []any{"0xto", "1"})
	require.NoError(t, err)
	assert.EqualValues(t, 53000, gas)

	body := <-rec.bodies
	assert.Equal(t, "transfer", body["method"])
	assert.NotContains(t, body, "privateKey")
}

func TestTimeoutIsTransportError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		jsonHandler(http.StatusOK, `{"gasEstimate":1}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "", WithTimeout(20*time.Millisecond))

	_, err := c.EstimateGas(context.Background(), "0xabc", "transfer", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestCanceledContextStopsRetries(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusServiceUnavailable, `{}`))
	c := newTestClient(t, srv.URL, "", WithRetryPolicy(RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetBalance(ctx, "0xabc")
	require.Error(t, err)
	assert.EqualValues(t, 1, rec.count.Load())
}

func TestWithHeader(t *testing.T) {
	var got string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		jsonHandler(http.StatusOK, `{"balance":"1"}`)(w, r)
	})
	c := newTestClient(t, srv.URL, "", WithHeader("Authorization", "Bearer t0k3n"))

	_, err := c.GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0k3n", got)
}

func TestConfigIsCopied(t *testing.T) {
	cfg := Config{RPCURL: "https://rpc.agefix.com", ChainID: "agefix-mainnet-1", PrivateKey: testKey}
	c, err := NewClient(cfg)
	require.NoError(t, err)

	cfg.ChainID = "changed"
	got := c.Config()
	got.PrivateKey = ""
	assert.Equal(t, "agefix-mainnet-1", c.ChainID())
	assert.True(t, c.HasSigner())
	assert.True(t, strings.HasPrefix(c.Config().PrivateKey, "4c08"))
	assert.Empty(t, got.PrivateKey)
}
