package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 30 * time.Second

// responses larger than this are rejected rather than buffered
const maxResponseBytes = 8 << 20

// Client issues requests to an AGXCL RPC endpoint. It holds no mutable
// state after construction; calls are expected to be issued one at a time.
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	timeout    time.Duration
	retry      RetryPolicy
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetryPolicy enables retries for idempotent reads.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.RPCURL = strings.TrimRight(strings.TrimSpace(cfg.RPCURL), "/")
	cfg.ChainID = strings.TrimSpace(cfg.ChainID)
	cfg.PrivateKey = strings.TrimSpace(cfg.PrivateKey)

	c := &Client{
		config:     cfg,
		baseURL:    cfg.RPCURL,
		httpClient: &http.Client{},
		headers:    make(http.Header),
		timeout:    DefaultTimeout,
		retry:      DefaultRetryPolicy,
		log:        zap.NewNop(),
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	c.headers.Set("User-Agent", "agxcl-go/"+Version)

	for _, opt := range opts {
		opt(c)
	}
	c.retry = c.retry.normalized()
	return c, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Endpoint returns the RPC base URL.
func (c *Client) Endpoint() string {
	return c.baseURL
}

// ChainID returns the configured chain identifier.
func (c *Client) ChainID() string {
	return c.config.ChainID
}

// HasSigner reports whether the client can execute transactions.
func (c *Client) HasSigner() bool {
	return c.config.HasSigner()
}

// validator is implemented by response payloads with required fields.
type validator interface {
	validate() error
}

// call performs one logical operation. Idempotent calls follow the retry
// policy; others make exactly one attempt.
func (c *Client) call(ctx context.Context, op, method, path string, payload, out any, idempotent bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return &Error{Op: op, Kind: KindInvalidArgument, Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
	}

	maxRetries := 0
	if idempotent {
		maxRetries = c.retry.MaxRetries
	}

	var bo *backoff
	for attempt := 0; ; attempt++ {
		err := c.send(ctx, op, method, path, body, out)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}

		if bo == nil {
			bo = newBackoff(c.retry)
		}
		delay := bo.forAttempt(attempt)
		c.log.Warn("retrying request",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleepContext(ctx, delay); err != nil {
			return &Error{Op: op, Kind: KindTransport, Err: err}
		}
	}
}

func (c *Client) send(ctx context.Context, op, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindInvalidArgument, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = c.headers.Clone()
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(data) > maxResponseBytes {
		return &Error{Op: op, Kind: KindDecode, Err: fmt.Errorf("response exceeds %d bytes", maxResponseBytes)}
	}

	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode, Body: data}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty response body")
		}
		return &Error{Op: op, Kind: KindDecode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return &Error{Op: op, Kind: KindMalformedResponse, Err: err}
		}
	}
	return nil
}
