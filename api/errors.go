package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	KindTransport         Kind = "transport"
	KindStatus            Kind = "status"
	KindDecode            Kind = "decode"
	KindMalformedResponse Kind = "malformed_response"
	KindMissingKey        Kind = "missing_key"
	KindInvalidArgument   Kind = "invalid_argument"
	// KindQuery marks an in-band query failure converted with QueryResult.Err.
	KindQuery Kind = "query"
)

// Operation names used in error messages.
const (
	OpDeploy   = "contract deployment"
	OpQuery    = "contract query"
	OpExecute  = "transaction execution"
	OpReceipt  = "get transaction receipt"
	OpBalance  = "get balance"
	OpEstimate = "estimate gas"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrTransport         = &Error{Kind: KindTransport}
	ErrStatus            = &Error{Kind: KindStatus}
	ErrDecode            = &Error{Kind: KindDecode}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}

	// ErrPrivateKeyRequired is returned by ExecuteTransaction when the
	// client has no signing key.
	ErrPrivateKeyRequired = &Error{Op: OpExecute, Kind: KindMissingKey, Err: errors.New("private key required for transactions")}
)

// Error is returned by every failing Client operation.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := e.Op
	if op == "" {
		op = "request"
	}
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s failed: status %d: %s", op, e.StatusCode, e.message())
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", op, e.Err)
	default:
		return fmt.Sprintf("%s failed: %s", op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by Kind, so callers can test against the
// package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether repeating the same idempotent call may succeed.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return e.StatusCode == http.StatusTooManyRequests ||
			e.StatusCode == http.StatusRequestTimeout ||
			(e.StatusCode >= 500 && e.StatusCode <= 599)
	default:
		return false
	}
}

// message extracts the server supplied reason from a non-2xx body.
func (e *Error) message() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return http.StatusText(e.StatusCode)
	}
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return body
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) > 0 {
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return body
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsRetryable reports whether err is an *Error worth retrying.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
