// Package fetch issues single-shot JSON requests against the ledger service
// and normalizes every failure into one *Error carrying a readable message.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"clubdash/internal/core"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindNetwork Kind = "network"
	KindAPI     Kind = "api"
	KindDecode  Kind = "decode"
)

// Error is the single error type returned by Client.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is maps kinds onto the shared error taxonomy.
func (e *Error) Is(target error) bool {
	switch target {
	case core.ErrNetwork:
		return e.Kind == KindNetwork
	case core.ErrAPI:
		return e.Kind == KindAPI || e.Kind == KindDecode
	case core.ErrNotFound:
		return e.Kind == KindAPI && e.Status == http.StatusNotFound
	}
	return false
}

// Option customizes a single request.
type Option func(*http.Request)

// WithHeader merges a caller-supplied header into the request.
func WithHeader(key, value string) Option {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Client is a thin JSON client bound to a base URL. No retry, no backoff and
// no client-side timeout: cancellation is driven by the caller's context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for baseURL using http.DefaultClient.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: http.DefaultClient}
}

// Do sends one request. body is JSON-encoded when non-nil; out is decoded from
// a successful response when non-nil.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts ...Option) error {
	url := c.BaseURL + endpoint

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Message: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("build request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "API call failed", "method", method, "url", url, "error", err)
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("Network Error: %v", err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ferr := &Error{Kind: KindAPI, Status: resp.StatusCode, Message: errorMessage(resp)}
		slog.WarnContext(ctx, "API call returned error status",
			"method", method, "url", url, "status_code", resp.StatusCode, "error", ferr.Message)
		return ferr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Kind:    KindDecode,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Unexpected response from %s: %v", endpoint, err),
			Err:     err,
		}
	}
	return nil
}

// errorMessage extracts "detail" (FastAPI) or "error" from a JSON error body,
// falling back to "API Error: {status}".
func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("API Error: %d", resp.StatusCode)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return fallback
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	var detail string
	if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if body.Error != "" {
		return body.Error
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the ledger.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

// Message returns the human readable message of any error, preferring *Error.
func Message(err error) string {
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.Message
	}
	return err.Error()
}
