// Package upstream implements the client for the remote ticket API, the
// source of truth for tickets, customers, documents and notifications.
// Every call takes an explicit Credential so no ambient authentication
// state exists anywhere in the application.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Credential carries the caller's bearer token for one upstream call.
// Tokens are issued elsewhere; this service only forwards them.
type Credential struct {
	Token string
}

// APIError is a structured failure from the upstream API.  Status is the
// HTTP status code, or 0 for transport-level failures.  Message is
// suitable for direct display to the operator.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("upstream: %s", e.Message)
}

// envelope is the uniform response wrapper used by every upstream
// endpoint: {success, requestId, error, data}.
type envelope struct {
	Success   bool            `json:"success"`
	RequestID string          `json:"requestId"`
	Error     *string         `json:"error"`
	Data      json.RawMessage `json:"data"`
}

// Client talks to the upstream ticket API.  It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a Client for the given base URL.  The timeout bounds
// every request end to end, so a persist call that would otherwise hang
// resolves as a transport failure instead of leaving optimistic state
// displayed forever.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// do performs one request against the upstream API.  The request body is
// JSON-encoded when non-nil, the envelope is unwrapped, and the data
// payload is decoded into out when out is non-nil.  A 204 response is
// treated as success with no payload.  Failures of any kind are returned
// as *APIError.
func (c *Client) do(ctx context.Context, cred Credential, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		if env.Error != nil && *env.Error != "" {
			msg = *env.Error
		}
		c.logger.Warn("upstream rejected request",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode), zap.String("request_id", env.RequestID))
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("decode payload: %v", err)}
	}
	return nil
}
