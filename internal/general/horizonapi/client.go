package horizonapi

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

	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedResponse means the store answered with a payload that does
	// not satisfy the wire contract. The boundary fails fast instead of
	// silently defaulting fields.
	ErrMalformedResponse = errors.New("malformed response from store")

	// ErrUnauthorized means the store rejected the credentials or token.
	ErrUnauthorized = errors.New("store rejected credentials")

	// ErrRequestFailed covers transport failures and non-2xx statuses.
	ErrRequestFailed = errors.New("store request failed")
)

// Ensure Client implements the ports.TourStore interface.
var _ ports.TourStore = (*Client)(nil)

// Client talks to the remote store of record over its REST API. All
// correctness-relevant reads and writes of the coordinator go through here.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *logger.Logger
	token    func() string // current bearer token; empty before login
}

// NewClient constructs a store client. token supplies the session bearer
// token per request so the client never caches credentials itself.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   log,
		token:    token,
	}
}

// do executes one JSON round trip against the store.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s %s returned status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// check validates a decoded wire struct against its contract tags.
func (c *Client) check(wire any) error {
	if err := c.validate.Struct(wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
