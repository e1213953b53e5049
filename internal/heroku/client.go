// Package heroku is a narrow client for the parts of the Heroku Platform API
// that review-app reconciliation needs. It is not a general PaaS client.
package heroku

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
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL = "https://api.heroku.com"
	acceptHeader   = "application/vnd.heroku+json; version=3"
)

// ErrUnexpectedShape is returned when the platform answers with JSON that
// does not match the documented resource shape.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("heroku error (%d %s): %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("heroku returned %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	// RetryMax bounds transport retries on connection errors and 5xx answers.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Client talks to the Heroku Platform API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client configured from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Logger != nil {
		rc.Logger = opts.Logger
	} else {
		rc.Logger = slog.Default()
	}
	rc.HTTPClient.Timeout = opts.Timeout
	if rc.HTTPClient.Timeout == 0 {
		rc.HTTPClient.Timeout = 30 * time.Second
	}
	// Hand non-2xx answers back to do() so they become APIErrors.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: base,
		token:   opts.Token,
		http:    rc.StandardClient(),
	}
}

// do executes an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer res.Body.Close() //nolint:errcheck

	b, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var payload struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(b, &payload); jsonErr == nil {
			apiErr.ID = payload.ID
			apiErr.Message = payload.Message
		}
		return nil, apiErr
	}
	return b, nil
}

// decodeList decodes a JSON array, rejecting any other top-level value.
func decodeList[T any](b []byte, what string) ([]T, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected array of %s, got %s", ErrUnexpectedShape, what, jsonKind(trimmed))
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrUnexpectedShape, what, err)
	}
	return out, nil
}

func decodeObject[T any](b []byte, what string) (*T, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected %s object, got %s", ErrUnexpectedShape, what, jsonKind(trimmed))
	}
	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrUnexpectedShape, what, err)
	}
	return &out, nil
}

func jsonKind(b []byte) string {
	if len(b) == 0 {
		return "empty body"
	}
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}
