// Package neon is a small client for the Neon control-plane REST API (v2).
package neon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/neonsql/internal/logging"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

const (
	// DefaultBaseURL is the public control-plane endpoint.
	DefaultBaseURL = "https://console.neon.tech/api/v2/"

	// APIKeyEnvVar holds the API key when --api-key is not given.
	APIKeyEnvVar = "NEON_API_KEY"

	// RequestIDHeader carries a per-call uuid for support correlation.
	RequestIDHeader = "X-Request-ID"

	projectsPageLimit  = 400
	maxErrorBody       = 4096
)

// Client calls the Neon API with a bearer token.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	logger     neonsql.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root (tests, private deployments).
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if raw == "" {
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api url %q: %w", raw, neonsql.ErrInvalidConfig)
		}
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithLogger enables request logging.
func WithLogger(l neonsql.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// NewClient returns a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("neon api key is required (--api-key or %s): %w", APIKeyEnvVar, neonsql.ErrInvalidConfig)
	}

	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: neonsql.DefaultAPITimeout},
		logger:     logging.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Verbose("neon %s %s (request %s)", method, target, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("neon %s %s: %w: %w", method, target, neonsql.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w: %w", neonsql.ErrAPIRequest, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &neonsql.APIError{Status: resp.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
