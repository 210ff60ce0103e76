package remote

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

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

const (
	// DefaultBaseURL is the service's API root.
	DefaultBaseURL = "https://api.marginalia.dev"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond is the proactive throttle rate. The
	// service allows 240 requests/minute; staying under 4/sec keeps a
	// healthy margin before the reactive 429 path ever triggers.
	DefaultRequestsPerSecond = 4
)

// Config configures the HTTP client. Token is required.
type Config struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// Token is the API access token.
	Token string

	// RequestsPerSecond overrides the proactive throttle rate.
	RequestsPerSecond float64

	// HTTPClient overrides the underlying client, for tests.
	HTTPClient *http.Client
}

// Client issues authenticated, throttled requests against the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a client from config. The access token rides on every
// request via an oauth2 token source.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// do executes one request: wait for the throttle, send, classify failures
// onto the engine's taxonomy, decode success.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.FatalError{Cause: err}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &domain.FatalError{Cause: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return &domain.FatalError{Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &domain.FatalError{Cause: ctx.Err()}
		}
		// Connection resets, timeouts, DNS hiccups: worth retrying.
		return &domain.TransientError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp, readErrorMessage(resp.Body), endpoint)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.FatalError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readErrorMessage pulls a short error description out of a failure body.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
