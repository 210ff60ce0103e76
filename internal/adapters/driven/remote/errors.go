package remote

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// defaultRetryAfter is assumed when the service rate-limits without a
// Retry-After header.
const defaultRetryAfter = 5 * time.Second

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.URL)
}

// classifyStatus maps an HTTP status onto the engine's error taxonomy:
// 429 is a rate-limit signal with its mandated delay, 5xx is transient,
// any other client error is fatal.
func classifyStatus(resp *http.Response, message, url string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: message, URL: url}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{RetryAfter: parseRetryAfter(resp)}
	case resp.StatusCode >= 500:
		return &domain.TransientError{Cause: apiErr}
	default:
		return &domain.FatalError{Cause: apiErr}
	}
}

// parseRetryAfter reads the Retry-After header in seconds.
func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}
