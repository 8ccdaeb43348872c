package gateways

import (
	"crypto/tls"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	// Max retries for transient errors
	maxRetries = 3
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second

	userAgent = "ctkrunner/1.0"
)

// retryingClient wraps an http.Client with exponential backoff on transient failures
type retryingClient struct {
	client  *http.Client
	backoff time.Duration
}

func newRetryingClient(timeout time.Duration, sslVerify bool) *retryingClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !sslVerify {
		//nolint:gosec // G402: sslVerify=false is an explicit operator choice for internal mirrors
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &retryingClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		backoff: initialBackoff,
	}
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	backoff := float64(base) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// checkRateLimit returns an error when GitHub reports an exhausted rate limit
func checkRateLimit(resp *http.Response) error {
	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || remaining > 0 {
		return nil
	}
	if resetUnix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		return fmt.Errorf("GitHub API rate limit exceeded, resets at %s", time.Unix(resetUnix, 0).Format(time.RFC3339))
	}
	return fmt.Errorf("GitHub API rate limit exceeded")
}

// do executes an HTTP request with exponential backoff retry. The request must
// have no body or a rewindable one.
func (c *retryingClient) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(calculateBackoff(c.backoff, attempt-1)):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		resp, err = c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			if attempt < maxRetries && req.Context().Err() == nil {
				continue
			}
			return nil, err
		}

		if rateLimitErr := checkRateLimit(resp); rateLimitErr != nil {
			//nolint:errcheck,gosec // G104: Best effort close on rate limit error
			resp.Body.Close()
			return nil, rateLimitErr
		}

		// Success or non-retryable error
		if !isRetryableError(resp.StatusCode) || attempt == maxRetries {
			return resp, nil
		}

		//nolint:errcheck,gosec // G104: Best effort close before retry
		resp.Body.Close()
	}

	return resp, err
}
