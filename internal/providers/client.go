package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	// Retry configuration: transient failures (network, 429, 5xx) are
	// retried a bounded number of times, everything else is permanent.
	maxRetries = 2
)

// ErrNotFound is returned when the provider has no item for the id.
var ErrNotFound = fmt.Errorf("provider item not found")

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// getJSON performs a rate-limited GET with bounded retry and decodes the
// response body into target.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, target any) error {
	operation := func() error {
		if err := limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("provider returned status %d", resp.StatusCode))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

func str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intp(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func floatp(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
