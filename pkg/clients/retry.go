package clients

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures retry behavior for outbound HTTP calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// JitterMax adds a uniform random delay in [0, JitterMax) to each wait.
	JitterMax time.Duration
	RetryFunc func(resp *http.Response, err error) bool
}

// DefaultRetryConfig returns the retry policy used for upstream AI calls:
// three attempts, one second base delay doubling per attempt, up to one
// second of jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterMax:   time.Second,
		RetryFunc:   DefaultShouldRetry,
	}
}

// DefaultShouldRetry retries transport errors, rate limits and server errors.
// Client errors other than 429 are terminal.
func DefaultShouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

// RetryAfterDelay parses a Retry-After response header into a duration.
// Returns zero when absent or unparseable. Only the delta-seconds form is
// supported since that is what upstream AI providers send.
func RetryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// DoWithRetry executes an HTTP request with exponential backoff. A server
// supplied Retry-After acts as a floor on the computed backoff, never a cap.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, config RetryConfig) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	// Snapshot the body so each attempt can resend it.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-2)))
			// MaxDelay caps the computed backoff only; the server's
			// Retry-After is a floor and wins even beyond the cap.
			if config.MaxDelay > 0 && delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			if floor := RetryAfterDelay(lastResp); floor > delay {
				delay = floor
			}
			if config.JitterMax > 0 {
				delay += time.Duration(rand.Int63n(int64(config.JitterMax)))
			}

			if lastResp != nil && lastResp.Body != nil {
				lastResp.Body.Close()
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var attemptReq *http.Request
		if bodyBytes != nil {
			attemptReq, lastErr = http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(bodyBytes))
		} else {
			attemptReq, lastErr = http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
		}
		if lastErr != nil {
			return nil, lastErr
		}
		attemptReq.Header = req.Header.Clone()
		attemptReq.ContentLength = int64(len(bodyBytes))

		resp, err := client.Do(attemptReq)
		lastResp = resp
		lastErr = err

		if !config.RetryFunc(resp, err) {
			return resp, err
		}
	}

	return lastResp, lastErr
}
