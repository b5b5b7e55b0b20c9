package erpnext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// attemptState tracks a single upload attempt through its lifecycle:
// Pending -> InFlight -> Succeeded | FailedRetryable -> Pending (after delay)
// | FailedTerminal.
type attemptState int

const (
	statePending attemptState = iota
	stateInFlight
	stateSucceeded
	stateFailedRetryable
	stateFailedTerminal
)

// do performs one authenticated request with bounded retries and a fixed
// delay between attempts. Connection errors and 5xx responses are retried;
// any other response is returned to the caller after the first attempt. The
// returned status and body are those of the final attempt.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, string, error) {
	var (
		lastStatus int
		lastBody   string
		lastErr    error
	)

	state := statePending
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if state == stateFailedRetryable {
			c.logger.Warn("retrying request",
				"method", method, "url", url,
				"attempt", attempt, "max_attempts", c.cfg.MaxAttempts)
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return 0, "", ctx.Err()
			}
			state = statePending
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, "", err
			}
		}

		state = stateInFlight
		status, respBody, err := c.attempt(ctx, method, url, body)
		switch {
		case err != nil && status != 0:
			// A status arrived but the body could not be read. The server
			// already processed the request, so re-sending could duplicate a
			// non-idempotent call.
			state = stateFailedTerminal
			return status, "", err
		case err != nil:
			// Connection-level failure; treated as retryable unless the
			// context itself is done.
			if ctx.Err() != nil {
				return 0, "", ctx.Err()
			}
			state = stateFailedRetryable
			lastErr = err
		case retryable(status):
			state = stateFailedRetryable
			lastStatus, lastBody, lastErr = status, respBody, nil
		case status >= 200 && status <= 299:
			state = stateSucceeded
			return status, respBody, nil
		default:
			// 3xx/4xx: terminal, surfaced to the caller immediately.
			state = stateFailedTerminal
			return status, respBody, nil
		}
	}

	if lastErr != nil {
		return 0, "", fmt.Errorf("erpnext: %s %s failed after %d attempts: %w",
			method, url, c.cfg.MaxAttempts, lastErr)
	}
	return lastStatus, lastBody, nil
}

// attempt issues a single authenticated HTTP request.
func (c *Client) attempt(ctx context.Context, method, url string, body []byte) (int, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, "", fmt.Errorf("erpnext: build request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, c.cfg.APISecret))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("erpnext: read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
