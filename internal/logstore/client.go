package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mrwolf/moodcast/internal/mood"
)

// ErrUnauthorized is returned when the log store rejects the forwarded credential
var ErrUnauthorized = errors.New("log store rejected credential")

// Client fetches mood logs from the upstream log store. The bearer
// credential of the caller is forwarded as-is.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
}

// NewClient creates a new log store client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		maxAttempts: 3,
		backoff:     time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBackoff overrides the base retry delay
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// LogsResponse is the body of GET /api/mood-logs-category
type LogsResponse struct {
	Success bool          `json:"success"`
	Logs    []mood.RawLog `json:"logs"`
	Message string        `json:"message,omitempty"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("log store returned status %d: %s", e.status, e.body)
}

// FetchLogs retrieves the caller's categorized mood logs. Transport errors
// and 5xx responses are retried with exponential backoff (up to 3 attempts).
func (c *Client) FetchLogs(ctx context.Context, credential string) ([]mood.RawLog, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s
			backoff := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		logs, err := c.doFetch(ctx, credential)
		if err == nil {
			return logs, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doFetch(ctx context.Context, credential string) ([]mood.RawLog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/mood-logs-category", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	}

	var body LogsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if body.Logs == nil {
		body.Logs = []mood.RawLog{}
	}
	return body.Logs, nil
}

func retryable(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	return true
}

// HealthCheck verifies the log store is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("log store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("log store returned status %d", resp.StatusCode)
	}
	return nil
}
