package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single round trip when the caller does not configure one.
const DefaultTimeout = 10 * time.Second

// Error is returned for every failed round trip: connection, DNS, TLS, timeout,
// cancellation, or a non-2xx status.
type Error struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("request to %s failed: %v", redact(e.URL), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Client issues single GET requests and returns the raw response body.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new Client. A nil httpClient uses a fresh http.Client and a
// non-positive timeout uses DefaultTimeout.
func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: httpClient, timeout: timeout}
}

// Send performs one GET against rawURL. There are no retries.
func (c *Client) Send(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Cause: fmt.Errorf("failed to create request: %w", redactCause(err))}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Cause: redactCause(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &Error{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("received non-OK status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	return body, nil
}

// redactCause strips the api key from the URL that net/http repeats in its errors.
func redactCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL)
	}
	return err
}

// redact hides the api key so URLs can be logged and returned in errors.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
