package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/ratelimit"
)

const (
	// DefaultTimeout ...
	DefaultTimeout = 30 * time.Second
)

// Client is an http client returning status code and body of every response
// as string. Outgoing requests can be rate limited.
type Client struct {
	client  *http.Client
	limiter ratelimit.Limiter
}

// NewClient returns a new Client. A non positive timeout falls back to
// DefaultTimeout, a non positive rps disables rate limiting.
func NewClient(timeout time.Duration, rps int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// NewHTTPRequest function builds http call
// @param method <string>: http method
// @param url <string>: URL http to call
// @return <int>, <string>, error
func (c *Client) NewHTTPRequest(
	ctx context.Context,
	method, url, bodyString string,
	header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet, http.MethodDelete:
		return c.do(ctx, method, url, nil, header)
	case http.MethodPost:
		return c.do(ctx, method, url, strings.NewReader(bodyString), header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

func (c *Client) do(
	ctx context.Context,
	method, url string,
	body io.Reader,
	header map[string]string,
) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	c.limiter.Take()

	rs, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return rs.StatusCode, string(bodyBytes), nil
}
