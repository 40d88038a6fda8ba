package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"golang.org/x/oauth2"
)

// headerTransport sets a fixed set of headers on every outgoing request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient creates an HTTP client that authenticates with a bearer token
// and adds the given headers to every request
func newHTTPClient(token string, headers map[string]string, timeout time.Duration) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)

	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base: &headerTransport{
				base:    http.DefaultTransport,
				headers: headers,
			},
		},
	}
}

// restClient issues JSON requests against a single API
type restClient struct {
	service string
	http    *http.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// do sends body (if any) as JSON and decodes a 200 response into out (if any).
// Any other status is returned as an *APIError carrying the response body.
func (c *restClient) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		c.logger.Debug().Str("method", method).Str("url", url).RawJSON("payload", data).Msg("request")
	} else {
		c.logger.Debug().Str("method", method).Str("url", url).Msg("request")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(c.service, 0)
		return fmt.Errorf("failed to %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(c.service, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Service:    c.service,
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}
