// Package source implements the concrete external-data adapters: economic
// calendar, news search, NBA stats, odds feed, and the calendar-write sink.
// Each is a thin typed HTTP client that returns normalized records or a
// typed adapter error — no orchestration, no retry (that's the executor's
// job).
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
)

// apiClient is the shared plumbing for the HTTP sources.
type apiClient struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(name, baseURL, apiKey string, client *http.Client) apiClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return apiClient{name: name, baseURL: baseURL, apiKey: apiKey, http: client}
}

// getJSON performs a GET and decodes the JSON response into out. Failures
// come back as *adapter.Error with the transport detail wrapped, never as a
// raw net error.
func (c *apiClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &adapter.Error{Kind: adapter.KindBadRequest, Op: path, Source: c.name, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &adapter.Error{Kind: transportKind(err), Op: path, Source: c.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &adapter.Error{
			Kind:   adapter.KindFromStatus(resp.StatusCode),
			Op:     path,
			Source: c.name,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &adapter.Error{Kind: adapter.KindInternal, Op: path, Source: c.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// postJSON posts a JSON body and decodes the response into out (out may be
// nil to discard).
func (c *apiClient) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &adapter.Error{Kind: adapter.KindBadRequest, Op: path, Source: c.name, Err: fmt.Errorf("marshal body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &adapter.Error{Kind: adapter.KindBadRequest, Op: path, Source: c.name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &adapter.Error{Kind: transportKind(err), Op: path, Source: c.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &adapter.Error{
			Kind:   adapter.KindFromStatus(resp.StatusCode),
			Op:     path,
			Source: c.name,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, respBody),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &adapter.Error{Kind: adapter.KindInternal, Op: path, Source: c.name, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// transportKind classifies a transport-level failure: deadline and net
// timeouts are timeouts, everything else counts as provider unavailability.
func transportKind(err error) adapter.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return adapter.KindTimeout
	}
	return adapter.KindUnavailable
}

const apiTimeFormat = "2006-01-02T15:04:05Z"
