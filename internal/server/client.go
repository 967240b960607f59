// Package server provides the media server REST client: ranged audio
// fetches, playback reporting, track acquisition, and lyrics.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the server has no such resource.
var ErrNotFound = errors.New("not found")

const userAgent = "tide/1.0 (https://github.com/llehouerou/tide)"

// Reporting calls are fire-and-forget and rate limited so a burst of
// track skips cannot flood the server.
const reportRatePerSec = 4

// Client is a media server API client.
type Client struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	reportLimiter *rate.Limiter
	playSessionID string
}

// New creates a client for the server at baseURL. A nil httpClient uses a
// default with a 30s timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:       baseURL,
		token:         token,
		httpClient:    httpClient,
		reportLimiter: rate.NewLimiter(rate.Limit(reportRatePerSec), 1),
		playSessionID: uuid.NewString(),
	}
}

// PlaySessionID returns the per-process play session identifier attached
// to playback reports.
func (c *Client) PlaySessionID() string {
	return c.playSessionID
}

// FetchRange fetches up to maxBytes of a track's audio resource.
// maxBytes <= 0 fetches the entire resource. The bool result reports
// whether the response was partial content.
func (c *Client) FetchRange(ctx context.Context, trackID string, maxBytes int64) ([]byte, bool, error) {
	reqURL := fmt.Sprintf("%s/Audio/%s/stream", c.baseURL, trackID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if maxBytes > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", maxBytes-1))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusNotFound:
		return nil, false, ErrNotFound
	default:
		return nil, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body := resp.Body
	if maxBytes > 0 {
		// Servers without range support return 200 with the full body.
		body = io.NopCloser(io.LimitReader(resp.Body, maxBytes))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}

	return data, resp.StatusCode == http.StatusPartialContent, nil
}

// get performs a GET and decodes a JSON response into out.
func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// post sends a JSON payload; the response body is discarded.
func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("X-MediaBrowser-Token", c.token)
	}
}
