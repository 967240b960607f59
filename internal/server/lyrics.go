package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Lyrics fetches the raw lyrics payload for a track. The payload may be
// structured JSON with tick-based line starts or plain text; the caller
// detects the format by shape. Returns ErrNotFound when the server has
// no lyrics for the track.
func (c *Client) Lyrics(ctx context.Context, trackID string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/Audio/%s/Lyrics", c.baseURL, trackID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return payload, nil
}
