// Package source resolves track media and lyrics for the playback
// controller, layering the offline artifact cache over the server
// client.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/tide/internal/lyrics"
	"github.com/llehouerou/tide/internal/offline"
	"github.com/llehouerou/tide/internal/server"
)

// Client is the slice of the server client the source needs.
type Client interface {
	FetchRange(ctx context.Context, trackID string, maxBytes int64) ([]byte, bool, error)
	Lyrics(ctx context.Context, trackID string) ([]byte, error)
}

// Service fetches media and lyrics, consulting the offline cache for
// lyrics before going to the server.
type Service struct {
	client Client
	cache  *offline.Cache
}

// New creates a source over the given client and offline cache.
func New(client Client, cache *offline.Cache) *Service {
	return &Service{client: client, cache: cache}
}

// Media fetches the full audio payload for a track.
func (s *Service) Media(ctx context.Context, trackID string) ([]byte, error) {
	data, _, err := s.client.FetchRange(ctx, trackID, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	return data, nil
}

// Lyrics returns the parsed lyrics timeline for a track, or (nil, nil)
// when the server has none. Raw payloads are cached offline so repeat
// plays work without the server.
func (s *Service) Lyrics(ctx context.Context, trackID string) (*lyrics.Timeline, error) {
	if raw := s.cache.Get(trackID, offline.KindLyrics); raw != nil {
		return lyrics.Parse(raw), nil
	}

	payload, err := s.client.Lyrics(ctx, trackID)
	if errors.Is(err, server.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch lyrics: %w", err)
	}

	s.cache.Put(trackID, offline.KindLyrics, payload)
	return lyrics.Parse(payload), nil
}
