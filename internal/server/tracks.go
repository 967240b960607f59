package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/llehouerou/tide/internal/media"
)

// maxExcludeIDs caps the id list sent per request; larger exclusion sets
// are chunked into multiple requests.
const maxExcludeIDs = 50

// TrackQuery selects a batch of tracks.
type TrackQuery struct {
	Genres     []string
	StartIndex int
	Limit      int
	ExcludeIDs []string
}

// Tracks fetches a batch of audio tracks and the total count matching the
// query. Exclusion-by-id lists longer than the per-request cap are
// chunked; results are merged, filtered against the full exclusion set
// and deduplicated client-side.
func (c *Client) Tracks(ctx context.Context, q TrackQuery) ([]media.Track, int, error) {
	if len(q.ExcludeIDs) <= maxExcludeIDs {
		return c.tracksPage(ctx, q, q.ExcludeIDs)
	}

	excluded := make(map[string]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = true
	}

	var merged []media.Track
	total := 0
	for _, chunk := range lo.Chunk(q.ExcludeIDs, maxExcludeIDs) {
		tracks, chunkTotal, err := c.tracksPage(ctx, q, chunk)
		if err != nil {
			return nil, 0, err
		}
		if chunkTotal > total {
			total = chunkTotal
		}
		for _, t := range tracks {
			if !excluded[t.ID] {
				merged = append(merged, t)
			}
		}
	}

	merged = dedupeTracks(merged)
	if q.Limit > 0 && len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}
	return merged, total, nil
}

// tracksPage performs one items request.
func (c *Client) tracksPage(ctx context.Context, q TrackQuery, excludeIDs []string) ([]media.Track, int, error) {
	query := map[string]string{
		"IncludeItemTypes": "Audio",
		"Recursive":        "true",
		"StartIndex":       strconv.Itoa(q.StartIndex),
	}
	if q.Limit > 0 {
		query["Limit"] = strconv.Itoa(q.Limit)
	}
	if len(q.Genres) > 0 {
		query["Genres"] = strings.Join(q.Genres, "|")
	}
	if len(excludeIDs) > 0 {
		query["ExcludeItemIds"] = strings.Join(excludeIDs, ",")
	}

	var page itemsPage
	if err := c.get(ctx, "/Items", query, &page); err != nil {
		return nil, 0, err
	}

	tracks := make([]media.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, page.TotalRecordCount, nil
}

// dedupeTracks drops duplicates across merged chunk results, keeping
// first occurrences.
func dedupeTracks(tracks []media.Track) []media.Track {
	seen := make(map[string]bool, len(tracks))
	result := tracks[:0]
	for _, t := range tracks {
		if t.ID != "" && seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		result = append(result, t)
	}
	return result
}
