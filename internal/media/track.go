// Package media defines the track model shared by the playback engine.
package media

import (
	"sort"
	"strings"
	"time"
)

// TicksPerSecond is the server's time unit: 10,000,000 ticks per second.
const TicksPerSecond = 10_000_000

// TicksToDuration converts server ticks to a time.Duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

// DurationToTicks converts a time.Duration to server ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d / 100)
}

// Track represents a single audio item fetched from the server.
// Tracks are immutable once fetched; all mutation happens on playlists.
type Track struct {
	ID           string
	Name         string
	Artists      []string
	Album        string
	AlbumID      string
	RunTimeTicks int64
	ImageTags    map[string]string
}

// Duration returns the track runtime as a time.Duration.
func (t Track) Duration() time.Duration {
	return TicksToDuration(t.RunTimeTicks)
}

// PrimaryImageTag returns the primary image tag, or empty if none.
func (t Track) PrimaryImageTag() string {
	return t.ImageTags["Primary"]
}

// DisplayArtist returns the artists joined for display.
func (t Track) DisplayArtist() string {
	return strings.Join(t.Artists, ", ")
}

// SameAs reports whether two tracks refer to the same item.
//
// Identifier equality always wins. When both identifiers are set and differ,
// the tracks are distinct. The (name, artist-set) fallback applies only when
// an identifier is missing, which happens when deduplicating across
// heterogeneous sources. The fallback is a heuristic: two genuinely distinct
// tracks with identical title and artists will be treated as the same. This
// is an accepted approximation, not a correctness guarantee.
func (t Track) SameAs(other Track) bool {
	if t.ID != "" && other.ID != "" {
		return t.ID == other.ID
	}
	if !strings.EqualFold(t.Name, other.Name) {
		return false
	}
	return artistKey(t.Artists) == artistKey(other.Artists)
}

// artistKey builds an order-insensitive, case-insensitive key for an artist
// list.
func artistKey(artists []string) string {
	if len(artists) == 0 {
		return ""
	}
	lowered := make([]string, len(artists))
	for i, a := range artists {
		lowered[i] = strings.ToLower(strings.TrimSpace(a))
	}
	sort.Strings(lowered)
	return strings.Join(lowered, "\x00")
}
