// Package tags provides the metadata extraction queue: a bounded worker
// pool that reads embedded tags and artwork from partial audio downloads,
// with layered LRU caches in front.
package tags

// Record holds the tag metadata extracted from a track's audio payload.
type Record struct {
	TrackID string
	Title   string
	Artist  string
	Album   string
	Genre   string
	Year    int
	Lyrics  string

	// Artwork is a displayable reference to the embedded cover image,
	// nil when the payload carried none. The reference is owned by the
	// artwork cache and released on eviction.
	Artwork *Artwork
}
