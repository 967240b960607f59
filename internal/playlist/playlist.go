// Package playlist provides the ordered track list and the playing queue
// that the playback controller operates on.
package playlist

import (
	"github.com/samber/lo"

	"github.com/llehouerou/tide/internal/media"
)

// Playlist holds an ordered collection of tracks.
// Insertion order is play order.
type Playlist struct {
	tracks []media.Track
}

// New creates a new empty playlist.
func New() *Playlist {
	return &Playlist{
		tracks: make([]media.Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...media.Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []media.Track {
	result := make([]media.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *media.Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return &p.tracks[index]
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// IndexOf returns the index of the first track matching t, or -1.
func (p *Playlist) IndexOf(t media.Track) int {
	for i := range p.tracks {
		if p.tracks[i].SameAs(t) {
			return i
		}
	}
	return -1
}

// Dedupe returns tracks with cross-source duplicates removed, keeping the
// first occurrence. Uses Track.SameAs, so tracks without identifiers fall
// back to the (name, artist-set) heuristic.
func Dedupe(tracks []media.Track) []media.Track {
	return lo.Filter(tracks, func(t media.Track, i int) bool {
		for j := range i {
			if tracks[j].SameAs(t) {
				return false
			}
		}
		return true
	})
}
