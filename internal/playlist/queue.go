package playlist

import (
	"math/rand"

	"github.com/llehouerou/tide/internal/media"
)

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// PlayingQueue wraps a Playlist with playback position and modes.
//
// It also maintains two derived sequences: the upcoming order (the "next
// tracks" preview, shuffled when shuffle is on) and the played history. Both
// are rebuilt whenever the shuffle state or the current index changes.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int // -1 if nothing playing

	repeat       RepeatMode
	shuffle      bool
	removeOnPlay bool

	upcoming []int
	played   []int

	// randIntn is swappable for deterministic tests.
	randIntn func(n int) int
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     New(),
		currentIndex: -1,
		randIntn:     rand.Intn,
	}
}

// Current returns the currently playing track, or nil if none.
func (q *PlayingQueue) Current() *media.Track {
	if q.currentIndex < 0 || q.currentIndex >= q.playlist.Len() {
		return nil
	}
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the index of the currently playing track (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *media.Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	if q.currentIndex >= 0 && q.currentIndex != index {
		q.played = append(q.played, q.currentIndex)
	}
	q.currentIndex = index
	q.rebuild()
	return q.Current()
}

// Add appends tracks to the queue without changing playback.
func (q *PlayingQueue) Add(tracks ...media.Track) {
	q.playlist.Add(tracks...)
	q.rebuild()
}

// Replace clears the queue, adds tracks, and resets position to -1.
func (q *PlayingQueue) Replace(tracks ...media.Track) {
	q.playlist.Clear()
	q.currentIndex = -1
	q.played = nil
	q.playlist.Add(tracks...)
	q.rebuild()
}

// RemoveAt removes the track at the given index, adjusting the current
// index. Returns false if index is out of bounds.
func (q *PlayingQueue) RemoveAt(index int) bool {
	if !q.playlist.Remove(index) {
		return false
	}
	if q.currentIndex > index {
		q.currentIndex--
	} else if q.currentIndex == index {
		// Removed current track: same index now points to the next track.
		if q.currentIndex >= q.playlist.Len() {
			q.currentIndex = q.playlist.Len() - 1
		}
	}
	q.played = dropIndex(q.played, index)
	q.rebuild()
	return true
}

// Clear removes all tracks and resets playback.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.currentIndex = -1
	q.played = nil
	q.upcoming = nil
}

// Tracks returns all tracks in the queue.
func (q *PlayingQueue) Tracks() []media.Track {
	return q.playlist.Tracks()
}

// Track returns the track at index, or nil.
func (q *PlayingQueue) Track(index int) *media.Track {
	return q.playlist.Track(index)
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}

// RepeatMode returns the current repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode { return q.repeat }

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) { q.repeat = mode }

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool { return q.shuffle }

// SetShuffle enables or disables shuffle and rebuilds the derived order.
func (q *PlayingQueue) SetShuffle(enabled bool) {
	if q.shuffle == enabled {
		return
	}
	q.shuffle = enabled
	q.rebuild()
}

// RemoveOnPlay returns whether finished tracks are removed from the queue.
func (q *PlayingQueue) RemoveOnPlay() bool { return q.removeOnPlay }

// SetRemoveOnPlay sets the remove-on-play mode.
func (q *PlayingQueue) SetRemoveOnPlay(enabled bool) { q.removeOnPlay = enabled }

// PickNext returns the index to play after the current track, honoring
// shuffle. Returns -1 when there is no candidate. Does not change state.
func (q *PlayingQueue) PickNext() int {
	n := q.playlist.Len()
	if n == 0 {
		return -1
	}
	if q.shuffle {
		// Single-track queues cannot pick a distinct index.
		if n == 1 {
			return 0
		}
		// Nothing playing yet: every index is a candidate.
		if q.currentIndex < 0 {
			return q.randIntn(n)
		}
		idx := q.randIntn(n - 1)
		if idx >= q.currentIndex {
			idx++
		}
		return idx
	}
	if q.currentIndex+1 < n {
		return q.currentIndex + 1
	}
	return -1
}

// PickPrevious returns the index to play before the current track.
// With shuffle enabled it walks the played history; otherwise the prior
// index. Returns -1 when there is no candidate.
func (q *PlayingQueue) PickPrevious() int {
	if q.shuffle && len(q.played) > 0 {
		last := q.played[len(q.played)-1]
		if last >= 0 && last < q.playlist.Len() {
			return last
		}
	}
	if q.currentIndex > 0 {
		return q.currentIndex - 1
	}
	return -1
}

// Upcoming returns the derived next-tracks preview.
func (q *PlayingQueue) Upcoming() []media.Track {
	result := make([]media.Track, 0, len(q.upcoming))
	for _, idx := range q.upcoming {
		if t := q.playlist.Track(idx); t != nil {
			result = append(result, *t)
		}
	}
	return result
}

// History returns the tracks already played, oldest first.
func (q *PlayingQueue) History() []media.Track {
	result := make([]media.Track, 0, len(q.played))
	for _, idx := range q.played {
		if t := q.playlist.Track(idx); t != nil {
			result = append(result, *t)
		}
	}
	return result
}

// rebuild recomputes the upcoming preview from the current index and
// shuffle state.
func (q *PlayingQueue) rebuild() {
	n := q.playlist.Len()
	q.upcoming = q.upcoming[:0]
	if n == 0 {
		return
	}

	if !q.shuffle {
		for i := q.currentIndex + 1; i < n; i++ {
			q.upcoming = append(q.upcoming, i)
		}
		return
	}

	seen := make(map[int]bool, len(q.played)+1)
	for _, idx := range q.played {
		seen[idx] = true
	}
	if q.currentIndex >= 0 {
		seen[q.currentIndex] = true
	}
	for i := range n {
		if !seen[i] {
			q.upcoming = append(q.upcoming, i)
		}
	}
	// Fisher-Yates over the remaining indexes.
	for i := len(q.upcoming) - 1; i > 0; i-- {
		j := q.randIntn(i + 1)
		q.upcoming[i], q.upcoming[j] = q.upcoming[j], q.upcoming[i]
	}
}

// dropIndex removes references to a removed playlist index and shifts the
// ones above it.
func dropIndex(indexes []int, removed int) []int {
	result := indexes[:0]
	for _, idx := range indexes {
		switch {
		case idx == removed:
			continue
		case idx > removed:
			result = append(result, idx-1)
		default:
			result = append(result, idx)
		}
	}
	return result
}
