package playback

import (
	"time"

	"github.com/llehouerou/tide/internal/media"
	"github.com/llehouerou/tide/internal/playlist"
)

// StateChange is emitted when the controller state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when the controller switches to a different
// track instance, including re-selecting the same track via Play.
//
// Rapid navigation does not stack notifications: a new Play supersedes
// the in-flight effects of the previous one, so subscribers only see
// the switches that actually took hold.
type TrackChange struct {
	Previous      *media.Track
	Current       *media.Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []media.Track
	Index  int
}

// ModeChange is emitted when repeat, shuffle or remove-on-play changes.
type ModeChange struct {
	Repeat       playlist.RepeatMode
	Shuffle      bool
	RemoveOnPlay bool
}

// PositionChange is emitted when playback position jumps (restart).
type PositionChange struct {
	Position time.Duration
}

// LyricsChange is emitted when the highlighted lyrics line pair changes.
// Active and Next are line indexes into the current timeline, or
// lyrics.NoLine. Cleared marks a full reset (track end or teardown).
type LyricsChange struct {
	Active  int
	Next    int
	Cleared bool
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g. "load", "play"
	TrackID   string
	Err       error
}
