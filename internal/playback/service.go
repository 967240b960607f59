package playback

import (
	"context"
	"time"

	"github.com/llehouerou/tide/internal/lyrics"
	"github.com/llehouerou/tide/internal/media"
	"github.com/llehouerou/tide/internal/playlist"
)

// Source provides track media and lyrics payloads.
type Source interface {
	// Media fetches the full audio payload for a track.
	Media(ctx context.Context, trackID string) ([]byte, error)
	// Lyrics fetches and parses the lyrics timeline for a track.
	// Absence is normal: (nil, nil) means no lyrics available.
	Lyrics(ctx context.Context, trackID string) (*lyrics.Timeline, error)
}

// Reporter receives session start/stop reports. Reporting is
// fire-and-forget: failures are logged and never block playback.
type Reporter interface {
	ReportStart(ctx context.Context, trackID string) error
	ReportStop(ctx context.Context, trackID string, positionTicks int64) error
}

// Refresher repopulates the queue when the playlist empties
// mid-session.
type Refresher interface {
	Refresh()
}

// Notifier surfaces user-facing playback errors.
type Notifier interface {
	Notify(message string, duration time.Duration, typ string)
}

// Service defines the playback controller contract.
type Service interface {
	// Playback control
	Play(index int) error
	TogglePlayPause() error
	Next() error
	Previous() error
	Stop() error

	// Queue manipulation
	AddTracks(tracks ...media.Track)
	ReplaceTracks(tracks ...media.Track)
	ClearQueue()

	// State queries
	State() State
	Position() time.Duration
	Duration() time.Duration
	CurrentTrack() *media.Track
	QueueTracks() []media.Track
	QueueIndex() int
	Upcoming() []media.Track

	// Mode control
	RepeatMode() playlist.RepeatMode
	SetRepeatMode(mode playlist.RepeatMode)
	Shuffle() bool
	SetShuffle(enabled bool)
	RemoveOnPlay() bool
	SetRemoveOnPlay(enabled bool)

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
