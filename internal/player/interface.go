package player

import "time"

// Interface defines the audio sink contract for dependency injection
// and testing.
type Interface interface {
	// Play decodes the audio payload and starts playback, stopping any
	// current playback first.
	Play(data []byte) error
	Stop()
	Pause()
	Resume()
	Toggle()
	// SeekToStart rewinds the current stream to position zero.
	SeekToStart()
	State() State
	Position() time.Duration
	Duration() time.Duration
	// OnFinished registers a callback invoked when a stream plays to
	// its natural end. Not invoked on Stop.
	OnFinished(fn func())
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
