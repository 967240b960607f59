// Package playback owns the playing queue position and drives the audio
// sink, session reporting and lyrics synchronization from a single
// controller.
package playback

// State represents the controller state.
//
// Valid transitions:
//   - Idle → Loading (via Play)
//   - Loading → Playing (source ready)
//   - Loading → Error (source failure, auto-skips forward)
//   - Playing ⇄ Paused (via TogglePlayPause)
//   - Playing → Ended (end of queue without repeat)
//   - any → Idle (via Stop)
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}
