// Package lyrics provides lyric payload parsing and timeline
// synchronization against a playback clock.
package lyrics

import (
	"sort"
	"time"
)

// Line represents a single lyric line with its start time.
type Line struct {
	Start time.Duration
	Text  string
}

// Timeline is a time-ordered sequence of lyric lines.
//
// Lines keep their input order: payloads are assumed already chronological
// and duplicate timestamps must stay in original order, so no defensive
// re-sort is performed. A timeline is rebuilt fully on every track change
// and never mutated in place.
type Timeline struct {
	Lines  []Line
	Synced bool
}

// NoLine is the index reported when no lyric line is active.
const NoLine = -1

// ActiveAt returns the indexes of the active and next lines at playback
// time t, given the display window.
//
// The active line is the greatest index whose start is <= t. A line stays
// active for window after its own start, or until the next line's start,
// whichever comes first. Before the first line, and for unsynced
// timelines, both results are NoLine.
func (tl *Timeline) ActiveAt(t, window time.Duration) (active, next int) {
	if !tl.Synced || len(tl.Lines) == 0 {
		return NoLine, NoLine
	}

	// First index whose start is strictly after t.
	idx := sort.Search(len(tl.Lines), func(i int) bool {
		return tl.Lines[i].Start > t
	})
	if idx == 0 {
		// t precedes the first line.
		return NoLine, NoLine
	}

	active = idx - 1
	next = idx
	if next >= len(tl.Lines) {
		next = NoLine
	}

	expiry := tl.Lines[active].Start + window
	if next != NoLine && tl.Lines[next].Start < expiry {
		expiry = tl.Lines[next].Start
	}
	if t >= expiry {
		active = NoLine
	}

	return active, next
}

// Empty reports whether the timeline has no lines.
func (tl *Timeline) Empty() bool {
	return tl == nil || len(tl.Lines) == 0
}
