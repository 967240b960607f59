// Package feedback serializes user-facing ephemeral messages so that at
// most one is visible at a time.
package feedback

import (
	"sync"
	"time"
)

// TypeDefault is the type for plain messages; they never coalesce.
const TypeDefault = "default"

// DefaultDuration is used when a notification has no explicit duration.
const DefaultDuration = 4 * time.Second

// maxQueued bounds the pending queue; the oldest entry is dropped on
// overflow.
const maxQueued = 20

// fadeFallback forces dismissal completion when the transition signal
// never arrives.
const fadeFallback = 500 * time.Millisecond

// Entry is a single ephemeral message.
type Entry struct {
	Message  string
	Duration time.Duration
	Type     string
}

// Event is emitted to the rendering sink.
type Event struct {
	Kind  EventKind
	Entry Entry
}

// EventKind discriminates sink events.
type EventKind int

const (
	// EventShow asks the sink to display (or update in place) the entry.
	EventShow EventKind = iota
	// EventHide asks the sink to begin the fade-out transition. The sink
	// should call TransitionDone when the transition completes.
	EventHide
)

// Channel is the coalescing notification queue.
type Channel struct {
	mu      sync.Mutex
	queue   []Entry
	visible *Entry

	dismissTimer  *time.Timer
	fallbackTimer *time.Timer

	events chan Event
}

// NewChannel creates a notification channel.
func NewChannel() *Channel {
	return &Channel{
		events: make(chan Event, 32),
	}
}

// Events returns the sink event stream.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Notify enqueues a message. Entries sharing a non-default type coalesce:
// if one is currently visible its content is replaced in place and its
// timer restarts; queued ones are dropped in favor of the newcomer.
func (c *Channel) Notify(message string, duration time.Duration, typ string) {
	if typ == "" {
		typ = TypeDefault
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	e := Entry{Message: message, Duration: duration, Type: typ}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visible != nil && typ != TypeDefault && c.visible.Type == typ {
		// Replace the visible entry in place and reset its timer.
		*c.visible = e
		c.stopTimersLocked()
		c.armDismissLocked(e.Duration)
		c.emit(Event{Kind: EventShow, Entry: e})
		return
	}

	if typ != TypeDefault {
		c.dropQueuedLocked(typ)
	}
	c.queue = append(c.queue, e)
	if len(c.queue) > maxQueued {
		c.queue = c.queue[1:]
	}

	if c.visible == nil {
		c.showNextLocked()
	}
}

// TransitionDone signals that the sink finished the fade-out transition
// for the visible entry.
func (c *Channel) TransitionDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completeDismissLocked()
}

// DismissAll clears timers, the queue, and the visible entry
// synchronously. Safe to call from a teardown path at any time.
func (c *Channel) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimersLocked()
	c.queue = nil
	if c.visible != nil {
		e := *c.visible
		c.visible = nil
		c.emit(Event{Kind: EventHide, Entry: e})
	}
}

// Visible returns a copy of the currently visible entry, or nil.
func (c *Channel) Visible() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible == nil {
		return nil
	}
	e := *c.visible
	return &e
}

// QueueLen returns the number of entries waiting behind the visible one.
func (c *Channel) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// dropQueuedLocked removes pending entries of the given type.
func (c *Channel) dropQueuedLocked(typ string) {
	kept := c.queue[:0]
	for _, e := range c.queue {
		if e.Type != typ {
			kept = append(kept, e)
		}
	}
	c.queue = kept
}

// showNextLocked promotes the head of the queue to visible.
func (c *Channel) showNextLocked() {
	if len(c.queue) == 0 {
		return
	}
	e := c.queue[0]
	c.queue = c.queue[1:]
	c.visible = &e
	c.armDismissLocked(e.Duration)
	c.emit(Event{Kind: EventShow, Entry: e})
}

// armDismissLocked starts the auto-dismiss timer for the visible entry.
func (c *Channel) armDismissLocked(after time.Duration) {
	c.dismissTimer = time.AfterFunc(after, c.beginDismiss)
}

// beginDismiss starts the fade-out: the sink gets a hide event and a hard
// fallback timer guards against a transition signal that never fires.
func (c *Channel) beginDismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible == nil {
		return
	}
	c.emit(Event{Kind: EventHide, Entry: *c.visible})
	c.fallbackTimer = time.AfterFunc(fadeFallback, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.completeDismissLocked()
	})
}

// completeDismissLocked finishes dismissal and drains the next entry.
func (c *Channel) completeDismissLocked() {
	if c.visible == nil {
		return
	}
	c.stopTimersLocked()
	c.visible = nil
	c.showNextLocked()
}

func (c *Channel) stopTimersLocked() {
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
	if c.fallbackTimer != nil {
		c.fallbackTimer.Stop()
		c.fallbackTimer = nil
	}
}

// emit sends without blocking; a slow sink drops events rather than
// stalling notification flow.
func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}
