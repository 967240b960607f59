package lyrics

import (
	"sync"
	"time"
)

// Clock reports the current playback position.
type Clock interface {
	Position() time.Duration
}

// Scheduler drives the sync loop cadence. Start invokes fn repeatedly
// until Stop is called. Implementations must make Stop idempotent.
type Scheduler interface {
	Start(fn func())
	Stop()
}

// Listener receives active-line transitions.
type Listener interface {
	// LineChanged is called when the (active, next) pair changes.
	// Either index may be NoLine.
	LineChanged(active, next int)
	// Cleared is called when highlighting is reset.
	Cleared()
}

// IntervalScheduler drives ticks from a fixed-interval timer.
type IntervalScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

// NewIntervalScheduler creates a scheduler firing every interval.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

// Start begins invoking fn on every tick.
func (s *IntervalScheduler) Start(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})

	go func(t *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}(s.ticker, s.done)
}

// Stop halts the tick loop. Safe to call repeatedly.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	s.done = nil
}

// Synchronizer keeps exactly one lyric line active in lockstep with
// playback position.
type Synchronizer struct {
	timeline *Timeline
	clock    Clock
	sched    Scheduler
	listener Listener

	delay  time.Duration // user delay offset added to playback time
	window time.Duration // display window per line

	mu         sync.Mutex
	running    bool
	lastActive int
	lastNext   int
}

// NewSynchronizer creates a synchronizer over a timeline.
func NewSynchronizer(tl *Timeline, clock Clock, sched Scheduler, listener Listener, delay, window time.Duration) *Synchronizer {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Synchronizer{
		timeline:   tl,
		clock:      clock,
		sched:      sched,
		listener:   listener,
		delay:      delay,
		window:     window,
		lastActive: NoLine,
		lastNext:   NoLine,
	}
}

// Start begins the sync loop. No-op if already running or if the timeline
// has no synced lines.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	if s.running || s.timeline.Empty() || !s.timeline.Synced {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.sched.Start(s.Tick)
}

// Tick computes the active line pair for the current playback position and
// notifies the listener only when the pair changed since the last tick.
func (s *Synchronizer) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	t := s.clock.Position() + s.delay
	active, next := s.timeline.ActiveAt(t, s.window)
	if active == s.lastActive && next == s.lastNext {
		// Unchanged pair: skip all downstream work.
		return
	}
	s.lastActive = active
	s.lastNext = next
	s.listener.LineChanged(active, next)
}

// Stop cancels the sync loop without clearing highlighting. Idempotent.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.sched.Stop()
}

// Reset stops the loop and clears all highlighting, for natural track end
// or teardown. Safe to call even when nothing is running.
func (s *Synchronizer) Reset() {
	s.Stop()

	s.mu.Lock()
	s.lastActive = NoLine
	s.lastNext = NoLine
	s.mu.Unlock()

	s.listener.Cleared()
}
