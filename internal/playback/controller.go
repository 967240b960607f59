package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/tide/internal/lyrics"
	"github.com/llehouerou/tide/internal/media"
	"github.com/llehouerou/tide/internal/player"
	"github.com/llehouerou/tide/internal/playlist"
)

var (
	// ErrInvalidIndex is returned by Play for an out-of-range index.
	ErrInvalidIndex = errors.New("playback: index out of range")
	// ErrClosed is returned by operations on a closed service.
	ErrClosed = errors.New("playback: service closed")
)

const (
	// defaultSkipDelay spaces the automatic skip after a load failure
	// so a fully broken playlist does not spin.
	defaultSkipDelay = 250 * time.Millisecond

	// previousRestartThreshold: more than this far into a track,
	// Previous restarts the track instead of moving back.
	previousRestartThreshold = 3 * time.Second

	// reportTimeout bounds the fire-and-forget session reports, which
	// outlive the per-play context on purpose.
	reportTimeout = 5 * time.Second

	// errorType coalesces playback failure messages in the feedback
	// channel.
	errorType = "playback"
)

// Options configures the controller. Player, Queue and Source are
// required; the rest are optional collaborators.
type Options struct {
	Player    player.Interface
	Queue     *playlist.PlayingQueue
	Source    Source
	Reporter  Reporter
	Refresher Refresher
	Notifier  Notifier

	LyricsEnabled bool
	LyricsDelay   time.Duration
	LyricsWindow  time.Duration
	LyricsTick    time.Duration

	// NewScheduler overrides the lyrics sync loop driver, for tests.
	NewScheduler func() lyrics.Scheduler
	// SkipDelay overrides the failure auto-skip delay, for tests.
	SkipDelay time.Duration
}

// Verify controller implements Service at compile time.
var _ Service = (*controller)(nil)

type controller struct {
	mu sync.Mutex

	player player.Interface
	queue  *playlist.PlayingQueue
	opts   Options

	state State

	// generation supersedes in-flight async work: every Play bumps it,
	// and results are applied only if the captured value still matches.
	generation uint64
	playCtx    context.Context
	playCancel context.CancelFunc

	// reported gates session reports to exactly one start/stop pair per
	// track instance.
	reported   bool
	reportedID string

	lyricsSync *lyrics.Synchronizer
	skipTimer  *time.Timer

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// New creates a playback controller wired to the given collaborators.
func New(opts Options) Service {
	if opts.SkipDelay <= 0 {
		opts.SkipDelay = defaultSkipDelay
	}
	if opts.LyricsTick <= 0 {
		opts.LyricsTick = 250 * time.Millisecond
	}
	if opts.NewScheduler == nil {
		tick := opts.LyricsTick
		opts.NewScheduler = func() lyrics.Scheduler {
			return lyrics.NewIntervalScheduler(tick)
		}
	}

	c := &controller{
		player: opts.Player,
		queue:  opts.Queue,
		opts:   opts,
		state:  StateIdle,
	}
	// The sink fires this from its streaming goroutine with the speaker
	// lock held; end-of-track work touches the player again, so it must
	// run elsewhere.
	c.player.OnFinished(func() { go c.onTrackEnded() })
	return c
}

// Play switches playback to the track at index.
//
// The switch immediately supersedes any in-flight load: the previous
// play context is cancelled and the generation bumped, so stale results
// are discarded rather than waited for. A stop report for the current
// track goes out first, even when re-selecting the same track, to keep
// upstream play-duration accounting correct.
func (c *controller) Play(index int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= c.queue.Len() {
		c.mu.Unlock()
		return ErrInvalidIndex
	}

	c.stopReportLocked()
	stale := c.teardownLocked()

	prev := c.queue.Current()
	prevIndex := c.queue.CurrentIndex()
	c.queue.JumpTo(index)
	track := *c.queue.Current()

	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.playCtx = ctx
	c.playCancel = cancel

	c.setStateLocked(StateLoading)
	cur := track
	c.broadcast(func(s *Subscription) {
		s.sendTrack(TrackChange{Previous: prev, Current: &cur, PreviousIndex: prevIndex, Index: index})
	})
	c.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}
	go c.loadTrack(ctx, gen, track)
	return nil
}

// loadTrack fetches the audio payload and starts playback. Runs off the
// caller's goroutine; every state mutation re-checks the generation.
func (c *controller) loadTrack(ctx context.Context, gen uint64, track media.Track) {
	data, err := c.opts.Source.Media(ctx, track.ID)

	c.mu.Lock()
	if c.closed || gen != c.generation || ctx.Err() != nil {
		c.mu.Unlock()
		return // superseded, discard silently
	}
	if err != nil {
		c.failLocked(gen, track, "load", err)
		c.mu.Unlock()
		return
	}
	if err := c.player.Play(data); err != nil {
		c.failLocked(gen, track, "play", err)
		c.mu.Unlock()
		return
	}

	c.setStateLocked(StatePlaying)
	c.startReportLocked(track)
	c.mu.Unlock()

	if c.opts.LyricsEnabled {
		go c.loadLyrics(ctx, gen, track)
	}
}

// failLocked handles a load or playback failure: it surfaces the error
// and arms an automatic skip to the next track.
func (c *controller) failLocked(gen uint64, track media.Track, op string, err error) {
	log.Error("playback failure", "op", op, "track", track.Name, "err", err)

	c.stopReportLocked()
	c.setStateLocked(StateError)
	c.broadcast(func(s *Subscription) {
		s.sendError(ErrorEvent{Operation: op, TrackID: track.ID, Err: err})
	})
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify("Unable to play "+track.Name, 0, errorType)
	}

	c.skipTimer = time.AfterFunc(c.opts.SkipDelay, func() {
		c.mu.Lock()
		stale := c.closed || gen != c.generation
		c.mu.Unlock()
		if !stale {
			if err := c.Next(); err != nil {
				log.Warn("auto-skip failed", "err", err)
			}
		}
	})
}

// loadLyrics fetches the lyrics timeline and starts the sync loop.
// Absence and failure both leave lyrics off for this track.
func (c *controller) loadLyrics(ctx context.Context, gen uint64, track media.Track) {
	tl, err := c.opts.Source.Lyrics(ctx, track.ID)
	if err != nil {
		if ctx.Err() == nil {
			log.Debug("lyrics unavailable", "track", track.Name, "err", err)
		}
		return
	}
	if tl == nil {
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.generation || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	s := lyrics.NewSynchronizer(tl, playerClock{c}, c.opts.NewScheduler(), lyricsFanout{c},
		c.opts.LyricsDelay, c.opts.LyricsWindow)
	c.lyricsSync = s
	// Start while holding the lock so a concurrent track switch cannot
	// stop the loop before it attaches. Start only spawns the ticker.
	s.Start()
	c.mu.Unlock()
}

// onTrackEnded dispatches end-of-stream by repeat mode. Invoked from
// the player's finish callback.
func (c *controller) onTrackEnded() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.stopReportLocked()
	stale := c.teardownLocked()

	next := -1
	ended := false
	empty := false

	switch c.queue.RepeatMode() {
	case playlist.RepeatOne:
		next = c.queue.CurrentIndex()

	case playlist.RepeatAll:
		if c.queue.RemoveOnPlay() {
			c.queue.RemoveAt(c.queue.CurrentIndex())
			c.broadcastQueueLocked()
			if c.queue.IsEmpty() {
				empty = true
			} else {
				next = c.queue.CurrentIndex() // removal shifted the next track here
			}
		} else {
			next = (c.queue.CurrentIndex() + 1) % c.queue.Len()
		}

	case playlist.RepeatOff:
		if idx := c.queue.CurrentIndex() + 1; idx < c.queue.Len() {
			next = idx
		} else {
			ended = true
		}
	}

	if empty {
		c.handleEmptyLocked()
	} else if ended {
		c.setStateLocked(StateEnded)
	}
	c.mu.Unlock()

	if stale != nil {
		stale.Reset()
	}
	if next >= 0 {
		if err := c.Play(next); err != nil {
			log.Warn("advance after track end failed", "err", err)
		}
	}
}

// Next advances to the following track, honoring shuffle and
// remove-on-play.
func (c *controller) Next() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.queue.IsEmpty() {
		c.handleEmptyLocked()
		c.mu.Unlock()
		return nil
	}

	next := -1
	if c.queue.RemoveOnPlay() && c.queue.CurrentIndex() >= 0 {
		c.queue.RemoveAt(c.queue.CurrentIndex())
		c.broadcastQueueLocked()
		switch {
		case c.queue.IsEmpty():
			// Close out the current track before entering the empty
			// state: the stop report needs the last position and the
			// sync loop must not outlive the player.
			c.stopReportLocked()
			stale := c.teardownLocked()
			c.handleEmptyLocked()
			c.mu.Unlock()
			if stale != nil {
				stale.Reset()
			}
			return nil
		case c.queue.Shuffle():
			next = c.queue.PickNext()
		default:
			next = c.queue.CurrentIndex()
		}
	} else {
		next = c.queue.PickNext()
		if next < 0 && c.queue.RepeatMode() == playlist.RepeatAll {
			next = 0
		}
	}

	if next < 0 {
		c.stopReportLocked()
		stale := c.teardownLocked()
		c.player.Stop()
		c.setStateLocked(StateEnded)
		c.mu.Unlock()
		if stale != nil {
			stale.Reset()
		}
		return nil
	}
	c.mu.Unlock()
	return c.Play(next)
}

// Previous moves to the prior track, or restarts the current one when
// more than a few seconds in. The restart threshold is a UX debounce,
// not history navigation.
func (c *controller) Previous() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.state.IsActive() && c.player.Position() > previousRestartThreshold {
		c.player.SeekToStart()
		c.broadcast(func(s *Subscription) {
			s.sendPosition(PositionChange{Position: 0})
		})
		c.mu.Unlock()
		return nil
	}

	prev := c.queue.PickPrevious()
	if prev < 0 {
		if c.state.IsActive() {
			c.player.SeekToStart()
			c.broadcast(func(s *Subscription) {
				s.sendPosition(PositionChange{Position: 0})
			})
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Play(prev)
}

// TogglePlayPause pauses or resumes, starting playback from the current
// queue position when idle.
func (c *controller) TogglePlayPause() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	switch c.state {
	case StatePlaying:
		c.player.Pause()
		c.setStateLocked(StatePaused)
		c.mu.Unlock()
		return nil
	case StatePaused:
		c.player.Resume()
		c.setStateLocked(StatePlaying)
		c.mu.Unlock()
		return nil
	default:
		index := c.queue.CurrentIndex()
		if index < 0 && c.queue.Len() > 0 {
			index = 0
		}
		c.mu.Unlock()
		if index < 0 {
			return nil
		}
		return c.Play(index)
	}
}

// Stop halts playback and returns to Idle. The queue is untouched.
func (c *controller) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopReportLocked()
	stale := c.teardownLocked()
	c.generation++ // invalidate in-flight loads
	c.player.Stop()
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	if stale != nil {
		stale.Reset()
	}
	return nil
}

// AddTracks appends tracks to the queue without changing playback.
func (c *controller) AddTracks(tracks ...media.Track) {
	c.mu.Lock()
	c.queue.Add(tracks...)
	c.broadcastQueueLocked()
	c.mu.Unlock()
}

// ReplaceTracks replaces the queue contents and stops playback.
func (c *controller) ReplaceTracks(tracks ...media.Track) {
	c.mu.Lock()
	c.stopReportLocked()
	stale := c.teardownLocked()
	c.generation++
	c.player.Stop()
	c.queue.Replace(tracks...)
	c.setStateLocked(StateIdle)
	c.broadcastQueueLocked()
	c.mu.Unlock()
	if stale != nil {
		stale.Reset()
	}
}

// ClearQueue removes all tracks and stops playback.
func (c *controller) ClearQueue() {
	c.mu.Lock()
	c.stopReportLocked()
	stale := c.teardownLocked()
	c.generation++
	c.queue.Clear()
	c.handleEmptyLocked()
	c.mu.Unlock()
	if stale != nil {
		stale.Reset()
	}
}

// State queries

func (c *controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *controller) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player.Position()
}

func (c *controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.player.Duration(); d > 0 {
		return d
	}
	if t := c.queue.Current(); t != nil {
		return t.Duration()
	}
	return 0
}

func (c *controller) CurrentTrack() *media.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.queue.Current()
	if t == nil {
		return nil
	}
	track := *t
	return &track
}

func (c *controller) QueueTracks() []media.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Tracks()
}

func (c *controller) QueueIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.CurrentIndex()
}

func (c *controller) Upcoming() []media.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Upcoming()
}

// Mode control

func (c *controller) RepeatMode() playlist.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.RepeatMode()
}

func (c *controller) SetRepeatMode(mode playlist.RepeatMode) {
	c.mu.Lock()
	c.queue.SetRepeatMode(mode)
	c.broadcastModeLocked()
	c.mu.Unlock()
}

func (c *controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Shuffle()
}

func (c *controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	c.queue.SetShuffle(enabled)
	c.broadcastModeLocked()
	c.mu.Unlock()
}

func (c *controller) RemoveOnPlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.RemoveOnPlay()
}

func (c *controller) SetRemoveOnPlay(enabled bool) {
	c.mu.Lock()
	c.queue.SetRemoveOnPlay(enabled)
	c.broadcastModeLocked()
	c.mu.Unlock()
}

// Subscribe creates a new event subscription.
func (c *controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Close shuts down the service and closes all subscriptions.
func (c *controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopReportLocked()
	stale := c.teardownLocked()
	c.generation++
	c.player.Stop()
	c.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return nil
}

// Internal helpers

// teardownLocked detaches the previous track's async work: the play
// context, the failure skip timer and the lyrics sync loop. Idempotent.
// The returned synchronizer must be stopped (or reset) after the lock
// is released, because the sync loop's clock takes the controller lock.
func (c *controller) teardownLocked() *lyrics.Synchronizer {
	if c.playCancel != nil {
		c.playCancel()
		c.playCancel = nil
		c.playCtx = nil
	}
	if c.skipTimer != nil {
		c.skipTimer.Stop()
		c.skipTimer = nil
	}
	stale := c.lyricsSync
	c.lyricsSync = nil
	return stale
}

// handleEmptyLocked enters the empty-queue terminal sub-state: playback
// stops and the refresh collaborator is asked to repopulate.
func (c *controller) handleEmptyLocked() {
	c.player.Stop()
	c.setStateLocked(StateIdle)
	c.broadcastQueueLocked()
	if c.opts.Refresher != nil {
		go c.opts.Refresher.Refresh()
	}
}

func (c *controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.broadcast(func(s *Subscription) {
		s.sendState(StateChange{Previous: prev, Current: next})
	})
}

// startReportLocked emits the start report for a freshly playing track,
// exactly once per track instance.
func (c *controller) startReportLocked(track media.Track) {
	if c.opts.Reporter == nil {
		return
	}
	c.reported = true
	c.reportedID = track.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := c.opts.Reporter.ReportStart(ctx, track.ID); err != nil {
			log.Warn("start report failed", "track", track.ID, "err", err)
		}
	}()
}

// stopReportLocked emits the stop report for the currently reported
// track with the last known position. No-op unless a start went out.
func (c *controller) stopReportLocked() {
	if !c.reported {
		return
	}
	c.reported = false
	trackID := c.reportedID
	ticks := media.DurationToTicks(c.player.Position())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := c.opts.Reporter.ReportStop(ctx, trackID, ticks); err != nil {
			log.Warn("stop report failed", "track", trackID, "err", err)
		}
	}()
}

func (c *controller) broadcastQueueLocked() {
	e := QueueChange{Tracks: c.queue.Tracks(), Index: c.queue.CurrentIndex()}
	c.broadcast(func(s *Subscription) { s.sendQueue(e) })
}

func (c *controller) broadcastModeLocked() {
	e := ModeChange{
		Repeat:       c.queue.RepeatMode(),
		Shuffle:      c.queue.Shuffle(),
		RemoveOnPlay: c.queue.RemoveOnPlay(),
	}
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
}

func (c *controller) broadcast(send func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		send(sub)
	}
}

// playerClock feeds playback position into the lyrics sync loop.
type playerClock struct {
	c *controller
}

func (pc playerClock) Position() time.Duration {
	pc.c.mu.Lock()
	defer pc.c.mu.Unlock()
	return pc.c.player.Position()
}

// lyricsFanout forwards line transitions to subscribers.
type lyricsFanout struct {
	c *controller
}

func (lf lyricsFanout) LineChanged(active, next int) {
	lf.c.broadcast(func(s *Subscription) {
		s.sendLyrics(LyricsChange{Active: active, Next: next})
	})
}

func (lf lyricsFanout) Cleared() {
	lf.c.broadcast(func(s *Subscription) {
		s.sendLyrics(LyricsChange{Active: lyrics.NoLine, Next: lyrics.NoLine, Cleared: true})
	})
}
