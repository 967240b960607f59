// Package offline provides the offline artifact cache: a TTL+LRU store
// for externally-sourced lyrics and artwork keyed by track id.
package offline

import (
	"container/list"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Kind identifies an artifact kind within a cache entry.
type Kind string

const (
	KindLyrics  Kind = "lyrics"
	KindArtwork Kind = "artwork"
)

// Limits bounds the cache.
type Limits struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultLimits are the cache bounds used when none are configured.
var DefaultLimits = Limits{
	MaxEntries: 500,
	TTL:        7 * 24 * time.Hour,
}

// entry is a per-track record holding both artifact kinds.
type entry struct {
	trackID string
	at      time.Time // last touch
	values  map[Kind][]byte
}

// Cache is the offline artifact cache.
//
// Eviction is hybrid and evaluated on every mutating operation plus an
// optional periodic sweep: entries older than the TTL since last touch are
// removed, then the oldest-touched entries are removed until the count is
// within budget. Get and Put both refresh recency, so the eviction order
// is strict oldest-touch-first.
//
// The ordered structure is an explicit list + map with named move/remove
// operations so eviction order stays directly assertable.
type Cache struct {
	mu      sync.Mutex
	enabled bool
	limits  Limits

	order *list.List // oldest at front, values are *entry
	byID  map[string]*list.Element

	backing   Backing
	hydrated  bool
	sweepDone chan struct{}

	now func() time.Time
}

// New creates a cache. When enabled is false, Get returns nil
// unconditionally and Put is a no-op; callers need no branching. A nil
// backing keeps the cache memory-only.
func New(enabled bool, limits Limits, backing Backing) *Cache {
	if limits.MaxEntries <= 0 {
		limits.MaxEntries = DefaultLimits.MaxEntries
	}
	if limits.TTL <= 0 {
		limits.TTL = DefaultLimits.TTL
	}
	return &Cache{
		enabled: enabled,
		limits:  limits,
		order:   list.New(),
		byID:    make(map[string]*list.Element),
		backing: backing,
		now:     time.Now,
	}
}

// Get returns the stored artifact for a track, or nil. A hit refreshes
// the entry's recency and timestamp.
func (c *Cache) Get(trackID string, kind Kind) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	c.ensureBacking()

	el, ok := c.byID[trackID]
	if !ok {
		return nil
	}
	e := el.Value.(*entry)
	if c.expired(e) {
		c.removeLocked(el)
		return nil
	}

	c.touchLocked(el)
	return e.values[kind]
}

// Put stores an artifact for a track, creating or refreshing its entry,
// then applies eviction.
func (c *Cache) Put(trackID string, kind Kind, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.ensureBacking()

	el, ok := c.byID[trackID]
	if !ok {
		e := &entry{trackID: trackID, values: make(map[Kind][]byte)}
		el = c.order.PushBack(e)
		c.byID[trackID] = el
	}
	e := el.Value.(*entry)
	e.values[kind] = value
	c.touchLocked(el)
	c.evictLocked()
}

// SetLimits replaces the cache bounds and applies eviction immediately.
func (c *Cache) SetLimits(limits Limits) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limits.MaxEntries > 0 {
		c.limits.MaxEntries = limits.MaxEntries
	}
	if limits.TTL > 0 {
		c.limits.TTL = limits.TTL
	}
	c.evictLocked()
}

// Purge removes entries. With onlyExpired it removes just TTL-expired
// entries; otherwise it clears the cache.
func (c *Cache) Purge(onlyExpired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if onlyExpired {
		c.evictExpiredLocked()
		return
	}
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		c.removeLocked(el)
		el = next
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns track ids in eviction order, oldest first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).trackID)
	}
	return keys
}

// StartSweep launches the periodic expiry sweep. Close stops it.
func (c *Cache) StartSweep(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sweepDone != nil || !c.enabled {
		return
	}
	c.sweepDone = make(chan struct{})

	go func(done chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Purge(true)
			case <-done:
				return
			}
		}
	}(c.sweepDone)
}

// Close stops the sweep and releases the backing.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.sweepDone != nil {
		close(c.sweepDone)
		c.sweepDone = nil
	}
	backing := c.backing
	c.backing = nil
	c.mu.Unlock()

	if backing != nil {
		return backing.Close()
	}
	return nil
}

// touchLocked bumps the entry timestamp, moves it to the back of the
// eviction order and persists the refresh.
func (c *Cache) touchLocked(el *list.Element) {
	e := el.Value.(*entry)
	e.at = c.now()
	c.order.MoveToBack(el)
	c.storeLocked(e)
}

// evictLocked applies TTL expiry then LRU overflow.
func (c *Cache) evictLocked() {
	c.evictExpiredLocked()
	for c.order.Len() > c.limits.MaxEntries {
		c.removeLocked(c.order.Front())
	}
}

func (c *Cache) evictExpiredLocked() {
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry)) {
			c.removeLocked(el)
		}
		el = next
	}
}

func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.at) > c.limits.TTL
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.byID, e.trackID)
	if c.backing != nil {
		if err := c.backing.Delete(e.trackID); err != nil {
			log.Debug("offline cache: backing delete failed", "track", e.trackID, "err", err)
		}
	}
}

func (c *Cache) storeLocked(e *entry) {
	if c.backing == nil {
		return
	}
	stored := StoredEntry{
		TrackID: e.trackID,
		At:      e.at,
		Lyrics:  e.values[KindLyrics],
		Artwork: e.values[KindArtwork],
	}
	if err := c.backing.Store(stored); err != nil {
		log.Debug("offline cache: backing store failed", "track", e.trackID, "err", err)
	}
}

// ensureBacking hydrates from the shared backing on first use. Failure
// degrades to a memory-only cache with no behavior change.
func (c *Cache) ensureBacking() {
	if c.hydrated {
		return
	}
	c.hydrated = true
	if c.backing == nil {
		return
	}

	stored, err := c.backing.Load()
	if err != nil {
		log.Warn("offline cache: hydration failed, using memory only", "err", err)
		c.backing = nil
		return
	}
	for _, s := range stored {
		e := &entry{trackID: s.TrackID, at: s.At, values: make(map[Kind][]byte)}
		if s.Lyrics != nil {
			e.values[KindLyrics] = s.Lyrics
		}
		if s.Artwork != nil {
			e.values[KindArtwork] = s.Artwork
		}
		c.byID[s.TrackID] = c.order.PushBack(e)
	}
	c.evictLocked()
}
