package tags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Fetcher retrieves track audio payloads, optionally capped to a byte
// range.
type Fetcher interface {
	// FetchRange fetches up to maxBytes of the track's audio payload.
	// maxBytes <= 0 fetches the whole resource. partial reports whether
	// the result is a prefix of a larger resource.
	FetchRange(ctx context.Context, trackID string, maxBytes int64) (data []byte, partial bool, err error)
}

// Options configures a Reader. Zero values select the defaults.
type Options struct {
	Workers          int           // worker pool size (default 2, min 1)
	QueueSize        int           // pending job cap (default 100)
	CacheSize        int           // tag record LRU size (default 50)
	ArtworkCacheSize int           // artwork LRU size (default 20)
	RangeBytes       int64         // byte range per fetch (default 256 KiB)
	FetchTimeout     time.Duration // per-fetch timeout (default 10s)
	ParseTimeout     time.Duration // per-parse timeout (default 5s)
	ArtworkMode      string        // ArtworkModeFile or ArtworkModeInline

	// Backing, when set, hydrates the record cache lazily on first use
	// and persists successful extractions. Hydration failure degrades
	// to memory-only caches.
	Backing Backing
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 50
	}
	if o.ArtworkCacheSize <= 0 {
		o.ArtworkCacheSize = 20
	}
	if o.RangeBytes <= 0 {
		o.RangeBytes = 256 * 1024
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	if o.ParseTimeout <= 0 {
		o.ParseTimeout = 5 * time.Second
	}
	if o.ArtworkMode != ArtworkModeInline {
		o.ArtworkMode = ArtworkModeFile
	}
	return o
}

// job is one queued extraction request.
type job struct {
	ctx     context.Context
	trackID string
	done    chan *Record
}

// Reader extracts tag records from partial audio downloads behind a
// bounded queue and a fixed worker pool.
//
// ReadTags never fails loudly: every error path resolves to nil. The
// only retried condition is a parse that ran out of bytes, which
// triggers exactly one full refetch.
type Reader struct {
	fetcher Fetcher
	opts    Options

	records *lru.Cache[string, *Record]
	artwork *lru.Cache[string, *Artwork]

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup

	hydrateOnce sync.Once

	// parse is swappable in tests.
	parse func(trackID string, data []byte) (*Record, *rawPicture, error)
}

// NewReader starts a Reader with its worker pool running.
func NewReader(fetcher Fetcher, opts Options) *Reader {
	opts = opts.withDefaults()

	r := &Reader{
		fetcher: fetcher,
		opts:    opts,
		jobs:    make(chan job, opts.QueueSize),
		parse:   parseBuffer,
	}

	// Sizes are validated above, so these cannot fail.
	r.records, _ = lru.New[string, *Record](opts.CacheSize)
	r.artwork, _ = lru.NewWithEvict[string, *Artwork](opts.ArtworkCacheSize, func(_ string, art *Artwork) {
		art.Release()
	})

	r.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go r.worker()
	}
	return r
}

// ReadTags returns the tag record for the track, extracting it when not
// cached. Returns nil on any failure, including a full queue.
func (r *Reader) ReadTags(ctx context.Context, trackID string) *Record {
	r.hydrateOnce.Do(r.hydrate)

	if rec, ok := r.records.Get(trackID); ok {
		return rec
	}

	j := job{ctx: ctx, trackID: trackID, done: make(chan *Record, 1)}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil
	}
	select {
	case r.jobs <- j:
		r.mu.RUnlock()
	default:
		r.mu.RUnlock()
		log.Debug("tag queue full, dropping request", "track", trackID)
		return nil
	}

	select {
	case rec := <-j.done:
		return rec
	case <-ctx.Done():
		return nil
	}
}

// Artwork returns the cached artwork reference for the track, if any.
func (r *Reader) Artwork(trackID string) (*Artwork, bool) {
	return r.artwork.Get(trackID)
}

// Close stops the worker pool, releases cached artwork and closes the
// backing. Queued jobs are still drained before workers exit.
func (r *Reader) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
	r.artwork.Purge()
	if r.opts.Backing != nil {
		if err := r.opts.Backing.Close(); err != nil {
			log.Warn("failed to close tag backing", "err", err)
		}
	}
}

// hydrate loads persisted records into the cache, oldest write first so
// recency order is reproduced. Failure degrades to memory-only caches.
func (r *Reader) hydrate() {
	if r.opts.Backing == nil {
		return
	}
	stored, err := r.opts.Backing.Load()
	if err != nil {
		log.Warn("tag cache hydration failed, using memory-only cache", "err", err)
		r.opts.Backing = nil
		return
	}
	for _, rec := range stored {
		rec := rec
		r.records.Add(rec.TrackID, &rec)
	}
	if len(stored) > 0 {
		log.Debug("hydrated tag cache", "records", len(stored))
	}
}

func (r *Reader) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		j.done <- r.process(j)
	}
}

// process runs one extraction: ranged fetch, parse, and on a
// truncated-input parse error one full refetch and reparse.
func (r *Reader) process(j job) *Record {
	if j.ctx.Err() != nil {
		return nil
	}

	data, partial, err := r.fetch(j.ctx, j.trackID, r.opts.RangeBytes)
	if err != nil {
		log.Debug("tag fetch failed", "track", j.trackID, "err", err)
		return nil
	}
	log.Debug("fetched tag range", "track", j.trackID, "size", humanize.IBytes(uint64(len(data))))

	rec, pic, err := r.parseWithTimeout(j.ctx, j.trackID, data)
	if errors.Is(err, errInsufficientData) && partial {
		data, _, err = r.fetch(j.ctx, j.trackID, 0)
		if err != nil {
			log.Debug("tag full refetch failed", "track", j.trackID, "err", err)
			return nil
		}
		rec, pic, err = r.parseWithTimeout(j.ctx, j.trackID, data)
	}
	if err != nil {
		log.Debug("tag parse failed", "track", j.trackID, "err", err)
		return nil
	}

	if pic != nil {
		art, artErr := newArtwork(r.opts.ArtworkMode, pic)
		if artErr != nil {
			log.Warn("failed to store artwork", "track", j.trackID, "err", artErr)
		} else {
			rec.Artwork = art
			// Overwrites bypass the eviction callback, so release the
			// previous reference explicitly.
			if old, ok := r.artwork.Peek(j.trackID); ok {
				old.Release()
			}
			r.artwork.Add(j.trackID, art)
		}
	}

	r.records.Add(j.trackID, rec)
	if r.opts.Backing != nil {
		if storeErr := r.opts.Backing.Store(*rec); storeErr != nil {
			log.Warn("failed to persist tag record", "track", j.trackID, "err", storeErr)
		}
	}
	return rec
}

func (r *Reader) fetch(ctx context.Context, trackID string, maxBytes int64) ([]byte, bool, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()
	return r.fetcher.FetchRange(fetchCtx, trackID, maxBytes)
}

// parseWithTimeout bounds the parse stage. The parse itself cannot be
// interrupted, so on timeout its goroutine is left to finish into a
// buffered channel.
func (r *Reader) parseWithTimeout(ctx context.Context, trackID string, data []byte) (*Record, *rawPicture, error) {
	type result struct {
		rec *Record
		pic *rawPicture
		err error
	}
	ch := make(chan result, 1)
	go func() {
		rec, pic, err := r.parse(trackID, data)
		ch <- result{rec, pic, err}
	}()

	timer := time.NewTimer(r.opts.ParseTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.rec, res.pic, res.err
	case <-timer.C:
		return nil, nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
