package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/tide/internal/config"
	"github.com/llehouerou/tide/internal/feedback"
	"github.com/llehouerou/tide/internal/media"
	"github.com/llehouerou/tide/internal/mpris"
	"github.com/llehouerou/tide/internal/offline"
	"github.com/llehouerou/tide/internal/playback"
	"github.com/llehouerou/tide/internal/player"
	"github.com/llehouerou/tide/internal/playlist"
	"github.com/llehouerou/tide/internal/server"
	"github.com/llehouerou/tide/internal/source"
	"github.com/llehouerou/tide/internal/tags"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.URL == "" {
		return fmt.Errorf("server.url is not configured")
	}

	log.SetLevel(log.InfoLevel)
	if os.Getenv("TIDE_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	client := server.New(cfg.Server.URL, cfg.Server.Token, nil)

	// Offline artifact cache, persistent when the backing opens.
	offCfg := cfg.GetOfflineConfig()
	var offBacking offline.Backing
	if b, err := offline.OpenDefaultBacking(); err != nil {
		log.Warn("offline cache backing unavailable", "err", err)
	} else {
		offBacking = b
	}
	cache := offline.New(*offCfg.Enabled, offline.Limits{
		MaxEntries: offCfg.MaxEntries,
		TTL:        time.Duration(offCfg.TTLDays) * 24 * time.Hour,
	}, offBacking)
	cache.StartSweep(time.Duration(offCfg.SweepSec) * time.Second)
	defer cache.Close()

	// Metadata extraction queue.
	tagsCfg := cfg.GetTagsConfig()
	var tagBacking tags.Backing
	if b, err := tags.OpenDefaultBacking(); err != nil {
		log.Warn("tag cache backing unavailable", "err", err)
	} else {
		tagBacking = b
	}
	reader := tags.NewReader(client, tags.Options{
		Workers:          tagsCfg.Workers,
		QueueSize:        tagsCfg.QueueSize,
		CacheSize:        tagsCfg.CacheSize,
		ArtworkCacheSize: tagsCfg.ArtworkCacheSize,
		RangeBytes:       int64(tagsCfg.RangeKiB) * 1024,
		FetchTimeout:     time.Duration(tagsCfg.FetchTimeoutSec) * time.Second,
		ParseTimeout:     time.Duration(tagsCfg.ParseTimeoutSec) * time.Second,
		ArtworkMode:      tagsCfg.ArtworkMode,
		Backing:          tagBacking,
	})
	defer reader.Close()

	// Feedback channel, drained to the log.
	notify := feedback.NewChannel()
	go drainFeedback(notify)
	defer notify.DismissAll()

	queue := playlist.NewQueue()
	lyricsCfg := cfg.GetLyricsConfig()
	refresher := &queueRefresher{client: client}

	svc := playback.New(playback.Options{
		Player:        player.New(),
		Queue:         queue,
		Source:        source.New(client, cache),
		Reporter:      client,
		Refresher:     refresher,
		Notifier:      notify,
		LyricsEnabled: *lyricsCfg.Enabled,
		LyricsDelay:   time.Duration(lyricsCfg.DelayMs) * time.Millisecond,
		LyricsWindow:  time.Duration(lyricsCfg.WindowSec) * time.Second,
		LyricsTick:    time.Duration(lyricsCfg.TickMs) * time.Millisecond,
	})
	defer svc.Close()
	refresher.svc = svc

	if adapter, err := mpris.New(svc, func(trackID string) string {
		if art, ok := reader.Artwork(trackID); ok {
			return art.Ref
		}
		return ""
	}); err != nil {
		log.Warn("now-playing surface unavailable", "err", err)
	} else {
		defer adapter.Close()
	}

	go logEvents(svc, reader)

	// Initial queue fill.
	refresher.Refresh()

	log.Info("tide running", "server", cfg.Server.URL)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	return nil
}

// queueRefresher repopulates the queue from the server when it empties.
type queueRefresher struct {
	svc    playback.Service
	client *server.Client
}

func (r *queueRefresher) Refresh() {
	if r.svc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exclude := make([]string, 0)
	for _, t := range r.svc.QueueTracks() {
		exclude = append(exclude, t.ID)
	}
	tracks, total, err := r.client.Tracks(ctx, server.TrackQuery{
		Limit:      100,
		ExcludeIDs: exclude,
	})
	if err != nil {
		log.Error("playlist refresh failed", "err", err)
		return
	}
	if len(tracks) == 0 {
		log.Info("no tracks available", "total", total)
		return
	}

	r.svc.ReplaceTracks(playlist.Dedupe(tracks)...)
	if err := r.svc.Play(0); err != nil {
		log.Error("failed to start playback", "err", err)
	}
}

// drainFeedback renders feedback events to the log.
func drainFeedback(ch *feedback.Channel) {
	for ev := range ch.Events() {
		switch ev.Kind {
		case feedback.EventShow:
			log.Info(ev.Entry.Message, "type", ev.Entry.Type)
		case feedback.EventHide:
			// The log sink has no fade transition to wait for.
			ch.TransitionDone()
		}
	}
}

// logEvents mirrors playback events into the log and warms the tag
// cache for the playing track.
func logEvents(svc playback.Service, reader *tags.Reader) {
	sub := svc.Subscribe()
	for {
		select {
		case e := <-sub.TrackChanged:
			if e.Current != nil {
				log.Info("now playing", "track", e.Current.Name, "artist", e.Current.DisplayArtist())
				go warmTags(reader, *e.Current)
			}
		case e := <-sub.StateChanged:
			log.Debug("state", "from", e.Previous, "to", e.Current)
		case e := <-sub.Error:
			log.Error("playback error", "op", e.Operation, "err", e.Err)
		case e := <-sub.LyricsChanged:
			if !e.Cleared {
				log.Debug("lyrics line", "active", e.Active, "next", e.Next)
			}
		case <-sub.Done:
			return
		}
	}
}

func warmTags(reader *tags.Reader, track media.Track) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if rec := reader.ReadTags(ctx, track.ID); rec != nil {
		log.Debug("tags extracted", "track", track.Name, "genre", rec.Genre, "year", rec.Year)
	}
}
