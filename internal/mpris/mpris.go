//go:build linux

// Package mpris exposes the playback controller as a now-playing
// surface over D-Bus. The integration is sink-only: its absence never
// affects playback.
package mpris

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/tide/internal/playback"
	"github.com/llehouerou/tide/internal/playlist"
)

// ArtworkFunc resolves a displayable artwork reference for a track id,
// or "" when none is cached.
type ArtworkFunc func(trackID string) string

// Adapter connects the playback service to MPRIS over D-Bus.
type Adapter struct {
	service playback.Service
	server  *server.Server
}

// New creates and starts a new MPRIS adapter. artwork may be nil.
func New(service playback.Service, artwork ArtworkFunc) (*Adapter, error) {
	a := &Adapter{service: service}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{service: service, artwork: artwork}

	a.server = server.NewServer("tide", rootAdapter, playerAdapter)

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tide", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and
// optional interfaces.
type playerAdapter struct {
	service playback.Service
	artwork ArtworkFunc
}

func (p *playerAdapter) Next() error {
	return p.service.Next()
}

func (p *playerAdapter) Previous() error {
	return p.service.Previous()
}

func (p *playerAdapter) Pause() error {
	if p.service.State() == playback.StatePlaying {
		return p.service.TogglePlayPause()
	}
	return nil
}

func (p *playerAdapter) PlayPause() error {
	return p.service.TogglePlayPause()
}

func (p *playerAdapter) Stop() error {
	return p.service.Stop()
}

func (p *playerAdapter) Play() error {
	if p.service.State() == playback.StatePlaying {
		return nil
	}
	return p.service.TogglePlayPause()
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return nil // Arbitrary seeking not supported
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return nil // Not supported
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.service.State() {
	case playback.StatePlaying, playback.StateLoading:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track := p.service.CurrentTrack()
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(track.Duration().Microseconds()),
		Title:   track.Name,
		Artist:  track.Artists,
		Album:   track.Album,
	}

	if p.artwork != nil {
		if ref := p.artwork(track.ID); ref != "" {
			meta.ArtUrl = artURL(ref)
		}
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed via service
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return len(p.service.QueueTracks()) > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.service.QueueIndex() > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.service.QueueTracks()) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.service.RepeatMode() {
	case playlist.RepeatOne:
		return types.LoopStatusTrack, nil
	case playlist.RepeatAll:
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.service.SetRepeatMode(playlist.RepeatOff)
	case types.LoopStatusTrack:
		p.service.SetRepeatMode(playlist.RepeatOne)
	case types.LoopStatusPlaylist:
		p.service.SetRepeatMode(playlist.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.service.Shuffle(), nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.service.SetShuffle(shuffle)
	return nil
}

// artURL turns an artwork reference into an MPRIS ArtUrl. File-backed
// references need the file scheme; inline data URIs pass through.
func artURL(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	return "file://" + ref
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
