//go:build !linux

package mpris

import "github.com/llehouerou/tide/internal/playback"

// ArtworkFunc resolves a displayable artwork reference for a track id.
type ArtworkFunc func(trackID string) string

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ playback.Service, _ ArtworkFunc) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
