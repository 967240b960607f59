package server

import "github.com/llehouerou/tide/internal/media"

// trackItem is the wire form of an audio item.
type trackItem struct {
	ID           string            `json:"Id"`
	Name         string            `json:"Name"`
	Artists      []string          `json:"Artists"`
	Album        string            `json:"Album"`
	AlbumID      string            `json:"AlbumId"`
	RunTimeTicks int64             `json:"RunTimeTicks"`
	ImageTags    map[string]string `json:"ImageTags"`
}

// itemsPage is a single page of an items query.
type itemsPage struct {
	Items            []trackItem `json:"Items"`
	TotalRecordCount int         `json:"TotalRecordCount"`
}

// toTrack converts a wire item to the engine track model.
func (i trackItem) toTrack() media.Track {
	return media.Track{
		ID:           i.ID,
		Name:         i.Name,
		Artists:      i.Artists,
		Album:        i.Album,
		AlbumID:      i.AlbumID,
		RunTimeTicks: i.RunTimeTicks,
		ImageTags:    i.ImageTags,
	}
}
