package tags

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Artwork mode selects how embedded cover images are turned into
// displayable references.
const (
	// ArtworkModeFile writes the image to a transient file and
	// references it by path. The file is removed on Release.
	ArtworkModeFile = "file"
	// ArtworkModeInline encodes the image as a data URI. Nothing to
	// release, at the cost of keeping the bytes in memory.
	ArtworkModeInline = "inline"
)

// Artwork is a displayable reference to an embedded cover image.
type Artwork struct {
	Ref string

	path string // backing file in file mode, empty otherwise
}

// newArtwork converts raw image bytes to a reference in the given mode.
func newArtwork(mode string, pic *rawPicture) (*Artwork, error) {
	if mode == ArtworkModeInline {
		uri := fmt.Sprintf("data:%s;base64,%s", pic.MIME, base64.StdEncoding.EncodeToString(pic.Data))
		return &Artwork{Ref: uri}, nil
	}

	f, err := os.CreateTemp("", "tide-artwork-*"+extForMIME(pic.MIME))
	if err != nil {
		return nil, fmt.Errorf("create artwork file: %w", err)
	}
	if _, err := f.Write(pic.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write artwork file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close artwork file: %w", err)
	}
	return &Artwork{Ref: f.Name(), path: f.Name()}, nil
}

// Release frees any transient resource behind the reference. Safe to
// call more than once.
func (a *Artwork) Release() {
	if a == nil || a.path == "" {
		return
	}
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove artwork file", "path", a.path, "err", err)
	}
	a.path = ""
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
