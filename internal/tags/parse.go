package tags

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// errInsufficientData marks a parse failure caused by the buffer ending
// before the tag data did. It is the only retryable parse error: the
// caller refetches the full resource exactly once.
var errInsufficientData = errors.New("tags: insufficient data")

// rawPicture is an embedded cover image as found in the tag data.
type rawPicture struct {
	MIME string
	Data []byte
}

// parseBuffer extracts tag metadata from an audio payload, which may be
// a partial prefix of the full resource. Truncation surfaces as
// errInsufficientData.
func parseBuffer(trackID string, data []byte) (*Record, *rawPicture, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		// Some MP3s (notably UTF-16 encoded tags) fail in the generic
		// reader but parse fine with the dedicated ID3v2 parser.
		if bytes.HasPrefix(data, []byte(id3Magic)) {
			if rec, pic, id3Err := parseID3v2(trackID, data); id3Err == nil {
				return rec, pic, nil
			}
		}
		if isTruncated(err) {
			return nil, nil, errInsufficientData
		}
		return nil, nil, err
	}

	rec := &Record{
		TrackID: trackID,
		Title:   m.Title(),
		Artist:  m.Artist(),
		Album:   m.Album(),
		Genre:   m.Genre(),
		Year:    m.Year(),
		Lyrics:  m.Lyrics(),
	}

	var pic *rawPicture
	if p := m.Picture(); p != nil && len(p.Data) > 0 {
		pic = &rawPicture{MIME: p.MIMEType, Data: p.Data}
	}
	return rec, pic, nil
}

// parseID3v2 reads metadata using only the id3v2 library.
func parseID3v2(trackID string, data []byte) (*Record, *rawPicture, error) {
	id3tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		return nil, nil, err
	}

	year := 0
	if s := id3tag.Year(); len(s) >= 4 {
		year, _ = strconv.Atoi(s[:4])
	}

	rec := &Record{
		TrackID: trackID,
		Title:   id3tag.Title(),
		Artist:  id3tag.Artist(),
		Album:   id3tag.Album(),
		Genre:   id3tag.Genre(),
		Year:    year,
	}

	for _, frame := range id3tag.GetFrames(id3tag.CommonID("Unsynchronised lyrics/text transcription")) {
		if uslt, ok := frame.(id3v2.UnsynchronisedLyricsFrame); ok {
			rec.Lyrics = uslt.Lyrics
			break
		}
	}

	var pic *rawPicture
	for _, frame := range id3tag.GetFrames(id3tag.CommonID("Attached picture")) {
		if pf, ok := frame.(id3v2.PictureFrame); ok && len(pf.Picture) > 0 {
			pic = &rawPicture{MIME: pf.MimeType, Data: pf.Picture}
			break
		}
	}
	return rec, pic, nil
}

// isTruncated reports whether err indicates the reader ran out of bytes
// mid-tag, as opposed to the tag data itself being malformed.
func isTruncated(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected EOF") ||
		strings.Contains(msg, "short read") ||
		strings.Contains(msg, "expected to read")
}
