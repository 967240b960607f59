package source

import (
	"context"
	"testing"

	"github.com/llehouerou/tide/internal/offline"
	"github.com/llehouerou/tide/internal/server"
)

type fakeClient struct {
	media       []byte
	lyrics      []byte
	lyricsErr   error
	lyricsCalls int
}

func (f *fakeClient) FetchRange(_ context.Context, _ string, maxBytes int64) ([]byte, bool, error) {
	partial := maxBytes > 0 && int64(len(f.media)) > maxBytes
	return f.media, partial, nil
}

func (f *fakeClient) Lyrics(context.Context, string) ([]byte, error) {
	f.lyricsCalls++
	if f.lyricsErr != nil {
		return nil, f.lyricsErr
	}
	return f.lyrics, nil
}

func TestLyrics_CachesPayloadOffline(t *testing.T) {
	client := &fakeClient{lyrics: []byte("[00:01.00]hello\n[00:05.00]world")}
	cache := offline.New(true, offline.DefaultLimits, nil)
	s := New(client, cache)

	tl, err := s.Lyrics(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Lyrics: %v", err)
	}
	if tl == nil || !tl.Synced || len(tl.Lines) != 2 {
		t.Fatalf("timeline = %+v", tl)
	}

	// Second fetch is served from the offline cache.
	tl, err = s.Lyrics(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Lyrics (cached): %v", err)
	}
	if tl == nil || len(tl.Lines) != 2 {
		t.Fatalf("cached timeline = %+v", tl)
	}
	if client.lyricsCalls != 1 {
		t.Errorf("lyrics calls = %d, want 1", client.lyricsCalls)
	}
}

func TestLyrics_NotFoundIsNotAnError(t *testing.T) {
	client := &fakeClient{lyricsErr: server.ErrNotFound}
	s := New(client, offline.New(true, offline.DefaultLimits, nil))

	tl, err := s.Lyrics(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Lyrics: %v", err)
	}
	if tl != nil {
		t.Errorf("timeline = %+v, want nil", tl)
	}
}

func TestLyrics_DisabledCacheFallsThrough(t *testing.T) {
	client := &fakeClient{lyrics: []byte("plain words")}
	s := New(client, offline.New(false, offline.DefaultLimits, nil))

	for i := 0; i < 2; i++ {
		tl, err := s.Lyrics(context.Background(), "t1")
		if err != nil {
			t.Fatalf("Lyrics: %v", err)
		}
		if tl == nil || tl.Synced {
			t.Fatalf("timeline = %+v, want unsynced plain text", tl)
		}
	}
	// Disabled cache never serves hits; both reads hit the client.
	if client.lyricsCalls != 2 {
		t.Errorf("lyrics calls = %d, want 2", client.lyricsCalls)
	}
}

func TestMedia(t *testing.T) {
	client := &fakeClient{media: []byte("audio-bytes")}
	s := New(client, offline.New(false, offline.DefaultLimits, nil))

	data, err := s.Media(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Media: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("data = %q", data)
	}
}
