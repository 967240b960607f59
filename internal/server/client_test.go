package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchRange_Partial(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("partial-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	data, partial, err := c.FetchRange(context.Background(), "t1", 1024)

	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if !partial {
		t.Error("partial = false, want true for 206")
	}
	if string(data) != "partial-bytes" {
		t.Errorf("data = %q", data)
	}
	if gotRange != "bytes=0-1023" {
		t.Errorf("Range header = %q, want bytes=0-1023", gotRange)
	}
}

func TestFetchRange_FullWhenRangeIgnored(t *testing.T) {
	payload := strings.Repeat("x", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload)) // 200, range ignored
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	data, partial, err := c.FetchRange(context.Background(), "t1", 10)

	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if partial {
		t.Error("partial = true, want false for 200")
	}
	// The body is still capped client-side.
	if len(data) != 10 {
		t.Errorf("len(data) = %d, want 10", len(data))
	}
}

func TestFetchRange_FullFetchSendsNoRangeHeader(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Write([]byte("everything"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	data, _, err := c.FetchRange(context.Background(), "t1", 0)

	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if gotRange != "" {
		t.Errorf("Range header = %q, want empty", gotRange)
	}
	if string(data) != "everything" {
		t.Errorf("data = %q", data)
	}
}

func TestFetchRange_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(srv.URL, "", nil)
	_, _, err := c.FetchRange(context.Background(), "t1", 0)

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTracks_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("IncludeItemTypes") != "Audio" {
			t.Errorf("IncludeItemTypes = %q", q.Get("IncludeItemTypes"))
		}
		if q.Get("Genres") != "Jazz|Rock" {
			t.Errorf("Genres = %q", q.Get("Genres"))
		}
		if q.Get("StartIndex") != "40" || q.Get("Limit") != "20" {
			t.Errorf("pagination = %q/%q", q.Get("StartIndex"), q.Get("Limit"))
		}
		json.NewEncoder(w).Encode(itemsPage{
			Items:            []trackItem{{ID: "a", Name: "A"}},
			TotalRecordCount: 123,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	tracks, total, err := c.Tracks(context.Background(), TrackQuery{
		Genres:     []string{"Jazz", "Rock"},
		StartIndex: 40,
		Limit:      20,
	})

	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if total != 123 {
		t.Errorf("total = %d, want 123", total)
	}
	if len(tracks) != 1 || tracks[0].ID != "a" {
		t.Errorf("tracks = %v", tracks)
	}
}

func TestTracks_ChunksLargeExclusionLists(t *testing.T) {
	var requests int
	var chunkSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		ids := strings.Split(r.URL.Query().Get("ExcludeItemIds"), ",")
		chunkSizes = append(chunkSizes, len(ids))
		json.NewEncoder(w).Encode(itemsPage{
			Items: []trackItem{
				{ID: "keep", Name: "Keep"},
				{ID: "ex0", Name: "Should be filtered"},
			},
			TotalRecordCount: 10,
		})
	}))
	defer srv.Close()

	excludeIDs := make([]string, maxExcludeIDs+10)
	for i := range excludeIDs {
		excludeIDs[i] = fmt.Sprintf("ex%d", i)
	}

	c := New(srv.URL, "", nil)
	tracks, _, err := c.Tracks(context.Background(), TrackQuery{ExcludeIDs: excludeIDs})

	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 chunks", requests)
	}
	for _, size := range chunkSizes {
		if size > maxExcludeIDs {
			t.Errorf("chunk size %d exceeds cap %d", size, maxExcludeIDs)
		}
	}
	// "keep" deduplicated across chunks; "ex0" filtered client-side.
	if len(tracks) != 1 || tracks[0].ID != "keep" {
		t.Errorf("tracks = %v, want [keep]", tracks)
	}
}

func TestReporting(t *testing.T) {
	type report struct {
		path string
		body playingReport
	}
	var reports []report
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body playingReport
		json.NewDecoder(r.Body).Decode(&body)
		reports = append(reports, report{path: r.URL.Path, body: body})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	ctx := context.Background()

	if err := c.ReportStart(ctx, "t1"); err != nil {
		t.Fatalf("ReportStart: %v", err)
	}
	if err := c.ReportStop(ctx, "t1", 42_000_000); err != nil {
		t.Fatalf("ReportStop: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].path != "/Sessions/Playing" || reports[0].body.ItemID != "t1" {
		t.Errorf("start report = %+v", reports[0])
	}
	if reports[1].path != "/Sessions/Playing/Stopped" {
		t.Errorf("stop path = %q", reports[1].path)
	}
	if reports[1].body.PositionTicks != 42_000_000 {
		t.Errorf("stop position = %d", reports[1].body.PositionTicks)
	}
	if reports[0].body.PlaySessionID == "" || reports[0].body.PlaySessionID != reports[1].body.PlaySessionID {
		t.Error("reports must share the play session id")
	}
}

func TestLyrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"Lyrics":[{"Start":0,"Text":"hi"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)

	payload, err := c.Lyrics(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Lyrics: %v", err)
	}
	if !strings.Contains(string(payload), "hi") {
		t.Errorf("payload = %q", payload)
	}

	_, err = c.Lyrics(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
