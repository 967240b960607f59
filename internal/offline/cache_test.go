package offline

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(limits Limits) (*Cache, *time.Time) {
	c := New(true, limits, nil)
	now := time.Now()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_PutGet(t *testing.T) {
	c, _ := newTestCache(Limits{})

	c.Put("t1", KindLyrics, []byte("la la"))

	if got := c.Get("t1", KindLyrics); string(got) != "la la" {
		t.Errorf("Get = %q, want la la", got)
	}
	if got := c.Get("t1", KindArtwork); got != nil {
		t.Errorf("Get(artwork) = %v, want nil", got)
	}
	if got := c.Get("missing", KindLyrics); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
}

func TestCache_BothKindsShareOneEntry(t *testing.T) {
	c, _ := newTestCache(Limits{})

	c.Put("t1", KindLyrics, []byte("words"))
	c.Put("t1", KindArtwork, []byte("ref"))

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if got := c.Get("t1", KindArtwork); string(got) != "ref" {
		t.Errorf("Get(artwork) = %q, want ref", got)
	}
}

func TestCache_OverflowEvictsOldestFirst(t *testing.T) {
	c, now := newTestCache(Limits{MaxEntries: 3})

	for i := range 4 {
		*now = now.Add(time.Millisecond)
		c.Put(fmt.Sprintf("t%d", i), KindLyrics, []byte("x"))
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.Get("t0", KindLyrics); got != nil {
		t.Error("t0 should have been evicted (strict oldest first)")
	}
	keys := c.Keys()
	want := []string{"t1", "t2", "t3"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Keys()[%d] = %s, want %s", i, keys[i], k)
		}
	}
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c, now := newTestCache(Limits{MaxEntries: 2})

	c.Put("t0", KindLyrics, []byte("x"))
	*now = now.Add(time.Millisecond)
	c.Put("t1", KindLyrics, []byte("x"))

	// Touch t0, making t1 the oldest.
	*now = now.Add(time.Millisecond)
	c.Get("t0", KindLyrics)

	*now = now.Add(time.Millisecond)
	c.Put("t2", KindLyrics, []byte("x"))

	if got := c.Get("t0", KindLyrics); got == nil {
		t.Error("t0 was touched and should survive eviction")
	}
	if got := c.Get("t1", KindLyrics); got != nil {
		t.Error("t1 was the oldest touch and should be evicted")
	}
}

func TestCache_TTLExpiryUnreachable(t *testing.T) {
	c, now := newTestCache(Limits{TTL: time.Hour})

	c.Put("t1", KindLyrics, []byte("x"))
	*now = now.Add(2 * time.Hour)

	// Capacity allows it, but the TTL makes it unreachable.
	if got := c.Get("t1", KindLyrics); got != nil {
		t.Error("expired entry must be unreachable via Get")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expiry removal", c.Len())
	}
}

func TestCache_PurgeOnlyExpired(t *testing.T) {
	c, now := newTestCache(Limits{TTL: time.Hour})

	c.Put("old", KindLyrics, []byte("x"))
	*now = now.Add(2 * time.Hour)
	c.Put("fresh", KindLyrics, []byte("x"))

	c.Purge(true)

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if got := c.Get("fresh", KindLyrics); got == nil {
		t.Error("fresh entry should survive expired-only purge")
	}
}

func TestCache_PurgeAll(t *testing.T) {
	c, _ := newTestCache(Limits{})
	c.Put("a", KindLyrics, []byte("x"))
	c.Put("b", KindLyrics, []byte("x"))

	c.Purge(false)

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New(false, Limits{}, nil)

	c.Put("t1", KindLyrics, []byte("x"))

	if got := c.Get("t1", KindLyrics); got != nil {
		t.Error("disabled cache must return nil from Get")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for disabled cache", c.Len())
	}
}

func TestCache_SetLimitsEvictsImmediately(t *testing.T) {
	c, now := newTestCache(Limits{MaxEntries: 10})

	for i := range 5 {
		*now = now.Add(time.Millisecond)
		c.Put(fmt.Sprintf("t%d", i), KindLyrics, []byte("x"))
	}

	c.SetLimits(Limits{MaxEntries: 2})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	keys := c.Keys()
	if keys[0] != "t3" || keys[1] != "t4" {
		t.Errorf("Keys() = %v, want [t3 t4]", keys)
	}
}

func TestCache_SQLiteBackingRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline.db")

	b, err := OpenBacking(path)
	if err != nil {
		t.Fatalf("OpenBacking: %v", err)
	}

	c := New(true, Limits{}, b)
	c.Put("t1", KindLyrics, []byte("persisted"))
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b2, err := OpenBacking(path)
	if err != nil {
		t.Fatalf("OpenBacking (reopen): %v", err)
	}
	c2 := New(true, Limits{}, b2)
	defer c2.Close()

	if got := c2.Get("t1", KindLyrics); string(got) != "persisted" {
		t.Errorf("Get after reopen = %q, want persisted", got)
	}
}

func TestCache_BackingFailureDegradesToMemory(t *testing.T) {
	c := New(true, Limits{}, failingBacking{})

	c.Put("t1", KindLyrics, []byte("x"))

	if got := c.Get("t1", KindLyrics); string(got) != "x" {
		t.Error("cache must keep working when backing hydration fails")
	}
}

type failingBacking struct{}

func (failingBacking) Load() ([]StoredEntry, error) { return nil, fmt.Errorf("no backing") }
func (failingBacking) Store(StoredEntry) error      { return fmt.Errorf("no backing") }
func (failingBacking) Delete(string) error          { return fmt.Errorf("no backing") }
func (failingBacking) Close() error                 { return nil }
