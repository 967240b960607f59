package playlist

import (
	"testing"

	"github.com/llehouerou/tide/internal/media"
)

func track(id string) media.Track {
	return media.Track{ID: id, Name: "Track " + id}
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
}

func TestQueue_JumpTo(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))

	got := q.JumpTo(1)

	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
	if got == nil || got.ID != "b" {
		t.Errorf("JumpTo returned %v, want track b", got)
	}
}

func TestQueue_JumpTo_Invalid(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"))

	if got := q.JumpTo(5); got != nil {
		t.Error("JumpTo with invalid index should return nil")
	}
	if got := q.JumpTo(-1); got != nil {
		t.Error("JumpTo with negative index should return nil")
	}
}

func TestQueue_RemoveAt_AdjustsCurrent(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(2)

	if !q.RemoveAt(0) {
		t.Fatal("RemoveAt(0) failed")
	}

	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
	if cur := q.Current(); cur == nil || cur.ID != "c" {
		t.Errorf("Current() = %v, want track c", cur)
	}
}

func TestQueue_RemoveAt_Current(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"))
	q.JumpTo(1)

	q.RemoveAt(1)

	// Clamped to the new last index.
	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
}

func TestQueue_PickNext_Sequential(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"))
	q.JumpTo(0)

	if got := q.PickNext(); got != 1 {
		t.Errorf("PickNext() = %d, want 1", got)
	}

	q.JumpTo(1)
	if got := q.PickNext(); got != -1 {
		t.Errorf("PickNext() at end = %d, want -1", got)
	}
}

func TestQueue_PickNext_ShuffleDistinct(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(1)
	q.SetShuffle(true)

	for range 50 {
		got := q.PickNext()
		if got == 1 {
			t.Fatal("shuffle picked the current index")
		}
		if got < 0 || got > 2 {
			t.Fatalf("PickNext() = %d, out of range", got)
		}
	}
}

func TestQueue_PickNext_ShuffleWithoutCurrent(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.SetShuffle(true)

	// With nothing playing every index is a candidate, including 0.
	q.randIntn = func(int) int { return 0 }
	if got := q.PickNext(); got != 0 {
		t.Errorf("PickNext() = %d, want 0", got)
	}

	q.randIntn = func(n int) int { return n - 1 }
	if got := q.PickNext(); got != 2 {
		t.Errorf("PickNext() = %d, want 2", got)
	}
}

func TestQueue_PickNext_ShuffleSingleTrack(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"))
	q.JumpTo(0)
	q.SetShuffle(true)

	// Must not loop forever looking for a distinct index.
	if got := q.PickNext(); got != 0 {
		t.Errorf("PickNext() = %d, want 0", got)
	}
}

func TestQueue_PickPrevious(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(0)
	q.JumpTo(2)

	if got := q.PickPrevious(); got != 1 {
		t.Errorf("PickPrevious() = %d, want 1", got)
	}

	q.SetShuffle(true)
	// With shuffle the played history wins: track a was played first.
	if got := q.PickPrevious(); got != 0 {
		t.Errorf("PickPrevious() with shuffle = %d, want 0 (from history)", got)
	}
}

func TestQueue_Upcoming_Sequential(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(0)

	up := q.Upcoming()
	if len(up) != 2 || up[0].ID != "b" || up[1].ID != "c" {
		t.Errorf("Upcoming() = %v, want [b c]", up)
	}
}

func TestQueue_Upcoming_ShuffleExcludesPlayedAndCurrent(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"), track("d"))
	q.JumpTo(0)
	q.JumpTo(1)
	q.SetShuffle(true)

	up := q.Upcoming()
	if len(up) != 2 {
		t.Fatalf("Upcoming() has %d entries, want 2", len(up))
	}
	for _, tr := range up {
		if tr.ID == "a" || tr.ID == "b" {
			t.Errorf("Upcoming() contains played/current track %s", tr.ID)
		}
	}
}

func TestQueue_Replace(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"))
	q.JumpTo(0)

	q.Replace(track("x"), track("y"))

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
	if len(q.History()) != 0 {
		t.Error("Replace should clear history")
	}
}

func TestQueue_History(t *testing.T) {
	q := NewQueue()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(0)
	q.JumpTo(1)
	q.JumpTo(2)

	h := q.History()
	if len(h) != 2 || h[0].ID != "a" || h[1].ID != "b" {
		t.Errorf("History() = %v, want [a b]", h)
	}
}

func TestDedupe(t *testing.T) {
	tracks := []media.Track{
		{ID: "1", Name: "One", Artists: []string{"A"}},
		{ID: "2", Name: "Two", Artists: []string{"A"}},
		{ID: "1", Name: "One again", Artists: []string{"A"}},
		{Name: "two", Artists: []string{"a"}}, // no id, matches Two by heuristic
	}

	got := Dedupe(tracks)
	if len(got) != 2 {
		t.Fatalf("Dedupe() kept %d tracks, want 2", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("Dedupe() = %v, want first occurrences", got)
	}
}
