package media

import (
	"testing"
	"time"
)

func TestTicksConversion(t *testing.T) {
	if got := TicksToDuration(TicksPerSecond); got != time.Second {
		t.Errorf("TicksToDuration(1s of ticks) = %v, want 1s", got)
	}
	if got := DurationToTicks(3 * time.Second); got != 3*TicksPerSecond {
		t.Errorf("DurationToTicks(3s) = %d, want %d", got, 3*TicksPerSecond)
	}
	if got := TicksToDuration(0); got != 0 {
		t.Errorf("TicksToDuration(0) = %v, want 0", got)
	}
}

func TestTrack_Duration(t *testing.T) {
	tr := Track{RunTimeTicks: 2_400_000_000} // 240s
	if got := tr.Duration(); got != 4*time.Minute {
		t.Errorf("Duration() = %v, want 4m", got)
	}
}

func TestTrack_SameAs(t *testing.T) {
	tests := []struct {
		name string
		a, b Track
		want bool
	}{
		{
			name: "same id",
			a:    Track{ID: "x", Name: "One"},
			b:    Track{ID: "x", Name: "Two"},
			want: true,
		},
		{
			name: "different ids never match even with same metadata",
			a:    Track{ID: "x", Name: "One", Artists: []string{"A"}},
			b:    Track{ID: "y", Name: "One", Artists: []string{"A"}},
			want: false,
		},
		{
			name: "missing id falls back to name and artist set",
			a:    Track{Name: "One", Artists: []string{"A", "B"}},
			b:    Track{ID: "y", Name: "one", Artists: []string{"b", "a"}},
			want: true,
		},
		{
			name: "fallback rejects different artists",
			a:    Track{Name: "One", Artists: []string{"A"}},
			b:    Track{Name: "One", Artists: []string{"B"}},
			want: false,
		},
		{
			name: "fallback rejects different names",
			a:    Track{Name: "One", Artists: []string{"A"}},
			b:    Track{Name: "Two", Artists: []string{"A"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SameAs(tt.b); got != tt.want {
				t.Errorf("SameAs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrack_DisplayArtist(t *testing.T) {
	tr := Track{Artists: []string{"A", "B"}}
	if got := tr.DisplayArtist(); got != "A, B" {
		t.Errorf("DisplayArtist() = %q, want %q", got, "A, B")
	}
}
