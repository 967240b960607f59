package player

import (
	"errors"
	"testing"
	"time"
)

func TestMock_Transitions(t *testing.T) {
	m := NewMock()

	if m.State() != Stopped {
		t.Fatalf("initial state = %v, want Stopped", m.State())
	}

	if err := m.Play([]byte("payload")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if m.State() != Playing {
		t.Errorf("state after Play = %v, want Playing", m.State())
	}

	m.Pause()
	if m.State() != Paused {
		t.Errorf("state after Pause = %v, want Paused", m.State())
	}

	// Pause is a no-op unless playing.
	m.Pause()
	if m.State() != Paused {
		t.Errorf("state after double Pause = %v, want Paused", m.State())
	}

	m.Resume()
	if m.State() != Playing {
		t.Errorf("state after Resume = %v, want Playing", m.State())
	}

	m.Toggle()
	if m.State() != Paused {
		t.Errorf("state after Toggle = %v, want Paused", m.State())
	}
	m.Toggle()
	if m.State() != Playing {
		t.Errorf("state after second Toggle = %v, want Playing", m.State())
	}

	m.Stop()
	if m.State() != Stopped {
		t.Errorf("state after Stop = %v, want Stopped", m.State())
	}

	// Toggle from Stopped stays Stopped.
	m.Toggle()
	if m.State() != Stopped {
		t.Errorf("state after Toggle from Stopped = %v, want Stopped", m.State())
	}
}

func TestMock_PlayRecordsPayloadsAndResetsPosition(t *testing.T) {
	m := NewMock()

	m.Play([]byte("a"))
	m.SetPosition(30 * time.Second)
	m.Play([]byte("b"))

	calls := m.PlayCalls()
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("play calls = %v, want [a b]", calls)
	}
	if m.Position() != 0 {
		t.Errorf("position after Play = %v, want 0", m.Position())
	}
}

func TestMock_PlayError(t *testing.T) {
	m := NewMock()
	wantErr := errors.New("decode failed")
	m.SetPlayError(wantErr)

	if err := m.Play([]byte("a")); !errors.Is(err, wantErr) {
		t.Errorf("Play = %v, want %v", err, wantErr)
	}
	if m.State() != Stopped {
		t.Errorf("state after failed Play = %v, want Stopped", m.State())
	}
	// The attempt is still recorded.
	if calls := m.PlayCalls(); len(calls) != 1 {
		t.Errorf("play calls = %v, want one entry", calls)
	}
}

func TestMock_SeekToStart(t *testing.T) {
	m := NewMock()
	m.Play([]byte("a"))
	m.SetPosition(time.Minute)

	m.SeekToStart()

	if m.Position() != 0 {
		t.Errorf("position = %v, want 0", m.Position())
	}
	if m.SeekCalls() != 1 {
		t.Errorf("seek calls = %d, want 1", m.SeekCalls())
	}
}

func TestMock_SimulateFinished(t *testing.T) {
	m := NewMock()

	// No registered callback: must not panic.
	m.SimulateFinished()

	fired := 0
	m.OnFinished(func() { fired++ })
	m.SimulateFinished()
	if fired != 1 {
		t.Errorf("finish callback fired %d times, want 1", fired)
	}
}
