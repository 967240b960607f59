package player

import "time"

// Mock is a test double for Player. It records play payloads and lets
// tests drive state, position and finish events directly.
type Mock struct {
	state      State
	position   time.Duration
	duration   time.Duration
	playErr    error
	playCalls  []string
	seekCalls  int
	onFinished func()
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{state: Stopped}
}

func (m *Mock) Play(data []byte) error {
	m.playCalls = append(m.playCalls, string(data))
	if m.playErr != nil {
		return m.playErr
	}
	m.state = Playing
	m.position = 0
	return nil
}

func (m *Mock) Stop() {
	m.state = Stopped
	m.position = 0
}

func (m *Mock) Pause() {
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Resume() {
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) Toggle() {
	switch m.state {
	case Playing:
		m.Pause()
	case Paused:
		m.Resume()
	}
}

func (m *Mock) SeekToStart() {
	m.seekCalls++
	m.position = 0
}

func (m *Mock) State() State { return m.state }

func (m *Mock) Position() time.Duration { return m.position }

func (m *Mock) Duration() time.Duration { return m.duration }

func (m *Mock) OnFinished(fn func()) { m.onFinished = fn }

// Test helpers

func (m *Mock) SetState(s State) { m.state = s }

func (m *Mock) SetPlayError(err error) { m.playErr = err }

func (m *Mock) SetPosition(d time.Duration) { m.position = d }

func (m *Mock) SetDuration(d time.Duration) { m.duration = d }

func (m *Mock) PlayCalls() []string { return m.playCalls }

func (m *Mock) SeekCalls() int { return m.seekCalls }

// SimulateFinished invokes the registered finish callback, as the real
// player does when a stream plays to its end.
func (m *Mock) SimulateFinished() {
	if m.onFinished != nil {
		m.onFinished()
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
