package player

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// speakerSampleRate is the fixed output rate; streams at other rates
// are resampled.
const speakerSampleRate = beep.SampleRate(44100)

// Player plays MP3 payloads through the beep speaker.
type Player struct {
	state      State
	ctrl       *beep.Ctrl
	streamer   beep.StreamSeekCloser
	format     beep.Format
	duration   time.Duration
	onFinished func()
}

var speakerInitialized bool

// New creates a stopped player.
func New() *Player {
	return &Player{state: Stopped}
}

// Play decodes the payload and starts playback, stopping any current
// stream first.
func (p *Player) Play(data []byte) error {
	p.Stop()

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	if !speakerInitialized {
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		speakerInitialized = true
	}

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}

	p.streamer = streamer
	p.format = format
	p.duration = format.SampleRate.D(streamer.Len())
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: false}
	p.state = Playing

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		if p.onFinished != nil {
			p.onFinished()
		}
	})))

	return nil
}

// Stop halts playback and releases the current stream. The finished
// callback does not fire for stopped streams.
func (p *Player) Stop() {
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.duration = 0
	p.state = Stopped
}

func (p *Player) Pause() {
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

func (p *Player) Resume() {
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

func (p *Player) Toggle() {
	switch p.state {
	case Playing:
		p.Pause()
	case Paused:
		p.Resume()
	}
}

// SeekToStart rewinds the current stream to position zero.
func (p *Player) SeekToStart() {
	if p.streamer == nil {
		return
	}
	speaker.Lock()
	p.streamer.Seek(0)
	speaker.Unlock()
}

func (p *Player) State() State { return p.state }

func (p *Player) Position() time.Duration {
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

func (p *Player) Duration() time.Duration { return p.duration }

// OnFinished registers the end-of-stream callback.
func (p *Player) OnFinished(fn func()) {
	p.onFinished = fn
}
