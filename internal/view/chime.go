package view

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Chime signals that a run has finished
type Chime interface {
	Play()
}

// Silent is a Chime that does nothing
type Silent struct{}

// Play implements Chime
func (Silent) Play() {}

// The speaker is process global and may only be initialized once
var (
	initOnce sync.Once
	initErr  error
)

// Speaker plays a short two-tone chime on the default audio device
type Speaker struct{}

// NewSpeaker initializes the audio device. Machines without one return
// an error; callers fall back to Silent.
func NewSpeaker() (*Speaker, error) {
	initOnce.Do(func() {
		initErr = speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
	})
	if initErr != nil {
		return nil, initErr
	}
	return &Speaker{}, nil
}

// Play implements Chime
func (s *Speaker) Play() {
	low, err := generators.SineTone(sampleRate, 660)
	if err != nil {
		return
	}
	high, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}

	tone := beep.Seq(
		beep.Take(sampleRate.N(120*time.Millisecond), low),
		beep.Take(sampleRate.N(180*time.Millisecond), high),
	)
	speaker.Play(tone)
}
