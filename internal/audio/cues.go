// Package audio plays short synthesized sound cues for world events.
// No asset files: tones are generated. If the audio device cannot be
// initialized the player degrades to silence instead of failing the session.
package audio

import (
	"log"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"arena-client/internal/config"
)

const (
	sampleRate  = beep.SampleRate(44100)
	cueDuration = 120 * time.Millisecond

	freqJoined = 880
	freqLeft   = 440
	freqDied   = 220
)

// Cues synthesizes event blips through the speaker. Safe to call from any
// goroutine; speaker serializes playback internally.
type Cues struct {
	enabled bool
	volume  float64
}

// NewCues initializes the speaker once. A failed init (headless host, no
// device) disables cues with a warning rather than returning an error.
func NewCues(cfg config.AudioConfig) *Cues {
	c := &Cues{enabled: cfg.Enabled, volume: cfg.Volume}
	if !c.enabled {
		return c
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		log.Printf("⚠️ Sound cues disabled: %v", err)
		c.enabled = false
	}
	return c
}

// Joined plays the join blip.
func (c *Cues) Joined() { c.play(freqJoined) }

// Left plays the leave blip.
func (c *Cues) Left() { c.play(freqLeft) }

// Died plays the death blip.
func (c *Cues) Died() { c.play(freqDied) }

func (c *Cues) play(freq int) {
	if !c.enabled {
		return
	}
	tone, err := generators.SinTone(sampleRate, freq)
	if err != nil {
		return
	}
	blip := &effects.Gain{
		Streamer: beep.Take(sampleRate.N(cueDuration), tone),
		Gain:     c.volume - 1,
	}
	speaker.Play(blip)
}
