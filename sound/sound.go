// Package sound plays short feedback cues and decoded reply audio.
package sound

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

var disabled atomic.Bool

// Disable turns every cue and PlayPCM call into a no-op.
func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

// ErrUnavailable is returned when no output device can be opened.
var ErrUnavailable = errors.New("audio output unavailable")

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Success: rising two-note chirp
	successLow    = 880
	successHigh   = 1320
	successVolume = 0.45
	successDecay  = 35

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueSuccess
	CueError
)

var (
	cueOnce    sync.Once
	cueSamples map[Cue][]int16
)

func initCues() {
	cueSamples = map[Cue][]int16{
		CueStart:   tone(sampleRate, startFreq, 0.12, startVolume, startDecay),
		CueStop:    tone(sampleRate, stopFreq, 0.15, stopVolume, stopDecay),
		CueSuccess: sequence(tone(sampleRate, successLow, 0.08, successVolume, successDecay), silence(sampleRate, 0.02), tone(sampleRate, successHigh, 0.12, successVolume, successDecay)),
		CueError:   sequence(tone(sampleRate, errorFreq, 0.08, errorVolume, errorDecay), silence(sampleRate, 0.05), tone(sampleRate, errorFreq, 0.08, errorVolume, errorDecay)),
	}
}

func samplesFor(c Cue) []int16 {
	cueOnce.Do(initCues)
	return cueSamples[c]
}

func tone(rate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(rate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func silence(rate int, duration float64) []int16 {
	return make([]int16, int(float64(rate)*duration))
}

func sequence(parts ...[]int16) []int16 {
	var out []int16
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Play starts a cue in the background.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	samples := samplesFor(c)
	go playPCM(samples, sampleRate)
}

func PlayStart()   { Play(CueStart) }
func PlayStop()    { Play(CueStop) }
func PlaySuccess() { Play(CueSuccess) }
func PlayError()   { Play(CueError) }

// PlayPCM plays mono 16-bit samples and blocks until playback drains.
func PlayPCM(samples []int16, rate int) error {
	if disabled.Load() || len(samples) == 0 {
		return nil
	}
	if rate <= 0 {
		return errors.New("invalid sample rate")
	}
	return playPCM(samples, rate)
}
