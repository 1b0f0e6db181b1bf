package controller

import (
	"zoolingo/notify"
	"zoolingo/translator"
)

// EventSink abstracts the display layer so the TUI and the headless
// subcommands receive the same session events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(seconds int)
	AudioLevel(level float64)
	Processing(active bool)
	Result(r translator.Result)
	History(entries []translator.Result)
	Notifications(active []notify.Notification)
	StatusLine(text string)
}

type nopSink struct{}

func (nopSink) RecordingStart()                     {}
func (nopSink) RecordingStop()                      {}
func (nopSink) RecordingTick(int)                   {}
func (nopSink) AudioLevel(float64)                  {}
func (nopSink) Processing(bool)                     {}
func (nopSink) Result(translator.Result)            {}
func (nopSink) History([]translator.Result)         {}
func (nopSink) Notifications([]notify.Notification) {}
func (nopSink) StatusLine(string)                   {}
