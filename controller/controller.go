// Package controller ties capture, submission, history and notifications
// into the user-facing session lifecycle.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"zoolingo/capture"
	"zoolingo/history"
	"zoolingo/log"
	"zoolingo/notify"
	"zoolingo/sound"
	"zoolingo/translator"
)

var (
	ErrBusy     = errors.New("a translation is already in progress")
	ErrNoResult = errors.New("no translation yet")
	ErrNoReply  = errors.New("latest translation has no audio reply")
)

const levelInterval = 100 * time.Millisecond

type Recorder interface {
	BeginCapture() error
	EndCapture() (capture.Payload, error)
	Abandon()
	State() capture.State
	Ticks() <-chan int
	Level() float64
}

type Submitter interface {
	SubmitAudio(ctx context.Context, p capture.Payload) (translator.Submission, error)
	SubmitDemo(ctx context.Context, d translator.Demo) translator.Submission
}

type Replayer interface {
	Replay(ctx context.Context, ref string) error
}

type Copier interface {
	Copy(text string) error
}

type Config struct {
	Recorder  Recorder
	Submitter Submitter
	Store     *history.Store
	Notifier  *notify.Notifier
	Replayer  Replayer // optional
	Clipboard Copier   // optional
	AutoPlay  bool
}

type Controller struct {
	rec      Recorder
	sub      Submitter
	store    *history.Store
	notes    *notify.Notifier
	replay   Replayer
	clip     Copier
	autoPlay bool

	processing atomic.Bool
	count      atomic.Int64

	mu          sync.Mutex
	sink        EventSink
	stopMonitor chan struct{}
}

func New(cfg Config) *Controller {
	if cfg.Store == nil {
		cfg.Store = history.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.New()
	}
	c := &Controller{
		rec:      cfg.Recorder,
		sub:      cfg.Submitter,
		store:    cfg.Store,
		notes:    cfg.Notifier,
		replay:   cfg.Replayer,
		clip:     cfg.Clipboard,
		autoPlay: cfg.AutoPlay,
		sink:     nopSink{},
	}
	c.notes.OnChange(func(active []notify.Notification) {
		c.events().Notifications(active)
	})
	return c
}

// SetSink routes session events to s. A nil sink discards them.
func (c *Controller) SetSink(s EventSink) {
	if s == nil {
		s = nopSink{}
	}
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

func (c *Controller) events() EventSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

func (c *Controller) Processing() bool { return c.processing.Load() }

func (c *Controller) Recording() bool {
	return c.rec != nil && c.rec.State() == capture.Recording
}

// Translations is the number of results produced this session.
func (c *Controller) Translations() int { return int(c.count.Load()) }

func (c *Controller) Latest() (translator.Result, bool) { return c.store.Latest() }

func (c *Controller) History() []translator.Result { return c.store.Entries() }

func (c *Controller) Notifications() []notify.Notification { return c.notes.Active() }

func (c *Controller) notify(sev notify.Severity, title, body string) notify.Notification {
	log.Notification(string(sev), title)
	return c.notes.Notify(sev, title, body)
}

func (c *Controller) busy() error {
	c.notify(notify.Info, "Busy", "Wait for the current translation to finish")
	return ErrBusy
}

// StartCapture begins a microphone recording.
func (c *Controller) StartCapture(ctx context.Context) error {
	if c.rec == nil {
		c.notify(notify.Error, "Microphone unavailable", "No audio input configured")
		return capture.ErrPermissionDenied
	}
	if c.processing.Load() {
		return c.busy()
	}
	if c.Recording() {
		return nil
	}
	if err := c.rec.BeginCapture(); err != nil {
		log.Warnf("capture start failed: %v", err)
		c.notify(notify.Error, "Microphone unavailable", "Allow microphone access or pick another device with -setup")
		sound.PlayError()
		return err
	}

	log.Info("recording_start")
	c.events().RecordingStart()
	sound.PlayStart()

	stop := make(chan struct{})
	c.mu.Lock()
	c.stopMonitor = stop
	c.mu.Unlock()
	go c.monitor(stop)
	return nil
}

// monitor forwards the elapsed counter and input level while recording.
func (c *Controller) monitor(stop <-chan struct{}) {
	t := time.NewTicker(levelInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case n := <-c.rec.Ticks():
			c.events().RecordingTick(n)
		case <-t.C:
			c.events().AudioLevel(c.rec.Level())
		}
	}
}

func (c *Controller) endMonitor() {
	c.mu.Lock()
	if c.stopMonitor != nil {
		close(c.stopMonitor)
		c.stopMonitor = nil
	}
	c.mu.Unlock()
}

// StopCapture ends the recording and submits it.
func (c *Controller) StopCapture(ctx context.Context) error {
	if !c.Recording() {
		return capture.ErrNotRecording
	}
	// Claim the flag before releasing the mic; a busy stop keeps recording.
	if !c.processing.CompareAndSwap(false, true) {
		return c.busy()
	}
	payload, err := c.rec.EndCapture()
	if errors.Is(err, capture.ErrNotRecording) {
		c.processing.Store(false)
		return err
	}
	c.endMonitor()
	log.Info("recording_stop")
	c.events().RecordingStop()
	sound.PlayStop()

	switch {
	case errors.Is(err, capture.ErrTooShort):
		c.processing.Store(false)
		c.notify(notify.Warning, "Recording too short", "Hold the recording a little longer")
		return err
	case err != nil:
		c.processing.Store(false)
		log.Errorf("recording failed: %v", err)
		c.notify(notify.Error, "Recording failed", err.Error())
		sound.PlayError()
		return err
	}

	c.events().Processing(true)
	defer c.finish()
	if payload.Silent() {
		log.Info("silent_recording")
		c.notify(notify.Warning, "Quiet recording", "Barely any sound was captured")
	}
	return c.transmit(ctx, payload, "recording")
}

// ToggleCapture starts a recording when idle and stops it otherwise.
func (c *Controller) ToggleCapture(ctx context.Context) error {
	if c.Recording() {
		return c.StopCapture(ctx)
	}
	return c.StartCapture(ctx)
}

// Abandon drops any running recording without submitting it.
func (c *Controller) Abandon() {
	if c.rec == nil {
		return
	}
	wasRecording := c.Recording()
	c.rec.Abandon()
	c.endMonitor()
	if wasRecording {
		log.Info("recording_abandoned")
		c.events().RecordingStop()
	}
}

// SubmitFile validates an audio file and submits it.
func (c *Controller) SubmitFile(ctx context.Context, path string) error {
	payload, err := capture.OpenFile(path)
	if err != nil {
		log.Warnf("file rejected: %v", err)
		switch {
		case errors.Is(err, capture.ErrUnsupportedFormat):
			c.notify(notify.Error, "Unsupported format", "Use wav, mp3, ogg, flac, m4a or webm")
		case errors.Is(err, capture.ErrFileTooLarge):
			c.notify(notify.Error, "File too large", fmt.Sprintf("Audio files are limited to %d MB", capture.MaxFileSize>>20))
		default:
			c.notify(notify.Error, "Could not read file", err.Error())
		}
		return err
	}
	return c.submitAudio(ctx, payload, "file")
}

func (c *Controller) begin() bool {
	if !c.processing.CompareAndSwap(false, true) {
		return false
	}
	c.events().Processing(true)
	return true
}

func (c *Controller) finish() {
	c.processing.Store(false)
	c.events().Processing(false)
}

func (c *Controller) submitAudio(ctx context.Context, p capture.Payload, mode string) error {
	if !c.begin() {
		return c.busy()
	}
	defer c.finish()
	return c.transmit(ctx, p, mode)
}

// transmit sends p to the backend. The caller holds the processing flag.
func (c *Controller) transmit(ctx context.Context, p capture.Payload, mode string) error {
	c.events().StatusLine("translating " + p.Name)
	sub, err := c.sub.SubmitAudio(ctx, p)
	log.Submission(submissionMetrics(mode, p, sub, err))
	if err != nil {
		c.fail(err)
		return err
	}
	c.succeed(ctx, sub.Result)
	return nil
}

// SubmitDemo resolves a demo selection. It only fails when busy.
func (c *Controller) SubmitDemo(ctx context.Context, d translator.Demo) error {
	if !c.begin() {
		return c.busy()
	}
	defer c.finish()

	c.events().StatusLine("translating demo: " + d.Label())
	sub := c.sub.SubmitDemo(ctx, d)
	log.Submission(submissionMetrics("demo", capture.Payload{}, sub, nil))
	c.succeed(ctx, sub.Result)
	return nil
}

func (c *Controller) succeed(ctx context.Context, r translator.Result) {
	c.store.Record(r)
	c.count.Add(1)
	log.Result(string(r.Animal), string(r.Emotion), r.Confidence, r.Simulated, r.HasAudio())

	ev := c.events()
	ev.Result(r)
	ev.History(c.store.Entries())
	ev.StatusLine("")
	c.notify(notify.Success, fmt.Sprintf("%s • %s", r.Animal, r.Emotion), r.Translation)
	sound.PlaySuccess()

	if c.autoPlay && r.HasAudio() && c.replay != nil {
		go func() {
			if err := c.replay.Replay(context.WithoutCancel(ctx), r.AudioURL); err != nil {
				log.Warnf("auto-play failed: %v", err)
			}
		}()
	}
}

func (c *Controller) fail(err error) {
	log.Errorf("submission failed: %v", err)
	var pe *translator.ProcessingError
	switch {
	case errors.As(err, &pe):
		c.notify(notify.Error, "Translation failed", pe.Message)
	case errors.Is(err, translator.ErrConnectionFailed):
		c.notify(notify.Error, "Connection failed", "Could not reach the translation service")
	default:
		c.notify(notify.Error, "Translation failed", err.Error())
	}
	c.events().StatusLine("")
	sound.PlayError()
}

func submissionMetrics(mode string, p capture.Payload, sub translator.Submission, err error) log.SubmissionMetrics {
	m := log.SubmissionMetrics{
		Mode:      mode,
		MediaType: p.MediaType,
		SizeKB:    float64(len(p.Data)) / 1024,
		AudioS:    p.Duration.Seconds(),
		Simulated: sub.Result.Simulated,
		Outcome:   "ok",
	}
	switch {
	case errors.Is(err, translator.ErrConnectionFailed):
		m.Outcome = "connection_failed"
	case err != nil:
		m.Outcome = "processing_failed"
	}
	if nm := sub.Metrics; nm != nil {
		m.DNS = nm.DNS
		m.TLS = nm.TLS
		m.TTFB = nm.TTFB
		m.Total = nm.Total
		m.ConnReused = nm.ConnReused
	}
	return m
}

// ClearHistory empties the history log. The latest result stays on screen.
func (c *Controller) ClearHistory() {
	c.store.Clear()
	log.Info("history_cleared")
	c.events().History(nil)
	c.notify(notify.Info, "History cleared", "")
}

func (c *Controller) DismissNotification(id string) {
	c.notes.Dismiss(id)
}

// Replay plays the latest result's audio reply.
func (c *Controller) Replay(ctx context.Context) error {
	r, ok := c.store.Latest()
	if !ok {
		return ErrNoResult
	}
	if !r.HasAudio() || c.replay == nil {
		c.notify(notify.Info, "No audio reply", "This translation has no spoken reply")
		return ErrNoReply
	}
	if err := c.replay.Replay(ctx, r.AudioURL); err != nil {
		log.Warnf("replay failed: %v", err)
		c.notify(notify.Error, "Playback failed", err.Error())
		return err
	}
	return nil
}

// CopyLatest puts the latest translation on the clipboard.
func (c *Controller) CopyLatest() error {
	r, ok := c.store.Latest()
	if !ok {
		c.notify(notify.Info, "Nothing to copy", "Translate something first")
		return ErrNoResult
	}
	if c.clip == nil {
		c.notify(notify.Error, "Copy failed", "Clipboard unavailable")
		return errors.New("no clipboard")
	}
	if err := c.clip.Copy(r.Translation); err != nil {
		c.notify(notify.Error, "Copy failed", err.Error())
		return err
	}
	c.notify(notify.Success, "Copied", "Translation copied to clipboard")
	return nil
}

// Close abandons any recording and stops notification timers.
func (c *Controller) Close() {
	c.Abandon()
	c.notes.Close()
}
