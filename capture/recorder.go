package capture

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"zoolingo/audio"
	"zoolingo/encoder"
)

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// minFrames rejects accidental taps (100ms of audio).
const minFrames = encoder.SampleRate / 10

type RecorderConfig struct {
	Device       *audio.DeviceInfo // nil selects the system default
	TickInterval time.Duration     // elapsed counter period, default 1s
	NewEncoder   func() (encoder.Encoder, error)
}

// Recorder owns the microphone between BeginCapture and EndCapture/Abandon
// and turns the captured PCM into a single encoded Payload.
type Recorder struct {
	audio audio.Context
	cfg   RecorderConfig

	mu        sync.Mutex
	state     State
	starting  bool
	device    audio.CaptureDevice
	enc       encoder.Encoder
	sampleBuf []int16
	encodeErr error
	level     float64
	peak      float64
	stopTick  chan struct{}
	tickDone  chan struct{}

	elapsed atomic.Int64
	ticks   chan int
}

func NewRecorder(ctx audio.Context, cfg RecorderConfig) *Recorder {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.NewEncoder == nil {
		cfg.NewEncoder = func() (encoder.Encoder, error) { return encoder.NewFlac() }
	}
	return &Recorder{
		audio: ctx,
		cfg:   cfg,
		ticks: make(chan int, 1),
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed is the number of whole tick intervals since the current (or last)
// recording began.
func (r *Recorder) Elapsed() int {
	return int(r.elapsed.Load())
}

// Ticks delivers the elapsed counter each time it advances. Slow readers
// only see the latest value.
func (r *Recorder) Ticks() <-chan int {
	return r.ticks
}

// Level is the smoothed input level of the running recording.
func (r *Recorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// SetDevice changes the device used by the next BeginCapture.
func (r *Recorder) SetDevice(d *audio.DeviceInfo) {
	r.mu.Lock()
	r.cfg.Device = d
	r.mu.Unlock()
}

// BeginCapture acquires the microphone and starts buffering audio. It is a
// no-op while a recording is already running. On failure the recorder stays
// Idle and the error wraps ErrPermissionDenied.
func (r *Recorder) BeginCapture() error {
	r.mu.Lock()
	if r.state == Recording || r.starting {
		r.mu.Unlock()
		return nil
	}
	r.starting = true
	device := r.cfg.Device
	r.mu.Unlock()

	reset := func() {
		r.mu.Lock()
		r.starting = false
		r.enc = nil
		r.device = nil
		r.sampleBuf = nil
		r.mu.Unlock()
	}

	enc, err := r.cfg.NewEncoder()
	if err != nil {
		reset()
		return fmt.Errorf("creating encoder: %w", err)
	}

	dev, err := r.audio.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		reset()
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.mu.Lock()
	r.enc = enc
	r.device = dev
	r.sampleBuf = nil
	r.encodeErr = nil
	r.level = 0
	r.peak = 0
	r.mu.Unlock()
	r.elapsed.Store(0)
	select {
	case <-r.ticks:
	default:
	}

	dev.SetCallback(r.onData)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		reset()
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.mu.Lock()
	r.starting = false
	r.state = Recording
	r.stopTick = make(chan struct{})
	r.tickDone = make(chan struct{})
	go r.tick(r.stopTick, r.tickDone)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) tick(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(r.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			n := int(r.elapsed.Add(1))
			select {
			case <-r.ticks:
			default:
			}
			select {
			case r.ticks <- n:
			default:
			}
		}
	}
}

func (r *Recorder) onData(data []byte, _ uint32) {
	rms := audio.Level(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return
	}
	r.level = r.level*0.6 + rms*0.4
	r.peak = max(r.peak, rms)

	for i := 0; i+1 < len(data); i += 2 {
		r.sampleBuf = append(r.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	for len(r.sampleBuf) >= encoder.BlockSize {
		if err := r.enc.EncodeBlock(r.sampleBuf[:encoder.BlockSize]); err != nil && r.encodeErr == nil {
			r.encodeErr = err
		}
		r.sampleBuf = r.sampleBuf[encoder.BlockSize:]
	}
}

type released struct {
	enc       encoder.Encoder
	rest      []int16
	peak      float64
	encodeErr error
}

// release stops the device and detaches the encoder. Callers hold no lock.
func (r *Recorder) release() (released, bool) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return released{}, false
	}
	dev := r.device
	close(r.stopTick)
	tickDone := r.tickDone
	r.stopTick = nil
	r.tickDone = nil
	r.state = Idle
	r.device = nil
	r.mu.Unlock()
	<-tickDone

	dev.Stop()
	dev.ClearCallback()
	dev.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	rel := released{enc: r.enc, rest: r.sampleBuf, peak: r.peak, encodeErr: r.encodeErr}
	r.enc = nil
	r.sampleBuf = nil
	r.level = 0
	return rel, true
}

// EndCapture releases the microphone and returns the encoded recording.
func (r *Recorder) EndCapture() (Payload, error) {
	rel, ok := r.release()
	if !ok {
		return Payload{}, ErrNotRecording
	}
	if rel.encodeErr != nil {
		return Payload{}, fmt.Errorf("encoding recording: %w", rel.encodeErr)
	}
	enc := rel.enc
	if len(rel.rest) > 0 {
		if err := enc.EncodeBlock(rel.rest); err != nil {
			return Payload{}, fmt.Errorf("encoding recording: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return Payload{}, fmt.Errorf("finalizing recording: %w", err)
	}

	frames := enc.TotalFrames()
	if frames < minFrames {
		return Payload{}, fmt.Errorf("%w: %v", ErrTooShort, encoder.Duration(frames))
	}

	data := make([]byte, len(enc.Bytes()))
	copy(data, enc.Bytes())
	return Payload{
		Name:      "recording." + enc.Extension(),
		MediaType: enc.MediaType(),
		Data:      data,
		Duration:  encoder.Duration(frames),
		PeakLevel: rel.peak,
		Recorded:  true,
	}, nil
}

// Abandon releases the microphone and drops buffered audio. Safe to call in
// any state.
func (r *Recorder) Abandon() {
	if rel, ok := r.release(); ok && rel.enc != nil {
		rel.enc.Close()
	}
}
