package translator

import (
	"context"
	"sync"
	"time"

	"zoolingo/capture"
)

// Fake answers submissions from canned values and records what it was sent.
type Fake struct {
	mu       sync.Mutex
	result   Result
	err      error
	reply    []byte
	payloads []capture.Payload
	demos    []Demo
	ids      idSource
	block    chan struct{}
}

func NewFake(result Result, err error) *Fake {
	return &Fake{result: result, err: err}
}

// Block makes submissions wait until the returned function is called.
func (f *Fake) Block() (release func()) {
	f.mu.Lock()
	ch := make(chan struct{})
	f.block = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *Fake) SetReply(audio []byte) {
	f.mu.Lock()
	f.reply = audio
	f.mu.Unlock()
}

func (f *Fake) wait(ctx context.Context) {
	f.mu.Lock()
	ch := f.block
	f.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func (f *Fake) SubmitAudio(ctx context.Context, p capture.Payload) (Submission, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return Submission{}, f.err
	}
	r := f.result
	r.CreatedAt = time.Now()
	r.ID = f.ids.next(r.CreatedAt)
	return Submission{Result: r, Metrics: &NetworkMetrics{}}, nil
}

func (f *Fake) SubmitDemo(ctx context.Context, d Demo) Submission {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.demos = append(f.demos, d)
	now := time.Now()
	return Submission{Result: Result{
		ID:          f.ids.next(now),
		Animal:      d.Animal,
		Emotion:     d.Emotion,
		Translation: GenericPhrase,
		Confidence:  0.9,
		CreatedAt:   now,
		Simulated:   true,
	}}
}

func (f *Fake) FetchReply(_ context.Context, _ string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reply == nil {
		return nil, "", &ProcessingError{StatusCode: 404, Message: "no reply"}
	}
	return f.reply, "audio/wav", nil
}

func (f *Fake) Payloads() []capture.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capture.Payload(nil), f.payloads...)
}

func (f *Fake) Demos() []Demo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Demo(nil), f.demos...)
}
