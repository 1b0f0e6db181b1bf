// Package notify holds short-lived user notifications. Each one expires on
// its own timer unless dismissed first.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 5 * time.Second

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

type Notification struct {
	ID        string
	Severity  Severity
	Title     string
	Body      string
	CreatedAt time.Time
}

// Timer is the part of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// Clock lets tests drive expiry by hand.
type Clock struct {
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
}

var systemClock = Clock{
	Now:       time.Now,
	AfterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
}

type entry struct {
	n     Notification
	timer Timer
}

type Notifier struct {
	ttl   time.Duration
	clock Clock

	// deliver orders OnChange calls; always taken before mu.
	deliver sync.Mutex

	mu       sync.Mutex
	items    []entry
	onChange func([]Notification)
	closed   bool
}

func New() *Notifier {
	return NewWithClock(DefaultTTL, systemClock)
}

func NewWithClock(ttl time.Duration, c Clock) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c.Now == nil {
		c.Now = systemClock.Now
	}
	if c.AfterFunc == nil {
		c.AfterFunc = systemClock.AfterFunc
	}
	return &Notifier{ttl: ttl, clock: c}
}

// OnChange registers fn to receive the active list after every add or
// removal. fn runs without the notifier's lock held. Calls never overlap
// and the last one always carries the current list.
func (n *Notifier) OnChange(fn func([]Notification)) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// Notify appends a notification and schedules its expiry.
func (n *Notifier) Notify(sev Severity, title, body string) Notification {
	note := Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Title:     title,
		Body:      body,
		CreatedAt: n.clock.Now(),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return note
	}
	id := note.ID
	n.items = append(n.items, entry{
		n:     note,
		timer: n.clock.AfterFunc(n.ttl, func() { n.remove(id, false) }),
	})
	n.mu.Unlock()

	n.changed()
	return note
}

func (n *Notifier) Success(title, body string) Notification { return n.Notify(Success, title, body) }
func (n *Notifier) Error(title, body string) Notification   { return n.Notify(Error, title, body) }
func (n *Notifier) Warning(title, body string) Notification { return n.Notify(Warning, title, body) }
func (n *Notifier) Info(title, body string) Notification    { return n.Notify(Info, title, body) }

// Dismiss removes a notification before it expires. Unknown IDs are ignored.
func (n *Notifier) Dismiss(id string) {
	n.remove(id, true)
}

func (n *Notifier) remove(id string, stop bool) {
	n.mu.Lock()
	i := slices.IndexFunc(n.items, func(e entry) bool { return e.n.ID == id })
	if i < 0 {
		n.mu.Unlock()
		return
	}
	if stop {
		n.items[i].timer.Stop()
	}
	n.items = slices.Delete(n.items, i, i+1)
	n.mu.Unlock()

	n.changed()
}

// Active returns the live notifications, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshot()
}

func (n *Notifier) snapshot() []Notification {
	out := make([]Notification, len(n.items))
	for i, e := range n.items {
		out[i] = e.n
	}
	return out
}

func (n *Notifier) changed() {
	n.deliver.Lock()
	defer n.deliver.Unlock()

	n.mu.Lock()
	fn := n.onChange
	active := n.snapshot()
	n.mu.Unlock()
	if fn != nil {
		fn(active)
	}
}

// Close stops every pending timer and drops all notifications.
func (n *Notifier) Close() {
	n.mu.Lock()
	for _, e := range n.items {
		e.timer.Stop()
	}
	n.items = nil
	n.closed = true
	n.mu.Unlock()
}
