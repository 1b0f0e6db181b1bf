package notify

import (
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) clock() Clock {
	return Clock{
		Now: func() time.Time {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.now
		},
		AfterFunc: func(d time.Duration, f func()) Timer {
			c.mu.Lock()
			defer c.mu.Unlock()
			t := &fakeTimer{d: d, fire: f}
			c.timers = append(c.timers, t)
			return t
		},
	}
}

// expire fires timer i as if its duration had elapsed.
func (c *fakeClock) expire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	if !t.stopped {
		t.fire()
	}
}

func TestNotifyAddsWithFreshID(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(0, fc.clock())

	a := n.Success("Dog • Happy", "Play with me!")
	b := n.Error("Connection failed", "backend unreachable")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("IDs %q and %q should be distinct and non-empty", a.ID, b.ID)
	}
	if !a.CreatedAt.Equal(fc.now) {
		t.Errorf("CreatedAt = %v", a.CreatedAt)
	}
	active := n.Active()
	if len(active) != 2 || active[0].ID != a.ID || active[1].Severity != Error {
		t.Errorf("active = %+v", active)
	}
	for _, tm := range fc.timers {
		if tm.d != DefaultTTL {
			t.Errorf("timer duration = %v, want %v", tm.d, DefaultTTL)
		}
	}
}

func TestExpiryIsPerNotification(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(DefaultTTL, fc.clock())

	first := n.Info("one", "")
	second := n.Info("two", "")

	fc.expire(0)
	active := n.Active()
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("after first expiry active = %+v", active)
	}

	fc.expire(1)
	if len(n.Active()) != 0 {
		t.Errorf("after second expiry active = %+v", n.Active())
	}

	// A late timer for an already removed notification is harmless.
	n.Dismiss(first.ID)
}

func TestDismissStopsTimer(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(DefaultTTL, fc.clock())

	w := n.Warning("Quiet recording", "")
	n.Dismiss(w.ID)
	if len(n.Active()) != 0 {
		t.Fatalf("active = %+v", n.Active())
	}
	if !fc.timers[0].stopped {
		t.Error("dismiss should stop the expiry timer")
	}

	n.Dismiss("no-such-id")
}

func TestOnChange(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(DefaultTTL, fc.clock())

	var calls [][]Notification
	n.OnChange(func(active []Notification) { calls = append(calls, active) })

	a := n.Success("a", "")
	n.Success("b", "")
	n.Dismiss(a.ID)
	fc.expire(1)

	want := []int{1, 2, 1, 0}
	if len(calls) != len(want) {
		t.Fatalf("got %d change calls, want %d", len(calls), len(want))
	}
	for i, w := range want {
		if len(calls[i]) != w {
			t.Errorf("call %d saw %d notifications, want %d", i, len(calls[i]), w)
		}
	}
}

func TestCloseStopsTimers(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(DefaultTTL, fc.clock())
	n.Info("a", "")
	n.Info("b", "")
	n.Close()

	for i, tm := range fc.timers {
		if !tm.stopped {
			t.Errorf("timer %d still running after Close", i)
		}
	}
	if len(n.Active()) != 0 {
		t.Error("Close should drop notifications")
	}
	n.Info("late", "")
	if len(n.Active()) != 0 {
		t.Error("notify after Close should not add")
	}
}

func TestRealTimerExpires(t *testing.T) {
	n := NewWithClock(20*time.Millisecond, Clock{})
	defer n.Close()

	done := make(chan struct{})
	n.OnChange(func(active []Notification) {
		if len(active) == 0 {
			close(done)
		}
	})
	n.Info("short-lived", "")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification did not expire")
	}
}

func TestOnChangeLastDeliveryIsCurrent(t *testing.T) {
	fc := newFakeClock()
	n := NewWithClock(DefaultTTL, fc.clock())

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var last []Notification
	calls := 0
	n.OnChange(func(active []Notification) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		mu.Lock()
		last = active
		mu.Unlock()
	})

	added := make(chan struct{})
	go func() {
		n.Info("slow subscriber", "")
		close(added)
	}()
	<-entered

	id := n.Active()[0].ID
	dismissed := make(chan struct{})
	go func() {
		n.Dismiss(id)
		close(dismissed)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for len(n.Active()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("dismiss did not remove the notification")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-added
	<-dismissed

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("got %d change calls, want 2", calls)
	}
	if len(last) != 0 {
		t.Errorf("last delivery has %d notifications, want 0", len(last))
	}
}
