package history

import (
	"sync"
	"testing"

	"zoolingo/translator"
)

func result(id int64) translator.Result {
	return translator.Result{ID: id, Animal: "Dog", Emotion: "Happy", Translation: "Play with me!"}
}

func TestRecordNewestFirst(t *testing.T) {
	s := New()
	if _, ok := s.Latest(); ok {
		t.Fatal("new store should have no latest result")
	}
	for id := int64(1); id <= 3; id++ {
		s.Record(result(id))
	}
	got := s.Entries()
	if len(got) != 3 || got[0].ID != 3 || got[2].ID != 1 {
		t.Errorf("entries = %v", ids(got))
	}
	if l, ok := s.Latest(); !ok || l.ID != 3 {
		t.Errorf("latest = %d, %v", l.ID, ok)
	}
}

func TestRecordTrimsToCapacity(t *testing.T) {
	s := New()
	for id := int64(1); id <= Capacity+5; id++ {
		s.Record(result(id))
		if s.Len() > Capacity {
			t.Fatalf("len %d exceeds capacity", s.Len())
		}
	}
	got := s.Entries()
	if len(got) != Capacity {
		t.Fatalf("len = %d, want %d", len(got), Capacity)
	}
	if got[0].ID != Capacity+5 || got[Capacity-1].ID != 6 {
		t.Errorf("kept %d..%d, want %d..6", got[0].ID, got[Capacity-1].ID, Capacity+5)
	}
}

func TestClearKeepsLatest(t *testing.T) {
	s := New()
	s.Record(result(1))
	s.Record(result(2))
	s.Clear()
	if s.Len() != 0 || len(s.Entries()) != 0 {
		t.Errorf("log not empty after Clear: %v", ids(s.Entries()))
	}
	if l, ok := s.Latest(); !ok || l.ID != 2 {
		t.Errorf("latest = %d, %v, want 2", l.ID, ok)
	}

	s.Clear()
	s.Record(result(3))
	if got := ids(s.Entries()); len(got) != 1 || got[0] != 3 {
		t.Errorf("after clear+record = %v", got)
	}
}

func TestEntriesIsACopy(t *testing.T) {
	s := New()
	s.Record(result(1))
	e := s.Entries()
	e[0].Translation = "mutated"
	if s.Entries()[0].Translation == "mutated" {
		t.Error("Entries exposed internal storage")
	}
}

func TestConcurrentRecord(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Record(result(id))
			s.Entries()
		}(int64(i))
	}
	wg.Wait()
	if s.Len() != Capacity {
		t.Errorf("len = %d, want %d", s.Len(), Capacity)
	}
}

func ids(rs []translator.Result) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
