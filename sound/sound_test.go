package sound

import (
	"testing"
)

func TestToneLength(t *testing.T) {
	s := tone(sampleRate, 1000, 0.1, 0.5, 10)
	if want := int(float64(sampleRate) * 0.1); len(s) != want {
		t.Errorf("len = %d, want %d", len(s), want)
	}
	if s[0] != 0 {
		t.Errorf("tone should start at zero crossing, got %d", s[0])
	}
	peak := int16(0)
	for _, v := range s {
		peak = max(peak, v)
	}
	if peak == 0 || peak > int16(32767/2)+1 {
		t.Errorf("peak = %d, want within volume", peak)
	}
}

func TestCuesDistinct(t *testing.T) {
	lengths := map[int]Cue{}
	for _, c := range []Cue{CueStart, CueStop, CueSuccess, CueError} {
		s := samplesFor(c)
		if len(s) == 0 {
			t.Fatalf("cue %d has no samples", c)
		}
		if other, dup := lengths[len(s)]; dup {
			t.Errorf("cues %d and %d have identical length %d", c, other, len(s))
		}
		lengths[len(s)] = c
	}
}

func TestSequence(t *testing.T) {
	got := sequence([]int16{1, 2}, silence(10, 0.2), []int16{3})
	want := []int16{1, 2, 0, 0, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDisabledIsNoop(t *testing.T) {
	Disable()
	if Enabled() {
		t.Fatal("Enabled after Disable")
	}
	PlayStart()
	PlayError()
	if err := PlayPCM([]int16{1, 2, 3}, 16000); err != nil {
		t.Errorf("PlayPCM while disabled = %v", err)
	}
}
