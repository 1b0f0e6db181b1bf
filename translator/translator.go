// Package translator resolves captured audio or demo selections into
// translation results, either through the backend or a local simulation.
package translator

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Animal and Emotion are open tags chosen by the backend classifier.
type (
	Animal  string
	Emotion string
)

type Result struct {
	ID          int64
	Animal      Animal
	Emotion     Emotion
	Translation string
	Confidence  float64 // always within [0,1]
	AudioURL    string  // absolute URL of the spoken reply, empty when none
	CreatedAt   time.Time
	Simulated   bool
}

func (r Result) HasAudio() bool { return r.AudioURL != "" }

// Demo identifies a canned example by its tags.
type Demo struct {
	Animal  Animal
	Emotion Emotion
}

// ID is the backend demo key, e.g. "dog-happy".
func (d Demo) ID() string {
	return strings.ToLower(string(d.Animal)) + "-" + strings.ToLower(string(d.Emotion))
}

func (d Demo) Label() string {
	return fmt.Sprintf("%s %s", d.Emotion, d.Animal)
}

func clampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// idSource hands out millisecond timestamps that never repeat.
type idSource struct {
	mu   sync.Mutex
	last int64
}

func (s *idSource) next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
