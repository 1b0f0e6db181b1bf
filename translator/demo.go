package translator

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const (
	SimulatedDelay   = 1500 * time.Millisecond
	GenericPhrase    = "I am an animal."
	minSimulatedConf = 0.85
	maxSimulatedConf = 0.99
)

var phrases = map[string]map[string][]string{
	"dog": {
		"happy":  {"I love you, human!", "Play with me!", "This is the best day ever!"},
		"angry":  {"Back off!", "I'm warning you!", "Grrr, go away!"},
		"sad":    {"I miss you.", "Where did you go?", "I'm lonely."},
		"hungry": {"Feed me!", "Is that bacon?", "I'm starving here!"},
		"pain":   {"Ouch, that hurts.", "Help me, please.", "I'm not feeling well."},
	},
	"cat": {
		"happy":  {"Purr... perfect.", "You may pet me now.", "I tolerate you."},
		"angry":  {"Hiss! Don't touch me!", "I will scratch you.", "Leave me be."},
		"sad":    {"My bowl is empty.", "Why is the door closed?", "Sigh."},
		"hungry": {"Feed me now, servant.", "Meow! Food!", "I can see the bottom of my bowl."},
		"pain":   {"Hiss... stay away.", "It hurts.", "Don't touch."},
	},
}

// Phrases returns the canned phrases for a pair, or nil when the pair is
// unknown. Tags match case-insensitively.
func Phrases(animal Animal, emotion Emotion) []string {
	return phrases[strings.ToLower(string(animal))][strings.ToLower(string(emotion))]
}

// Simulator produces plausible results without a backend.
type Simulator struct {
	Delay time.Duration
	Now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
	ids *idSource
}

func NewSimulator(seed uint64) *Simulator {
	return &Simulator{
		Delay: SimulatedDelay,
		Now:   time.Now,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ids:   &idSource{},
	}
}

// Simulate waits Delay (cut short if ctx ends) and returns a result for the
// demo. It never fails.
func (s *Simulator) Simulate(ctx context.Context, d Demo) Result {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	s.mu.Lock()
	text := GenericPhrase
	if options := Phrases(d.Animal, d.Emotion); len(options) > 0 {
		text = options[s.rng.IntN(len(options))]
	}
	conf := minSimulatedConf + s.rng.Float64()*(maxSimulatedConf-minSimulatedConf)
	s.mu.Unlock()

	now := s.Now()
	return Result{
		ID:          s.ids.next(now),
		Animal:      d.Animal,
		Emotion:     d.Emotion,
		Translation: text,
		Confidence:  math.Round(conf*100) / 100,
		CreatedAt:   now,
		Simulated:   true,
	}
}

var catalog = []struct {
	animal   Animal
	emotions []Emotion
}{
	{"Dog", []Emotion{"Happy", "Angry", "Sad", "Hungry", "Excited", "Scared", "Playful", "Curious"}},
	{"Cat", []Emotion{"Happy", "Angry", "Sad", "Hungry", "Excited", "Scared", "Demanding", "Curious"}},
	{"Cow", []Emotion{"Happy", "Hungry", "Angry", "Sad", "Calm"}},
	{"Lion", []Emotion{"Happy", "Angry", "Hungry", "Proud", "Sad"}},
	{"Bird", []Emotion{"Happy", "Singing", "Hungry", "Alert", "Scared"}},
	{"Horse", []Emotion{"Happy", "Excited", "Angry", "Hungry", "Calm"}},
	{"Elephant", []Emotion{"Happy", "Angry", "Sad", "Hungry"}},
	{"Sheep", []Emotion{"Happy", "Scared", "Hungry"}},
	{"Goat", []Emotion{"Happy", "Mischievous", "Angry"}},
	{"Pig", []Emotion{"Happy", "Hungry", "Curious"}},
	{"Chicken", []Emotion{"Happy", "Scared", "Bossy"}},
	{"Duck", []Emotion{"Happy", "Demanding"}},
	{"Monkey", []Emotion{"Happy", "Mischievous", "Angry"}},
	{"Parrot", []Emotion{"Happy", "Chatty", "Angry"}},
	{"Wolf", []Emotion{"Happy", "Aggressive", "Lonely", "Hungry"}},
}

// Catalog lists the demo selections offered in the picker.
func Catalog() []Demo {
	var demos []Demo
	for _, c := range catalog {
		for _, e := range c.emotions {
			demos = append(demos, Demo{Animal: c.animal, Emotion: e})
		}
	}
	return demos
}

// FindDemo looks up a catalog entry by its ID ("dog-happy"). Pairs outside
// the catalog are still valid demos; ok reports catalog membership.
func FindDemo(id string) (Demo, bool) {
	for _, d := range Catalog() {
		if d.ID() == strings.ToLower(id) {
			return d, true
		}
	}
	return Demo{}, false
}
