package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"zoolingo/controller"
	"zoolingo/notify"
	"zoolingo/translator"
)

// consoleSink prints results and new notifications for the headless
// subcommands.
type consoleSink struct {
	mu   sync.Mutex
	out  io.Writer
	errw io.Writer
	seen map[string]bool
}

func newConsoleSink(out, errw io.Writer) *consoleSink {
	return &consoleSink{out: out, errw: errw, seen: map[string]bool{}}
}

func (s *consoleSink) RecordingStart()             {}
func (s *consoleSink) RecordingStop()              {}
func (s *consoleSink) RecordingTick(int)           {}
func (s *consoleSink) AudioLevel(float64)          {}
func (s *consoleSink) Processing(bool)             {}
func (s *consoleSink) History([]translator.Result) {}
func (s *consoleSink) StatusLine(string)           {}

func (s *consoleSink) Result(r translator.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, formatResult(r))
}

// Notifications echoes warnings and errors once each. Successes are already
// covered by the printed result.
func (s *consoleSink) Notifications(active []notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range active {
		if s.seen[n.ID] {
			continue
		}
		s.seen[n.ID] = true
		if n.Severity == notify.Warning || n.Severity == notify.Error {
			line := n.Title
			if n.Body != "" {
				line += ": " + n.Body
			}
			fmt.Fprintf(s.errw, "%s: %s\n", n.Severity, line)
		}
	}
}

func formatResult(r translator.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s • %s (%.0f%% confidence)\n", r.Animal, r.Emotion, r.Confidence*100)
	fmt.Fprintf(&b, "%q\n", r.Translation)
	if r.HasAudio() {
		fmt.Fprintf(&b, "reply: %s\n", r.AudioURL)
	}
	if r.Simulated {
		b.WriteString("(simulated)\n")
	}
	return b.String()
}

// runCommand executes one headless subcommand and returns the exit code.
func runCommand(ctx context.Context, sub controller.Submitter, args []string, out, errw io.Writer) int {
	usage := func() int {
		fmt.Fprintln(errw, "Usage: zoolingo [flags] [file <path> | demo <animal> <emotion> | demos]")
		return 2
	}

	switch args[0] {
	case "demos":
		if len(args) != 1 {
			return usage()
		}
		for _, d := range translator.Catalog() {
			fmt.Fprintf(out, "%-20s %s\n", d.ID(), d.Label())
		}
		return 0
	case "file", "demo":
	default:
		fmt.Fprintf(errw, "unknown command %q\n", args[0])
		return usage()
	}

	notes := notify.New()
	ctl := controller.New(controller.Config{Submitter: sub, Notifier: notes})
	ctl.SetSink(newConsoleSink(out, errw))
	defer ctl.Close()

	switch args[0] {
	case "file":
		if len(args) != 2 {
			return usage()
		}
		if err := ctl.SubmitFile(ctx, args[1]); err != nil {
			return 1
		}
	case "demo":
		var d translator.Demo
		switch len(args) {
		case 2:
			var ok bool
			if d, ok = translator.FindDemo(args[1]); !ok {
				fmt.Fprintf(errw, "unknown demo %q (see: zoolingo demos)\n", args[1])
				return 2
			}
		case 3:
			d = translator.Demo{Animal: translator.Animal(titleCase(args[1])), Emotion: translator.Emotion(titleCase(args[2]))}
		default:
			return usage()
		}
		if err := ctl.SubmitDemo(ctx, d); err != nil {
			return 1
		}
	}
	return 0
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
