package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zoolingo/translator"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv(envBackend, "")
	cfg, err := parseConfig(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.backend != defaultBackend || cfg.timeout != translator.DefaultTimeout {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.autoPlay || !cfg.sounds || cfg.setup {
		t.Errorf("unexpected boolean defaults: %+v", cfg)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv(envBackend, "https://zoo.example")
	cfg, err := parseConfig([]string{"-timeout", "5s", "-sounds=false", "demo", "dog", "happy"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.backend != "https://zoo.example" || cfg.timeout != 5*time.Second || cfg.sounds {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.args, " ") != "demo dog happy" {
		t.Errorf("args = %v", cfg.args)
	}

	cfg, err = parseConfig([]string{"-backend", "http://other:9000"}, io.Discard)
	if err != nil || cfg.backend != "http://other:9000" {
		t.Errorf("flag should override env: %+v, %v", cfg, err)
	}
}

func TestParseConfigErrors(t *testing.T) {
	if _, err := parseConfig([]string{"-timeout", "0s"}, io.Discard); err == nil {
		t.Error("zero timeout should be rejected")
	}
	if _, err := parseConfig([]string{"-nope"}, io.Discard); err == nil {
		t.Error("unknown flag should be rejected")
	}
	if _, err := parseConfig([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h err = %v", err)
	}
}

func runCLI(t *testing.T, sub *translator.Fake, args ...string) (int, string, string) {
	t.Helper()
	var out, errw bytes.Buffer
	code := runCommand(context.Background(), sub, args, &out, &errw)
	return code, out.String(), errw.String()
}

func TestCommandDemos(t *testing.T) {
	code, out, _ := runCLI(t, translator.NewFake(translator.Result{}, nil), "demos")
	if code != 0 || !strings.Contains(out, "dog-happy") || !strings.Contains(out, "Lonely Wolf") {
		t.Errorf("code = %d, out = %q", code, out)
	}
}

func TestCommandDemo(t *testing.T) {
	fake := translator.NewFake(translator.Result{}, nil)

	code, out, _ := runCLI(t, fake, "demo", "dog", "HAPPY")
	if code != 0 || !strings.Contains(out, "Dog • Happy") || !strings.Contains(out, "(simulated)") {
		t.Errorf("code = %d, out = %q", code, out)
	}

	if code, _, _ := runCLI(t, fake, "demo", "cat-sad"); code != 0 {
		t.Errorf("demo by id code = %d", code)
	}
	if code, _, errw := runCLI(t, fake, "demo", "unicorn-glad"); code != 2 || !strings.Contains(errw, "unknown demo") {
		t.Errorf("unknown demo: code = %d, err = %q", code, errw)
	}

	got := fake.Demos()
	if len(got) != 2 || got[0].Animal != "Dog" || got[0].Emotion != "Happy" || got[1].ID() != "cat-sad" {
		t.Errorf("demos = %v", got)
	}
}

func TestCommandFile(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "bark.wav")
	txt := filepath.Join(dir, "bark.txt")
	os.WriteFile(wav, []byte("RIFF....WAVE"), 0o644)
	os.WriteFile(txt, []byte("woof"), 0o644)

	ok := translator.NewFake(translator.Result{Animal: "Dog", Emotion: "Angry", Translation: "Back off!", Confidence: 0.8, AudioURL: "http://x/r.mp3"}, nil)
	code, out, _ := runCLI(t, ok, "file", wav)
	if code != 0 || !strings.Contains(out, `"Back off!"`) || !strings.Contains(out, "reply: http://x/r.mp3") {
		t.Errorf("code = %d, out = %q", code, out)
	}

	code, _, errw := runCLI(t, ok, "file", txt)
	if code != 1 || !strings.Contains(errw, "Unsupported format") {
		t.Errorf("txt: code = %d, err = %q", code, errw)
	}

	failing := translator.NewFake(translator.Result{}, &translator.ProcessingError{Message: "Could not process audio file"})
	code, _, errw = runCLI(t, failing, "file", wav)
	if code != 1 || !strings.Contains(errw, "Could not process audio file") {
		t.Errorf("failure: code = %d, err = %q", code, errw)
	}
}

func TestCommandUsage(t *testing.T) {
	fake := translator.NewFake(translator.Result{}, nil)
	for _, args := range [][]string{{"bogus"}, {"file"}, {"demo"}, {"demos", "extra"}} {
		if code, _, _ := runCLI(t, fake, args...); code != 2 {
			t.Errorf("%v: code = %d, want 2", args, code)
		}
	}
}
