package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/joho/godotenv"

	"zoolingo/audio"
	"zoolingo/capture"
	"zoolingo/clipboard"
	"zoolingo/controller"
	"zoolingo/history"
	"zoolingo/log"
	"zoolingo/notify"
	"zoolingo/player"
	"zoolingo/sound"
	"zoolingo/translator"
)

var version = "dev"

const (
	defaultBackend = "http://localhost:8000"
	envBackend     = "ZOOLINGO_BACKEND"
	healthTimeout  = 2 * time.Second
)

type config struct {
	backend  string
	timeout  time.Duration
	device   string
	setup    bool
	logPath  string
	autoPlay bool
	sounds   bool
	version  bool
	args     []string
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	backend := os.Getenv(envBackend)
	if backend == "" {
		backend = defaultBackend
	}

	var cfg config
	fs := flag.NewFlagSet("zoolingo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.backend, "backend", backend, "Translation backend origin (env "+envBackend+")")
	fs.DurationVar(&cfg.timeout, "timeout", translator.DefaultTimeout, "Per-request timeout")
	fs.StringVar(&cfg.device, "device", "", "Use named microphone device")
	fs.BoolVar(&cfg.setup, "setup", false, "Select microphone device interactively")
	fs.StringVar(&cfg.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&cfg.autoPlay, "autoplay", true, "Play the spoken reply after each translation")
	fs.BoolVar(&cfg.sounds, "sounds", true, "Play feedback cues")
	fs.BoolVar(&cfg.version, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: zoolingo [flags] [file <path> | demo <animal> <emotion> | demos]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.timeout <= 0 {
		return config{}, fmt.Errorf("-timeout must be positive, got %v", cfg.timeout)
	}
	cfg.args = fs.Args()
	return cfg, nil
}

func initLogging(logPath string) {
	dir, err := log.ResolveDir(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to resolve log directory: %v\n", err)
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
	}

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.version {
		fmt.Printf("zoolingo %s\n", version)
		os.Exit(0)
	}

	initLogging(cfg.logPath)
	code := run(cfg)
	log.Close()
	os.Exit(code)
}

func run(cfg config) int {
	client, err := translator.New(translator.Config{Origin: cfg.backend, Timeout: cfg.timeout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if !cfg.sounds {
		sound.Disable()
	}

	if len(cfg.args) > 0 {
		return runCommand(context.Background(), client, cfg.args, os.Stdout, os.Stderr)
	}
	return runTUI(cfg, client)
}

func openRecorder(cfg config) (audio.Context, *capture.Recorder, string) {
	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: audio unavailable, recording disabled: %v\n", err)
		return nil, nil, "unavailable"
	}

	var dev *audio.DeviceInfo
	switch {
	case cfg.setup:
		dev, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed, using default: %v\n", err)
		}
	case cfg.device != "":
		dev, err = audio.FindDevice(actx, cfg.device)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: %v, using default\n", err)
		}
	}

	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	return actx, capture.NewRecorder(actx, capture.RecorderConfig{Device: dev}), name
}

func runTUI(cfg config, client *translator.Client) int {
	actx, rec, deviceName := openRecorder(cfg)
	if actx != nil {
		defer actx.Close()
	}

	ccfg := controller.Config{
		Submitter: client,
		Store:     history.New(),
		Notifier:  notify.New(),
		Replayer:  player.New(client),
		Clipboard: clipboard.System{},
		AutoPlay:  cfg.autoPlay,
	}
	if rec != nil {
		ccfg.Recorder = rec
	}
	ctl := controller.New(ccfg)

	hctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	online := client.Health(hctx) == nil
	cancel()

	p := NewTUIProgram(ctl, tuiInfo{
		backend: client.Origin(),
		online:  online,
		device:  deviceName,
		health:  client.Health,
	})
	ctl.SetSink(tuiSink{p: p})

	sigChan := make(chan os.Signal, 1)
	notifyShutdown(sigChan)
	go func() {
		<-sigChan
		p.Quit()
	}()

	log.SessionStart(client.Origin(), online, deviceName)
	_, err := p.Run()
	ctl.SetSink(nil)
	ctl.Close()
	log.SessionEnd(ctl.Translations())
	if err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
