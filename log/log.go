package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const EnvPath = "ZOOLINGO_LOG_PATH"

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// SubmissionMetrics describes one backend request. Durations are zero when
// the request never reached that phase.
type SubmissionMetrics struct {
	Mode       string // recording, file or demo
	MediaType  string
	SizeKB     float64
	AudioS     float64
	DNS        time.Duration
	TLS        time.Duration
	TTFB       time.Duration
	Total      time.Duration
	ConnReused bool
	Simulated  bool
	Outcome    string // ok, processing_failed, connection_failed
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// ResolveDir picks the log directory: the -logpath flag, then
// ZOOLINGO_LOG_PATH, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return absolute(envPath)
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func Submission(m SubmissionMetrics) {
	if !logReady {
		return
	}

	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}

	ev := diagLog.Info().
		Str("mode", m.Mode).
		Str("outcome", m.Outcome)
	if m.MediaType != "" {
		ev = ev.Str("media_type", m.MediaType).
			Float64("size_kb", m.SizeKB)
	}
	if m.AudioS > 0 {
		ev = ev.Float64("audio_s", m.AudioS)
	}
	if m.Simulated {
		ev.Bool("simulated", true).Msg("submission")
		return
	}
	ev.Str("conn", connStatus).
		Float64("dns_ms", ms(m.DNS)).
		Float64("tls_ms", ms(m.TLS)).
		Float64("ttfb_ms", ms(m.TTFB)).
		Float64("total_ms", ms(m.Total)).
		Msg("submission")
}

// Result records the classification of a translation. The translated text
// itself is never written to disk.
func Result(animal, emotion string, confidence float64, simulated, hasAudio bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("animal", animal).
		Str("emotion", emotion).
		Float64("confidence", confidence).
		Bool("simulated", simulated).
		Bool("audio", hasAudio).
		Msg("result")
}

func Notification(severity, title string) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("severity", severity).
		Str("title", title).
		Msg("notification")
}

func SessionStart(backend string, online bool, device string) {
	if !logReady {
		return
	}
	if device == "" {
		device = "default"
	}
	diagLog.Info().
		Str("backend", backend).
		Bool("online", online).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("translations", count).
		Msg("session_end")
}
