// Package player replays the spoken reply attached to a translation.
package player

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"zoolingo/log"
	"zoolingo/sound"
)

// Fetcher downloads a reply by URL, returning its bytes and content type.
type Fetcher interface {
	FetchReply(ctx context.Context, ref string) ([]byte, string, error)
}

type Replayer struct {
	fetch Fetcher
	play  func(samples []int16, rate int) error
	open  func(path string) error
	dir   string
}

func New(f Fetcher) *Replayer {
	return &Replayer{
		fetch: f,
		play:  sound.PlayPCM,
		open:  openExternal,
		dir:   os.TempDir(),
	}
}

// Replay fetches ref and plays it. WAV and FLAC replies are decoded and
// played directly; anything else (MP3 from the speech service) is saved and
// handed to the system's default player.
func (r *Replayer) Replay(ctx context.Context, ref string) error {
	if ref == "" {
		return errors.New("no audio reply")
	}
	data, contentType, err := r.fetch.FetchReply(ctx, ref)
	if err != nil {
		return err
	}

	pcm, err := Decode(data)
	if err == nil {
		log.Infof("replaying reply: %d samples at %d Hz", len(pcm.Samples), pcm.SampleRate)
		return r.play(pcm.Samples, pcm.SampleRate)
	}
	if !errors.Is(err, ErrUnsupportedAudio) {
		return err
	}

	p, err := r.save(data, extensionFor(ref, contentType))
	if err != nil {
		return err
	}
	log.Infof("opening reply externally: %s", p)
	return r.open(p)
}

func (r *Replayer) save(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp(r.dir, "zoolingo-reply-*"+ext)
	if err != nil {
		return "", fmt.Errorf("saving reply: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("saving reply: %w", err)
	}
	return f.Name(), f.Close()
}

func extensionFor(ref, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "audio/mpeg", "audio/mp3":
			return ".mp3"
		case "audio/ogg":
			return ".ogg"
		case "audio/webm":
			return ".webm"
		case "audio/mp4", "audio/x-m4a", "audio/m4a":
			return ".m4a"
		}
	}
	if ext := path.Ext(strings.SplitN(ref, "?", 2)[0]); ext != "" {
		return ext
	}
	return ".mp3"
}

func openExternal(p string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", p)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", filepath.FromSlash(p))
	default:
		cmd = exec.Command("xdg-open", p)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", p, err)
	}
	go cmd.Wait()
	return nil
}
