package capture

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize matches the backend upload limit.
const MaxFileSize = 10 << 20

var allowedMediaTypes = map[string]bool{
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/wave":   true,
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/ogg":    true,
	"audio/flac":   true,
	"audio/x-flac": true,
	"audio/mp4":    true,
	"audio/m4a":    true,
	"audio/x-m4a":  true,
	"audio/webm":   true,
}

var extensionMediaTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// Supported reports whether a media type (parameters allowed) is accepted.
func Supported(mediaType string) bool {
	return allowedMediaTypes[normalizeMediaType(mediaType)]
}

func normalizeMediaType(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// MediaTypeFor returns the declared type when present, otherwise the type
// implied by the file extension. Unknown extensions yield "".
func MediaTypeFor(name, declared string) string {
	if declared != "" {
		return normalizeMediaType(declared)
	}
	return extensionMediaTypes[strings.ToLower(filepath.Ext(name))]
}

func NewFilePayload(name, declared string, data []byte) (Payload, error) {
	mediaType := MediaTypeFor(name, declared)
	if !Supported(mediaType) {
		if mediaType == "" {
			mediaType = "unknown"
		}
		return Payload{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filepath.Base(name), mediaType)
	}
	if len(data) > MaxFileSize {
		return Payload{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), MaxFileSize)
	}
	return Payload{
		Name:      filepath.Base(name),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// OpenFile validates and reads an audio file from disk. The type check runs
// before any content is read.
func OpenFile(path string) (Payload, error) {
	if !Supported(MediaTypeFor(path, "")) {
		return NewFilePayload(path, "", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return Payload{}, fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Payload{}, fmt.Errorf("stat audio file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return Payload{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return Payload{}, fmt.Errorf("reading audio file: %w", err)
	}
	return NewFilePayload(path, "", data)
}
