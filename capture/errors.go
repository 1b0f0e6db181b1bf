package capture

import "errors"

var (
	ErrPermissionDenied  = errors.New("microphone access denied")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrFileTooLarge      = errors.New("audio file too large")
	ErrNotRecording      = errors.New("not recording")
	ErrTooShort          = errors.New("recording too short")
)
