package translator

import (
	"errors"
	"fmt"
)

var (
	ErrProcessingFailed = errors.New("processing failed")
	ErrConnectionFailed = errors.New("connection failed")
)

// ProcessingError carries the backend's explanation for a non-success reply.
type ProcessingError struct {
	StatusCode int
	Message    string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed: %s", e.Message)
}

func (e *ProcessingError) Is(target error) bool { return target == ErrProcessingFailed }

// ConnectionError wraps transport failures, including timeouts.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnectionFailed }
