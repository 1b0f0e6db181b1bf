package capture

import "time"

// Payload is one unit of audio handed to the translator: a complete file
// (recorded or user supplied) plus its media type.
type Payload struct {
	Name      string
	MediaType string
	Data      []byte
	Duration  time.Duration // zero for user supplied files
	PeakLevel float64       // zero for user supplied files
	Recorded  bool
}

// SilentLevel is the peak RMS below which a recording is treated as silent.
const SilentLevel = 0.02

func (p Payload) Silent() bool {
	return p.Recorded && p.PeakLevel < SilentLevel
}
