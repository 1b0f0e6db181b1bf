package encoder

import "time"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns mono PCM16 blocks into a complete audio file held in memory.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	MediaType() string
	Extension() string
	TotalFrames() uint64
	EncodeTime() time.Duration
}

// Duration of n mono frames at SampleRate.
func Duration(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}
