package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

var ErrUnsupportedAudio = errors.New("unsupported reply format")

// PCM is mono 16-bit audio ready for playback.
type PCM struct {
	Samples    []int16
	SampleRate int
}

type format int

const (
	formatOther format = iota
	formatWAV
	formatFLAC
)

func sniff(data []byte) format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return formatWAV
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return formatFLAC
	}
	return formatOther
}

// Decode turns a WAV (PCM16) or FLAC reply into mono samples. Other formats
// fail with ErrUnsupportedAudio.
func Decode(data []byte) (PCM, error) {
	switch sniff(data) {
	case formatWAV:
		return decodeWAV(data)
	case formatFLAC:
		return decodeFLAC(data)
	}
	return PCM{}, ErrUnsupportedAudio
}

func decodeWAV(data []byte) (PCM, error) {
	var (
		channels, bits int
		rate           int
		haveFmt        bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return PCM{}, errors.New("wav: short fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(body); tag != 1 && tag != 0xFFFE {
				return PCM{}, fmt.Errorf("%w: wav encoding %d", ErrUnsupportedAudio, tag)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:]))
			rate = int(binary.LittleEndian.Uint32(body[4:]))
			bits = int(binary.LittleEndian.Uint16(body[14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return PCM{}, errors.New("wav: data before fmt chunk")
			}
			if bits != 16 || channels < 1 {
				return PCM{}, fmt.Errorf("%w: %d-bit %d-channel wav", ErrUnsupportedAudio, bits, channels)
			}
			return PCM{Samples: downmix16(body, channels), SampleRate: rate}, nil
		}
		pos += 8 + size + size%2
	}
	return PCM{}, errors.New("wav: no data chunk")
}

func downmix16(body []byte, channels int) []int16 {
	frames := len(body) / (2 * channels)
	out := make([]int16, frames)
	for i := range out {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(int16(binary.LittleEndian.Uint16(body[(i*channels+ch)*2:])))
		}
		out[i] = int16(sum / channels)
	}
	return out
}

func decodeFLAC(data []byte) (PCM, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return PCM{}, fmt.Errorf("flac: %w", err)
	}
	defer stream.Close()

	shift := int(stream.Info.BitsPerSample) - 16
	pcm := PCM{SampleRate: int(stream.Info.SampleRate)}
	if stream.Info.NSamples > 0 {
		pcm.Samples = make([]int16, 0, stream.Info.NSamples)
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return PCM{}, fmt.Errorf("flac: %w", err)
		}
		channels := len(frame.Subframes)
		for i := 0; i < int(frame.BlockSize); i++ {
			var sum int64
			for _, sub := range frame.Subframes {
				sum += int64(sub.Samples[i])
			}
			s := sum / int64(channels)
			if shift > 0 {
				s >>= shift
			} else if shift < 0 {
				s <<= -shift
			}
			pcm.Samples = append(pcm.Samples, int16(s))
		}
	}
	return pcm, nil
}
