//go:build !linux

package sound

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	ctxOnce sync.Once
	ctx     *malgo.AllocatedContext
	ctxErr  error

	// One reply or cue at a time; miniaudio devices are not cheap to open.
	playMu sync.Mutex
)

func outputContext() (*malgo.AllocatedContext, error) {
	ctxOnce.Do(func() {
		ctx, ctxErr = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	})
	return ctx, ctxErr
}

func playPCM(samples []int16, rate int) error {
	mctx, err := outputContext()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	playMu.Lock()
	defer playMu.Unlock()

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}

	var pos atomic.Uint32
	done := make(chan struct{})
	var doneOnce sync.Once

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(rate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			p := pos.Load()
			n := uint32(copy(out[:frameCount*2], buf[p:]))
			pos.Store(p + n)
			clear(out[n:])
			if p+n >= uint32(len(buf)) {
				doneOnce.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(mctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-done
	return device.Stop()
}
