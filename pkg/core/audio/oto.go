package audio

import (
	"bytes"
	"context"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays 16-bit little-endian mono PCM through the system audio
// device.
type OtoSink struct {
	ctx        *oto.Context
	sampleRate int
}

// NewOtoSink opens the audio device at the given sample rate and waits
// for it to become ready.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoSink{ctx: octx, sampleRate: sampleRate}, nil
}

// Play writes the buffer to the device and blocks until it has been
// consumed or ctx is cancelled.
func (s *OtoSink) Play(ctx context.Context, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	player := s.ctx.NewPlayer(bytes.NewReader(buf))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
