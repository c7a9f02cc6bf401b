package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/parley-ai/parley/pkg/core/audio"
	"github.com/parley-ai/parley/pkg/core/speech/tts"
)

var errSilenced = errors.New("speech silenced")

// Speaker turns completed statements into serialized spoken output.
// One queue per turn keeps statements in boundary-detection order; the
// silence flag rejects in-flight synthesis before it reaches playback.
type Speaker struct {
	tts    tts.Provider
	player *audio.Player
	opts   tts.SynthesizeOptions

	silenced atomic.Bool

	mu    sync.Mutex
	queue *Queue

	// OnSpeechStart is called when a statement becomes audible, for
	// captioning the currently spoken sentence.
	OnSpeechStart func(text string)
	// OnSpeechEnd is called when a statement finishes playing naturally.
	OnSpeechEnd func(text string)
}

// NewSpeaker creates a speaker over a TTS provider and a player.
func NewSpeaker(provider tts.Provider, player *audio.Player, opts tts.SynthesizeOptions) *Speaker {
	return &Speaker{tts: provider, player: player, opts: opts}
}

// BeginTurn installs a fresh queue, discarding any previous turn's
// state, and clears the silence flag.
func (s *Speaker) BeginTurn() {
	s.mu.Lock()
	s.queue = NewQueue()
	s.mu.Unlock()
	s.silenced.Store(false)
}

// Say enqueues one statement for synthesis and playback.
func (s *Speaker) Say(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return
	}

	q.Enqueue(func(ctx context.Context) error {
		if s.silenced.Load() {
			return errSilenced
		}
		syn, err := s.tts.Synthesize(ctx, text, s.opts)
		if err != nil {
			return err
		}
		if syn == nil || len(syn.Audio) == 0 {
			return nil
		}
		// Synthesis that observes the flag before producing audio must
		// reject rather than enqueue playback.
		if s.silenced.Load() {
			return errSilenced
		}
		return s.player.Play(ctx, syn.Audio, text, s.OnSpeechStart, s.OnSpeechEnd)
	})
}

// Silence raises the silence flag, drains queued statements, and stops
// active playback. Audio already emitted to the device is not unplayed.
func (s *Speaker) Silence() {
	s.silenced.Store(true)
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q != nil {
		q.Drain()
	}
	s.player.Stop()
}

// Wait blocks until all enqueued speech has settled.
func (s *Speaker) Wait() {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q != nil {
		q.Wait()
	}
}
