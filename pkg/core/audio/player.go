// Package audio plays synthesized audio buffers one at a time.
package audio

import (
	"context"
	"sync"
)

// Sink writes one raw audio buffer to an output device, blocking until
// playback completes or ctx is cancelled.
type Sink interface {
	Play(ctx context.Context, buf []byte) error
}

// Player plays exactly one buffer at a time. Serialization across
// buffers is the caller's responsibility (the speech queue); the player
// only enforces single-active-buffer semantics.
type Player struct {
	sink Sink

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64 // identifies the active Play; guards slot cleanup
}

// NewPlayer creates a player over the given sink.
func NewPlayer(sink Sink) *Player {
	return &Player{sink: sink}
}

// Play begins playback of one buffer and blocks until it settles.
// onStart fires when audible playback begins; onFinish fires exactly
// once when playback completes naturally, and not when stopped. A
// second Play while one is active supersedes the active buffer.
func (p *Player) Play(ctx context.Context, buf []byte, text string, onStart, onFinish func(text string)) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	pctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		if p.gen == gen {
			p.cancel = nil
		}
		p.mu.Unlock()
	}()

	if onStart != nil {
		onStart(text)
	}

	err := p.sink.Play(pctx, buf)
	if err != nil {
		return err
	}
	if pctx.Err() != nil {
		return pctx.Err()
	}
	if onFinish != nil {
		onFinish(text)
	}
	return nil
}

// Stop halts playback immediately. Safe to call when nothing is
// playing, and safe to call repeatedly.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
}
