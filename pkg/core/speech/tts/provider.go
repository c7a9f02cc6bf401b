// Package tts provides text-to-speech synthesis for spoken statements.
package tts

import (
	"context"
)

// Provider is the interface for speech synthesis services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts one statement to a complete audio buffer.
	// Empty input yields a nil synthesis without error.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice      string  // voice identifier
	Language   string  // language code
	Speed      float64 // speed multiplier (0.6-1.5, default 1.0)
	Format     string  // "pcm" or "wav"
	SampleRate int     // 8000, 16000, 22050, 24000, 44100, 48000
}

// Synthesis is the result of one synthesis call.
type Synthesis struct {
	Audio      []byte
	Format     string
	SampleRate int
}
