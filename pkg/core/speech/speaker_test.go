package speech

import (
	"context"
	"sync"
	"testing"

	"github.com/parley-ai/parley/pkg/core/audio"
	"github.com/parley-ai/parley/pkg/core/speech/tts"
)

type fakeTTS struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeTTS) Name() string { return "fake" }

func (f *fakeTTS) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOptions) (*tts.Synthesis, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return &tts.Synthesis{Audio: []byte(text), Format: "pcm", SampleRate: 24000}, nil
}

type instantSink struct {
	mu     sync.Mutex
	played [][]byte
}

func (s *instantSink) Play(ctx context.Context, buf []byte) error {
	s.mu.Lock()
	s.played = append(s.played, buf)
	s.mu.Unlock()
	return nil
}

func TestSpeaker_PlaysStatementsInOrder(t *testing.T) {
	sink := &instantSink{}
	sp := NewSpeaker(&fakeTTS{}, audio.NewPlayer(sink), tts.SynthesizeOptions{})

	var spoken []string
	sp.OnSpeechStart = func(text string) { spoken = append(spoken, text) }

	sp.BeginTurn()
	sp.Say("First.")
	sp.Say("Second.")
	sp.Say("Third.")
	sp.Wait()

	want := []string{"First.", "Second.", "Third."}
	if len(spoken) != len(want) {
		t.Fatalf("spoken = %q", spoken)
	}
	for i := range want {
		if spoken[i] != want[i] {
			t.Errorf("position %d spoke %q, want %q", i, spoken[i], want[i])
		}
	}
	if len(sink.played) != 3 {
		t.Errorf("expected 3 buffers played, got %d", len(sink.played))
	}
}

func TestSpeaker_SilenceRejectsPendingSpeech(t *testing.T) {
	sink := &instantSink{}
	sp := NewSpeaker(&fakeTTS{}, audio.NewPlayer(sink), tts.SynthesizeOptions{})

	sp.BeginTurn()
	sp.Silence()
	sp.Say("Never heard.")
	sp.Wait()

	if len(sink.played) != 0 {
		t.Errorf("silenced speaker must not reach playback, played %d buffers", len(sink.played))
	}
}

func TestSpeaker_BeginTurnDiscardsPreviousQueue(t *testing.T) {
	sink := &instantSink{}
	sp := NewSpeaker(&fakeTTS{}, audio.NewPlayer(sink), tts.SynthesizeOptions{})

	sp.BeginTurn()
	sp.Silence()

	// A new turn clears the silence flag and installs a fresh queue.
	sp.BeginTurn()
	sp.Say("Back again.")
	sp.Wait()

	if len(sink.played) != 1 {
		t.Errorf("expected 1 buffer after new turn, got %d", len(sink.played))
	}
}
