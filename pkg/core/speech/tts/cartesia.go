package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const (
	cartesiaWSURL   = "wss://api.cartesia.ai/tts/websocket"
	cartesiaVersion = "2025-04-16"
	cartesiaModelID = "sonic-3"
)

// Default voice ID - callers should provide their own voice IDs.
const defaultVoiceID = "a0e99841-438c-4a64-b679-ae501e7d6091"

// Cartesia synthesizes speech over Cartesia's websocket API. Each call
// opens one session, sends the statement, and collects the audio chunks
// into a single buffer.
type Cartesia struct {
	apiKey string
	wsURL  string
	dialer *websocket.Dialer
}

// NewCartesia creates a Cartesia TTS provider.
func NewCartesia(apiKey string) *Cartesia {
	return &Cartesia{apiKey: apiKey, wsURL: cartesiaWSURL, dialer: websocket.DefaultDialer}
}

// NewCartesiaWithURL creates a provider against a custom endpoint,
// used by tests and proxies.
func NewCartesiaWithURL(apiKey, wsURL string) *Cartesia {
	return &Cartesia{apiKey: apiKey, wsURL: wsURL, dialer: websocket.DefaultDialer}
}

// Name returns the provider identifier.
func (c *Cartesia) Name() string {
	return "cartesia"
}

// Synthesize converts one statement to audio.
func (c *Cartesia) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if text == "" {
		return nil, nil
	}

	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("cartesia_version", cartesiaVersion)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 24000
	}
	voiceID := opts.Voice
	if voiceID == "" {
		voiceID = defaultVoiceID
	}

	outputFormat := cartesiaOutputFormat{
		Container:  "raw",
		Encoding:   "pcm_s16le",
		SampleRate: sampleRate,
	}
	if opts.Format == "wav" {
		outputFormat.Container = "wav"
	}

	req := cartesiaRequest{
		ModelID:      cartesiaModelID,
		Transcript:   text,
		Voice:        cartesiaVoiceSpec{Mode: "id", ID: voiceID},
		OutputFormat: outputFormat,
		ContextID:    nextContextID(),
	}
	if opts.Speed != 0 {
		req.GenerationConfig = &cartesiaGenerationConfig{Speed: opts.Speed}
	}
	if opts.Language != "" {
		req.Language = &opts.Language
	}

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	// Deadline via context: abort the read loop when cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var audio []byte
	for {
		var msg cartesiaResponse
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return nil, fmt.Errorf("read response: %w", err)
		}

		switch msg.Type {
		case "chunk":
			data, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio: %w", err)
			}
			audio = append(audio, data...)
		case "done":
			return &Synthesis{Audio: audio, Format: outputFormat.Container, SampleRate: sampleRate}, nil
		case "error":
			return nil, fmt.Errorf("cartesia error: %s", msg.Error)
		}
	}
	return &Synthesis{Audio: audio, Format: outputFormat.Container, SampleRate: sampleRate}, nil
}

type cartesiaRequest struct {
	ModelID          string                    `json:"model_id"`
	Transcript       string                    `json:"transcript"`
	Voice            cartesiaVoiceSpec         `json:"voice"`
	OutputFormat     cartesiaOutputFormat      `json:"output_format"`
	GenerationConfig *cartesiaGenerationConfig `json:"generation_config,omitempty"`
	Language         *string                   `json:"language,omitempty"`
	ContextID        string                    `json:"context_id,omitempty"`
}

type cartesiaVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaGenerationConfig struct {
	Speed float64 `json:"speed,omitempty"`
}

type cartesiaResponse struct {
	Type  string `json:"type"` // "chunk", "done", "error"
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

var contextCounter atomic.Uint64

func nextContextID() string {
	return fmt.Sprintf("ctx_%d", contextCounter.Add(1))
}
