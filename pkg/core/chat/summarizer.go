package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
)

const summarySystemPrompt = `You compress conversation transcripts. Produce a concise third-person summary
that preserves facts, decisions, names, and open threads. Output only the summary text.`

// Summarizer condenses older conversation turns into a rolling summary
// using a single non-streamed-style model turn.
type Summarizer struct {
	provider core.Provider
}

// NewSummarizer creates a summarizer over a provider.
func NewSummarizer(provider core.Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize condenses the text-bearing messages not yet covered by prev
// into a fresh summary. It returns the ids of the messages it folded and
// the replacement summary content, which supersedes prev entirely.
func (s *Summarizer) Summarize(ctx context.Context, msgs []types.Message, prev types.Summary, model string, auth types.Auth) ([]string, string, error) {
	var ids []string
	var transcript strings.Builder
	for i := range msgs {
		m := msgs[i]
		if !m.IsTextBearing() || prev.Has(m.ID) {
			continue
		}
		ids = append(ids, m.ID)
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Text())
	}
	if len(ids) == 0 {
		return nil, prev.Content, nil
	}

	var prompt strings.Builder
	if prev.Content != "" {
		prompt.WriteString("Summary of the conversation so far:\n")
		prompt.WriteString(prev.Content)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("New turns to fold in:\n")
	prompt.WriteString(transcript.String())
	prompt.WriteString("\nWrite the updated summary of the whole conversation.")

	req := &types.TurnRequest{
		Model: model,
		Messages: []types.Message{{
			Role:  types.RoleUser,
			Parts: []types.Part{types.TextPart(prompt.String())},
		}},
		System: summarySystemPrompt,
		Auth:   auth,
	}

	stream, err := s.provider.StreamTurn(ctx, req)
	if err != nil {
		return nil, "", err
	}
	defer stream.Close()

	var content strings.Builder
	for {
		chunk, err := stream.Next()
		if tc, ok := chunk.(types.TextChunk); ok {
			content.WriteString(tc.Text)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}
	}
	return ids, strings.TrimSpace(content.String()), nil
}
