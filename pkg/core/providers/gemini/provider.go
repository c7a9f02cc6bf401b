// Package gemini adapts the Gemini API to the provider interface.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
)

// DefaultRelayBaseURL is where access-token turns are routed when the
// caller does not override the base URL. The relay holds the real API
// credential and authenticates the bearer token instead.
const DefaultRelayBaseURL = "https://relay.parley.dev"

// Provider streams Gemini turns.
type Provider struct{}

// New creates a Gemini provider.
func New() *Provider {
	return &Provider{}
}

// Name implements core.Provider.
func (p *Provider) Name() string { return "gemini" }

// StreamTurn implements core.Provider. A fresh client is built per turn
// because credentials may rotate between turns.
func (p *Provider) StreamTurn(ctx context.Context, req *types.TurnRequest) (core.ChunkStream, error) {
	client, err := newClient(ctx, req.Auth)
	if err != nil {
		return nil, core.NewAuthenticationError(fmt.Sprintf("create client: %v", err))
	}

	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}

	seq := client.Models.GenerateContentStream(ctx, req.Model, contents, toConfig(req))
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}, nil
}

func newClient(ctx context.Context, auth types.Auth) (*genai.Client, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	switch {
	case auth.APIKey != "":
		cfg.APIKey = auth.APIKey
		if auth.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: auth.BaseURL}
		}
	case auth.AccessToken != "":
		base := auth.BaseURL
		if base == "" {
			base = DefaultRelayBaseURL
		}
		// The relay ignores the key header and authenticates the bearer.
		cfg.APIKey = auth.AccessToken
		cfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: base,
			Headers: http.Header{"Authorization": []string{"Bearer " + auth.AccessToken}},
		}
	default:
		return nil, fmt.Errorf("no credential supplied")
	}
	return genai.NewClient(ctx, cfg)
}

// stream adapts the pull side of the generate iterator to ChunkStream.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

// Next returns the next demuxed chunk: text responses become text
// chunks, call-bearing responses become function-call chunks.
func (s *stream) Next() (types.Chunk, error) {
	resp, err, ok := s.next()
	if !ok {
		return nil, io.EOF
	}
	if err != nil {
		return nil, toStreamError(err)
	}

	var text string
	var calls []types.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
			if part.FunctionCall != nil {
				calls = append(calls, types.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
	}

	if len(calls) > 0 {
		return types.FunctionCallChunk{Calls: calls}, nil
	}
	return types.TextChunk{Text: text}, nil
}

// Close releases the underlying iterator.
func (s *stream) Close() error {
	s.stop()
	return nil
}

func toStreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &core.Error{
			Type:       core.ErrStream,
			Message:    apiErr.Message,
			StatusCode: apiErr.Code,
		}
	}
	return core.NewStreamError(err.Error(), 0)
}

// toContents converts the conversation log to the wire shape. Function
// records travel on the roles Gemini expects: call records on the model
// side, responses on the user side.
func toContents(msgs []types.Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(msgs))
	for i := range msgs {
		m := msgs[i]
		parts := make([]*genai.Part, 0, len(m.Parts))

		role := genai.RoleUser
		switch m.Role {
		case types.RoleModel:
			role = genai.RoleModel
		case types.RoleUser:
			role = genai.RoleUser
		case types.RoleFunction:
			role = genai.RoleUser
			if m.HasFunctionCall() {
				role = genai.RoleModel
			}
		default:
			return nil, core.NewInvalidRequestError(fmt.Sprintf("unknown role %q", m.Role))
		}

		for _, p := range m.Parts {
			switch {
			case p.Text != "":
				parts = append(parts, &genai.Part{Text: p.Text})
			case p.InlineData != nil:
				// Blob.Data is base64 text; genai wants the raw bytes and
				// re-encodes them on the wire.
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, core.NewInvalidRequestError(fmt.Sprintf("inline data (%s): %v", p.InlineData.MIMEType, err))
				}
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: p.InlineData.MIMEType,
					Data:     data,
				}})
			case p.FileData != nil:
				parts = append(parts, &genai.Part{FileData: &genai.FileData{
					MIMEType: p.FileData.MIMEType,
					FileURI:  p.FileData.FileURI,
				}})
			case p.FunctionCall != nil:
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				}})
			case p.FunctionResponse != nil:
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					Name:     p.FunctionResponse.Name,
					Response: p.FunctionResponse.Response,
				}})
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out, nil
}

func toConfig(req *types.TurnRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	gen := req.Generation
	if gen.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*gen.Temperature))
	}
	if gen.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*gen.TopP))
	}
	if gen.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*gen.TopK))
	}
	if gen.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(gen.MaxOutputTokens)
	}
	for category, threshold := range gen.SafetySettings {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: genai.HarmBlockThreshold(threshold),
		})
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return cfg
}
