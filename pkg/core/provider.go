package core

import (
	"context"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Provider is the interface a streaming model backend must implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// StreamTurn issues one model turn and returns its chunk stream.
	StreamTurn(ctx context.Context, req *types.TurnRequest) (ChunkStream, error)
}

// ChunkStream is an iterator over streamed response chunks.
type ChunkStream interface {
	// Next returns the next chunk. Returns nil, io.EOF when done.
	Next() (types.Chunk, error)

	// Close releases resources.
	Close() error
}
