package types

// Chunk is one element of a streamed model response: either a text delta
// or a batch of function calls, never both.
type Chunk interface {
	ChunkType() string
}

// TextChunk carries an incremental text delta.
type TextChunk struct {
	Text string
}

func (TextChunk) ChunkType() string { return "text" }

// FunctionCallChunk carries model-requested tool invocations.
type FunctionCallChunk struct {
	Calls []FunctionCall
}

func (FunctionCallChunk) ChunkType() string { return "function_call" }
