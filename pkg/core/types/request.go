package types

// TurnRequest is the input to one model turn.
type TurnRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	System   string    `json:"system,omitempty"`

	Generation GenerationConfig  `json:"generation"`
	Tools      []ToolDeclaration `json:"tools,omitempty"`

	Auth Auth `json:"-"`
}

// GenerationConfig holds sampling and safety parameters for a turn.
type GenerationConfig struct {
	Temperature     *float64          `json:"temperature,omitempty"`
	TopP            *float64          `json:"topP,omitempty"`
	TopK            *float64          `json:"topK,omitempty"`
	MaxOutputTokens int               `json:"maxOutputTokens,omitempty"`
	SafetySettings  map[string]string `json:"safetySettings,omitempty"` // harm category -> block threshold
}

// Auth selects exactly one of two authentication paths: a caller-supplied
// API key (optionally through a caller-supplied proxy base URL), or a
// signed token routed through the default gateway path.
type Auth struct {
	APIKey      string `json:"-"`
	BaseURL     string `json:"-"` // only meaningful with APIKey
	AccessToken string `json:"-"`
}

// Valid reports whether exactly one auth path is active.
func (a Auth) Valid() bool {
	return (a.APIKey != "") != (a.AccessToken != "")
}

// ToolDeclaration describes one callable operation exposed to the model.
type ToolDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"` // JSON schema
}
