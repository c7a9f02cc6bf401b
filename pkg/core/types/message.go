package types

// Message roles.
const (
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
)

// Message is one conversational turn fragment.
type Message struct {
	ID          string       `json:"id"`
	Role        string       `json:"role"`
	Parts       []Part       `json:"parts"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is upload metadata for user messages with attached files.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	URI      string `json:"uri"`
	Size     int64  `json:"size,omitempty"`
}

// Text concatenates all text parts of the message.
func (m *Message) Text() string {
	var text string
	for _, p := range m.Parts {
		text += p.Text
	}
	return text
}

// FunctionCalls returns the function call parts of the message, in order.
func (m *Message) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range m.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// HasFunctionCall reports whether any part carries a function call.
func (m *Message) HasFunctionCall() bool {
	for _, p := range m.Parts {
		if p.FunctionCall != nil {
			return true
		}
	}
	return false
}

// IsTextBearing reports whether the message carries any non-empty text.
// Summarization only considers text-bearing messages.
func (m *Message) IsTextBearing() bool {
	for _, p := range m.Parts {
		if p.Text != "" {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether the message is an empty model-role slot
// awaiting the forthcoming natural-language response.
func (m *Message) IsPlaceholder() bool {
	if m.Role != RoleModel {
		return false
	}
	for _, p := range m.Parts {
		if p.Text != "" || p.InlineData != nil || p.FileData != nil || p.FunctionCall != nil || p.FunctionResponse != nil {
			return false
		}
	}
	return true
}
