package types

// Part is one content fragment of a message. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Blob is embedded binary content (audio, image) carried inline.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// FileData references remotely stored content.
type FileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// FunctionCall is a model-requested tool invocation.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse is the result of an executed tool invocation.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlineDataPart builds an inline data part from base64 data.
func InlineDataPart(mimeType, data string) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: data}}
}

// FileDataPart builds a remote file reference part.
func FileDataPart(mimeType, fileURI string) Part {
	return Part{FileData: &FileData{MIMEType: mimeType, FileURI: fileURI}}
}

// FunctionCallPart builds a function call part.
func FunctionCallPart(name string, args map[string]any) Part {
	return Part{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// FunctionResponsePart builds a function response part.
func FunctionResponsePart(name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}
