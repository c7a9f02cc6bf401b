package types

import (
	"encoding/json"
	"testing"
)

func TestMessage_Text_ConcatenatesTextParts(t *testing.T) {
	m := Message{
		Role:  RoleModel,
		Parts: []Part{TextPart("Hello, "), FunctionCallPart("x__y", nil), TextPart("world.")},
	}
	if got := m.Text(); got != "Hello, world." {
		t.Errorf("expected concatenated text, got %q", got)
	}
}

func TestMessage_FunctionCalls_Order(t *testing.T) {
	m := Message{
		Role: RoleModel,
		Parts: []Part{
			FunctionCallPart("weather__current", map[string]any{"city": "Oslo"}),
			FunctionCallPart("weather__forecast", nil),
		},
	}
	calls := m.FunctionCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "weather__current" || calls[1].Name != "weather__forecast" {
		t.Errorf("calls out of order: %v", calls)
	}
}

func TestMessage_IsPlaceholder(t *testing.T) {
	empty := Message{Role: RoleModel, Parts: []Part{TextPart("")}}
	if !empty.IsPlaceholder() {
		t.Error("empty model message should be a placeholder")
	}

	filled := Message{Role: RoleModel, Parts: []Part{TextPart("done")}}
	if filled.IsPlaceholder() {
		t.Error("filled model message should not be a placeholder")
	}

	user := Message{Role: RoleUser, Parts: []Part{TextPart("")}}
	if user.IsPlaceholder() {
		t.Error("user message is never a placeholder")
	}
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	m := Message{
		ID:   "m1",
		Role: RoleUser,
		Parts: []Part{
			TextPart("describe this"),
			InlineDataPart("image/png", "aGVsbG8="),
			FileDataPart("audio/wav", "files/clip-1"),
		},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != "m1" || back.Role != RoleUser || len(back.Parts) != 3 {
		t.Fatalf("round trip lost structure: %+v", back)
	}
	if back.Parts[1].InlineData == nil || back.Parts[1].InlineData.MIMEType != "image/png" {
		t.Errorf("inline data lost: %+v", back.Parts[1])
	}
	if back.Parts[2].FileData == nil || back.Parts[2].FileData.FileURI != "files/clip-1" {
		t.Errorf("file data lost: %+v", back.Parts[2])
	}
}

func TestSummary_Fold(t *testing.T) {
	s := NewSummary()
	s.Fold([]string{"a", "b"}, "first summary")
	if !s.Has("a") || !s.Has("b") || s.Has("c") {
		t.Error("folded ids not tracked")
	}
	s.Fold([]string{"c"}, "second summary")
	if !s.Has("a") || !s.Has("c") {
		t.Error("fold must extend, not replace, the id set")
	}
	if s.Content != "second summary" {
		t.Errorf("content should be replaced, got %q", s.Content)
	}
}
