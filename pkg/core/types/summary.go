package types

// Summary is a rolling compressed replacement for older conversation
// turns. IDs tracks which message ids are already folded in so they are
// never compressed twice.
type Summary struct {
	IDs     map[string]struct{} `json:"ids"`
	Content string              `json:"content"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{IDs: make(map[string]struct{})}
}

// Has reports whether the message id is already folded into the summary.
func (s *Summary) Has(id string) bool {
	_, ok := s.IDs[id]
	return ok
}

// Fold replaces the summary content and records the folded message ids.
func (s *Summary) Fold(ids []string, content string) {
	if s.IDs == nil {
		s.IDs = make(map[string]struct{})
	}
	for _, id := range ids {
		s.IDs[id] = struct{}{}
	}
	s.Content = content
}
