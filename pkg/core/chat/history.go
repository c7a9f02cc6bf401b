package chat

import (
	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/core/types"
)

// historyLog is the in-memory ordered conversation log. It is owned by
// the orchestrator and guarded by the orchestrator's mutex.
type historyLog struct {
	msgs []types.Message
}

// append adds a message, assigning an id when the caller left it empty,
// and returns the stored message.
func (l *historyLog) append(m types.Message) types.Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	l.msgs = append(l.msgs, m)
	return m
}

func (l *historyLog) snapshot() []types.Message {
	out := make([]types.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *historyLog) indexOf(id string) int {
	for i := range l.msgs {
		if l.msgs[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *historyLog) removeAt(i int) {
	l.msgs = append(l.msgs[:i], l.msgs[i+1:]...)
}

// last returns a pointer into the log, valid until the next mutation.
func (l *historyLog) last() *types.Message {
	if len(l.msgs) == 0 {
		return nil
	}
	return &l.msgs[len(l.msgs)-1]
}

// popTrailingPlaceholder removes a trailing empty model slot, if any.
func (l *historyLog) popTrailingPlaceholder() bool {
	if last := l.last(); last != nil && last.IsPlaceholder() {
		l.msgs = l.msgs[:len(l.msgs)-1]
		return true
	}
	return false
}

// fillTrailingPlaceholder writes the assembled turn text into a
// trailing empty model slot and reports whether one existed.
func (l *historyLog) fillTrailingPlaceholder(text string) (types.Message, bool) {
	if last := l.last(); last != nil && last.IsPlaceholder() {
		last.Parts = []types.Part{types.TextPart(text)}
		return *last, true
	}
	return types.Message{}, false
}
