// Package segment turns an incremental text stream into live partial
// updates and discrete speakable statements.
package segment

import (
	"strings"
	"unicode/utf8"
)

// Hooks receive segmentation events. Nil hooks are skipped.
type Hooks struct {
	// OnPartial receives the cumulative decoded text after every chunk.
	OnPartial func(text string)
	// OnStatement receives each completed statement exactly once, in order.
	OnStatement func(statement string)
	// OnFinish receives the final concatenated text exactly once.
	OnFinish func(full string)
}

// Segmenter consumes one text stream chunk by chunk. A chunk may split
// mid-sentence or mid-multibyte-character; incomplete sequences are
// buffered across chunks. One instance serves one stream.
type Segmenter struct {
	hooks   Hooks
	cjk     bool
	tail    []byte // incomplete UTF-8 sequence from the previous chunk
	full    strings.Builder
	pending strings.Builder
}

// New creates a segmenter for one stream. The locale selects the
// sentence terminator set (e.g., CJK full-width punctuation).
func New(locale string, hooks Hooks) *Segmenter {
	return &Segmenter{hooks: hooks, cjk: isCJKLocale(locale)}
}

// Feed consumes the next raw chunk, emitting a partial update and any
// newly confirmed statements.
func (s *Segmenter) Feed(chunk []byte) {
	data := chunk
	if len(s.tail) > 0 {
		data = append(s.tail, chunk...)
		s.tail = nil
	}

	complete, tail := splitCompleteUTF8(data)
	s.tail = tail

	text := string(complete)
	s.full.WriteString(text)
	s.pending.WriteString(text)

	if s.hooks.OnPartial != nil {
		s.hooks.OnPartial(s.full.String())
	}
	s.emitStatements()
}

// FeedText consumes a decoded text chunk.
func (s *Segmenter) FeedText(text string) {
	s.Feed([]byte(text))
}

// Finish flushes any trailing fragment as a final statement and fires
// the finish hook with the full concatenated text.
func (s *Segmenter) Finish() {
	if len(s.tail) > 0 {
		// Stream ended inside a multibyte character; decode leniently
		// rather than dropping bytes.
		text := string(s.tail)
		s.tail = nil
		s.full.WriteString(text)
		s.pending.WriteString(text)
	}

	if rest := strings.TrimSpace(s.pending.String()); rest != "" {
		if s.hooks.OnStatement != nil {
			s.hooks.OnStatement(rest)
		}
	}
	s.pending.Reset()

	if s.hooks.OnFinish != nil {
		s.hooks.OnFinish(s.full.String())
	}
}

// emitStatements scans the pending text for confirmed sentence
// boundaries and emits each completed statement once.
func (s *Segmenter) emitStatements() {
	content := s.pending.String()
	lastEnd := 0

	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if s.isBoundary(content, i, r, size) {
			stmt := strings.TrimSpace(content[lastEnd : i+size])
			if stmt != "" && s.hooks.OnStatement != nil {
				s.hooks.OnStatement(stmt)
			}
			lastEnd = i + size
		}
		i += size
	}

	if lastEnd > 0 {
		rest := content[lastEnd:]
		s.pending.Reset()
		s.pending.WriteString(rest)
	}
}

// isBoundary reports whether the rune at byte offset i confirms a
// sentence boundary. ASCII terminators need trailing whitespace inside
// the buffer so a terminator at the buffer edge waits for the next
// chunk (it may be a decimal point or mid-token dot).
func (s *Segmenter) isBoundary(content string, i int, r rune, size int) bool {
	if s.cjk && cjkTerminators[r] {
		return true
	}
	if r == '。' || r == '！' || r == '？' {
		return true
	}
	if r != '.' && r != '!' && r != '?' {
		return false
	}

	next, _ := utf8.DecodeRuneInString(content[i+size:])
	if next != ' ' && next != '\n' && next != '\r' && next != '\t' {
		return false
	}
	if r == '.' && isAbbreviation(content, i) {
		return false
	}
	return true
}

var cjkTerminators = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true, '…': true,
}

func isCJKLocale(locale string) bool {
	switch {
	case strings.HasPrefix(locale, "zh"), strings.HasPrefix(locale, "ja"), strings.HasPrefix(locale, "ko"):
		return true
	}
	return false
}

// commonAbbreviations are words whose trailing period does not end a
// sentence.
var commonAbbreviations = []string{
	"Dr.", "Mr.", "Mrs.", "Ms.", "Jr.", "Sr.",
	"Prof.", "Rev.", "Gen.", "Col.", "Lt.", "Sgt.",
	"Inc.", "Ltd.", "Corp.", "Co.", "vs.", "etc.",
	"i.e.", "e.g.", "a.m.", "p.m.", "U.S.", "U.K.",
}

// isAbbreviation checks if the period at byte offset i likely belongs
// to an abbreviation or initials.
func isAbbreviation(s string, i int) bool {
	if i < 1 {
		return false
	}

	start := i
	for start > 0 && s[start-1] != ' ' && s[start-1] != '\n' {
		start--
	}
	word := s[start : i+1]

	for _, abbr := range commonAbbreviations {
		if strings.EqualFold(word, abbr) {
			return true
		}
	}

	// Single uppercase letter followed by a period reads as initials.
	if s[i-1] >= 'A' && s[i-1] <= 'Z' {
		if i < 2 || s[i-2] == ' ' || s[i-2] == '\n' {
			return true
		}
	}
	return false
}

// splitCompleteUTF8 splits data into its longest valid-prefix of whole
// runes and any trailing incomplete sequence.
func splitCompleteUTF8(data []byte) (complete, tail []byte) {
	n := len(data)
	if n == 0 {
		return data, nil
	}

	// Find the start of the last rune within the final UTFMax bytes.
	start := n - 1
	for start > 0 && n-start < utf8.UTFMax && !utf8.RuneStart(data[start]) {
		start--
	}

	if !utf8.RuneStart(data[start]) {
		// No rune start in range: garbage, pass through as-is.
		return data, nil
	}

	r, size := utf8.DecodeRune(data[start:])
	if r == utf8.RuneError && size == 1 && !utf8.FullRune(data[start:]) {
		return data[:start], data[start:]
	}
	return data, nil
}
