package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Base is a parsed knowledge document: the raw text the model is grounded in
// plus the exact-match index derived from it. A Base is never mutated after
// construction and may be shared between sessions.
type Base struct {
	Text string
	Hash string
	qa   map[string]string
}

// NewBase parses text into a Base.
func NewBase(text string) *Base {
	return &Base{
		Text: text,
		Hash: HashText(text),
		qa:   Parse(text),
	}
}

// Lookup is the exact-match resolver: it reports the stored answer for an
// already normalized question.
func (b *Base) Lookup(normalized string) (string, bool) {
	if b == nil {
		return "", false
	}
	answer, ok := b.qa[normalized]
	return answer, ok
}

// Len returns the number of question/answer entries.
func (b *Base) Len() int {
	if b == nil {
		return 0
	}
	return len(b.qa)
}

// Questions returns the normalized questions in no particular order.
func (b *Base) Questions() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.qa))
	for q := range b.qa {
		out = append(out, q)
	}
	return out
}

// HashText returns the hex SHA-256 of a document's text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ParseError reports a knowledge document that could not be loaded.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("knowledge base %q could not be loaded: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
