// Package knowledge turns a DDQ knowledge document into an exact-match question index.
package knowledge

import "strings"

const (
	// QuestionMarker introduces every entry of a knowledge document.
	QuestionMarker = "\n**Question:**"
	// AnswerMarker separates the question text from its answer.
	AnswerMarker = "\n**Answer:**"
)

// Normalize canonicalizes a question into a lookup key: lowercase, trim, then
// drop a single trailing '?', '.' or ','. Parse uses it for keys, so queries
// and stored questions always go through the same rule.
func Normalize(question string) string {
	q := strings.TrimSpace(strings.ToLower(question))
	if n := len(q); n > 0 {
		switch q[n-1] {
		case '?', '.', ',':
			q = q[:n-1]
		}
	}
	return q
}

// Parse splits a knowledge document into normalized question -> answer pairs.
// Text before the first question marker is preamble and is ignored. Segments
// without exactly one answer marker are skipped. When two questions normalize
// to the same key the later entry wins.
func Parse(text string) map[string]string {
	qa := make(map[string]string)

	parts := strings.Split(text, QuestionMarker)
	for _, part := range parts[1:] {
		pair := strings.Split(part, AnswerMarker)
		if len(pair) != 2 {
			continue
		}
		qa[Normalize(pair[0])] = strings.TrimSpace(pair[1])
	}
	return qa
}
