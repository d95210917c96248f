package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const auditorDoc = "# Due Diligence Questionnaire\n\nSection 1\n" +
	"\n**Question:**\nWho is the Auditor?\n**Answer:**\nD & Partners CPA Limited\n" +
	"\n**Question:**\nWhat is the firm's registered address.\n**Answer:**\nUnit 1203, Hong Kong\n\nSee Appendix A.\n"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"question mark", "What is X?", "what is x"},
		{"period", "What is X.", "what is x"},
		{"comma", "What is X,", "what is x"},
		{"surrounding whitespace", "  \tWho is the Auditor?  \n", "who is the auditor"},
		{"only one char stripped", "Really??", "really?"},
		{"other punctuation kept", "Is it true!", "is it true!"},
		{"no punctuation", "who is the auditor", "who is the auditor"},
		{"empty", "", ""},
		{"only punctuation", "?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeSymmetry(t *testing.T) {
	assert.Equal(t, Normalize("What is X?"), Normalize("what is x"))
	assert.Equal(t, Normalize("  WHO IS THE AUDITOR. "), Normalize("who is the auditor"))
}

func TestParse(t *testing.T) {
	qa := Parse(auditorDoc)

	require.Len(t, qa, 2)
	assert.Equal(t, "D & Partners CPA Limited", qa["who is the auditor"])
	assert.Equal(t, "Unit 1203, Hong Kong\n\nSee Appendix A.", qa["what is the firm's registered address"])
}

func TestParseDropsPreamble(t *testing.T) {
	qa := Parse("Preamble **Answer:** text\n\n**Question:**\nQ1?\n**Answer:**\nA1")

	require.Len(t, qa, 1)
	assert.Equal(t, "A1", qa["q1"])
}

func TestParseDropsMalformedSegments(t *testing.T) {
	doc := "\n**Question:**\nTwo answers?\n**Answer:**\nfirst\n**Answer:**\nsecond" +
		"\n**Question:**\nNo answer at all?\njust text" +
		"\n**Question:**\nGood one?\n**Answer:**\nkept"

	qa := Parse(doc)

	assert.NotContains(t, qa, "two answers")
	assert.NotContains(t, qa, "no answer at all")
	assert.Equal(t, map[string]string{"good one": "kept"}, qa)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("a document without any markers"))
}

func TestParseDuplicateLastWins(t *testing.T) {
	doc := "\n**Question:**\nWho is the Auditor?\n**Answer:**\nold" +
		"\n**Question:**\nwho is the auditor\n**Answer:**\nnew"

	assert.Equal(t, "new", Parse(doc)["who is the auditor"])
}

func TestParseIsIdempotent(t *testing.T) {
	assert.Equal(t, Parse(auditorDoc), Parse(auditorDoc))
}
