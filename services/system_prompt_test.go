package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(auditorDoc, GroundingRules)

	start := strings.Index(prompt, knowledgeStartMarker)
	end := strings.Index(prompt, knowledgeEndMarker)
	assert.Greater(t, start, 0)
	assert.Greater(t, end, start)
	assert.Contains(t, prompt[start:end], "D & Partners CPA Limited")

	for i, rule := range GroundingRules {
		assert.Contains(t, prompt, fmt.Sprintf("%d. %s\n", i+1, rule))
	}
	assert.Less(t, strings.Index(prompt, "1. "), start, "rules come before the knowledge block")
}

func TestFallbackMessageIsEmbeddedVerbatim(t *testing.T) {
	prompt := BuildSystemPrompt("", GroundingRules)

	assert.Contains(t, prompt, `"`+FallbackMessage+`"`)
	assert.Equal(t,
		"I don't have that specific information in our DDQ documents. Please contact our Compliance Officer, Peter Lau, at peterlau@wmcubehk.com or +852 3854 6419 for more details.",
		FallbackMessage)
}

func TestGroundingRulesCoverRequiredBehaviour(t *testing.T) {
	assert.Len(t, GroundingRules, 5)
	assert.Contains(t, GroundingRules[1], "history")
	assert.Contains(t, GroundingRules[3], "upon request")
}
