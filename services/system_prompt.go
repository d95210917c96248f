package services

import (
	"fmt"
	"strings"
)

// FallbackMessage must be returned verbatim when the knowledge base has nothing
// relevant. Clients match on it, so it is never reworded.
const FallbackMessage = "I don't have that specific information in our DDQ documents. Please contact our Compliance Officer, Peter Lau, at peterlau@wmcubehk.com or +852 3854 6419 for more details."

// ComplianceContact is appended to failure messages.
const ComplianceContact = "our Compliance Officer, Peter Lau, at peterlau@wmcubehk.com or +852 3854 6419"

const (
	knowledgeStartMarker = "【KNOWLEDGE BASE - START】"
	knowledgeEndMarker   = "【KNOWLEDGE BASE - END】"
)

// GroundingRules are the non-negotiable answering rules, in order.
var GroundingRules = []string{
	"ONLY use information inside the KNOWLEDGE BASE block. Never use outside knowledge, never speculate, and never " +
		"hedge with words such as \"typically\" or \"usually\" that imply certainty the block does not state.",
	"Use the conversation history ONLY to work out what a follow-up question refers to (for example, \"what about " +
		"them?\" refers to the subject of the previous turn). The history is never a source of facts that are not in " +
		"the KNOWLEDGE BASE block.",
	"If the KNOWLEDGE BASE block gives a general or partial answer and the user asks for more specific detail, state " +
		"what IS known and then say explicitly that the specific detail is not available. Do not answer \"I don't know\" " +
		"when partial information exists.",
	"If the KNOWLEDGE BASE block says information is available \"upon request\", say that it must be requested and is " +
		"not currently available, instead of treating it as missing.",
	"ONLY if there is no relevant information anywhere in the KNOWLEDGE BASE block, reply with exactly this text and " +
		"nothing else, copied character for character: \"" + FallbackMessage + "\"",
}

// BuildSystemPrompt returns the grounding instruction: the persona, the
// numbered rules and the full knowledge text between explicit markers.
func BuildSystemPrompt(knowledgeText string, rules []string) string {
	var sb strings.Builder

	sb.WriteString("You are a Due Diligence Assistant for Wealth Management Cube Limited (WMC). ")
	sb.WriteString("You answer questions strictly from the knowledge base supplied below.\n\n")

	sb.WriteString("【CRITICAL RULES】\n")
	for i, rule := range rules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	sb.WriteString("Be professional, concise and accurate.\n\n")

	sb.WriteString(knowledgeStartMarker)
	sb.WriteString("\n")
	sb.WriteString(knowledgeText)
	sb.WriteString("\n")
	sb.WriteString(knowledgeEndMarker)
	sb.WriteString("\n")

	return sb.String()
}
