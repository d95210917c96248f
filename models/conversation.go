package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies who authored a conversation turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole maps the wire name of a role back to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn and AssistantTurn are shorthands for building turns.
func UserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// Blank reports whether the turn carries no visible content.
func (t Turn) Blank() bool {
	return strings.TrimSpace(t.Content) == ""
}

// History is a chronological sequence of turns.
type History []Turn

// Compact returns the turns with non-blank content, in order.
func (h History) Compact() History {
	out := make(History, 0, len(h))
	for _, t := range h {
		if !t.Blank() {
			out = append(out, t)
		}
	}
	return out
}

// QuestionsAsked counts the user turns.
func (h History) QuestionsAsked() int {
	n := 0
	for _, t := range h {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// Last returns the final turn, if any.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}
