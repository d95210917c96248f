package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleJSON(t *testing.T) {
	data, err := json.Marshal(History{UserTurn("hi"), AssistantTurn("hello")})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`, string(data))

	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"x"}`), &turn))
	assert.Equal(t, RoleAssistant, turn.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"system","content":"x"}`), &turn))
}

func TestHistoryCompact(t *testing.T) {
	h := History{UserTurn("A"), AssistantTurn("  \n"), UserTurn(""), AssistantTurn("B")}

	assert.Equal(t, History{UserTurn("A"), AssistantTurn("B")}, h.Compact())
	assert.Len(t, h, 4)
}

func TestHistoryQuestionsAsked(t *testing.T) {
	h := History{AssistantTurn("greeting"), UserTurn("A"), AssistantTurn("B"), UserTurn("C")}
	assert.Equal(t, 2, h.QuestionsAsked())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, UserTurn("C"), last)

	_, ok = History{}.Last()
	assert.False(t, ok)
}
