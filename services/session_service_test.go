package services

import (
	"testing"
	"time"

	"github/itish2003/ddqchat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"any credentials", "alice", "anything", false},
		{"blank username", "  ", "secret", true},
		{"blank password", "alice", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := NewSessionStore(zap.NewNop()).Create()

			err := sess.Login(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.False(t, sess.Authenticated())
				return
			}
			require.NoError(t, err)
			assert.True(t, sess.Authenticated())
			assert.Equal(t, tt.username, sess.Username())
		})
	}
}

func TestSessionGreetingAndClear(t *testing.T) {
	sess := NewSessionStore(zap.NewNop()).Create()

	assert.Equal(t, models.History{models.AssistantTurn(GreetingMessage)}, sess.Messages())

	sess.mu.Lock()
	sess.history = append(sess.history, models.UserTurn("q"), models.AssistantTurn(""), models.AssistantTurn("a"))
	sess.mu.Unlock()

	// Blank turns never reach the display.
	assert.Len(t, sess.Messages(), 3)

	sess.ClearHistory()
	assert.Equal(t, models.History{models.AssistantTurn(GreetingMessage)}, sess.Messages())
}

func TestSessionLogoutForgetsEverything(t *testing.T) {
	sess := NewSessionStore(zap.NewNop()).Create()
	require.NoError(t, sess.Login("alice", "secret"))
	sess.UseDocument(NewUploadedDocument("fund.md", auditorDoc))

	sess.Logout()

	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.Username())
	assert.Nil(t, sess.document)
	assert.Len(t, sess.Messages(), 1)
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(zap.NewNop())

	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	store.Delete(a.ID)
	_, ok = store.Get(a.ID)
	assert.False(t, ok)
}

func TestSessionStorePruneIdle(t *testing.T) {
	store := NewSessionStore(zap.NewNop())
	stale := store.Create()
	fresh := store.Create()

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, []string{stale.ID}, store.PruneIdle(time.Hour))

	_, ok := store.Get(stale.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}
