package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github/itish2003/ddqchat/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GreetingMessage opens every conversation.
const GreetingMessage = "**Welcome to the WMC Due Diligence Portal!**\n\n" +
	"I can help you with questions about our company, compliance, IT, and more. " +
	"I also remember our conversation, so you can ask follow-up questions."

// documentGreetingFormat opens the conversation after an upload.
const documentGreetingFormat = "Document '%s' has been loaded. How can I help you?"

// ErrInvalidCredentials is returned when either login field is blank.
var ErrInvalidCredentials = errors.New("please enter a username and password")

// Session is one user's conversation state. All fields are guarded by mu; a
// session handles one question at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	username      string
	authenticated bool
	history       models.History
	document      *models.KnowledgeDocument
	lastActive    time.Time
}

// Login authenticates the session. This is demo authentication: any
// non-blank username and password pair is accepted.
func (s *Session) Login(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.authenticated = true
	s.lastActive = time.Now()
	return nil
}

// Logout drops authentication, history and any uploaded document.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = ""
	s.authenticated = false
	s.history = nil
	s.document = nil
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Messages returns a copy of the history for display, installing the
// greeting when the conversation is empty.
func (s *Session) Messages() models.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGreetingLocked()
	return append(models.History(nil), s.history...)
}

// ClearHistory restarts the conversation. The next render shows the greeting.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// UseDocument grounds the session in doc and starts a new conversation that
// names the document.
func (s *Session) UseDocument(doc models.KnowledgeDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = &doc
	s.history = models.History{models.AssistantTurn(fmt.Sprintf(documentGreetingFormat, doc.Name))}
}

// ResetDocument returns the session to the default document and starts a new
// conversation.
func (s *Session) ResetDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = nil
	s.history = nil
}

func (s *Session) ensureGreetingLocked() {
	s.history = s.history.Compact()
	if len(s.history) == 0 {
		s.history = models.History{models.AssistantTurn(GreetingMessage)}
	}
}

// SessionStore keeps every live session in memory, keyed by ID.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

func NewSessionStore(logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create starts a new anonymous session.
func (s *SessionStore) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastActive: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("Session created", zap.String("session_id", sess.ID))
	return sess
}

// Get returns the session with the given ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete forgets a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PruneIdle removes sessions that have been inactive for longer than maxIdle
// and returns their IDs, so per-session state kept elsewhere can be dropped.
func (s *SessionStore) PruneIdle(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	var idle []string
	for _, sess := range candidates {
		// A busy session holds its lock for the whole question; skip it.
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastActive.Before(cutoff) {
			idle = append(idle, sess.ID)
		}
		sess.mu.Unlock()
	}

	s.mu.Lock()
	for _, id := range idle {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if len(idle) > 0 {
		s.logger.Info("Pruned idle sessions", zap.Int("removed", len(idle)))
	}
	return idle
}
