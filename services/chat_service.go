package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question must not be empty")

// ChatService runs a session's conversation: it records turns, picks the
// session's knowledge document, asks the answer service and logs the result.
type ChatService struct {
	library *DocumentLibrary
	answers AnswerService
	convLog *ConversationLog
	logger  *zap.Logger
}

func NewChatService(library *DocumentLibrary, answers AnswerService, convLog *ConversationLog, logger *zap.Logger) *ChatService {
	return &ChatService{
		library: library,
		answers: answers,
		convLog: convLog,
		logger:  logger,
	}
}

// Ask answers one question in the context of the session's conversation. The
// session is locked for the whole turn, so concurrent submissions from the
// same session are answered one after another.
func (c *ChatService) Ask(ctx context.Context, sess *Session, question string) (models.QueryResponse, error) {
	if strings.TrimSpace(question) == "" {
		return models.QueryResponse{}, ErrEmptyQuestion
	}

	sess.mu.Lock()
	sess.ensureGreetingLocked()
	sess.history = append(sess.history, models.UserTurn(question))

	doc := c.documentLocked(sess)
	ans := c.answers.Answer(ctx, question, sess.history, c.library.Base(doc))

	sess.history = append(sess.history, models.AssistantTurn(ans.Text))
	sess.lastActive = time.Now()
	username := sess.username
	turns := len(sess.history)
	sess.mu.Unlock()

	c.logger.Info("Question answered",
		zap.String("session_id", sess.ID),
		zap.String("document", doc.Name),
		zap.Stringer("outcome", ans.Outcome),
		zap.Int("history_turns", turns))

	if c.convLog != nil {
		c.convLog.Append(username, question, ans.Text)
	}

	return models.QueryResponse{
		Answer:     ans.Text,
		ExactMatch: ans.ExactMatch,
		SessionID:  sess.ID,
	}, nil
}

// Messages returns what a client needs to render the conversation.
func (c *ChatService) Messages(sess *Session) models.MessagesResponse {
	history := sess.Messages()

	sess.mu.Lock()
	doc := c.documentLocked(sess)
	sess.mu.Unlock()

	return models.MessagesResponse{
		Messages:       history,
		QuestionsAsked: history.QuestionsAsked(),
		Document:       c.library.Info(doc),
	}
}

// UseDocument grounds the session in uploaded text and clears its history.
func (c *ChatService) UseDocument(sess *Session, name, text string) models.DocumentInfo {
	doc := NewUploadedDocument(name, text)
	sess.UseDocument(doc)

	info := c.library.Info(doc)
	c.logger.Info("Session switched knowledge base",
		zap.String("session_id", sess.ID),
		zap.String("document", name),
		zap.Int("entries", info.Entries))
	return info
}

// ResetDocument returns the session to the default knowledge base.
func (c *ChatService) ResetDocument(sess *Session) models.DocumentInfo {
	sess.ResetDocument()
	c.logger.Info("Session reset to default knowledge base", zap.String("session_id", sess.ID))
	return c.library.Info(c.library.Default())
}

// documentLocked resolves the session's active document. Sessions without an
// upload follow the library default, including reloads. Callers hold sess.mu.
func (c *ChatService) documentLocked(sess *Session) models.KnowledgeDocument {
	if sess.document != nil {
		return *sess.document
	}
	return c.library.Default()
}
