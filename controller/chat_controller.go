package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github/itish2003/ddqchat/models"
	"github/itish2003/ddqchat/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatController handles the HTTP requests for the DDQ assistant. It depends
// on the chat service for the conversation logic.
type ChatController struct {
	chat      *services.ChatService
	sessions  *services.SessionStore
	limiter   *SessionRateLimiter
	extractor *services.TextExtractor
	convLog   *services.ConversationLog
	logger    *zap.Logger

	adminUsername  string
	maxUploadBytes int64
}

// ChatControllerOptions carries the access settings of the controller.
type ChatControllerOptions struct {
	AdminUsername  string
	MaxUploadBytes int64
}

// NewChatController is called from the serve command to inject the service
// dependencies.
func NewChatController(
	chat *services.ChatService,
	sessions *services.SessionStore,
	limiter *SessionRateLimiter,
	extractor *services.TextExtractor,
	convLog *services.ConversationLog,
	opts ChatControllerOptions,
	logger *zap.Logger,
) *ChatController {
	return &ChatController{
		chat:           chat,
		sessions:       sessions,
		limiter:        limiter,
		extractor:      extractor,
		convLog:        convLog,
		logger:         logger,
		adminUsername:  opts.AdminUsername,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// Login is the Gin handler for POST /api/v1/login.
func (c *ChatController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondWithClientError(ctx, http.StatusBadRequest, "Please enter a username and password.")
		return
	}

	sess := currentSession(ctx)
	if err := sess.Login(req.Username, req.Password); err != nil {
		respondWithClientError(ctx, http.StatusBadRequest, "Please enter a username and password.")
		return
	}

	c.logger.Info("User logged in", zap.String("username", sess.Username()), zap.String("session_id", sess.ID))
	ctx.JSON(http.StatusOK, models.LoginResponse{
		Message:   "Login successful",
		Username:  sess.Username(),
		SessionID: sess.ID,
	})
}

// Logout is the Gin handler for POST /api/v1/logout.
func (c *ChatController) Logout(ctx *gin.Context) {
	sess := currentSession(ctx)
	sess.Logout()
	c.limiter.Forget(sess.ID)
	c.sessions.Delete(sess.ID)

	ctx.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMessages is the Gin handler for GET /api/v1/messages.
func (c *ChatController) GetMessages(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.chat.Messages(currentSession(ctx)))
}

// ClearMessages is the Gin handler for DELETE /api/v1/messages.
func (c *ChatController) ClearMessages(ctx *gin.Context) {
	sess := currentSession(ctx)
	sess.ClearHistory()
	ctx.JSON(http.StatusOK, c.chat.Messages(sess))
}

// Query is the Gin handler for POST /api/v1/query. Model failures are part of
// the answer text, so a bound request always gets 200.
func (c *ChatController) Query(ctx *gin.Context) {
	var req models.QueryTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondWithClientError(ctx, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	response, err := c.chat.Ask(ctx.Request.Context(), currentSession(ctx), req.Query)
	if errors.Is(err, services.ErrEmptyQuestion) {
		respondWithClientError(ctx, http.StatusBadRequest, "Please enter a question.")
		return
	}
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, err, "Failed to answer the question", c.logger)
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// UploadDocument is the Gin handler for POST /api/v1/documents. The uploaded
// file replaces the session's knowledge base and resets its conversation.
func (c *ChatController) UploadDocument(ctx *gin.Context) {
	if c.maxUploadBytes > 0 {
		// Room for the multipart framing on top of the file itself.
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes+multipartOverhead)
	}

	fileHeader, err := ctx.FormFile("file")
	if isBodyTooLarge(err) {
		respondWithClientError(ctx, http.StatusRequestEntityTooLarge, "The file is too large.")
		return
	}
	if err != nil {
		respondWithClientError(ctx, http.StatusBadRequest, "Please attach a file in the 'file' field.")
		return
	}

	name := filepath.Base(fileHeader.Filename)
	if !services.IsSupportedFile(name) {
		respondWithClientError(ctx, http.StatusUnsupportedMediaType,
			fmt.Sprintf("Unsupported file format: %s. Please upload a PDF, DOCX, XLSX, Markdown or text file.", filepath.Ext(name)))
		return
	}
	if c.maxUploadBytes > 0 && fileHeader.Size > c.maxUploadBytes {
		respondWithClientError(ctx, http.StatusRequestEntityTooLarge, "The file is too large.")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, err, "Failed to read the uploaded file", c.logger)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, err, "Failed to read the uploaded file", c.logger)
		return
	}

	text, err := c.extractor.ExtractText(name, data)
	if err != nil {
		respondWithError(ctx, http.StatusUnprocessableEntity, err, "Error parsing file: "+err.Error(), c.logger,
			zap.String("file", name))
		return
	}

	info := c.chat.UseDocument(currentSession(ctx), name, text)
	ctx.JSON(http.StatusOK, models.DocumentResponse{
		Message:  fmt.Sprintf("Now answering from %s. Conversation history has been reset.", name),
		Document: info,
	})
}

const multipartOverhead = 1 << 20

func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// ResetDocument is the Gin handler for DELETE /api/v1/documents.
func (c *ChatController) ResetDocument(ctx *gin.Context) {
	info := c.chat.ResetDocument(currentSession(ctx))
	ctx.JSON(http.StatusOK, models.DocumentResponse{
		Message:  "Reset to the default knowledge base. Conversation history has been reset.",
		Document: info,
	})
}

// DownloadLogs is the Gin handler for GET /api/v1/logs. Only the admin user
// may download the conversation log.
func (c *ChatController) DownloadLogs(ctx *gin.Context) {
	sess := currentSession(ctx)
	if sess.Username() != c.adminUsername {
		respondWithClientError(ctx, http.StatusForbidden, "Only the administrator can download logs.")
		return
	}

	data, err := c.convLog.Read()
	if errors.Is(err, services.ErrNoLogs) {
		respondWithClientError(ctx, http.StatusNotFound, "No logs available yet.")
		return
	}
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, err, "Failed to read conversation logs", c.logger)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filepath.Base(c.convLog.Path())+`"`)
	ctx.Data(http.StatusOK, "application/x-ndjson", data)
}
