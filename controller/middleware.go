package controller

import (
	"net/http"
	"time"

	"github/itish2003/ddqchat/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "ddq_session"
	SessionHeaderName = "X-Session-ID"
	CookieMaxAge      = 24 * 60 * 60 // 1 day

	sessionContextKey = "session"
)

// SessionMiddleware attaches the caller's session, creating an anonymous one
// when the cookie or header is missing or refers to an unknown session.
func SessionMiddleware(store *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeaderName)
		if id == "" {
			id, _ = c.Cookie(SessionCookieName)
		}

		sess, ok := store.Get(id)
		if !ok {
			sess = store.Create()
			c.SetCookie(SessionCookieName, sess.ID, CookieMaxAge, "/", "", false, true)
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// RequireAuth rejects sessions that have not logged in.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil || !sess.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in first."})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// corsMiddleware allows browser clients on other origins.
func corsMiddleware(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeaderName)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func currentSession(c *gin.Context) *services.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*services.Session)
	return sess
}
