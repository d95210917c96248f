package controller

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LimitType selects which per-session budget a route draws from.
type LimitType string

const (
	LimitMessage LimitType = "message"
	LimitFile    LimitType = "file"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int // Max questions per session per minute
	BurstSize         int // Questions allowed back to back
	FilesPerHour      int // Max uploads per session per hour
}

// SessionRateLimiter keeps one question limiter and one upload limiter per
// session.
type SessionRateLimiter struct {
	config RateLimiterConfig
	logger *zap.Logger

	mu       sync.Mutex
	messages map[string]*rate.Limiter
	files    map[string]*rate.Limiter
}

func NewSessionRateLimiter(config RateLimiterConfig, logger *zap.Logger) *SessionRateLimiter {
	return &SessionRateLimiter{
		config:   config,
		logger:   logger,
		messages: make(map[string]*rate.Limiter),
		files:    make(map[string]*rate.Limiter),
	}
}

// Reserve takes one token for the session. When the budget is exhausted it
// returns false and how long the caller should wait.
func (l *SessionRateLimiter) Reserve(sessionID string, kind LimitType) (bool, time.Duration) {
	r := l.limiter(sessionID, kind).Reserve()
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

// Forget drops the session's limiters. Called on logout and when an idle
// session is pruned.
func (l *SessionRateLimiter) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.messages, sessionID)
	delete(l.files, sessionID)
}

// Len returns how many sessions currently hold a limiter.
func (l *SessionRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{}, len(l.messages)+len(l.files))
	for id := range l.messages {
		seen[id] = struct{}{}
	}
	for id := range l.files {
		seen[id] = struct{}{}
	}
	return len(seen)
}

func (l *SessionRateLimiter) limiter(sessionID string, kind LimitType) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if kind == LimitFile {
		limiter, ok := l.files[sessionID]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(float64(l.config.FilesPerHour)/3600.0), l.config.FilesPerHour)
			l.files[sessionID] = limiter
		}
		return limiter
	}

	limiter, ok := l.messages[sessionID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.config.MessagesPerMinute)/60.0), l.config.BurstSize)
		l.messages[sessionID] = limiter
	}
	return limiter
}

// RateLimitMiddleware rejects requests over the session's budget with 429.
// SessionMiddleware must run first.
func RateLimitMiddleware(limiter *SessionRateLimiter, kind LimitType) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session not initialized"})
			return
		}

		allowed, wait := limiter.Reserve(sess.ID, kind)
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			limiter.logger.Warn("Rate limit exceeded",
				zap.String("session_id", sess.ID),
				zap.String("limit_type", string(kind)),
				zap.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please wait before trying again.",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
