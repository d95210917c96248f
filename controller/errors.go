package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error against the session that hit it
// and returns userMessage. The technical error never reaches the client.
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields,
			zap.Error(technicalError),
			zap.Int("status", statusCode),
			zap.String("route", c.Request.Method+" "+c.FullPath()))
		if sess := currentSession(c); sess != nil {
			fields = append(fields, zap.String("session_id", sess.ID))
			if username := sess.Username(); username != "" {
				fields = append(fields, zap.String("username", username))
			}
		}
		logger.Error("DDQ request failed", fields...)
	}
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError is for validation failures; nothing is logged.
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}
