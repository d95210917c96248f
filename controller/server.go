package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github/itish2003/ddqchat/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

// NewServer wires the routes. Everything under /api/v1 except login needs
// an authenticated session.
func NewServer(ctrl *ChatController, sessions *services.SessionStore, limiter *SessionRateLimiter, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(corsMiddleware)
	if ctrl.maxUploadBytes > 0 {
		router.MaxMultipartMemory = ctrl.maxUploadBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"service":  "DDQ Assistant API",
			"sessions": sessions.Len(),
		})
	})

	apiV1 := router.Group("/api/v1", SessionMiddleware(sessions))
	apiV1.POST("/login", ctrl.Login)

	authed := apiV1.Group("", RequireAuth())
	{
		authed.POST("/logout", ctrl.Logout)
		authed.GET("/messages", ctrl.GetMessages)
		authed.DELETE("/messages", ctrl.ClearMessages)
		authed.POST("/query", RateLimitMiddleware(limiter, LimitMessage), ctrl.Query)
		authed.POST("/documents", RateLimitMiddleware(limiter, LimitFile), ctrl.UploadDocument)
		authed.DELETE("/documents", ctrl.ResetDocument)
		authed.GET("/logs", ctrl.DownloadLogs)
	}

	return &Server{router: router, logger: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
