package cli

import (
	"context"
	"fmt"
	"time"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/controller"
	"github/itish2003/ddqchat/knowledge"
	"github/itish2003/ddqchat/services"

	"go.uber.org/zap"
)

// app is the wired service graph shared by the serve and ask commands.
type app struct {
	backend   services.ChatBackend
	library   *services.DocumentLibrary
	chat      *services.ChatService
	sessions  *services.SessionStore
	limiter   *controller.SessionRateLimiter
	convLog   *services.ConversationLog
	extractor *services.TextExtractor
}

// buildApp composes the services from cfg. When requireModel is false a
// backend that cannot be built is logged and left nil, so exact matches
// still work and generation reports the model as unavailable.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, requireModel bool) (*app, error) {
	backend, err := services.NewChatBackend(ctx, cfg, logger)
	if err != nil {
		if requireModel {
			return nil, fmt.Errorf("init %s backend: %w", cfg.LLMProvider, err)
		}
		logger.Warn("Model backend unavailable; only exact matches will be answered",
			zap.String("provider", cfg.LLMProvider), zap.Error(err))
		backend = nil
	} else {
		logger.Info("Model backend ready", zap.String("backend", backend.Name()))
	}

	cache, err := knowledge.NewCache(cfg.KnowledgeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init knowledge cache: %w", err)
	}

	library := services.NewDocumentLibrary(cfg.KnowledgeBasePath, cache, logger)
	resolver := services.NewGroundedResolver(backend, cfg.GenerationTimeout, logger)
	answers := services.NewAnswerService(resolver, cfg.ExactMatchPolicy, logger)
	convLog := services.NewConversationLog(cfg.ConversationLog, logger)
	limiter := controller.NewSessionRateLimiter(controller.RateLimiterConfig{
		MessagesPerMinute: cfg.RateLimitMessagesPerMin,
		BurstSize:         cfg.RateLimitBurstSize,
		FilesPerHour:      cfg.RateLimitFilesPerHour,
	}, logger)

	return &app{
		backend:   backend,
		library:   library,
		chat:      services.NewChatService(library, answers, convLog, logger),
		sessions:  services.NewSessionStore(logger),
		limiter:   limiter,
		convLog:   convLog,
		extractor: services.NewTextExtractor(cfg.UnidocLicenseKey, logger),
	}, nil
}

// server builds the HTTP surface on top of the service graph.
func (a *app) server(cfg *config.Config, logger *zap.Logger) *controller.Server {
	ctrl := controller.NewChatController(a.chat, a.sessions, a.limiter, a.extractor, a.convLog,
		controller.ChatControllerOptions{
			AdminUsername:  cfg.AdminUsername,
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		}, logger)

	return controller.NewServer(ctrl, a.sessions, a.limiter, logger)
}

// pruneIdle drops idle sessions together with their rate limiters.
func (a *app) pruneIdle(maxIdle time.Duration) int {
	pruned := a.sessions.PruneIdle(maxIdle)
	for _, id := range pruned {
		a.limiter.Forget(id)
	}
	return len(pruned)
}

func (a *app) Close() {
	if err := a.convLog.Close(); err != nil {
		logger.Warn("Failed to close conversation log", zap.Error(err))
	}
}
