package services

import (
	"context"
	"fmt"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
)

// ChatRequest is one grounded chat call: the system instruction, the prior
// turns in chronological order, and the live user message.
type ChatRequest struct {
	SystemInstruction string
	History           models.History
	Message           string
}

// ChatBackend sends a single grounded chat request to a generative model.
// Implementations return *GenerationError for failures they can classify.
type ChatBackend interface {
	SendChat(ctx context.Context, req ChatRequest) (string, error)
	Name() string
}

// GenerationParams are the sampling settings shared by every backend.
type GenerationParams struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

func ParamsFromConfig(cfg *config.Config) GenerationParams {
	return GenerationParams{
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// NewChatBackend builds the backend selected by LLM_PROVIDER.
func NewChatBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ChatBackend, error) {
	// The concrete constructors return typed pointers; a failed build must
	// come back as a nil interface.
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		backend, err := NewGeminiBackend(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.ProviderOllama, config.ProviderOpenAI:
		backend, err := NewLangchainBackend(cfg, logger)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
