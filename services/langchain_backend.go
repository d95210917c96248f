package services

import (
	"context"
	"fmt"
	"strings"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangchainBackend serves grounded chats through a langchaingo model, used for
// the Ollama and OpenAI providers.
type LangchainBackend struct {
	llm    llms.Model
	name   string
	params GenerationParams
	logger *zap.Logger
}

func NewLangchainBackend(cfg *config.Config, logger *zap.Logger) (*LangchainBackend, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.ModelName),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY must be set", ErrModelUnavailable)
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.ModelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewLangchainBackendWithModel(model, cfg.LLMProvider+":"+cfg.ModelName, ParamsFromConfig(cfg), logger), nil
}

// NewLangchainBackendWithModel wraps an already constructed model.
func NewLangchainBackendWithModel(model llms.Model, name string, params GenerationParams, logger *zap.Logger) *LangchainBackend {
	return &LangchainBackend{
		llm:    model,
		name:   name,
		params: params,
		logger: logger,
	}
}

func (b *LangchainBackend) Name() string {
	return b.name
}

// SendChat implements ChatBackend
func (b *LangchainBackend) SendChat(ctx context.Context, req ChatRequest) (string, error) {
	b.logger.Debug("Sending grounded chat",
		zap.String("backend", b.name),
		zap.Int("history_turns", len(req.History)))

	response, err := b.llm.GenerateContent(ctx, langchainMessages(req),
		llms.WithTemperature(b.params.Temperature),
		llms.WithTopP(b.params.TopP),
		llms.WithTopK(b.params.TopK),
		llms.WithMaxTokens(b.params.MaxOutputTokens),
	)
	if err != nil {
		return "", classifyError(fmt.Errorf("generate content: %w", err))
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", &GenerationError{Kind: KindContentBlocked}
	}

	choice := response.Choices[0]
	if strings.EqualFold(choice.StopReason, "content_filter") {
		return "", &GenerationError{Kind: KindContentBlocked, Reason: choice.StopReason}
	}
	if strings.TrimSpace(choice.Content) == "" {
		return "", &GenerationError{Kind: KindContentBlocked, Reason: choice.StopReason}
	}
	return choice.Content, nil
}

func langchainMessages(req ChatRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.History)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction))
	for _, turn := range req.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Message))
	return messages
}
