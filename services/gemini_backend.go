package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiBackend replays the conversation into a fresh genai chat per call,
// so no server-side chat state outlives a request.
type GeminiBackend struct {
	client *genai.Client
	model  string
	params GenerationParams
	logger *zap.Logger
}

func NewGeminiBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*GeminiBackend, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY or GOOGLE_API_KEY must be set", ErrModelUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrModelUnavailable, err)
	}

	return &GeminiBackend{
		client: client,
		model:  cfg.ModelName,
		params: ParamsFromConfig(cfg),
		logger: logger,
	}, nil
}

func (g *GeminiBackend) Name() string {
	return "gemini:" + g.model
}

// SendChat implements ChatBackend
func (g *GeminiBackend) SendChat(ctx context.Context, req ChatRequest) (string, error) {
	g.logger.Debug("Sending grounded chat to Gemini",
		zap.String("model", g.model),
		zap.Int("history_turns", len(req.History)))

	chat, err := g.client.Chats.Create(ctx, g.model, g.contentConfig(req.SystemInstruction), geminiHistory(req.History))
	if err != nil {
		return "", classifyGeminiError(fmt.Errorf("could not start chat session: %w", err))
	}

	result, err := chat.SendMessage(ctx, genai.Part{Text: req.Message})
	if err != nil {
		return "", classifyGeminiError(fmt.Errorf("gemini api call failed: %w", err))
	}
	return geminiResponseText(result)
}

func (g *GeminiBackend) contentConfig(systemInstruction string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.params.Temperature)),
		TopP:              genai.Ptr(float32(g.params.TopP)),
		TopK:              genai.Ptr(float32(g.params.TopK)),
		MaxOutputTokens:   int32(g.params.MaxOutputTokens),
		SafetySettings:    geminiSafetySettings(),
	}
}

func geminiSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

// geminiHistory converts prior turns; the assistant role is "model" on the wire.
func geminiHistory(history models.History) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return contents
}

func geminiResponseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", &GenerationError{Kind: KindContentBlocked}
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", &GenerationError{Kind: KindContentBlocked, Reason: string(result.PromptFeedback.BlockReason)}
	}
	if len(result.Candidates) == 0 {
		return "", &GenerationError{Kind: KindContentBlocked}
	}

	candidate := result.Candidates[0]
	var responseText strings.Builder
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			if p != nil && p.Text != "" {
				responseText.WriteString(p.Text)
			}
		}
	}

	if responseText.Len() == 0 {
		reason := string(candidate.FinishReason)
		if candidate.FinishReason == genai.FinishReasonStop {
			reason = ""
		}
		return "", &GenerationError{Kind: KindContentBlocked, Reason: reason}
	}
	return responseText.String(), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return classifyError(err)
		}
		apiErr = *apiErrPtr
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &GenerationError{Kind: KindModelUnavailable, Reason: apiErr.Message, Err: err}
	case http.StatusTooManyRequests:
		return &GenerationError{Kind: KindQuotaExceeded, Reason: apiErr.Message, Err: err}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &GenerationError{Kind: KindTimeout, Reason: apiErr.Message, Err: err}
	}
	return classifyError(err)
}
