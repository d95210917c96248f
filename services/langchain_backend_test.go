package services

import (
	"context"
	"errors"
	"testing"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

type stubModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	response *llms.ContentResponse
	err      error
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	return m.response, m.err
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newStubLangchainBackend(model *stubModel) *LangchainBackend {
	return NewLangchainBackendWithModel(model, "stub", ParamsFromConfig(config.Defaults()), zap.NewNop())
}

func TestLangchainSendChat(t *testing.T) {
	model := &stubModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "answer"}}}}
	backend := newStubLangchainBackend(model)

	text, err := backend.SendChat(context.Background(), ChatRequest{
		SystemInstruction: "system",
		History:           models.History{models.UserTurn("A"), models.AssistantTurn("B")},
		Message:           "C",
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", text)

	require.Len(t, model.messages, 4)
	wantRoles := []llms.ChatMessageType{llms.ChatMessageTypeSystem, llms.ChatMessageTypeHuman, llms.ChatMessageTypeAI, llms.ChatMessageTypeHuman}
	wantText := []string{"system", "A", "B", "C"}
	for i, msg := range model.messages {
		assert.Equal(t, wantRoles[i], msg.Role)
		require.Len(t, msg.Parts, 1)
		assert.Equal(t, llms.TextContent{Text: wantText[i]}, msg.Parts[0])
	}

	assert.InDelta(t, 0.1, model.options.Temperature, 1e-9)
	assert.InDelta(t, 0.8, model.options.TopP, 1e-9)
	assert.Equal(t, 20, model.options.TopK)
	assert.Equal(t, 4096, model.options.MaxTokens)
}

func TestLangchainContentFilter(t *testing.T) {
	model := &stubModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{StopReason: "content_filter"}}}}

	_, err := newStubLangchainBackend(model).SendChat(context.Background(), ChatRequest{Message: "q"})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindContentBlocked, genErr.Kind)
	assert.Equal(t, "content_filter", genErr.Reason)
}

func TestLangchainEmptyResponse(t *testing.T) {
	model := &stubModel{response: &llms.ContentResponse{}}

	_, err := newStubLangchainBackend(model).SendChat(context.Background(), ChatRequest{Message: "q"})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindContentBlocked, genErr.Kind)
}

func TestLangchainClassifiesErrors(t *testing.T) {
	model := &stubModel{err: errors.New("429 Too Many Requests: rate limit exceeded")}

	_, err := newStubLangchainBackend(model).SendChat(context.Background(), ChatRequest{Message: "q"})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindQuotaExceeded, genErr.Kind)
}

func TestNewLangchainBackendRequiresOpenAIKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = config.ProviderOpenAI
	cfg.OpenAIAPIKey = ""

	_, err := NewLangchainBackend(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestNewChatBackendRejectsUnknownProvider(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "bedrock"

	_, err := NewChatBackend(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
