package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/knowledge"
	"github/itish2003/ddqchat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAnswerService(backend ChatBackend, policy string) AnswerService {
	logger := zap.NewNop()
	return NewAnswerService(NewGroundedResolver(backend, time.Second, logger), policy, logger)
}

func TestAnswerExactMatchSkipsModel(t *testing.T) {
	backend := &stubBackend{reply: func(context.Context, ChatRequest) (string, error) {
		panic("model must not be called for an exact match")
	}}
	svc := newTestAnswerService(backend, config.PolicyAlways)

	for _, question := range []string{"who is the auditor", "Who is the Auditor?", "  WHO IS THE AUDITOR. "} {
		ans := svc.Answer(context.Background(), question, nil, knowledge.NewBase(auditorDoc))

		assert.Equal(t, "D & Partners CPA Limited", ans.Text, question)
		assert.True(t, ans.ExactMatch)
		assert.Equal(t, OutcomeExactHit, ans.Outcome)
	}
	assert.Equal(t, 0, backend.calls())
}

func TestAnswerMissUsesGroundedGeneration(t *testing.T) {
	backend := replyWith("The auditor issued an unqualified opinion.")
	svc := newTestAnswerService(backend, config.PolicyAlways)

	question := "who audits you annually and what did they find"
	ans := svc.Answer(context.Background(), question, models.History{models.UserTurn(question)}, knowledge.NewBase(auditorDoc))

	assert.Equal(t, "The auditor issued an unqualified opinion.", ans.Text)
	assert.False(t, ans.ExactMatch)
	assert.Equal(t, OutcomeGenerated, ans.Outcome)

	require.Equal(t, 1, backend.calls())
	req := backend.lastRequest()
	assert.Equal(t, question, req.Message)
	assert.Empty(t, req.History)
	assert.Contains(t, req.SystemInstruction, auditorDoc)
	assert.Contains(t, req.SystemInstruction, FallbackMessage)
}

func TestAnswerReturnsFallbackVerbatim(t *testing.T) {
	svc := newTestAnswerService(replyWith(FallbackMessage), config.PolicyAlways)

	ans := svc.Answer(context.Background(), "what is your favourite colour", nil, knowledge.NewBase(auditorDoc))

	assert.Equal(t, "I don't have that specific information in our DDQ documents. Please contact our Compliance Officer, Peter Lau, at peterlau@wmcubehk.com or +852 3854 6419 for more details.", ans.Text)
}

func TestAnswerReplaysHistoryInOrder(t *testing.T) {
	backend := replyWith("ok")
	svc := newTestAnswerService(backend, config.PolicyAlways)

	history := models.History{
		models.UserTurn("A"),
		models.AssistantTurn("B"),
		models.UserTurn("C"),
		models.AssistantTurn("D"),
		models.UserTurn("E"),
	}
	svc.Answer(context.Background(), "E", history, knowledge.NewBase(auditorDoc))

	req := backend.lastRequest()
	assert.Equal(t, models.History{
		models.UserTurn("A"),
		models.AssistantTurn("B"),
		models.UserTurn("C"),
		models.AssistantTurn("D"),
	}, req.History)
	assert.Equal(t, "E", req.Message)
}

func TestAnswerRendersGenerationFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		outcome Outcome
	}{
		{
			name:    "blocked",
			err:     &GenerationError{Kind: KindContentBlocked, Reason: "SAFETY"},
			want:    "Response was blocked: SAFETY. Please rephrase your question.",
			outcome: OutcomeBlocked,
		},
		{
			name:    "quota",
			err:     errors.New("429: quota exceeded for model"),
			want:    "API quota exceeded. Please try again later.",
			outcome: OutcomeFailed,
		},
		{
			name:    "credentials",
			err:     errors.New("API key not valid"),
			want:    "API key error. Please check the model API configuration.",
			outcome: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAnswerService(failWith(tt.err), config.PolicyAlways)

			ans := svc.Answer(context.Background(), "tell me about audits", nil, knowledge.NewBase(auditorDoc))

			assert.Equal(t, tt.want, ans.Text)
			assert.Equal(t, tt.outcome, ans.Outcome)
		})
	}
}

func TestAnswerUnknownFailureIncludesContact(t *testing.T) {
	svc := newTestAnswerService(failWith(errors.New("connection reset by peer")), config.PolicyAlways)

	ans := svc.Answer(context.Background(), "tell me about audits", nil, knowledge.NewBase(auditorDoc))

	assert.Contains(t, ans.Text, "connection reset by peer")
	assert.Contains(t, ans.Text, ComplianceContact)
	assert.Equal(t, OutcomeFailed, ans.Outcome)
}

func TestAnswerSurvivesPanickingModel(t *testing.T) {
	backend := &stubBackend{reply: func(context.Context, ChatRequest) (string, error) {
		panic("backend exploded")
	}}
	svc := newTestAnswerService(backend, config.PolicyAlways)

	var ans Answer
	require.NotPanics(t, func() {
		ans = svc.Answer(context.Background(), "tell me about audits", nil, knowledge.NewBase(auditorDoc))
	})
	assert.NotEmpty(t, ans.Text)
	assert.Equal(t, OutcomeFailed, ans.Outcome)
}

func TestAnswerWithoutBackend(t *testing.T) {
	svc := newTestAnswerService(nil, config.PolicyAlways)

	ans := svc.Answer(context.Background(), "who is the auditor", nil, knowledge.NewBase(auditorDoc))
	assert.Equal(t, "D & Partners CPA Limited", ans.Text)

	ans = svc.Answer(context.Background(), "who audits you", nil, knowledge.NewBase(auditorDoc))
	assert.Equal(t, "API key error. Please check the model API configuration.", ans.Text)
}

func TestAnswerNilBaseGoesToModel(t *testing.T) {
	backend := replyWith(FallbackMessage)
	svc := newTestAnswerService(backend, config.PolicyAlways)

	ans := svc.Answer(context.Background(), "who is the auditor", nil, nil)

	assert.Equal(t, FallbackMessage, ans.Text)
	assert.Equal(t, 1, backend.calls())
}

func TestFirstTurnPolicy(t *testing.T) {
	backend := replyWith("generated")
	svc := newTestAnswerService(backend, config.PolicyFirstTurn)
	base := knowledge.NewBase(auditorDoc)

	first := models.History{models.AssistantTurn(GreetingMessage), models.UserTurn("who is the auditor")}
	ans := svc.Answer(context.Background(), "who is the auditor", first, base)
	assert.True(t, ans.ExactMatch)

	later := models.History{
		models.AssistantTurn(GreetingMessage),
		models.UserTurn("where are you incorporated"),
		models.AssistantTurn("Hong Kong"),
		models.UserTurn("who is the auditor"),
	}
	ans = svc.Answer(context.Background(), "who is the auditor", later, base)
	assert.False(t, ans.ExactMatch)
	assert.Equal(t, "generated", ans.Text)
}

func TestUnknownPolicyDefaultsToAlways(t *testing.T) {
	svc := newTestAnswerService(replyWith("generated"), "sometimes")

	later := models.History{models.UserTurn("earlier"), models.AssistantTurn("reply")}
	ans := svc.Answer(context.Background(), "who is the auditor", later, knowledge.NewBase(auditorDoc))
	assert.True(t, ans.ExactMatch)
}
