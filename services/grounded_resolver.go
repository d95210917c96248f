package services

import (
	"context"
	"errors"
	"time"

	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
)

// DefaultGenerationTimeout bounds a single generation call.
const DefaultGenerationTimeout = 45 * time.Second

// GenerationRequest is everything the model is allowed to see for one answer.
type GenerationRequest struct {
	GroundingText string
	Rules         []string
	History       models.History
	Question      string
}

// GroundedResolver answers questions that have no exact match by asking the
// model, restricted to the grounding text.
type GroundedResolver struct {
	backend ChatBackend
	timeout time.Duration
	logger  *zap.Logger
}

func NewGroundedResolver(backend ChatBackend, timeout time.Duration, logger *zap.Logger) *GroundedResolver {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GroundedResolver{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve runs one generation call. Every failure is returned as a
// *GenerationError.
func (r *GroundedResolver) Resolve(ctx context.Context, req GenerationRequest) (string, error) {
	if r.backend == nil {
		return "", &GenerationError{Kind: KindModelUnavailable, Err: ErrModelUnavailable}
	}

	chatReq := buildChatRequest(req)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	answer, err := r.backend.SendChat(ctx, chatReq)
	if err != nil {
		genErr := classifyError(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			genErr = &GenerationError{Kind: KindTimeout, Err: err}
		}
		r.logger.Warn("Grounded generation failed",
			zap.String("backend", r.backend.Name()),
			zap.Stringer("kind", genErr.Kind),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", genErr
	}

	r.logger.Debug("Grounded generation completed",
		zap.String("backend", r.backend.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return answer, nil
}

// buildChatRequest splits the compacted history into prior turns and the live
// message. The question is appended when the history does not already end
// with it.
func buildChatRequest(req GenerationRequest) ChatRequest {
	turns := req.History.Compact()
	if last, ok := turns.Last(); !ok || last.Role != models.RoleUser || last.Content != req.Question {
		turns = append(turns, models.UserTurn(req.Question))
	}

	n := len(turns)
	return ChatRequest{
		SystemInstruction: BuildSystemPrompt(req.GroundingText, req.Rules),
		History:           turns[:n-1],
		Message:           turns[n-1].Content,
	}
}
