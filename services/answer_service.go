package services

import (
	"context"
	"errors"
	"fmt"

	"github/itish2003/ddqchat/config"
	"github/itish2003/ddqchat/knowledge"
	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
)

// Outcome records which path produced an answer.
type Outcome int

const (
	OutcomeExactHit Outcome = iota
	OutcomeGenerated
	OutcomeBlocked
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExactHit:
		return "exact_hit"
	case OutcomeGenerated:
		return "generated"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// Answer is the text shown to the user plus how it was produced.
type Answer struct {
	Text       string
	ExactMatch bool
	Outcome    Outcome
}

// AnswerService interface defines the hybrid answering operation
type AnswerService interface {
	// Answer always returns displayable text. Failures are rendered into the
	// text, never returned or panicked.
	Answer(ctx context.Context, question string, history models.History, base *knowledge.Base) Answer
}

// answerServiceImpl holds the dependencies it needs to do its job
type answerServiceImpl struct {
	resolver *GroundedResolver
	policy   string
	logger   *zap.Logger
}

// NewAnswerService creates the hybrid answer service. policy is one of
// config.PolicyAlways or config.PolicyFirstTurn.
func NewAnswerService(resolver *GroundedResolver, policy string, logger *zap.Logger) AnswerService {
	if policy != config.PolicyFirstTurn {
		policy = config.PolicyAlways
	}
	return &answerServiceImpl{
		resolver: resolver,
		policy:   policy,
		logger:   logger,
	}
}

// Answer implements AnswerService
func (s *answerServiceImpl) Answer(ctx context.Context, question string, history models.History, base *knowledge.Base) (ans Answer) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Answer generation panicked", zap.Any("panic", rec))
			ans = Answer{Text: genericFailureMessage(fmt.Errorf("%v", rec)), Outcome: OutcomeFailed}
		}
	}()

	normalized := knowledge.Normalize(question)
	if s.exactMatchEligible(question, history) {
		if stored, ok := base.Lookup(normalized); ok {
			s.logger.Info("Exact match found", zap.String("question", normalized))
			return Answer{Text: stored, ExactMatch: true, Outcome: OutcomeExactHit}
		}
	}
	s.logger.Debug("No exact match, using grounded generation", zap.String("question", normalized))

	var groundingText string
	if base != nil {
		groundingText = base.Text
	}

	text, err := s.resolver.Resolve(ctx, GenerationRequest{
		GroundingText: groundingText,
		Rules:         GroundingRules,
		History:       history,
		Question:      question,
	})
	if err != nil {
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			return Answer{Text: genericFailureMessage(err), Outcome: OutcomeFailed}
		}
		outcome := OutcomeFailed
		if genErr.Kind == KindContentBlocked {
			outcome = OutcomeBlocked
		}
		return Answer{Text: genErr.UserMessage(), Outcome: outcome}
	}

	return Answer{Text: text, Outcome: OutcomeGenerated}
}

// exactMatchEligible applies the exact-match policy. Under first-turn only a
// conversation with no earlier user question may short-circuit.
func (s *answerServiceImpl) exactMatchEligible(question string, history models.History) bool {
	if s.policy != config.PolicyFirstTurn {
		return true
	}
	prior := history.Compact()
	if last, ok := prior.Last(); ok && last.Role == models.RoleUser && last.Content == question {
		prior = prior[:len(prior)-1]
	}
	return prior.QuestionsAsked() == 0
}
