package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a generation call produced no answer.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindModelUnavailable
	KindContentBlocked
	KindTimeout
	KindQuotaExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindModelUnavailable:
		return "model_unavailable"
	case KindContentBlocked:
		return "content_blocked"
	case KindTimeout:
		return "timeout"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "unknown_generation_failure"
	}
}

// ErrModelUnavailable is returned when the generative backend has no usable
// credentials or configuration.
var ErrModelUnavailable = errors.New("model unavailable")

// GenerationError is the typed failure of a grounded generation call.
type GenerationError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	default:
		return e.Kind.String()
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user in place of an answer.
func (e *GenerationError) UserMessage() string {
	switch e.Kind {
	case KindContentBlocked:
		reason := e.Reason
		if reason == "" {
			reason = "Unknown reason"
		}
		return fmt.Sprintf("Response was blocked: %s. Please rephrase your question.", reason)
	case KindTimeout:
		return "Request timed out. Please try again, or contact " + ComplianceContact + "."
	case KindModelUnavailable:
		return "API key error. Please check the model API configuration."
	case KindQuotaExceeded:
		return "API quota exceeded. Please try again later."
	default:
		detail := e.Reason
		if detail == "" && e.Err != nil {
			detail = e.Err.Error()
		}
		return fmt.Sprintf("An unexpected error occurred: %s\nPlease contact %s for assistance.", detail, ComplianceContact)
	}
}

// classifyError maps a backend failure onto the error taxonomy. Errors that
// are already classified pass through unchanged.
func classifyError(err error) *GenerationError {
	if err == nil {
		return nil
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &GenerationError{Kind: KindTimeout, Err: err}
	case errors.Is(err, ErrModelUnavailable):
		return &GenerationError{Kind: KindModelUnavailable, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return &GenerationError{Kind: KindTimeout, Err: err}
	case strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "permission denied"):
		return &GenerationError{Kind: KindModelUnavailable, Err: err}
	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit") ||
		strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "resource_exhausted"):
		return &GenerationError{Kind: KindQuotaExceeded, Err: err}
	}
	return &GenerationError{Kind: KindUnknown, Reason: err.Error(), Err: err}
}

// genericFailureMessage is used when an answer could not be produced for a
// reason outside the generation taxonomy.
func genericFailureMessage(err error) string {
	return fmt.Sprintf("Sorry, something went wrong while generating the answer: %v\nPlease contact %s for assistance.", err, ComplianceContact)
}
