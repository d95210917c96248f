package services

import (
	"context"
	"sync"
)

const auditorDoc = "\n**Question:**\nWho is the Auditor?\n**Answer:**\nD & Partners CPA Limited\n"

// stubBackend records every request and replies through reply.
type stubBackend struct {
	mu       sync.Mutex
	requests []ChatRequest
	reply    func(ctx context.Context, req ChatRequest) (string, error)
}

func replyWith(answer string) *stubBackend {
	return &stubBackend{reply: func(context.Context, ChatRequest) (string, error) { return answer, nil }}
}

func failWith(err error) *stubBackend {
	return &stubBackend{reply: func(context.Context, ChatRequest) (string, error) { return "", err }}
}

func (s *stubBackend) SendChat(ctx context.Context, req ChatRequest) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.reply(ctx, req)
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubBackend) lastRequest() ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}
