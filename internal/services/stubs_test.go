package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubEmbedder struct {
	mu     sync.Mutex
	calls  int
	texts  []string
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	if s.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return s.vector, nil
}

type stubIndex struct {
	mu      sync.Mutex
	calls   int
	queries []models.IndexQuery
	matches []models.Match
	err     error
}

func (s *stubIndex) Query(_ context.Context, q models.IndexQuery) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

type stubChat struct {
	mu       sync.Mutex
	calls    int
	requests []models.ChatRequest
	replies  []string
	err      error
}

func (s *stubChat) Complete(_ context.Context, req models.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "answer", nil
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	err     error
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubCache) GetAnswer(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *stubCache) SetAnswer(_ context.Context, key, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries[key] = answer
	s.ttls[key] = ttl
	return nil
}

type stubRuleSource struct {
	filters []models.TopicFilter
	err     error
}

func (s *stubRuleSource) GetActive() ([]models.TopicFilter, error) {
	return s.filters, s.err
}

func match(id, std string, score float64) models.Match {
	return models.Match{
		ID:    id,
		Score: score,
		Metadata: models.Metadata{
			StandardNumber: std,
			StandardName:   "Standard " + std + " name",
			SectionNumber:  "1",
			SectionTitle:   "Scope",
			ChunkText:      "text of " + id,
		},
	}
}
