package services

import (
	"context"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers nearest-neighbour queries against the standards index.
type VectorIndex interface {
	Query(ctx context.Context, q models.IndexQuery) ([]models.Match, error)
}

// ChatCompleter runs one chat completion and returns the reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, req models.ChatRequest) (string, error)
}

// AnswerCache stores finished answers. Implementations report a miss as
// ("", false, nil).
type AnswerCache interface {
	GetAnswer(ctx context.Context, key string) (string, bool, error)
	SetAnswer(ctx context.Context, key, answer string, ttl time.Duration) error
}

// TopicRuleSource supplies topic rules, typically from the database.
type TopicRuleSource interface {
	GetActive() ([]models.TopicFilter, error)
}
