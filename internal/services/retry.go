package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries nothing; callers opt in with upstream.max_retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

type retrier struct {
	config RetryConfig
	logger *logrus.Logger
}

func (r retrier) do(ctx context.Context, op string, operation func() error) error {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}
		if attempt >= r.config.MaxRetries || !retryable(err) {
			if attempt > 0 {
				return fmt.Errorf("%s failed after %d retries: %w", op, attempt, err)
			}
			return err
		}

		delay := time.Duration(float64(r.config.BaseDelay) * math.Pow(1.5, float64(attempt)))
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}

		r.logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
			"delay":     delay,
			"error":     err.Error(),
		}).Warn("Retrying upstream operation")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type retryingEmbedder struct {
	next Embedder
	r    retrier
}

func (e *retryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.r.do(ctx, "embed", func() error {
		var err error
		vec, err = e.next.Embed(ctx, text)
		return err
	})
	return vec, err
}

type retryingIndex struct {
	next VectorIndex
	r    retrier
}

func (i *retryingIndex) Query(ctx context.Context, q models.IndexQuery) ([]models.Match, error) {
	var matches []models.Match
	err := i.r.do(ctx, "query", func() error {
		var err error
		matches, err = i.next.Query(ctx, q)
		return err
	})
	return matches, err
}

type retryingCompleter struct {
	next ChatCompleter
	r    retrier
}

func (c *retryingCompleter) Complete(ctx context.Context, req models.ChatRequest) (string, error) {
	var text string
	err := c.r.do(ctx, "complete", func() error {
		var err error
		text, err = c.next.Complete(ctx, req)
		return err
	})
	return text, err
}

// WithRetryEmbedder wraps e with retry-with-backoff. With MaxRetries 0 it
// returns e unchanged.
func WithRetryEmbedder(e Embedder, config RetryConfig, logger *logrus.Logger) Embedder {
	if config.MaxRetries <= 0 {
		return e
	}
	return &retryingEmbedder{next: e, r: retrier{config: config, logger: logger}}
}

func WithRetryIndex(i VectorIndex, config RetryConfig, logger *logrus.Logger) VectorIndex {
	if config.MaxRetries <= 0 {
		return i
	}
	return &retryingIndex{next: i, r: retrier{config: config, logger: logger}}
}

func WithRetryCompleter(c ChatCompleter, config RetryConfig, logger *logrus.Logger) ChatCompleter {
	if config.MaxRetries <= 0 {
		return c
	}
	return &retryingCompleter{next: c, r: retrier{config: config, logger: logger}}
}
