// Package llm talks to the OpenAI-compatible API used for both embeddings
// and chat completions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	ChatModel  string
}

type Client struct {
	api        *openai.Client
	embedModel string
	chatModel  string
	logger     *logrus.Logger
}

// Error wraps a provider failure and tells the retry layer whether it is
// worth repeating.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		api:        openai.NewClientWithConfig(clientConfig),
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
		logger:     logger,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one call; the result is in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, wrapError("embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &Error{Op: "embedding request failed", Err: fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))}
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || len(d.Embedding) == 0 {
			return nil, &Error{Op: "embedding request failed", Err: fmt.Errorf("malformed embedding at index %d", d.Index)}
		}
		vectors[d.Index] = d.Embedding
	}

	c.logger.WithFields(logrus.Fields{
		"model":     c.embedModel,
		"inputs":    len(texts),
		"dimension": len(vectors[0]),
	}).Debug("Embeddings created")

	return vectors, nil
}

func (c *Client) Complete(ctx context.Context, req models.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		// the request field is omitempty, and an omitted temperature means 1
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", wrapError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Op: "chat completion failed", Err: errors.New("no choices returned")}
	}

	c.logger.WithFields(logrus.Fields{
		"model":             c.chatModel,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"finish_reason":     resp.Choices[0].FinishReason,
	}).Debug("Chat completion received")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Ping lists models, which is free and checks the key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return wrapError("list models failed", err)
	}
	return nil
}

func wrapError(op string, err error) error {
	wrapped := &Error{Op: op, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		wrapped.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		wrapped.StatusCode = reqErr.HTTPStatusCode
	}
	return wrapped
}
