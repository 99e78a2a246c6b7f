package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:     "sk-test",
		BaseURL:    server.URL + "/v1",
		EmbedModel: "text-embedding-3-small",
		ChatModel:  "gpt-3.5-turbo",
	}, logrus.New())
}

func TestClient_EmbedBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		]}`))
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestClient_Complete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body struct {
			Model       string               `json:"model"`
			Messages    []models.ChatMessage `json:"messages"`
			Temperature float32              `json:"temperature"`
			MaxTokens   int                  `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body.Model)
		assert.Len(t, body.Messages, 2)
		assert.Equal(t, models.RoleSystem, body.Messages[0].Role)
		assert.Equal(t, 800, body.MaxTokens)
		assert.Less(t, body.Temperature, float32(0.001))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[
			{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Murabaha is a cost-plus sale (Standard 8, Section 2).  "}}
		],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	answer, err := client.Complete(context.Background(), models.ChatRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "rules"},
			{Role: models.RoleUser, Content: "question"},
		},
		MaxTokens: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, "Murabaha is a cost-plus sale (Standard 8, Section 2).", answer)
}

func TestClient_ErrorHandling(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	})

	_, err := client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, http.StatusUnauthorized, llmErr.StatusCode)
	assert.False(t, llmErr.Retryable())
}

func TestClient_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), models.ChatRequest{})
	assert.ErrorContains(t, err, "no choices returned")
}
