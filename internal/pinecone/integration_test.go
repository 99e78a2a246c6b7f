//go:build integration

package pinecone

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestIntegration_RealAPI(t *testing.T) {
	apiKey := os.Getenv("PINECONE_API_KEY")
	indexName := os.Getenv("PINECONE_INDEX")

	if apiKey == "" || indexName == "" {
		t.Skip("PINECONE_API_KEY and PINECONE_INDEX required for integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	index, err := Connect(ctx, Config{
		APIKey:    apiKey,
		Host:      os.Getenv("PINECONE_HOST"),
		Index:     indexName,
		Namespace: os.Getenv("PINECONE_NAMESPACE"),
	}, logrus.New())
	require.NoError(t, err)
	defer index.Close()

	require.NoError(t, index.Ping(ctx))

	// text-embedding-3-small
	vector := make([]float32, 1536)
	vector[0] = 1

	_, err = index.Query(ctx, models.IndexQuery{Vector: vector, TopK: 3, IncludeMetadata: true})
	require.NoError(t, err)
}
