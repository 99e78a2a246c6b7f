// Package index opens the vector index selected by index.provider.
package index

import (
	"context"
	"fmt"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/config"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/pinecone"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/qdrant"
	"github.com/sirupsen/logrus"
)

// Index is what both binaries need from a standards index.
type Index interface {
	Query(ctx context.Context, q models.IndexQuery) ([]models.Match, error)
	Upsert(ctx context.Context, chunks []models.Chunk) error
	DeleteSource(ctx context.Context, source string) error
	Ping(ctx context.Context) error
}

// Open connects to the configured provider. On success the returned close
// function is non-nil; on error both the index and the close function are
// nil.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Index, func() error, error) {
	switch cfg.Index.Provider {
	case config.ProviderPinecone:
		idx, err := pinecone.Connect(ctx, pinecone.Config{
			APIKey:    cfg.Pinecone.APIKey,
			Host:      cfg.Pinecone.Host,
			Index:     cfg.Pinecone.Index,
			Namespace: cfg.Pinecone.Namespace,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open pinecone index %s: %w", cfg.Pinecone.Index, err)
		}
		logger.WithFields(logrus.Fields{
			"host":      idx.Host(),
			"namespace": cfg.Pinecone.Namespace,
		}).Info("Using Pinecone index")
		return idx, idx.Close, nil

	case config.ProviderQdrant:
		idx, err := qdrant.Connect(cfg.Qdrant.Addr, cfg.Qdrant.Collection, cfg.Qdrant.APIKey, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.WithFields(logrus.Fields{
			"addr":       cfg.Qdrant.Addr,
			"collection": cfg.Qdrant.Collection,
		}).Info("Using Qdrant index")
		return idx, idx.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
}
