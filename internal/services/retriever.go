package services

import (
	"context"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// MaxMatches caps how many excerpts reach the prompt.
const MaxMatches = 5

type RetrieverConfig struct {
	TopK           int
	ScoreThreshold float64
}

type Retriever struct {
	embedder Embedder
	index    VectorIndex
	config   RetrieverConfig
	logger   *logrus.Logger
}

func NewRetriever(embedder Embedder, index VectorIndex, config RetrieverConfig, logger *logrus.Logger) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 15
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		config:   config,
		logger:   logger,
	}
}

// Retrieve embeds the query, searches the index and applies SelectMatches.
// An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, q NormalizedQuery, filter *models.MetadataFilter) ([]models.Match, error) {
	vector, err := r.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, upstream("embed", err)
	}

	query := models.IndexQuery{
		Vector:          vector,
		TopK:            r.config.TopK,
		IncludeMetadata: true,
	}
	if !filter.IsEmpty() {
		query.Filter = filter
	}

	raw, err := r.index.Query(ctx, query)
	if err != nil {
		return nil, upstream("query", err)
	}

	matches := SelectMatches(raw, q.StandardNumber, r.config.ScoreThreshold)

	r.logger.WithFields(logrus.Fields{
		"top_k":           r.config.TopK,
		"raw_matches":     len(raw),
		"matches":         len(matches),
		"standard_number": q.StandardNumber,
		"filtered":        query.Filter != nil,
	}).Debug("Retrieval completed")

	return matches, nil
}

// SelectMatches post-filters index results, keeping index order:
// drop matches below threshold, then prefer those from standardNumber
// (falling back to all remaining when none match), then cap at MaxMatches.
func SelectMatches(raw []models.Match, standardNumber string, threshold float64) []models.Match {
	kept := make([]models.Match, 0, len(raw))
	for _, m := range raw {
		if threshold > 0 && m.Score < threshold {
			continue
		}
		kept = append(kept, m)
	}

	if standardNumber != "" {
		var preferred []models.Match
		for _, m := range kept {
			if m.Metadata.StandardNumber == standardNumber {
				preferred = append(preferred, m)
			}
		}
		if len(preferred) > 0 {
			kept = preferred
		}
	}

	if len(kept) > MaxMatches {
		kept = kept[:MaxMatches]
	}
	return kept
}
