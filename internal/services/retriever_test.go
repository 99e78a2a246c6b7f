package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(matches []models.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out
}

func TestSelectMatches(t *testing.T) {
	raw := []models.Match{
		match("a", "1", 0.91),
		match("b", "2", 0.90),
		match("c", "1", 0.80),
		match("d", "3", 0.70),
		match("e", "2", 0.60),
		match("f", "4", 0.50),
		match("g", "2", 0.40),
	}

	tests := []struct {
		name      string
		standard  string
		threshold float64
		want      []string
	}{
		{"caps at five", "", 0, []string{"a", "b", "c", "d", "e"}},
		{"prefers standard", "2", 0, []string{"b", "e", "g"}},
		{"falls back when standard absent", "9", 0, []string{"a", "b", "c", "d", "e"}},
		{"threshold first", "", 0.65, []string{"a", "b", "c", "d"}},
		{"threshold before preference", "2", 0.65, []string{"b"}},
		{"threshold removes preferred", "4", 0.65, []string{"a", "b", "c", "d"}},
		{"threshold removes all", "", 0.95, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SelectMatches(raw, tt.standard, tt.threshold)))
		})
	}
}

func TestSelectMatches_CapsPreferredToo(t *testing.T) {
	var raw []models.Match
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		raw = append(raw, match(id, "7", 0.5))
	}
	assert.Len(t, SelectMatches(raw, "7", 0), MaxMatches)
}

func TestRetriever_Retrieve(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 2}}
	index := &stubIndex{matches: []models.Match{match("a", "2", 0.9), match("b", "3", 0.8)}}
	r := NewRetriever(embedder, index, RetrieverConfig{TopK: 15}, testLogger())

	filter := &models.MetadataFilter{StandardNumbers: []string{"2"}}
	got, err := r.Retrieve(context.Background(), Normalize("standard 2"), filter)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(got))
	assert.Equal(t, []string{"What is AAOIFI Standard 2 about?"}, embedder.texts)
	require.Len(t, index.queries, 1)
	q := index.queries[0]
	assert.Equal(t, []float32{1, 2}, q.Vector)
	assert.Equal(t, 15, q.TopK)
	assert.True(t, q.IncludeMetadata)
	assert.Same(t, filter, q.Filter)
}

func TestRetriever_EmptyFilterIsDropped(t *testing.T) {
	index := &stubIndex{}
	r := NewRetriever(&stubEmbedder{}, index, RetrieverConfig{}, testLogger())

	got, err := r.Retrieve(context.Background(), Normalize("q"), &models.MetadataFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, index.queries[0].Filter)
	assert.Equal(t, 15, index.queries[0].TopK)
}

func TestRetriever_UpstreamErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	embedder := &stubEmbedder{err: boom}
	index := &stubIndex{}
	_, err := NewRetriever(embedder, index, RetrieverConfig{}, testLogger()).Retrieve(context.Background(), Normalize("q"), nil)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "embed", ue.Op)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, index.calls)

	_, err = NewRetriever(&stubEmbedder{}, &stubIndex{err: boom}, RetrieverConfig{}, testLogger()).Retrieve(context.Background(), Normalize("q"), nil)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "query", ue.Op)
	assert.Equal(t, "query: quota exceeded", err.Error())
}
