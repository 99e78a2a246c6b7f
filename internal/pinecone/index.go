package pinecone

import (
	"context"
	"fmt"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	sdk "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/structpb"
)

// upsertBatchSize stays under Pinecone's 2MB request limit for
// 1536-dimension vectors with chunk text metadata.
const upsertBatchSize = 100

// Index adapts an SDK index connection to the retrieval and seeding
// interfaces.
type Index struct {
	conn   Conn
	host   string
	logger *logrus.Logger
}

func NewIndex(conn Conn, logger *logrus.Logger) *Index {
	return &Index{
		conn:   conn,
		logger: logger,
	}
}

// Host is the data-plane host, empty when the Index was built over an
// existing connection.
func (i *Index) Host() string {
	return i.host
}

func (i *Index) Close() error {
	return i.conn.Close()
}

func (i *Index) Query(ctx context.Context, q models.IndexQuery) ([]models.Match, error) {
	filter := BuildFilter(q.Filter)

	resp, err := i.conn.QueryByVectorValues(ctx, &sdk.QueryByVectorValuesRequest{
		Vector:          q.Vector,
		TopK:            uint32(q.TopK),
		MetadataFilter:  filter,
		IncludeMetadata: q.IncludeMetadata,
	})
	if err != nil {
		return nil, wrapError("query", err)
	}

	matches := make([]models.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := models.Match{
			ID:    m.Vector.Id,
			Score: float64(m.Score),
		}
		if m.Vector.Metadata != nil {
			match.Metadata = models.MetadataFromMap(m.Vector.Metadata.AsMap())
		}
		matches = append(matches, match)
	}

	i.logger.WithFields(logrus.Fields{
		"top_k":   q.TopK,
		"matches": len(matches),
		"filter":  filter != nil,
	}).Debug("Pinecone query completed")

	return matches, nil
}

func (i *Index) Upsert(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		vectors := make([]*sdk.Vector, 0, end-start)
		for _, ch := range chunks[start:end] {
			values := ch.Vector
			vectors = append(vectors, &sdk.Vector{
				Id:       ch.ID,
				Values:   &values,
				Metadata: metadataStruct(ch.Metadata),
			})
		}

		count, err := i.conn.UpsertVectors(ctx, vectors)
		if err != nil {
			return fmt.Errorf("failed to upsert batch at %d: %w", start, wrapError("upsert", err))
		}

		i.logger.WithFields(logrus.Fields{
			"batch_start": start,
			"upserted":    count,
		}).Debug("Upserted vectors")
	}
	return nil
}

// DeleteSource removes every vector seeded from source.
func (i *Index) DeleteSource(ctx context.Context, source string) error {
	filter := &structpb.Struct{Fields: map[string]*structpb.Value{
		models.KeySource: structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"$eq": structpb.NewStringValue(source),
		}}),
	}}
	if err := i.conn.DeleteVectorsByFilter(ctx, filter); err != nil {
		return wrapError("delete "+source, err)
	}
	return nil
}

func (i *Index) Ping(ctx context.Context) error {
	_, err := i.conn.DescribeIndexStats(ctx)
	return wrapError("describe index stats", err)
}

// BuildFilter translates a metadata filter to Pinecone's filter language.
// Pinecone has no substring operator, so section titles match exactly.
func BuildFilter(f *models.MetadataFilter) *sdk.MetadataFilter {
	if f.IsEmpty() {
		return nil
	}

	var clauses []*structpb.Value
	if len(f.StandardNumbers) > 0 {
		clauses = append(clauses, inClause(models.KeyStandardNumber, f.StandardNumbers))
	}
	if len(f.SectionTitles) > 0 {
		clauses = append(clauses, inClause(models.KeySectionTitle, f.SectionTitles))
	}

	if len(clauses) == 1 {
		return clauses[0].GetStructValue()
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"$or": structpb.NewListValue(&structpb.ListValue{Values: clauses}),
	}}
}

func inClause(key string, values []string) *structpb.Value {
	list := make([]*structpb.Value, len(values))
	for i, v := range values {
		list[i] = structpb.NewStringValue(v)
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		key: structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"$in": structpb.NewListValue(&structpb.ListValue{Values: list}),
		}}),
	}})
}

func metadataStruct(md models.Metadata) *sdk.Metadata {
	fields := make(map[string]*structpb.Value)
	for key, val := range md.Map() {
		s, _ := val.(string)
		fields[key] = structpb.NewStringValue(s)
	}
	return &structpb.Struct{Fields: fields}
}
