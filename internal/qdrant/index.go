// Package qdrant is the Qdrant-backed standards index, used instead of
// Pinecone when index.provider is "qdrant".
package qdrant

import (
	"context"
	"fmt"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const upsertBatchSize = 256

type Index struct {
	conn       *grpc.ClientConn
	points     qdrant.PointsClient
	service    qdrant.QdrantClient
	collection string
	apiKey     string
	logger     *logrus.Logger
}

// Connect dials the gRPC endpoint (6334, not the 6333 REST port).
func Connect(addr, collection, apiKey string, logger *logrus.Logger) (*Index, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial qdrant at %s: %w", addr, err)
	}

	return &Index{
		conn:       conn,
		points:     qdrant.NewPointsClient(conn),
		service:    qdrant.NewQdrantClient(conn),
		collection: collection,
		apiKey:     apiKey,
		logger:     logger,
	}, nil
}

// NewIndex builds an Index over existing clients.
func NewIndex(points qdrant.PointsClient, service qdrant.QdrantClient, collection string, logger *logrus.Logger) *Index {
	return &Index{
		points:     points,
		service:    service,
		collection: collection,
		logger:     logger,
	}
}

func (i *Index) Close() error {
	if i.conn == nil {
		return nil
	}
	return i.conn.Close()
}

func (i *Index) withAuth(ctx context.Context) context.Context {
	if i.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", i.apiKey)
}

func (i *Index) Query(ctx context.Context, q models.IndexQuery) ([]models.Match, error) {
	req := &qdrant.SearchPoints{
		CollectionName: i.collection,
		Vector:         q.Vector,
		Limit:          uint64(q.TopK),
		Filter:         BuildFilter(q.Filter),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: q.IncludeMetadata},
		},
	}

	resp, err := i.points.Search(i.withAuth(ctx), req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	matches := make([]models.Match, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		matches = append(matches, models.Match{
			ID:       pointID(point.GetId()),
			Score:    float64(point.GetScore()),
			Metadata: metadataFromPayload(point.GetPayload()),
		})
	}

	i.logger.WithFields(logrus.Fields{
		"top_k":   q.TopK,
		"matches": len(matches),
	}).Debug("Qdrant search completed")

	return matches, nil
}

func (i *Index) Upsert(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, ch := range chunks[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(ch.ID),
				Vectors: qdrant.NewVectors(ch.Vector...),
				Payload: payloadFromMetadata(ch.Metadata),
			})
		}

		resp, err := i.points.Upsert(i.withAuth(ctx), &qdrant.UpsertPoints{
			CollectionName: i.collection,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert batch at %d: %w", start, err)
		}

		status := resp.GetResult().GetStatus()
		if status != qdrant.UpdateStatus_Acknowledged && status != qdrant.UpdateStatus_Completed {
			return fmt.Errorf("qdrant upsert returned status %s", status)
		}
	}
	return nil
}

// DeleteSource removes every point seeded from source.
func (i *Index) DeleteSource(ctx context.Context, source string) error {
	wait := true
	_, err := i.points.Delete(i.withAuth(ctx), &qdrant.DeletePoints{
		CollectionName: i.collection,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatchKeywords(models.KeySource, source)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant delete of %s failed: %w", source, err)
	}
	return nil
}

func (i *Index) Ping(ctx context.Context) error {
	_, err := i.service.HealthCheck(i.withAuth(ctx), &qdrant.HealthCheckRequest{})
	return err
}

// BuildFilter ORs the standard-number keywords with full-text matches on
// section titles.
func BuildFilter(f *models.MetadataFilter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var should []*qdrant.Condition
	if len(f.StandardNumbers) > 0 {
		should = append(should, qdrant.NewMatchKeywords(models.KeyStandardNumber, f.StandardNumbers...))
	}
	for _, title := range f.SectionTitles {
		should = append(should, qdrant.NewMatchText(models.KeySectionTitle, title))
	}
	return &qdrant.Filter{Should: should}
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func metadataFromPayload(payload map[string]*qdrant.Value) models.Metadata {
	raw := make(map[string]interface{}, len(payload))
	for key, val := range payload {
		switch kind := val.GetKind().(type) {
		case *qdrant.Value_StringValue:
			raw[key] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			raw[key] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			raw[key] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			raw[key] = kind.BoolValue
		}
	}
	return models.MetadataFromMap(raw)
}

func payloadFromMetadata(md models.Metadata) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value)
	for key, val := range md.Map() {
		s, _ := val.(string)
		payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
	}
	return payload
}
