// Package pinecone is the Pinecone-backed standards index, built on the
// official Go SDK.
package pinecone

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Config struct {
	APIKey string
	// Host is the data-plane host. When empty it is looked up by Index
	// through the control plane.
	Host      string
	Index     string
	Namespace string
	// ControlURL overrides the control-plane endpoint.
	ControlURL string
}

// Conn is the part of the SDK index connection the Index uses.
type Conn interface {
	QueryByVectorValues(ctx context.Context, in *sdk.QueryByVectorValuesRequest) (*sdk.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, in []*sdk.Vector) (uint32, error)
	DeleteVectorsByFilter(ctx context.Context, filter *sdk.MetadataFilter) error
	DescribeIndexStats(ctx context.Context) (*sdk.DescribeIndexStatsResponse, error)
	Close() error
}

// APIError wraps a failed Pinecone call.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone %s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed. Data-plane
// calls fail with gRPC status codes.
func (e *APIError) Retryable() bool {
	switch status.Code(e.Err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	}
	return false
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Op: op, Err: err}
}

// Connect opens a data-plane connection to the configured index, resolving
// its host first when none is set.
func Connect(ctx context.Context, cfg Config, logger *logrus.Logger) (*Index, error) {
	client, err := sdk.NewClient(sdk.NewClientParams{
		ApiKey: cfg.APIKey,
		Host:   cfg.ControlURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		desc, err := client.DescribeIndex(ctx, cfg.Index)
		if err != nil {
			return nil, wrapError("describe index "+cfg.Index, err)
		}
		if desc.Host == "" {
			return nil, fmt.Errorf("index %s has no host yet", cfg.Index)
		}
		host = desc.Host

		logger.WithFields(logrus.Fields{
			"index": cfg.Index,
			"host":  host,
		}).Info("Resolved Pinecone index host")
	}

	conn, err := client.Index(sdk.NewIndexConnParams{
		Host:      host,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index at %s: %w", host, err)
	}

	idx := NewIndex(conn, logger)
	idx.host = host
	return idx, nil
}
