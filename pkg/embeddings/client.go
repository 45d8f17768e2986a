// Package embeddings hands chunk text to an external embedding service.
package embeddings

import (
	"context"
)

// Client turns text into vectors. Implementations live outside this module.
type Client interface {
	// EmbedDocuments generates embedding vectors for the given documents,
	// in input order
	EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error)
}

// NoopClient is used when embeddings are disabled
type NoopClient struct{}

// NewNoopClient creates a new NoopClient
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// EmbedDocuments returns nil, nil (no embeddings available)
func (c *NoopClient) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	return nil, nil
}
