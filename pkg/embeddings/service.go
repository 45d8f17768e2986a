package embeddings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Module provides the embeddings fx.Module. A real Client may be supplied
// by the host application; otherwise the noop client is used.
var Module = fx.Module("embeddings",
	fx.Provide(NewService),
)

// ServiceParams are the fx dependencies of Service
type ServiceParams struct {
	fx.In
	Cfg    *config.Config
	Log    *slog.Logger
	Client Client `optional:"true"`
}

// Service batches embedding requests
type Service struct {
	client    Client
	log       *slog.Logger
	enabled   bool
	batchSize int
}

// NewService creates a new embeddings service
func NewService(p ServiceParams) *Service {
	log := p.Log.With(logger.Scope("embeddings"))
	if !p.Cfg.Embeddings.Enabled || p.Client == nil {
		log.Info("embeddings disabled - chunks are handed off without vectors")
		return NewNoopService(log)
	}
	return NewServiceWithClient(p.Client, p.Cfg.Embeddings.BatchSize, log)
}

// NewServiceWithClient wraps an explicit client
func NewServiceWithClient(client Client, batchSize int, log *slog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Service{client: client, log: log, enabled: true, batchSize: batchSize}
}

// NewNoopService creates a service with a noop client
func NewNoopService(log *slog.Logger) *Service {
	return &Service{client: NewNoopClient(), log: log, enabled: false, batchSize: 1}
}

// IsEnabled reports whether vectors will be produced
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// Embed returns one vector per text, or nil when disabled.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !s.enabled || len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i, batch := range lo.Chunk(texts, s.batchSize) {
		vecs, err := s.client.EmbedDocuments(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embed batch %d: got %d vectors for %d texts", i, len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	s.log.Debug("embedded chunks", slog.Int("count", len(out)))
	return out, nil
}
