package ingest

import (
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/domain/chunking"
	"github.com/emergent-company/lims-pipeline/domain/chunks"
	"github.com/emergent-company/lims-pipeline/domain/documents"
	"github.com/emergent-company/lims-pipeline/domain/lookup"
	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/internal/storage"
	"github.com/emergent-company/lims-pipeline/internal/tracker"
	"github.com/emergent-company/lims-pipeline/pkg/embeddings"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Module provides the pipeline service. It expects config, storage,
// tracker and embeddings to be provided; the database is only required by
// the postgres sink.
var Module = fx.Module("ingest",
	fx.Provide(
		NewLookupIndex,
		NewSink,
		NewServiceFromConfig,
	),
)

// NewLookupIndex loads the configured catalogue, or returns nil when none
// is configured.
func NewLookupIndex(cfg *config.Config, log *slog.Logger) (*lookup.Index, error) {
	if cfg.Ingest.LookupPath == "" {
		return nil, nil
	}
	ix, err := lookup.Load(cfg.Ingest.LookupPath)
	if err != nil {
		return nil, err
	}
	log.With(logger.Scope("ingest")).Info("lookup catalogue loaded",
		slog.String("path", cfg.Ingest.LookupPath),
		slog.Int("entries", ix.Len()),
		slog.Int("skipped", ix.Skipped),
	)
	return ix, nil
}

// SinkParams are the fx dependencies of NewSink.
type SinkParams struct {
	fx.In
	Cfg    *config.Config
	Log    *slog.Logger
	DB     bun.IDB               `optional:"true"`
	Docs   *documents.Repository `optional:"true"`
	Chunks *chunks.Repository    `optional:"true"`
}

// NewSink builds the configured sink.
func NewSink(p SinkParams) (Sink, error) {
	switch p.Cfg.Ingest.Sink {
	case "", "none":
		return NoopSink{}, nil
	case "postgres":
		if p.DB == nil {
			return nil, fmt.Errorf("sink postgres requires a database")
		}
		docs, chunkRepo := p.Docs, p.Chunks
		if docs == nil {
			docs = documents.NewRepository(p.DB, p.Log)
		}
		if chunkRepo == nil {
			chunkRepo = chunks.NewRepository(p.DB, p.Log)
		}
		return NewPostgresSink(p.DB, docs, chunkRepo, p.Log), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", p.Cfg.Ingest.Sink)
	}
}

// ServiceParams are the fx dependencies of NewServiceFromConfig.
type ServiceParams struct {
	fx.In
	Cfg      *config.Config
	Log      *slog.Logger
	Source   storage.Source
	Tracker  tracker.Tracker
	Embedder *embeddings.Service
	Sink     Sink
	Index    *lookup.Index `optional:"true"`
}

// NewServiceFromConfig builds the Service from configuration.
func NewServiceFromConfig(p ServiceParams) *Service {
	return NewService(p.Source, p.Tracker, p.Embedder, p.Sink, p.Index, Options{
		Workers:   p.Cfg.Ingest.Workers,
		Force:     p.Cfg.Ingest.Force,
		Languages: p.Cfg.Ingest.Languages,
		Chunking: chunking.Options{
			MaxTokens:     p.Cfg.Chunking.MaxTokens,
			OverlapTokens: p.Cfg.Chunking.OverlapTokens,
		},
	}, p.Log)
}
