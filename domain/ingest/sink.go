package ingest

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/domain/chunking"
	"github.com/emergent-company/lims-pipeline/domain/chunks"
	"github.com/emergent-company/lims-pipeline/domain/documents"
	"github.com/emergent-company/lims-pipeline/domain/legislation"
	"github.com/emergent-company/lims-pipeline/internal/database"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Batch is the hand-off for one document in one language.
type Batch struct {
	Document *legislation.Document
	// Chunks are the chunks not yet marked by the tracker.
	Chunks []chunking.Chunk
	// Vectors holds one embedding per chunk, or nil when embeddings are
	// disabled.
	Vectors [][]float32
	// Keys lists the resource keys of every chunk of the document,
	// including those skipped, so that sinks can drop stale chunks.
	Keys []string
}

// Sink receives structural records and chunks.
type Sink interface {
	Write(ctx context.Context, b *Batch) error
}

// NoopSink discards batches. It is used for dry runs.
type NoopSink struct{}

func (NoopSink) Write(context.Context, *Batch) error { return nil }

// PostgresSink stores records and chunks for one document in a single
// transaction.
type PostgresSink struct {
	db        bun.IDB
	documents *documents.Repository
	chunks    *chunks.Repository
	log       *slog.Logger
}

// NewPostgresSink creates a sink over the lims schema.
func NewPostgresSink(db bun.IDB, docs *documents.Repository, chunkRepo *chunks.Repository, log *slog.Logger) *PostgresSink {
	return &PostgresSink{
		db:        db,
		documents: docs,
		chunks:    chunkRepo,
		log:       log.With(logger.Scope("ingest.sink")),
	}
}

func (s *PostgresSink) Write(ctx context.Context, b *Batch) error {
	doc := b.Document
	tx, err := database.BeginSafeTx(ctx, s.db)
	if err != nil {
		return apperror.NewDatabase("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.documents.ReplaceTx(ctx, tx, documents.FromDocument(doc)); err != nil {
		return err
	}

	rows := make([]*chunks.Chunk, len(b.Chunks))
	keys := make([]string, len(b.Chunks))
	for i, c := range b.Chunks {
		rows[i] = chunks.FromChunk(c)
		keys[i] = c.ResourceKey
	}
	if err := s.chunks.Upsert(ctx, tx, rows); err != nil {
		return err
	}
	if b.Vectors != nil {
		if err := s.chunks.UpdateEmbeddings(ctx, tx, keys, b.Vectors); err != nil {
			return err
		}
	}
	stale, err := s.chunks.DeleteStale(ctx, tx, doc.ID, doc.Language, b.Keys)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDatabase("commit document batch", err)
	}
	s.log.Debug("document batch stored",
		logger.Document(doc.ID, doc.Language),
		slog.Int("chunks", len(rows)),
		slog.Int("stale_removed", stale),
	)
	return nil
}
