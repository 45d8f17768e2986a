package chunks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// upsertBatch bounds the rows sent in one INSERT.
const upsertBatch = 500

// Repository handles database operations for chunks
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new chunks repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("chunks.repo")),
	}
}

// Upsert inserts chunks, replacing any stored chunk with the same resource
// key.
func (r *Repository) Upsert(ctx context.Context, db bun.IDB, chunks []*Chunk) error {
	if db == nil {
		db = r.db
	}
	for _, batch := range lo.Chunk(chunks, upsertBatch) {
		_, err := db.NewInsert().
			Model(&batch).
			On("CONFLICT (resource_key) DO UPDATE").
			Set("paired_resource_key = EXCLUDED.paired_resource_key").
			Set("total_chunks = EXCLUDED.total_chunks").
			Set("content = EXCLUDED.content").
			Set("token_count = EXCLUDED.token_count").
			Set("over_budget = EXCLUDED.over_budget").
			Set("metadata = EXCLUDED.metadata").
			Set("updated_at = now()").
			Exec(ctx)
		if err != nil {
			r.log.Error("failed to upsert chunks batch", logger.Error(err), slog.Int("count", len(batch)))
			return apperror.NewDatabase("upsert chunks", err)
		}
	}
	return nil
}

// UpdateEmbeddings stores one vector per resource key.
func (r *Repository) UpdateEmbeddings(ctx context.Context, db bun.IDB, keys []string, vectors [][]float32) error {
	if db == nil {
		db = r.db
	}
	if len(keys) != len(vectors) {
		return apperror.NewInternal(fmt.Sprintf("got %d vectors for %d chunks", len(vectors), len(keys)), nil)
	}
	for i, key := range keys {
		_, err := db.NewRaw(
			"UPDATE lims.chunks SET embedding = ?::vector, updated_at = now() WHERE resource_key = ?",
			floatsToVectorLiteral(vectors[i]), key,
		).Exec(ctx)
		if err != nil {
			r.log.Error("failed to update chunk embedding", logger.Error(err), slog.String("resource_key", key))
			return apperror.NewDatabase("update embedding", err)
		}
	}
	return nil
}

// DeleteStale removes chunks of a document and language whose resource
// keys are not in keep, such as the tail of a unit that now splits into
// fewer chunks.
func (r *Repository) DeleteStale(ctx context.Context, db bun.IDB, documentID, language string, keep []string) (int, error) {
	if db == nil {
		db = r.db
	}
	q := db.NewDelete().
		Model((*Chunk)(nil)).
		Where("document_id = ?", documentID).
		Where("language = ?", language)
	if len(keep) > 0 {
		q = q.Where("resource_key NOT IN (?)", bun.In(keep))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		r.log.Error("failed to delete stale chunks", logger.Document(documentID, language), logger.Error(err))
		return 0, apperror.NewDatabase("delete stale chunks", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountByDocument returns the number of chunks for a document and language
func (r *Repository) CountByDocument(ctx context.Context, documentID, language string) (int, error) {
	count, err := r.db.NewSelect().
		Model((*Chunk)(nil)).
		Where("document_id = ?", documentID).
		Where("language = ?", language).
		Count(ctx)
	if err != nil {
		r.log.Error("failed to count chunks", logger.Document(documentID, language), logger.Error(err))
		return 0, apperror.NewDatabase("count chunks", err)
	}
	return count, nil
}

// floatsToVectorLiteral converts a slice of float32 to PostgreSQL vector literal format
func floatsToVectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteByte(']')
	return b.String()
}
