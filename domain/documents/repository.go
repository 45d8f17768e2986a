package documents

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/internal/database"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// insertBatch bounds the rows sent in one INSERT.
const insertBatch = 500

// Repository handles database operations for structural records
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new documents repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("documents.repo")),
	}
}

// Replace stores the records of one document and language, removing
// whatever an earlier run stored for them. Everything happens in one
// transaction.
func (r *Repository) Replace(ctx context.Context, rec *Records) error {
	tx, err := database.BeginSafeTx(ctx, r.db)
	if err != nil {
		return apperror.NewDatabase("begin transaction", err)
	}
	defer tx.Rollback()

	if err := r.ReplaceTx(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.NewDatabase("commit document records", err)
	}
	return nil
}

// ReplaceTx is Replace within a caller-owned transaction.
func (r *Repository) ReplaceTx(ctx context.Context, db bun.IDB, rec *Records) error {
	docID, lang := rec.Document.DocumentID, rec.Document.Language

	_, err := db.NewInsert().
		Model(rec.Document).
		On("CONFLICT (document_id, language) DO UPDATE").
		Set("kind = EXCLUDED.kind").
		Set("short_title = EXCLUDED.short_title").
		Set("long_title = EXCLUDED.long_title").
		Set("source_path = EXCLUDED.source_path").
		Set("enabling_acts = EXCLUDED.enabling_acts").
		Set("enacted_date = EXCLUDED.enacted_date").
		Set("inforce_start_date = EXCLUDED.inforce_start_date").
		Set("last_amended_date = EXCLUDED.last_amended_date").
		Set("registration_date = EXCLUDED.registration_date").
		Set("consolidation_date = EXCLUDED.consolidation_date").
		Set("section_count = EXCLUDED.section_count").
		Set("ingested_at = now()").
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to upsert document", logger.Document(docID, lang), logger.Error(err))
		return apperror.NewDatabase("upsert document", err)
	}

	for _, model := range []any{(*Section)(nil), (*CrossReference)(nil), (*DefinedTerm)(nil)} {
		if _, err := db.NewDelete().
			Model(model).
			Where("document_id = ?", docID).
			Where("language = ?", lang).
			Exec(ctx); err != nil {
			r.log.Error("failed to clear document records", logger.Document(docID, lang), logger.Error(err))
			return apperror.NewDatabase("clear document records", err)
		}
	}

	if err := insertAll(ctx, db, rec.Sections); err != nil {
		r.log.Error("failed to insert sections", logger.Document(docID, lang), logger.Error(err))
		return apperror.NewDatabase("insert sections", err)
	}
	if err := insertAll(ctx, db, rec.CrossReferences); err != nil {
		r.log.Error("failed to insert cross-references", logger.Document(docID, lang), logger.Error(err))
		return apperror.NewDatabase("insert cross-references", err)
	}
	if err := insertAll(ctx, db, rec.DefinedTerms); err != nil {
		r.log.Error("failed to insert defined terms", logger.Document(docID, lang), logger.Error(err))
		return apperror.NewDatabase("insert defined terms", err)
	}

	r.log.Debug("stored document records",
		logger.Document(docID, lang),
		slog.Int("sections", len(rec.Sections)),
		slog.Int("cross_references", len(rec.CrossReferences)),
		slog.Int("defined_terms", len(rec.DefinedTerms)),
	)
	return nil
}

// ListSections returns the stored sections of a document in section order.
func (r *Repository) ListSections(ctx context.Context, documentID, language string) ([]*Section, error) {
	var sections []*Section
	err := r.db.NewSelect().
		Model(&sections).
		Where("document_id = ?", documentID).
		Where("language = ?", language).
		Order("section_order").
		Scan(ctx)
	if err != nil {
		return nil, apperror.NewDatabase("list sections", err)
	}
	return sections, nil
}

// TermsByKey returns every stored term with the given normalized key,
// across documents and languages.
func (r *Repository) TermsByKey(ctx context.Context, normalizedKey string) ([]*DefinedTerm, error) {
	var terms []*DefinedTerm
	err := r.db.NewSelect().
		Model(&terms).
		Where("normalized_key = ?", normalizedKey).
		Order("document_id", "language").
		Scan(ctx)
	if err != nil {
		return nil, apperror.NewDatabase("list terms", err)
	}
	return terms, nil
}

func insertAll[T any](ctx context.Context, db bun.IDB, rows []*T) error {
	for _, batch := range lo.Chunk(rows, insertBatch) {
		if _, err := db.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
