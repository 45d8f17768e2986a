package tracker

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/pkg/apperror"
)

// queryBatch bounds the keys sent in one statement.
const queryBatch = 1000

// progressRow is one marked key in lims.ingest_progress.
type progressRow struct {
	bun.BaseModel `bun:"table:lims.ingest_progress,alias:p"`

	ResourceKey string    `bun:"resource_key,pk"`
	MarkedAt    time.Time `bun:"marked_at,notnull,default:now()"`
}

// Postgres stores marks in lims.ingest_progress.
type Postgres struct {
	db bun.IDB
}

// NewPostgres creates a tracker over db. The table comes from the
// embedded migrations.
func NewPostgres(db bun.IDB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Has(ctx context.Context, key string) (bool, error) {
	ok, err := p.db.NewSelect().
		Model((*progressRow)(nil)).
		Where("resource_key = ?", key).
		Exists(ctx)
	if err != nil {
		return false, apperror.NewDatabase("check progress", err)
	}
	return ok, nil
}

func (p *Postgres) HasMany(ctx context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	for _, batch := range lo.Chunk(keys, queryBatch) {
		var found []string
		err := p.db.NewSelect().
			Model((*progressRow)(nil)).
			Column("resource_key").
			Where("resource_key IN (?)", bun.In(batch)).
			Scan(ctx, &found)
		if err != nil {
			return nil, apperror.NewDatabase("check progress", err)
		}
		for _, k := range found {
			out[k] = true
		}
	}
	return out, nil
}

func (p *Postgres) Mark(ctx context.Context, key string) error {
	return p.MarkMany(ctx, []string{key})
}

func (p *Postgres) MarkMany(ctx context.Context, keys []string) error {
	for _, batch := range lo.Chunk(lo.Uniq(keys), queryBatch) {
		rows := lo.Map(batch, func(k string, _ int) progressRow {
			return progressRow{ResourceKey: k}
		})
		_, err := p.db.NewInsert().
			Model(&rows).
			On("CONFLICT (resource_key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return apperror.NewDatabase("mark progress", err)
		}
	}
	return nil
}

func (p *Postgres) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	n, err := p.db.NewSelect().
		Model((*progressRow)(nil)).
		Where(`resource_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Count(ctx)
	if err != nil {
		return 0, apperror.NewDatabase("count progress", err)
	}
	return n, nil
}

func (p *Postgres) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := p.db.NewDelete().
		Model((*progressRow)(nil)).
		Where(`resource_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Exec(ctx)
	if err != nil {
		return 0, apperror.NewDatabase("clear progress", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close is a no-op; the database handle belongs to the caller.
func (p *Postgres) Close() error { return nil }
