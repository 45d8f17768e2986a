package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Module provides the pgx pool, the bun DB over it and a bun.IDB binding
// for consumers that accept either a DB or a transaction.
var Module = fx.Module("database",
	fx.Provide(
		NewPgxPool,
		NewBunDB,
		fx.Annotate(
			func(db *bun.DB) bun.IDB { return db },
			fx.As(new(bun.IDB)),
		),
	),
)

const (
	applicationName = "lims-ingest"
	// slowQuery is the duration above which queries are logged as warnings.
	slowQuery = 3 * time.Second
)

// NewPgxPool creates the connection pool shared by the postgres sink, the
// tracker and the repositories.
func NewPgxPool(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	log = log.With(logger.Scope("database"))

	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database pool created",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", cfg.Database.Database),
		slog.String("search_path", poolConfig.ConnConfig.RuntimeParams["search_path"]),
		slog.Int("max_conns", int(poolConfig.MaxConns)),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing database pool")
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

// newPoolConfig derives pool settings from the pipeline configuration.
// Every ingest worker holds one connection for its document transaction,
// and the tracker needs one more beside them, so the pool never drops
// below workers+1 connections.
func newPoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	maxConns := max(cfg.Database.MaxOpenConns, cfg.Ingest.Workers+1, 1)
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(min(max(cfg.Database.MaxIdleConns, 0), maxConns))
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	if schema := cfg.Database.Schema; schema != "" && schema != "public" {
		params["search_path"] = schema + ",public"
	}
	if t := cfg.Database.StatementTimeout; t > 0 {
		params["statement_timeout"] = strconv.FormatInt(t.Milliseconds(), 10)
	}
	return poolConfig, nil
}

// NewBunDB creates a Bun ORM instance wrapping the pgx pool. Queries are
// logged only when DB_QUERY_DEBUG is set.
func NewBunDB(lc fx.Lifecycle, pool *pgxpool.Pool, cfg *config.Config, log *slog.Logger) (*bun.DB, error) {
	log = log.With(logger.Scope("bun"))

	// Convert pgx pool to database/sql compatible connection
	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	if cfg.Database.QueryDebug {
		db.AddQueryHook(&queryLoggingHook{log: log})
	}
	log.Info("bun database initialized", slog.Bool("query_debug", cfg.Database.QueryDebug))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing bun database")
			return db.Close()
		},
	})

	return db, nil
}

// queryLoggingHook implements bun.QueryHook. Failed queries log at error,
// queries slower than slowQuery at warn, the rest at debug.
type queryLoggingHook struct {
	log *slog.Logger
}

func (h *queryLoggingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLoggingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.log.Error("query error",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
			logger.Error(event.Err),
		)
		return
	}
	if duration > slowQuery {
		h.log.Warn("slow query",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
		)
		return
	}
	h.log.Debug("query",
		slog.String("query", event.Query),
		slog.Duration("duration", duration),
	)
}

// SafeTx wraps a bun.Tx so that Rollback is a no-op after Commit and can
// be deferred unconditionally.
type SafeTx struct {
	bun.Tx
	committed bool
}

// BeginSafeTx starts a new transaction and returns a SafeTx wrapper.
func BeginSafeTx(ctx context.Context, db bun.IDB) (*SafeTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SafeTx{Tx: tx}, nil
}

// Commit commits the transaction and marks it as committed.
func (tx *SafeTx) Commit() error {
	if tx.committed {
		return nil
	}
	err := tx.Tx.Commit()
	if err == nil {
		tx.committed = true
	}
	return err
}

// Rollback rolls back the transaction only if it hasn't been committed.
func (tx *SafeTx) Rollback() error {
	if tx.committed {
		return nil
	}
	return tx.Tx.Rollback()
}
