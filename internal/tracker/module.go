package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

var Module = fx.Module("tracker",
	fx.Provide(NewTracker),
)

// Params are the fx dependencies of NewTracker. DB is only required by
// the postgres backend.
type Params struct {
	fx.In
	Lc  fx.Lifecycle
	Cfg *config.Config
	Log *slog.Logger
	DB  bun.IDB `optional:"true"`
}

// NewTracker builds the configured backend and closes it on shutdown.
func NewTracker(p Params) (Tracker, error) {
	log := p.Log.With(logger.Scope("tracker"))
	cfg := p.Cfg.Tracker

	var t Tracker
	switch cfg.Backend {
	case "", "memory":
		t = NewMemory()
	case "postgres":
		if p.DB == nil {
			return nil, fmt.Errorf("tracker backend postgres requires a database")
		}
		t = NewPostgres(p.DB)
	case "redis":
		r, err := NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		t = r
	default:
		return nil, fmt.Errorf("unknown tracker backend %q", cfg.Backend)
	}

	log.Info("progress tracker ready", slog.String("backend", cfg.Backend))
	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return t.Close()
		},
	})
	return t, nil
}
