package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/domain/ingest"
	"github.com/emergent-company/lims-pipeline/domain/scheduler"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

func newScheduleCommand(o *overrides) *cobra.Command {
	var (
		runNow      bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion periodically until interrupted",
		Long: `Run as a daemon that re-ingests the source on a cron schedule
(seconds precision, SCHEDULE_CRON). Units already marked by the tracker
are skipped, so a persistent tracker backend is recommended.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.scheduled = true
			cfg, err := preload(o)
			if err != nil {
				return err
			}

			opts := append(baseOptions(o, cfg, cfg.UsesDatabase()), pipelineOptions(cfg)...)
			opts = append(opts, scheduler.Module)
			if runNow {
				opts = append(opts, fx.Invoke(runOnStart))
			}
			if metricsAddr != "" {
				opts = append(opts, fx.Invoke(func(lc fx.Lifecycle, log *slog.Logger) {
					serveMetrics(lc, metricsAddr, log)
				}))
			}

			fx.New(opts...).Run()
			return nil
		},
	}
	o.bindPipelineFlags(cmd)
	cmd.Flags().StringVar(&o.scheduleCron, "cron", "", "cron expression overriding SCHEDULE_CRON")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one ingestion immediately on start")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	return cmd
}

// runOnStart triggers one ingestion pass in the background once the
// application has started.
func runOnStart(lc fx.Lifecycle, s *scheduler.Scheduler, svc *ingest.Service, log *slog.Logger) {
	task := scheduler.NewIngestTask(svc, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunNow(scheduler.IngestTaskName, task.Run)
			return nil
		},
	})
}

func serveMetrics(lc fx.Lifecycle, addr string, log *slog.Logger) {
	log = log.With(logger.Scope("metrics"))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("metrics server stopped", logger.Error(err))
				}
			}()
			log.Info("serving metrics", slog.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
