package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/emergent-company/lims-pipeline/domain/chunks"
	"github.com/emergent-company/lims-pipeline/domain/documents"
	"github.com/emergent-company/lims-pipeline/domain/ingest"
	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/internal/database"
	"github.com/emergent-company/lims-pipeline/internal/storage"
	"github.com/emergent-company/lims-pipeline/internal/tracker"
	"github.com/emergent-company/lims-pipeline/pkg/embeddings"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// overrides are command-line values layered over the environment
// configuration. Zero values leave the environment setting in place.
type overrides struct {
	sourceDir  string
	lookupPath string
	languages  []string
	sink       string
	tracker    string
	workers    int
	force      bool
	verboseFx  bool

	scheduled    bool
	scheduleCron string
}

func (o *overrides) apply(cfg *config.Config) *config.Config {
	if o.sourceDir != "" {
		cfg.Ingest.Source = "dir"
		cfg.Ingest.SourceDir = o.sourceDir
	}
	if o.lookupPath != "" {
		cfg.Ingest.LookupPath = o.lookupPath
	}
	if len(o.languages) > 0 {
		cfg.Ingest.Languages = o.languages
	}
	if o.sink != "" {
		cfg.Ingest.Sink = o.sink
	}
	if o.tracker != "" {
		cfg.Tracker.Backend = o.tracker
	}
	if o.workers > 0 {
		cfg.Ingest.Workers = o.workers
	}
	if o.force {
		cfg.Ingest.Force = true
	}
	if o.scheduled {
		cfg.Schedule.Enabled = true
	}
	if o.scheduleCron != "" {
		cfg.Schedule.Cron = o.scheduleCron
	}
	return cfg
}

func (o *overrides) bindPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.sourceDir, "dir", "", "read XML from this directory instead of the configured source")
	f.StringVar(&o.lookupPath, "lookup", "", "path to the lookup catalogue")
	f.StringSliceVar(&o.languages, "lang", nil, "languages to ingest (en, fr)")
	f.StringVar(&o.sink, "sink", "", "chunk sink: none or postgres")
	f.StringVar(&o.tracker, "tracker", "", "progress tracker: memory, postgres or redis")
	f.IntVar(&o.workers, "workers", 0, "documents processed concurrently")
	f.BoolVar(&o.force, "force", false, "re-chunk units already marked as processed")
}

func newRootCommand() *cobra.Command {
	o := &overrides{}
	root := &cobra.Command{
		Use:   "lims-ingest",
		Short: "Ingest bilingual LIMS legislation into retrieval-ready chunks",
		Long: `lims-ingest parses Justice Canada LIMS XML (acts and regulations, English
and French), extracts sections, cross-references and defined terms, and
splits them into chunks that never cross a legal boundary.

Configuration comes from the environment (and .env); flags override it.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&o.verboseFx, "fx-events", false, "log dependency injection events")

	root.AddCommand(
		newIngestCommand(o),
		newMigrateCommand(o),
		newScheduleCommand(o),
	)
	return root
}

// preload reads the configuration once so the command can decide which
// modules the application needs before it is built.
func preload(o *overrides) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return o.apply(cfg), nil
}

// baseOptions wires logging and configuration, plus the database when
// needDB is set.
func baseOptions(o *overrides, cfg *config.Config, needDB bool) []fx.Option {
	opts := []fx.Option{
		fx.Provide(logger.NewLogger),
		config.Module,
		fx.Decorate(o.apply),
		fx.StopTimeout(cfg.ShutdownTimeout),
	}
	if o.verboseFx {
		opts = append(opts, fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}))
	} else {
		opts = append(opts, fx.NopLogger)
	}
	if needDB {
		opts = append(opts, database.Module)
	}
	return opts
}

// pipelineOptions wires everything the ingest service depends on.
func pipelineOptions(cfg *config.Config) []fx.Option {
	opts := []fx.Option{
		storage.Module,
		tracker.Module,
		embeddings.Module,
		ingest.Module,
	}
	if cfg.Ingest.Sink == "postgres" {
		opts = append(opts, documents.Module, chunks.Module)
	}
	return opts
}
