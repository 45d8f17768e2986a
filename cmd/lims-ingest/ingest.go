package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/domain/ingest"
	"github.com/emergent-company/lims-pipeline/internal/storage"
)

func newIngestCommand(o *overrides) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "ingest [path...]",
		Short: "Run the pipeline once over the source, or over the given paths",
		Long: `Run the pipeline once. Without arguments every XML document in the
configured source is processed; paths are relative to the source root.

The command exits non-zero when any document failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := preload(o)
			if err != nil {
				return err
			}

			var svc *ingest.Service
			opts := append(baseOptions(o, cfg, cfg.UsesDatabase()), pipelineOptions(cfg)...)
			opts = append(opts, fx.Populate(&svc))
			app := fx.New(opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				_ = app.Stop(stopCtx)
			}()

			report, err := svc.Run(ctx, refsFromArgs(args))
			if report != nil {
				printReport(cmd.OutOrStdout(), report, verbose)
			}
			if err != nil {
				return err
			}
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d of %d documents failed", n, len(report.Documents))
			}
			return nil
		},
	}
	o.bindPipelineFlags(cmd)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print one line per document")
	return cmd
}

func refsFromArgs(args []string) []storage.Ref {
	if len(args) == 0 {
		return nil
	}
	refs := make([]storage.Ref, 0, len(args))
	for _, a := range args {
		refs = append(refs, storage.Ref{Path: filepath.ToSlash(filepath.Clean(a))})
	}
	return refs
}

func printReport(w io.Writer, report *ingest.Report, verbose bool) {
	if verbose {
		table := tablewriter.NewWriter(w)
		table.Header("Path", "Document", "Lang", "Sections", "Refs", "Terms", "Chunks", "Written", "Status")
		for _, d := range report.Documents {
			_ = table.Append(d.Path, d.DocumentID, d.Language,
				strconv.Itoa(d.Sections), strconv.Itoa(d.CrossReferences), strconv.Itoa(d.DefinedTerms),
				strconv.Itoa(d.Chunks), strconv.Itoa(d.ChunksWritten), status(d))
		}
		_ = table.Render()
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "documents: %d  failed: %d  sections: %d  chunks written: %d  skipped: %d  (%s)\n",
		len(report.Documents), report.Failed(), report.Sections(),
		report.ChunksWritten(), report.ChunksSkipped(), report.Duration.Round(time.Millisecond))
	for _, d := range report.Errors() {
		fmt.Fprintf(w, "  %s: %v\n", d.Path, d.Err)
	}
}

func status(d ingest.DocumentResult) string {
	switch {
	case d.Err != nil:
		return "error"
	case d.Skipped != "":
		return "skipped (" + d.Skipped + ")"
	case d.OverBudget > 0:
		return fmt.Sprintf("ok (%d over budget)", d.OverBudget)
	default:
		return "ok"
	}
}
