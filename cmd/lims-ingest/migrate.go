package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/internal/migrate"
)

func newMigrateCommand(o *overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the lims database schema",
	}

	var to int64
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), o, func(ctx context.Context, m *migrate.Migrator) error {
				if to > 0 {
					return m.UpTo(ctx, to)
				}
				return m.Up(ctx)
			})
		},
	}
	up.Flags().Int64Var(&to, "to", 0, "migrate up to this version only")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), o, func(ctx context.Context, m *migrate.Migrator) error {
				return m.Down(ctx)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), o, func(ctx context.Context, m *migrate.Migrator) error {
				return m.Status(ctx)
			})
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), o, func(ctx context.Context, m *migrate.Migrator) error {
				v, err := m.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, status, version)
	return cmd
}

// withMigrator starts an application holding only the database and the
// migrator, runs fn, and shuts it down again.
func withMigrator(ctx context.Context, o *overrides, fn func(context.Context, *migrate.Migrator) error) error {
	cfg, err := preload(o)
	if err != nil {
		return err
	}

	var m *migrate.Migrator
	opts := append(baseOptions(o, cfg, true), migrate.Module, fx.Populate(&m))
	app := fx.New(opts...)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx, m)
}
