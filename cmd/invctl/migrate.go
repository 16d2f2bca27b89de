// cmd/invctl/migrate.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-api/internal/adapters/db"
	"github.com/ammerola/inventory-api/internal/di"
)

var errFileBackend = errors.New("STORAGE_BACKEND is file; migrations only apply to postgres and mysql")

func newMigrateCommand(a *app) *cobra.Command {
	var forceDirty bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema",
	}
	cmd.PersistentFlags().BoolVar(&forceDirty, "force-dirty", false, "force a dirty schema version before migrating up")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd.Context(), forceDirty, func(ctx context.Context, m *db.Migrator) error {
				if err := m.Up(ctx); err != nil {
					return err
				}
				return a.printVersion(ctx, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd.Context(), false, func(ctx context.Context, m *db.Migrator) error {
				if err := m.Down(ctx); err != nil {
					return err
				}
				return a.printVersion(ctx, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(cmd.Context(), false, a.printVersion)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force [version]",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return a.withMigrator(cmd.Context(), false, func(ctx context.Context, m *db.Migrator) error {
				if err := m.Force(ctx, version); err != nil {
					return err
				}
				return a.printVersion(ctx, m)
			})
		},
	})

	return cmd
}

func (a *app) withMigrator(ctx context.Context, forceDirty bool, fn func(context.Context, *db.Migrator) error) error {
	if !a.cfg.UsesSQL() {
		a.fail(errFileBackend)
		return errFileBackend
	}

	mc, err := di.MigrationConfig(a.cfg)
	if err != nil {
		a.fail(err)
		return err
	}
	mc.ForceDirty = forceDirty

	m, err := db.NewMigrator(mc, a.log)
	if err != nil {
		a.fail(err)
		return err
	}
	defer m.Close()

	if err := fn(ctx, m); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

func (a *app) printVersion(ctx context.Context, m *db.Migrator) error {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return err
	}

	state := green("clean")
	if dirty {
		state = yellow("dirty")
	}
	fmt.Fprintf(a.out, "%s %d (%s)\n", bold("schema version"), version, state)
	return nil
}
