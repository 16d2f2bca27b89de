// cmd/invctl/root.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-api/internal/di"
	"github.com/ammerola/inventory-api/internal/pkg/config"
	"github.com/ammerola/inventory-api/internal/pkg/logger"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// app is the state shared by every subcommand
type app struct {
	out      io.Writer
	errOut   io.Writer
	logLevel string

	cfg *config.Config
	log *slog.Logger
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "invctl",
		Short:         "Inventory operator tool",
		Long:          "Run migrations, seed data and move inventory in and out of spreadsheets using the same configuration as the API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newMigrateCommand(a),
		newSeedCommand(a),
		newExportCommand(a),
		newImportCommand(a),
	)

	return root
}

func (a *app) init() error {
	a.log = logger.NewLogger(&logger.LogConfig{
		Level:  a.logLevel,
		Format: "text",
		Output: a.errOut,
	}).Logger

	cfg, err := config.Load(a.log)
	if err != nil {
		a.fail(err)
		return err
	}
	a.cfg = cfg
	return nil
}

// withContainer opens the configured backends for the length of fn
func (a *app) withContainer(ctx context.Context, fn func(*di.Container) error) error {
	c, err := di.BuildContainer(ctx, a.cfg, a.log)
	if err != nil {
		a.fail(err)
		return err
	}
	defer func() {
		if err := c.Cleanup(); err != nil {
			a.log.Warn("failed to close backends", slog.String("error", err.Error()))
		}
	}()

	if err := fn(c); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

func (a *app) fail(err error) {
	fmt.Fprintln(a.errOut, color.RedString("error:"), err)
}
