// cmd/invctl/transfer.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-api/internal/adapters/spreadsheet"
	"github.com/ammerola/inventory-api/internal/di"
)

func newExportCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every inventory item to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(c *di.Container) error {
				items, err := c.Repository.List(cmd.Context())
				if err != nil {
					return err
				}

				if err := writeFileAtomic(out, func(f *os.File) error {
					return spreadsheet.WriteInventory(f, items)
				}); err != nil {
					return err
				}

				fmt.Fprintf(a.out, "%s %d items to %s\n", green("exported"), len(items), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "inventory_export.xlsx", "workbook path")

	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create items from an .xlsx workbook without going through the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := spreadsheet.ReadImportFile(file)
			if err != nil {
				a.fail(err)
				return err
			}

			return a.withContainer(cmd.Context(), func(c *di.Container) error {
				result, err := c.NewInventoryService(nil).Import(cmd.Context(), rows)
				if err != nil {
					if result != nil {
						fmt.Fprintf(a.out, "%s %d items before failing\n", yellow("imported"), result.Created)
					}
					return err
				}

				fmt.Fprintf(a.out, "%s %d items, skipped %d\n", green("imported"), result.Created, result.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workbook to import")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// writeFileAtomic writes path through a temp file in the same directory
func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".invctl-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
