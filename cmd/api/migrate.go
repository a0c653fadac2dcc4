package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minh-le0205/tour-rest-api/internal/database"
)

func migrateUp(ctx context.Context, m *database.Migrator) error { return m.Up(ctx) }
func migrateDown(ctx context.Context, m *database.Migrator) error { return m.Down(ctx) }
func migrateStatus(ctx context.Context, m *database.Migrator) error { return m.Status(ctx) }

func runMigrate(step func(context.Context, *database.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		migrator, err := database.NewMigrator(a.db.DB, a.logger)
		if err != nil {
			return err
		}
		if err := step(ctx, migrator); err != nil {
			return fmt.Errorf("migrate %s: %w", cmd.Name(), err)
		}
		return nil
	}
}
