package main

import (
	"context"
	"fmt"

	"Taskly/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply, roll back or inspect database migrations",
		Long: `Runs the embedded goose migrations against DATABASE_URL.

  up      apply all pending migrations (default)
  down    roll back the most recent migration
  status  print the state of every migration`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, db, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			switch direction {
			case "down":
				return database.RollbackMigration(ctx, db)
			case "status":
				return database.MigrationStatus(ctx, db)
			default:
				if err := database.RunMigrations(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}
		},
	}
}
