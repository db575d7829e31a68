package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"Taskly/repository"
	"Taskly/services"

	"github.com/spf13/cobra"
)

func newCreateAdminCmd(opts *cliOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Creates a user with the admin flag set. Admins see every user's items.

The password may also be supplied through ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
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

			auth := services.NewAuthService(repository.NewPostgresUserRepository(db))
			res := auth.Register(ctx, username, password, true)
			if !res.OK() {
				if res.Err() != nil {
					return fmt.Errorf("%s: %w", res.Message, res.Err())
				}
				return errors.New(res.Message)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin user %q created\n", res.Data().ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	return cmd
}
