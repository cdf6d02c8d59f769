package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"libmanage/backend/internal/app"
)

func purgeAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-account <email>",
		Short: "Delete an account and all of its session records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Account.PurgeAccount(ctx, args[0]); err != nil {
					return fmt.Errorf("purge %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s purged\n", args[0])
				return nil
			})
		},
	}
}
