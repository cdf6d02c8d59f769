package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"libmanage/backend/internal/app"
	"libmanage/backend/internal/maintenance/domain"
)

type maintenanceSwitch interface {
	Status(ctx context.Context) (domain.Status, error)
	Set(ctx context.Context, enabled bool) (domain.Status, error)
	Wait(ctx context.Context) error
}

// noticeTimeout bounds how long the CLI waits for the change notice to go out.
const noticeTimeout = 45 * time.Second

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Show or change maintenance mode",
		Long: `Show or change maintenance mode. Changes only reach running servers when
MAINTENANCE_STORE is redis or postgres; the memory store is private to each process.`,
	}
	set := func(enabled bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return setMaintenance(ctx, cmd.OutOrStdout(), a.Maintenance, enabled)
			})
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "on", Short: "Enable maintenance mode", Args: cobra.NoArgs, RunE: set(true)},
		&cobra.Command{Use: "off", Short: "Disable maintenance mode", Args: cobra.NoArgs, RunE: set(false)},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current maintenance state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					st, err := a.Maintenance.Status(ctx)
					if err != nil {
						return err
					}
					printStatus(cmd.OutOrStdout(), st)
					return nil
				})
			},
		},
	)
	return cmd
}

func setMaintenance(ctx context.Context, out io.Writer, svc maintenanceSwitch, enabled bool) error {
	st, err := svc.Set(ctx, enabled)
	if err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	printStatus(out, st)
	waitCtx, cancel := context.WithTimeout(ctx, noticeTimeout)
	defer cancel()
	if err := svc.Wait(waitCtx); err != nil {
		return fmt.Errorf("maintenance: change notice not delivered: %w", err)
	}
	return nil
}

func printStatus(out io.Writer, st domain.Status) {
	state := "off"
	if st.Enabled {
		state = "on"
	}
	if st.Since.IsZero() {
		fmt.Fprintf(out, "maintenance %s\n", state)
		return
	}
	fmt.Fprintf(out, "maintenance %s since %s by %s\n", state, st.Since.Format(time.RFC3339), st.UpdatedBy)
}
