// authctl is the operator CLI for the auth backend: schema migrations, seed accounts,
// account purges and the maintenance switch. It reads the same environment as the server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libmanage/backend/internal/app"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/config"
	"libmanage/backend/internal/logger"
)

// cliActor is recorded as the actor of changes made from the command line.
const cliActor = "authctl"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Operate the library auth backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), seedCmd(), purgeAccountCmd(), maintenanceCmd())
	return cmd
}

// withApp loads config, builds the App and runs fn with a context carrying the CLI actor.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	l, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx := authn.WithActor(cmd.Context(), cliActor)
	a, err := app.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			l.Warn("close", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}
