package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newsletter-curator/internal/app"
	"newsletter-curator/internal/handler/http/auth"
	"newsletter-curator/internal/infra/db"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/pkg/config"
)

var version = "dev"

// opener builds the application graph. The returned func releases it.
type opener func(ctx context.Context) (*app.App, func(), error)

func openApp(ctx context.Context) (*app.App, func(), error) {
	database, err := db.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.MigrateUp(ctx); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	loader := config.NewLoader(nil)
	cfg := app.LoadConfig(loader)
	loader.Finish(slog.Default())

	a := app.New(database, cfg)
	release := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Notify.Shutdown(sctx)
		_ = database.Close()
	}
	return a, release, nil
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "curatorctl",
		Short:         "Operate the newsletter curator pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.NewLogger())
		},
	}

	root.AddCommand(
		newFetchCmd(open),
		newNewsletterCmd(open),
		newSummarizeCmd(open),
		newInterestsCmd(open),
		newQueueCmd(open),
		newTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "curatorctl %s\n", version)
			},
		},
	)
	return root
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, a)
}

func newTokenCmd() *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API bearer token for a user (JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			tok, err := auth.SignToken([]byte(secret), userID, ttl)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
