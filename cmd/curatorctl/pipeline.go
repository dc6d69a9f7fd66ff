package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"newsletter-curator/internal/app"
	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/usecase/newsletter"
	"newsletter-curator/internal/usecase/queue"
)

func newFetchCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one fetch cycle now",
		Long: `Search the news source for every interest over the fetch window and store
new articles. Summarization jobs are queued for the worker; run
"curatorctl queue drain" to process them here instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				saved, err := a.Orchestrator.RunFetchCycle(ctx)
				if err != nil {
					return fmt.Errorf("fetch cycle: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d new article(s).\n", saved)
				return nil
			})
		},
	}
}

func newNewsletterCmd(open opener) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Generate newsletters",
		Long: `Without --user, queue a newsletter job for every active user (the same as the
scheduled cycle). With --user, generate that user's newsletter synchronously.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("user") && userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if userID == 0 {
					stats, err := a.Orchestrator.RunNewsletterCycle(ctx)
					if err != nil {
						return fmt.Errorf("newsletter cycle: %w", err)
					}
					fmt.Fprintf(out, "Queued %d newsletter(s) for %d user(s); %d without interests, %d failed.\n",
						stats.Enqueued, stats.Users, stats.SkippedNoInterests, stats.Failed)
					return nil
				}

				n, err := a.Composer.Generate(ctx, userID)
				switch {
				case errors.Is(err, newsletter.ErrNoNewArticles):
					fmt.Fprintln(out, "No new articles; nothing stored.")
					return nil
				case err != nil:
					return fmt.Errorf("generating newsletter: %w", err)
				}
				fmt.Fprintf(out, "Newsletter %d stored with %d article(s).\n\n%s\n", n.ID, len(n.ArticleIDs), n.Content)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "generate synchronously for this user id")
	return cmd
}

func newSummarizeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <article-id>",
		Short: "Summarize one article now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				outcome, err := a.Summarizer.Summarize(ctx, id).Unwrap()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Article %d: %s\n", id, outcome)
				return nil
			})
		},
	}
}

func newQueueCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain the job queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count jobs per state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				counts, err := queue.Stats(ctx, a.Jobs)
				if err != nil {
					return err
				}
				printStats(cmd, counts)
				return nil
			})
		},
	})

	var maxBatches int
	drain := &cobra.Command{
		Use:   "drain",
		Short: "Run due jobs in the foreground until none are left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				pool := a.Pool()
				if _, err := pool.ReclaimStale(ctx); err != nil {
					return err
				}
				total := 0
				for i := 0; maxBatches <= 0 || i < maxBatches; i++ {
					n, err := pool.RunOnce(ctx)
					if err != nil {
						return err
					}
					if n == 0 {
						break
					}
					total += n
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d job(s).\n", total)
				return nil
			})
		},
	}
	drain.Flags().IntVar(&maxBatches, "max-batches", 0, "stop after this many batches (0 = until empty)")
	cmd.AddCommand(drain)
	return cmd
}

func printStats(cmd *cobra.Command, counts map[entity.JobState]int64) {
	states := make([]string, 0, len(counts))
	for s := range counts {
		states = append(states, string(s))
	}
	sort.Strings(states)
	for _, s := range states {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", s, counts[entity.JobState(s)])
	}
}
