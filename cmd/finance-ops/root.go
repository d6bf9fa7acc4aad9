package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	analysisdomain "finance-app-go/internal/domain/analysis"
	"finance-app-go/internal/domain/errs"
	"finance-app-go/internal/scheduler"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context) (backend, error)

type cli struct {
	open   opener
	out    io.Writer
	asJSON bool
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}

	root := &cobra.Command{
		Use:           "finance-ops",
		Short:         "Operational commands for retention cleanup, weekly analyses and scheduled jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print full results as JSON")

	root.AddCommand(c.previewCmd())
	root.AddCommand(c.cleanupCmd())
	root.AddCommand(c.cleanupAllCmd())
	root.AddCommand(c.weeklyCmd())
	root.AddCommand(c.jobsCmd())
	return root
}

// withBackend opens the backend for one command and always closes it.
func (c *cli) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := c.open(ctx)
	if err != nil {
		return fmt.Errorf("open application: %w", err)
	}
	defer func() {
		_ = b.Close()
	}()
	return fn(ctx, b)
}

func (c *cli) previewCmd() *cobra.Command {
	var owner string
	var months int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what a cleanup would delete for one owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b backend) error {
				preview, err := b.Preview(ctx, owner, months)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(preview)
				}
				c.printf("owner %s: %d expenses (%s) before %s\n",
					preview.OwnerID, preview.ExpenseCount, preview.TotalAmount.StringFixed(2), preview.Cutoff.Format(time.DateOnly))
				for _, bucket := range preview.Months {
					c.printf("  %s  %4d  %s\n", bucket.Month, bucket.Count, bucket.Amount.StringFixed(2))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner account id")
	cmd.Flags().IntVar(&months, "months", 0, "retention window in months (default: owner's setting)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (c *cli) cleanupCmd() *cobra.Command {
	var owner, confirm string
	var months int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete one owner's expenses older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b backend) error {
				token, _ := b.Confirmations()
				if confirm != token {
					return errs.ConfirmationRequired("pass --confirm %s to delete data", token)
				}
				result, err := b.Cleanup(ctx, owner, months)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(result)
				}
				c.printf("owner %s: deleted %d of %d expenses (%s), %d failed, %d analyses removed\n",
					result.OwnerID, result.DeletedExpenses, result.Matched, result.DeletedAmount.StringFixed(2),
					result.FailedExpenses, result.DeletedAnalyses)
				if result.AnalysesSkipped {
					c.printf("  analysis cleanup skipped\n")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner account id")
	cmd.Flags().IntVar(&months, "months", 0, "retention window in months (default: owner's setting)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation token")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (c *cli) cleanupAllCmd() *cobra.Command {
	var admin, confirm string

	cmd := &cobra.Command{
		Use:   "cleanup-all",
		Short: "Run the retention cleanup for every active owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b backend) error {
				_, token := b.Confirmations()
				if confirm != token {
					return errs.ConfirmationRequired("pass --confirm %s to delete data", token)
				}
				result, err := b.CleanupAll(ctx, admin, confirm)
				if err != nil {
					return err
				}
				if c.asJSON {
					if err := c.printJSON(result); err != nil {
						return err
					}
				} else {
					c.printf("processed %d owners, cleaned %d, deleted %d expenses (%s), %d analyses\n",
						result.ProcessedUsers, result.CleanedUsers, result.TotalExpensesDeleted,
						result.TotalAmountDeleted.StringFixed(2), result.TotalAnalysesDeleted)
					for _, ownerErr := range result.Errors {
						c.printf("  %s: %s\n", ownerErr.OwnerID, ownerErr.Error)
					}
				}
				return result.Err()
			})
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin account id")
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation token")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func (c *cli) weeklyCmd() *cobra.Command {
	var owner, week string
	var suggestions bool

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Regenerate one owner's weekly analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var weekStart time.Time
			if week == "" {
				weekStart = analysisdomain.PreviousWeekStart(time.Now())
			} else {
				parsed, err := analysisdomain.ParseWeekStart(week)
				if err != nil {
					return err
				}
				weekStart = parsed
			}

			return c.withBackend(cmd, func(ctx context.Context, b backend) error {
				item, err := b.Generate(ctx, owner, weekStart, suggestions)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(item)
				}
				c.printf("owner %s week %s: %d expenses, total %s, daily average %s\n",
					item.OwnerID, item.WeekStart.Format(time.DateOnly), item.TotalExpenses,
					item.TotalAmount.StringFixed(2), item.AverageDailySpend.StringFixed(2))
				for _, category := range item.CategoryBreakdown {
					c.printf("  %-20s %10s %6s%%\n", category.Category, category.Total.StringFixed(2), category.Percentage.StringFixed(2))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner account id")
	cmd.Flags().StringVar(&week, "week", "", "week start date YYYY-MM-DD (default: previous week)")
	cmd.Flags().BoolVar(&suggestions, "suggestions", false, "attach suggestions")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (c *cli) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run scheduled jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(_ context.Context, b backend) error {
				jobs := b.Jobs()
				if c.asJSON {
					return c.printJSON(jobs)
				}
				w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSCHEDULE\tLAST RUN\tLAST ERROR")
				for _, job := range jobs {
					lastRun := "-"
					if job.LastRun != nil {
						lastRun = job.LastRun.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", job.Name, job.Schedule, lastRun, job.LastError)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(c.jobsRunCmd())
	return cmd
}

func (c *cli) jobsRunCmd() *cobra.Command {
	var admin, confirm string

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a job now and wait for it",
		Long:  "Run a job now and wait for it. Cleanup jobs need --admin and --confirm and share the daily global cleanup limit.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b backend) error {
				name := args[0]
				if guardedJob(b.Jobs(), name) {
					_, token := b.Confirmations()
					if confirm != token {
						return errs.ConfirmationRequired("pass --confirm %s to run %s", token, name)
					}
					if admin == "" {
						return errs.Validation("--admin is required to run %s", name)
					}
				}
				report, err := b.RunJob(ctx, name, scheduler.Caller{ID: admin, Confirmation: confirm})
				if report.Job == "" {
					return err
				}
				if c.asJSON {
					if printErr := c.printJSON(report); printErr != nil {
						return printErr
					}
				} else {
					c.printf("%s: processed %d, succeeded %d, failed %d in %s\n",
						report.Job, report.Processed, report.Succeeded, report.Failed,
						report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
					for _, message := range report.Errors {
						c.printf("  %s\n", message)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin account id (cleanup jobs)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation token (cleanup jobs)")
	return cmd
}

func guardedJob(jobs []scheduler.JobStatus, name string) bool {
	for _, job := range jobs {
		if job.Name == name {
			return job.Guarded
		}
	}
	return false
}

func (c *cli) printJSON(value any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
