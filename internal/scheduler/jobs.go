package scheduler

import (
	"context"
	"time"

	"finance-app-go/internal/batch"
	"finance-app-go/internal/domain/accounts"
	"finance-app-go/internal/domain/analysis"
	"finance-app-go/internal/domain/errs"
	"finance-app-go/internal/domain/retention"
	"finance-app-go/internal/notify"
	"finance-app-go/pkg/logger"
)

const (
	JobDailyAutoCleanup     = "daily-auto-cleanup"
	JobWeeklyAnalysis       = "weekly-analysis"
	JobMonthlyGlobalCleanup = "monthly-global-cleanup"
)

type RetentionRunner interface {
	AuthorizeGlobalCleanup(ctx context.Context, adminID, confirmation string) error
	CleanupAutoEnabled(ctx context.Context) (retention.GlobalCleanupResult, error)
	CleanupAll(ctx context.Context) (retention.GlobalCleanupResult, error)
}

type AnalysisRunner interface {
	Generate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*analysis.WeeklyAnalysis, error)
}

type OwnerLister interface {
	ListActive(ctx context.Context) ([]accounts.Account, error)
}

type Schedules struct {
	DailyCleanup   string
	WeeklyAnalysis string
	MonthlyCleanup string
}

type JobDeps struct {
	Retention RetentionRunner
	Analysis  AnalysisRunner
	Owners    OwnerLister
	Notifier  notify.Notifier
	Batch     batch.Options
	Log       logger.Logger
	Now       func() time.Time
}

// RegisterDefaultJobs adds the cleanup and analysis jobs.
func RegisterDefaultJobs(s *Scheduler, schedules Schedules, deps JobDeps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	jobs := []Job{
		{Name: JobDailyAutoCleanup, Schedule: schedules.DailyCleanup, Run: dailyAutoCleanup(deps), Authorize: globalCleanupGate(deps)},
		{Name: JobWeeklyAnalysis, Schedule: schedules.WeeklyAnalysis, Run: weeklyAnalysis(deps)},
		{Name: JobMonthlyGlobalCleanup, Schedule: schedules.MonthlyCleanup, Run: monthlyGlobalCleanup(deps), Authorize: globalCleanupGate(deps)},
	}
	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// globalCleanupGate makes a manual cleanup run pass the same confirmation, admin and daily-limit
// checks as the global cleanup endpoint.
func globalCleanupGate(deps JobDeps) Authorizer {
	return func(ctx context.Context, caller Caller) error {
		if deps.Retention == nil {
			return errs.NotAuthorized("retention engine is not configured")
		}
		return deps.Retention.AuthorizeGlobalCleanup(ctx, caller.ID, caller.Confirmation)
	}
}

func dailyAutoCleanup(deps JobDeps) JobFunc {
	return func(ctx context.Context) (Report, error) {
		result, err := deps.Retention.CleanupAutoEnabled(ctx)
		return cleanupReport(result, err)
	}
}

func monthlyGlobalCleanup(deps JobDeps) JobFunc {
	return func(ctx context.Context) (Report, error) {
		result, err := deps.Retention.CleanupAll(ctx)
		return cleanupReport(result, err)
	}
}

func cleanupReport(result retention.GlobalCleanupResult, err error) (Report, error) {
	report := Report{
		Processed: result.ProcessedUsers,
		Succeeded: result.CleanedUsers,
		Failed:    len(result.Errors),
		Details:   result,
	}
	for _, ownerErr := range result.Errors {
		report.Errors = append(report.Errors, ownerErr.OwnerID+": "+ownerErr.Error)
	}
	if err != nil {
		return report, err
	}
	return report, result.Err()
}

type weeklyDetails struct {
	WeekStart string `json:"week_start"`
	Notified  int    `json:"notified"`
}

// weeklyAnalysis generates last week's analysis with suggestions for every active owner and
// sends a summary to owners with an email address.
func weeklyAnalysis(deps JobDeps) JobFunc {
	return func(ctx context.Context) (Report, error) {
		owners, err := deps.Owners.ListActive(ctx)
		if err != nil {
			return Report{}, errs.Unavailable("account store", err)
		}

		weekStart := analysis.PreviousWeekStart(deps.Now())
		details := weeklyDetails{WeekStart: weekStart.Format("2006-01-02")}
		notified := make(chan struct{}, len(owners))

		run, runErr := batch.Run(ctx, owners, deps.Batch,
			func(account accounts.Account) string { return account.ID },
			func(ctx context.Context, account accounts.Account) error {
				item, err := deps.Analysis.Generate(ctx, account.ID, weekStart, true)
				if err != nil {
					return err
				}
				if deps.Notifier == nil || account.EmailAddress() == "" {
					return nil
				}
				subject, body := notify.WeeklySummary(*item)
				if err := deps.Notifier.Notify(ctx, account.EmailAddress(), subject, body); err != nil {
					deps.Log.Warn("scheduler.weekly_analysis: notify failed", "owner_id", account.ID, "err", err)
					return nil
				}
				notified <- struct{}{}
				return nil
			})
		close(notified)
		for range notified {
			details.Notified++
		}

		report := Report{
			Processed: run.Processed,
			Succeeded: run.Processed - run.Failed,
			Failed:    run.Failed,
			Details:   details,
		}
		for _, failure := range run.Errors {
			report.Errors = append(report.Errors, failure.Error())
		}
		if runErr != nil {
			return report, runErr
		}
		if run.Failed > 0 {
			return report, errs.Partial(run.Failed, run.Processed)
		}
		return report, nil
	}
}
