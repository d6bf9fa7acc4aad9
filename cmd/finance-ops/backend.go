package main

import (
	"context"
	"time"

	"finance-app-go/internal/app"
	analysisdomain "finance-app-go/internal/domain/analysis"
	retentiondomain "finance-app-go/internal/domain/retention"
	"finance-app-go/internal/scheduler"
)

// backend is what the commands need from the application.
type backend interface {
	Confirmations() (owner, global string)
	Preview(ctx context.Context, ownerID string, months int) (retentiondomain.CleanupPreview, error)
	Cleanup(ctx context.Context, ownerID string, months int) (retentiondomain.CleanupResult, error)
	CleanupAll(ctx context.Context, adminID, confirmation string) (retentiondomain.GlobalCleanupResult, error)
	Generate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*analysisdomain.WeeklyAnalysis, error)
	Jobs() []scheduler.JobStatus
	RunJob(ctx context.Context, name string, caller scheduler.Caller) (scheduler.Report, error)
	Close() error
}

type coreBackend struct {
	core *app.Core
}

func (b *coreBackend) Confirmations() (string, string) {
	return b.core.Config.Retention.OwnerConfirmation, b.core.Config.Retention.GlobalConfirmation
}

// Preview and Cleanup fall back to the owner's saved window when months is zero.
func (b *coreBackend) Preview(ctx context.Context, ownerID string, months int) (retentiondomain.CleanupPreview, error) {
	months, err := b.months(ctx, ownerID, months)
	if err != nil {
		return retentiondomain.CleanupPreview{}, err
	}
	return b.core.Retention.Preview(ctx, ownerID, months)
}

func (b *coreBackend) Cleanup(ctx context.Context, ownerID string, months int) (retentiondomain.CleanupResult, error) {
	months, err := b.months(ctx, ownerID, months)
	if err != nil {
		return retentiondomain.CleanupResult{}, err
	}
	return b.core.Retention.Cleanup(ctx, ownerID, months)
}

// CleanupAll goes through the same admin, token and daily limit checks as the HTTP endpoint.
func (b *coreBackend) CleanupAll(ctx context.Context, adminID, confirmation string) (retentiondomain.GlobalCleanupResult, error) {
	return b.core.Retention.ConfirmedCleanupAll(ctx, adminID, confirmation)
}

func (b *coreBackend) Generate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*analysisdomain.WeeklyAnalysis, error) {
	return b.core.Analysis.Generate(ctx, ownerID, weekStart, includeSuggestions)
}

func (b *coreBackend) Jobs() []scheduler.JobStatus {
	return b.core.Scheduler.Status()
}

func (b *coreBackend) RunJob(ctx context.Context, name string, caller scheduler.Caller) (scheduler.Report, error) {
	return b.core.Scheduler.Trigger(ctx, name, caller)
}

func (b *coreBackend) Close() error {
	return b.core.Close()
}

func (b *coreBackend) months(ctx context.Context, ownerID string, months int) (int, error) {
	if months != 0 {
		return months, nil
	}
	settings, err := b.core.Retention.GetSettings(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return settings.RetentionMonths, nil
}
