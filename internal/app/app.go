package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finance-app-go/internal/batch"
	"finance-app-go/internal/config"
	"finance-app-go/internal/db"
	accountsdomain "finance-app-go/internal/domain/accounts"
	analysisdomain "finance-app-go/internal/domain/analysis"
	expensesdomain "finance-app-go/internal/domain/expenses"
	"finance-app-go/internal/domain/gate"
	retentiondomain "finance-app-go/internal/domain/retention"
	"finance-app-go/internal/metrics"
	"finance-app-go/internal/notify"
	"finance-app-go/internal/repository/inmemory"
	accountsrepo "finance-app-go/internal/repository/postgres/accounts"
	analysisrepo "finance-app-go/internal/repository/postgres/analysis"
	expensesrepo "finance-app-go/internal/repository/postgres/expenses"
	"finance-app-go/internal/scheduler"
	"finance-app-go/internal/transport/httpserver"
	"finance-app-go/internal/transport/httpserver/handler"
	analysishandler "finance-app-go/internal/transport/httpserver/handler/analysis"
	"finance-app-go/internal/transport/httpserver/handler/common"
	expenseshandler "finance-app-go/internal/transport/httpserver/handler/expenses"
	retentionhandler "finance-app-go/internal/transport/httpserver/handler/retention"
	"finance-app-go/pkg/logger"
	"gorm.io/gorm"
)

// Core holds the configured services without any transport. The ops CLI uses it directly.
type Core struct {
	Config    config.Config
	Accounts  *accountsdomain.Service
	Expenses  *expensesdomain.Service
	Analysis  *analysisdomain.Service
	Retention *retentiondomain.Service
	Gate      *gate.Gate
	Metrics   *metrics.Recorder
	Scheduler *scheduler.Scheduler

	log logger.Logger
	db  *gorm.DB
}

type App struct {
	*Core
	httpServer *http.Server
}

func NewCore(log logger.Logger) (*Core, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(dbConn, log); err != nil {
			_ = db.Close(dbConn)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	core, err := Assemble(cfg, dbConn, log)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	return core, nil
}

// Assemble wires repositories, services and jobs on an open connection.
func Assemble(cfg config.Config, dbConn *gorm.DB, log logger.Logger) (*Core, error) {
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(nil)
	}

	accountRepo := accountsrepo.NewPostgres(dbConn)
	expenseRepo := expensesrepo.NewPostgres(dbConn)
	analysisRepo := analysisrepo.NewPostgres(dbConn)

	guard := gate.New(gate.Config{
		MinAccountAge:           cfg.Retention.MinAccountAge,
		OwnerConfirmation:       cfg.Retention.OwnerConfirmation,
		GlobalConfirmation:      cfg.Retention.GlobalConfirmation,
		OwnerCleanupsPerHour:    cfg.Retention.OwnerCleanupsPerHour,
		GlobalCleanupsPerDay:    cfg.Retention.GlobalCleanupsPerDay,
		SettingsUpdatesPerHour:  cfg.Retention.SettingsUpdatesPerHour,
		AnalysisGeneratePerHour: cfg.Analysis.GeneratePerHour,
	}, log, recorder)

	accountService := accountsdomain.NewService(accountRepo, inmemory.NewInMemoryAccountCache(), cfg.Supabase.AccountSyncTTL)
	expenseService := expensesdomain.NewService(expenseRepo, nil)
	analysisService := analysisdomain.NewService(analysisRepo, expenseRepo, analysisdomain.Options{
		TopExpenses:        cfg.Analysis.TopExpenses,
		RecentDefaultLimit: cfg.Analysis.RecentDefaultLimit,
		RecentMaxLimit:     cfg.Analysis.RecentMaxLimit,
		Limiter:            guard.Throttler(gate.ActionAnalysisGenerate),
		Metrics:            recorder,
	})

	owners := batch.Options{
		Size:        cfg.Scheduler.OwnerBatchSize,
		Concurrency: cfg.Scheduler.OwnerConcurrency,
		Delay:       cfg.Scheduler.OwnerBatchDelay,
	}
	retentionService := retentiondomain.NewService(expenseRepo, analysisRepo, accountRepo, guard, recorder, log, retentiondomain.Options{
		DefaultMonths: cfg.Retention.DefaultMonths,
		BatchSize:     cfg.Retention.BatchSize,
		BatchPause:    cfg.Retention.BatchPause,
		Owners:        owners,
	})

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	jobs := scheduler.New(log, recorder, location)
	err = scheduler.RegisterDefaultJobs(jobs, scheduler.Schedules{
		DailyCleanup:   cfg.Scheduler.DailyCleanup,
		WeeklyAnalysis: cfg.Scheduler.WeeklyAnalysis,
		MonthlyCleanup: cfg.Scheduler.MonthlyCleanup,
	}, scheduler.JobDeps{
		Retention: retentionService,
		Analysis:  analysisService,
		Owners:    accountService,
		Notifier:  notify.NewLogNotifier(log),
		Batch:     owners,
		Log:       log,
	})
	if err != nil {
		return nil, err
	}

	return &Core{
		Config:    cfg,
		Accounts:  accountService,
		Expenses:  expenseService,
		Analysis:  analysisService,
		Retention: retentionService,
		Gate:      guard,
		Metrics:   recorder,
		Scheduler: jobs,
		log:       log,
		db:        dbConn,
	}, nil
}

func New(log logger.Logger) (*App, error) {
	core, err := NewCore(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing http server")
	return &App{
		Core:       core,
		httpServer: httpserver.New(core.Config, core.Router()),
	}, nil
}

func (c *Core) Router() http.Handler {
	handlers := handler.New(
		common.New(c.Accounts, db.NewPinger(c.db), c.log),
		analysishandler.New(c.Analysis, c.log),
		retentionhandler.New(c.Retention, c.Scheduler, c.log),
		expenseshandler.New(c.Expenses, c.log),
	)

	deps := httpserver.Deps{Accounts: c.Accounts}
	if c.Metrics != nil {
		deps.Metrics = c.Metrics.Handler()
	}
	return httpserver.NewRouter(c.Config, handlers, deps, c.log)
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// StartScheduler starts the cron loop when the scheduler is enabled. It stops with ctx.
func (c *Core) StartScheduler(ctx context.Context) {
	if !c.Config.Scheduler.Enabled {
		c.log.Info("scheduler: disabled by config")
		return
	}
	c.Scheduler.Start(ctx)
}

func (c *Core) Close() error {
	c.Scheduler.Stop()
	if c.db == nil {
		return nil
	}
	return db.Close(c.db)
}
