// Package scheduler runs named jobs on cron schedules and on demand. A manual trigger runs the
// same function the schedule runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finance-app-go/internal/domain/errs"
	"finance-app-go/pkg/logger"
	"github.com/robfig/cron/v3"
)

type JobFunc func(ctx context.Context) (Report, error)

// Caller is whoever asked for a manual run, with the confirmation they supplied.
type Caller struct {
	ID           string
	Confirmation string
}

// Authorizer approves a manual run before it starts. Scheduled runs never call it.
type Authorizer func(ctx context.Context, caller Caller) error

type Job struct {
	Name      string
	Schedule  string
	Run       JobFunc
	Authorize Authorizer
}

// Report summarizes one job run.
type Report struct {
	Job        string    `json:"job"`
	Trigger    string    `json:"trigger"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors"`
	Details    any       `json:"details,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type JobStatus struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Guarded    bool       `json:"requires_confirmation"`
	Scheduled  bool       `json:"scheduled"`
	Running    bool       `json:"running"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	LastReport *Report    `json:"last_report,omitempty"`
}

type Metrics interface {
	JobStarted(job string)
	JobFinished(job string, duration time.Duration, err error)
}

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

type jobState struct {
	job        Job
	entryID    cron.EntryID
	running    bool
	lastRun    *time.Time
	lastError  string
	lastReport *Report
}

type Scheduler struct {
	cron    *cron.Cron
	log     logger.Logger
	metrics Metrics
	now     func() time.Time

	mu      sync.Mutex
	jobs    map[string]*jobState
	order   []string
	started bool
	ctx     context.Context
}

func New(log logger.Logger, metrics Metrics, location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(location)),
		log:     log,
		metrics: metrics,
		now:     time.Now,
		jobs:    make(map[string]*jobState),
		ctx:     context.Background(),
	}
}

// Register adds job under its name. The schedule is a standard five-field cron expression.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("scheduler: job name and func are required")
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %s already registered", job.Name)
	}

	name := job.Name
	entryID, err := s.cron.AddFunc(job.Schedule, func() {
		if _, err := s.execute(s.runContext(), name, TriggerSchedule, nil); err != nil {
			s.log.Warn("scheduler: scheduled run did not complete", "job", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: schedule %s: %w", job.Name, err)
	}

	s.jobs[name] = &jobState{job: job, entryID: entryID}
	s.order = append(s.order, name)
	return nil
}

// Start runs the cron loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.ctx = ctx
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("scheduler: started", "jobs", len(s.order))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the cron loop and waits for running scheduled jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("scheduler: stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		state := s.jobs[name]
		status := JobStatus{
			Name:       name,
			Schedule:   state.job.Schedule,
			Guarded:    state.job.Authorize != nil,
			Scheduled:  s.started,
			Running:    state.running,
			LastRun:    state.lastRun,
			LastError:  state.lastError,
			LastReport: state.lastReport,
		}
		if s.started {
			if next := s.cron.Entry(state.entryID).Next; !next.IsZero() {
				status.NextRun = &next
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Trigger runs the named job now and waits for it. A guarded job runs only after its Authorizer
// accepts caller; a rejected trigger returns an empty Report.
func (s *Scheduler) Trigger(ctx context.Context, name string, caller Caller) (Report, error) {
	return s.execute(ctx, name, TriggerManual, &caller)
}

func (s *Scheduler) execute(ctx context.Context, name, trigger string, caller *Caller) (Report, error) {
	s.mu.Lock()
	state, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return Report{}, errs.NotFound("job %q not found", name)
	}
	if state.running {
		s.mu.Unlock()
		return Report{}, errs.Conflict("job %q is already running", name)
	}
	authorize := state.job.Authorize
	s.mu.Unlock()

	if caller != nil && authorize != nil {
		if err := authorize(ctx, *caller); err != nil {
			s.log.Warn("scheduler: manual run rejected", "job", name, "caller", caller.ID, "err", err)
			return Report{}, err
		}
	}

	s.mu.Lock()
	if state.running {
		s.mu.Unlock()
		return Report{}, errs.Conflict("job %q is already running", name)
	}
	state.running = true
	run := state.job.Run
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.JobStarted(name)
	}
	started := s.now()
	s.log.Info("scheduler: job started", "job", name, "trigger", trigger)

	report, err := s.safeRun(ctx, name, run)
	finished := s.now()
	report.Job = name
	report.Trigger = trigger
	report.StartedAt = started.UTC()
	report.FinishedAt = finished.UTC()
	if report.Errors == nil {
		report.Errors = []string{}
	}

	s.mu.Lock()
	state.running = false
	lastRun := report.StartedAt
	state.lastRun = &lastRun
	state.lastError = ""
	if err != nil {
		state.lastError = err.Error()
	}
	stored := report
	state.lastReport = &stored
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.JobFinished(name, finished.Sub(started), err)
	}
	if err != nil {
		s.log.Error("scheduler: job failed", "job", name, "trigger", trigger, "err", err,
			"processed", report.Processed, "failed", report.Failed)
	} else {
		s.log.Info("scheduler: job completed", "job", name, "trigger", trigger,
			"processed", report.Processed, "succeeded", report.Succeeded, "duration", finished.Sub(started))
	}
	return report, err
}

func (s *Scheduler) safeRun(ctx context.Context, name string, run JobFunc) (report Report, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Critical("scheduler: job panicked", "job", name, "panic", recovered)
			err = fmt.Errorf("job %s panicked: %v", name, recovered)
		}
	}()
	return run(ctx)
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
