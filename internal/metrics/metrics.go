// Package metrics exposes the service's Prometheus collectors. A nil *Recorder is valid and
// records nothing, so services can be built without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finance_app"

type Recorder struct {
	registry *prometheus.Registry

	cleanupRuns      *prometheus.CounterVec
	expensesDeleted  *prometheus.CounterVec
	amountDeleted    *prometheus.CounterVec
	cleanupFailures  *prometheus.CounterVec
	gateRejections   *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobRunning       *prometheus.GaugeVec
	jobLastSuccessTS *prometheus.GaugeVec
}

// New registers all collectors on registry. A nil registry gets a fresh one with the Go and
// process collectors attached.
func New(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Recorder{
		registry: registry,
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "cleanup_runs_total",
			Help:      "Completed cleanup runs by scope",
		}, []string{"scope"}),
		expensesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "expenses_deleted_total",
			Help:      "Expenses removed by retention cleanup",
		}, []string{"scope"}),
		amountDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "amount_deleted_total",
			Help:      "Sum of amounts of expenses removed by retention cleanup",
		}, []string{"scope"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "cleanup_failures_total",
			Help:      "Items or owners that failed during cleanup",
		}, []string{"scope"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "rejections_total",
			Help:      "Guarded requests rejected by action and reason",
		}, []string{"action", "reason"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "generated_total",
			Help:      "Weekly analyses computed and stored",
		}, []string{"suggestions"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and status",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"job"}),
		jobRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_running",
			Help:      "1 while a job is running",
		}, []string{"job"}),
		jobLastSuccessTS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}, []string{"job"}),
	}

	registry.MustRegister(
		r.cleanupRuns,
		r.expensesDeleted,
		r.amountDeleted,
		r.cleanupFailures,
		r.gateRejections,
		r.analyses,
		r.jobRuns,
		r.jobDuration,
		r.jobRunning,
		r.jobLastSuccessTS,
	)
	return r
}

func (r *Recorder) CleanupFinished(scope string, deleted, failed int, amount float64) {
	if r == nil {
		return
	}
	r.cleanupRuns.WithLabelValues(scope).Inc()
	r.expensesDeleted.WithLabelValues(scope).Add(float64(deleted))
	r.amountDeleted.WithLabelValues(scope).Add(amount)
	r.cleanupFailures.WithLabelValues(scope).Add(float64(failed))
}

func (r *Recorder) GateRejected(action, reason string) {
	if r == nil {
		return
	}
	r.gateRejections.WithLabelValues(action, reason).Inc()
}

func (r *Recorder) AnalysisGenerated(withSuggestions bool) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(strconv.FormatBool(withSuggestions)).Inc()
}

func (r *Recorder) JobStarted(job string) {
	if r == nil {
		return
	}
	r.jobRunning.WithLabelValues(job).Set(1)
}

func (r *Recorder) JobFinished(job string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	} else {
		r.jobLastSuccessTS.WithLabelValues(job).SetToCurrentTime()
	}
	r.jobRunning.WithLabelValues(job).Set(0)
	r.jobRuns.WithLabelValues(job, status).Inc()
	r.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
