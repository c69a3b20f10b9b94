package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeDB               = "db"
	SchedulerErrorTypeRemote           = "remote"
	SchedulerErrorTypeUnknown          = "unknown"
)

// SchedulerMetrics captures sync/alert job health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobTimeouts *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	itemsSynced *prometheus.CounterVec
	alertsFired prometheus.Counter
	runLoopLag  prometheus.Observer
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "devcosts_scheduler_job_runs_total",
			Help: "Scheduler job invocations by job name.",
		}, []string{"job"}),
		jobErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "devcosts_scheduler_job_errors_total",
			Help: "Scheduler job failures by job name and error type.",
		}, []string{"job", "type"}),
		jobTimeouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "devcosts_scheduler_job_timeouts_total",
			Help: "Scheduler job soft timeouts by job name.",
		}, []string{"job"}),
		jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devcosts_scheduler_job_duration_seconds",
			Help:    "Scheduler job wall time by job name.",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
		itemsSynced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "devcosts_sync_connections_total",
			Help: "Connections processed by batch sync, by outcome.",
		}, []string{"outcome"}),
		alertsFired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "devcosts_alerts_triggered_total",
			Help: "Alert rules that fired.",
		}),
		runLoopLag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "devcosts_scheduler_run_loop_lag_seconds",
			Help:    "Delay between the scheduled and actual start of a run.",
			Buckets: []float64{.05, .25, 1, 5, 15, 60},
		}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, classifySchedulerError(err)).Inc()
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncConnectionSynced(outcome string) {
	if m == nil {
		return
	}
	m.itemsSynced.WithLabelValues(outcome).Inc()
}

func (m *SchedulerMetrics) IncAlertTriggered() {
	if m == nil {
		return
	}
	m.alertsFired.Inc()
}

func (m *SchedulerMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil || lag <= 0 {
		return
	}
	m.runLoopLag.Observe(lag.Seconds())
}

func classifySchedulerError(err error) string {
	if err == nil {
		return SchedulerErrorTypeUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SchedulerErrorTypeDeadlineExceeded
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return SchedulerErrorTypeDB
	}
	if errors.Is(err, gorm.ErrInvalidTransaction) || errors.Is(err, gorm.ErrInvalidDB) {
		return SchedulerErrorTypeDB
	}
	return SchedulerErrorTypeUnknown
}
