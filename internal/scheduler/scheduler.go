package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devcosts/devcosts/internal/alert/evaluator"
	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/lock"
	"github.com/devcosts/devcosts/internal/observability/metrics"
	"github.com/devcosts/devcosts/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobSyncAll     = "sync_all"
	jobCheckAlerts = "check_alerts"

	lockKeySyncAll     = "sync:all"
	lockKeyCheckAlerts = "alerts:check"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Orchestrator *sync.Orchestrator
	Evaluator    *evaluator.Evaluator
	Metrics      *metrics.SchedulerMetrics
	Locker       *lock.Locker `optional:"true"`
	Config       Config       `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	orchestrator *sync.Orchestrator
	evaluator    *evaluator.Evaluator
	metrics      *metrics.SchedulerMetrics
	locker       *lock.Locker

	// nextDue is only touched by the run loop goroutine.
	nextDue map[string]time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Orchestrator == nil || p.Evaluator == nil {
		return nil, errors.New("scheduler_missing_dependencies")
	}

	return &Scheduler{
		log:          p.Log.Named("scheduler"),
		cfg:          p.Config.withDefaults(),
		clock:        p.Clock,
		orchestrator: p.Orchestrator,
		evaluator:    p.Evaluator,
		metrics:      p.Metrics,
		locker:       p.Locker,
		nextDue:      make(map[string]time.Time),
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	// A deadline is a soft timeout: the job gets cut short, the next
	// run picks up where it left off.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// withLock runs fn while holding the named redis lock, and skips the
// run entirely when another replica holds it. Without a locker fn
// runs unguarded.
func (s *Scheduler) withLock(ctx context.Context, name, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		s.log.Debug("job locked by another instance",
			zap.String("job", name),
			zap.String("lock_key", key),
		)
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("release lock failed",
				zap.String("lock_key", key),
				zap.Error(err),
			)
		}
	}()

	return fn(ctx)
}

func (s *Scheduler) SyncAllJob(ctx context.Context) error {
	result, err := s.orchestrator.SyncAll(ctx)
	if err != nil {
		return err
	}
	s.log.Info("batch sync finished",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return nil
}

func (s *Scheduler) CheckAlertsJob(ctx context.Context) error {
	result, err := s.evaluator.CheckAll(ctx)
	if err != nil {
		return err
	}
	s.log.Info("alert sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("triggered", result.Triggered),
	)
	return nil
}

// RunOnce runs every enabled job that is due. Due times advance even
// when a job fails so a broken job cannot spin the run loop.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name     string
		Enabled  bool
		Interval time.Duration
		Run      func(context.Context) error
	}{
		{jobSyncAll, s.isJobEnabled(jobSyncAll), s.cfg.SyncInterval, func(ctx context.Context) error {
			return s.withLock(ctx, jobSyncAll, lockKeySyncAll, func(ctx context.Context) error {
				return s.runJob(ctx, jobSyncAll, s.cfg.SyncTimeout, s.SyncAllJob)
			})
		}},
		{jobCheckAlerts, s.isJobEnabled(jobCheckAlerts), s.cfg.AlertCheckInterval, func(ctx context.Context) error {
			return s.withLock(ctx, jobCheckAlerts, lockKeyCheckAlerts, func(ctx context.Context) error {
				return s.runJob(ctx, jobCheckAlerts, s.cfg.AlertCheckTimeout, s.CheckAlertsJob)
			})
		}},
	}

	now := s.clock.Now()
	for _, job := range jobs {
		if !job.Enabled || now.Before(s.nextDue[job.Name]) {
			continue
		}
		s.nextDue[job.Name] = now.Add(job.Interval)
		err = errors.Join(err, job.Run(parent))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
