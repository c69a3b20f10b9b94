package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/notify/email"
	"github.com/devcosts/devcosts/internal/notify/slack"
	"github.com/devcosts/devcosts/internal/observability/metrics"
	usagedomain "github.com/devcosts/devcosts/internal/usagerecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// An alert that fired stays quiet for a day regardless of how often the
// sweep runs.
const cooldown = 24 * time.Hour

const anomalyWindowDays = 30

// SweepResult reports one pass over every active alert.
type SweepResult struct {
	Checked   int `json:"checked"`
	Triggered int `json:"triggered"`
}

type Params struct {
	fx.In

	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Repo      alertdomain.Repository
	UsageRepo usagedomain.Repository
	Email     email.Provider
	Slack     slack.Provider
	Metrics   *metrics.SchedulerMetrics
}

// Evaluator sweeps active alerts against aggregated usage.
type Evaluator struct {
	cfg       config.Config
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	repo      alertdomain.Repository
	usageRepo usagedomain.Repository
	email     email.Provider
	slack     slack.Provider
	metrics   *metrics.SchedulerMetrics
}

func New(p Params) *Evaluator {
	return &Evaluator{
		cfg:       p.Config,
		db:        p.DB,
		log:       p.Log.Named("alert.evaluator"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      p.Repo,
		usageRepo: p.UsageRepo,
		email:     p.Email,
		slack:     p.Slack,
		metrics:   p.Metrics,
	}
}

// CheckAll evaluates every active alert once. A failing alert is logged
// and skipped so the rest of the sweep still runs.
func (e *Evaluator) CheckAll(ctx context.Context) (*SweepResult, error) {
	alerts, err := e.repo.ListActive(ctx, e.db)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Checked: len(alerts)}
	now := e.clock.Now().UTC()

	for i := range alerts {
		alert := &alerts[i]

		if alert.LastTriggeredAt != nil && now.Sub(*alert.LastTriggeredAt) < cooldown {
			continue
		}

		fired, amount, err := e.evaluate(ctx, alert, now)
		if err != nil {
			e.log.Warn("alert evaluation failed",
				zap.String("alert_id", alert.ID.String()),
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		if !fired {
			continue
		}

		if err := e.trigger(ctx, alert, amount, now); err != nil {
			e.log.Error("alert trigger failed",
				zap.String("alert_id", alert.ID.String()),
				zap.Error(err),
			)
			continue
		}
		result.Triggered++
	}

	e.log.Info("alert sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("triggered", result.Triggered),
	)
	return result, nil
}

func (e *Evaluator) evaluate(ctx context.Context, alert *alertdomain.Alert, now time.Time) (bool, int64, error) {
	today := now.Format("2006-01-02")
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

	switch alert.Type {
	case alertdomain.AlertTypeBudget:
		spend, err := e.usageRepo.SumRange(ctx, e.db, alert.UserID, monthStart, today)
		if err != nil {
			return false, 0, err
		}
		return spend >= alert.ThresholdCents, spend, nil

	case alertdomain.AlertTypeProvider:
		if alert.Provider == nil {
			return false, 0, nil
		}
		spend, err := e.usageRepo.SumRangeByProvider(ctx, e.db, alert.UserID, *alert.Provider, monthStart, today)
		if err != nil {
			return false, 0, err
		}
		return spend >= alert.ThresholdCents, spend, nil

	case alertdomain.AlertTypeAnomaly:
		todaySpend, err := e.usageRepo.SumRange(ctx, e.db, alert.UserID, today, today)
		if err != nil {
			return false, 0, err
		}

		// Trailing 30 full days, today excluded so a spike cannot
		// inflate its own baseline.
		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		windowStart := now.AddDate(0, 0, -anomalyWindowDays).Format("2006-01-02")
		historyTotal, err := e.usageRepo.SumRange(ctx, e.db, alert.UserID, windowStart, yesterday)
		if err != nil {
			return false, 0, err
		}

		avgDaily := float64(historyTotal) / anomalyWindowDays
		if avgDaily <= 0 {
			return false, 0, nil
		}
		// Both gates must hold: the relative spike over the baseline
		// and the absolute floor, so tiny spends never page anyone.
		fired := float64(todaySpend) > avgDaily*float64(alert.ThresholdCents)/100 &&
			todaySpend >= alert.ThresholdCents
		return fired, todaySpend, nil

	default:
		return false, 0, nil
	}
}

func (e *Evaluator) trigger(ctx context.Context, alert *alertdomain.Alert, amount int64, now time.Time) error {
	message := e.message(alert, amount)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := &alertdomain.AlertHistory{
			ID:          e.genID.Generate(),
			AlertID:     alert.ID,
			UserID:      alert.UserID,
			AmountCents: amount,
			Message:     message,
			TriggeredAt: now,
		}
		if err := e.repo.InsertHistory(ctx, tx, entry); err != nil {
			return err
		}
		return e.repo.SetLastTriggered(ctx, tx, alert.ID, now)
	})
	if err != nil {
		return err
	}

	e.metrics.IncAlertTriggered()
	e.log.Info("alert triggered",
		zap.String("alert_id", alert.ID.String()),
		zap.String("type", string(alert.Type)),
		zap.Int64("amount_cents", amount),
	)

	e.notify(ctx, alert, amount, message)
	return nil
}

// notify fans out to email and slack. Delivery failures are logged
// only: the trigger is already durable in alert_history.
func (e *Evaluator) notify(ctx context.Context, alert *alertdomain.Alert, amount int64, message string) {
	subject := "DevCosts Alert: budget threshold exceeded"
	if alert.Type == alertdomain.AlertTypeProvider && alert.Provider != nil {
		subject = fmt.Sprintf("DevCosts Alert: %s threshold exceeded", *alert.Provider)
	} else if alert.Type == alertdomain.AlertTypeAnomaly {
		subject = "DevCosts Alert: spend anomaly detected"
	}

	html := fmt.Sprintf(
		`<h2>Spend Alert Triggered</h2><p>%s</p><ul><li><strong>Current spend:</strong> %s</li><li><strong>Threshold:</strong> %s</li></ul>`,
		message,
		formatCurrency(amount),
		e.thresholdLabel(alert),
	)

	if len(e.cfg.Email.AlertRecipients) > 0 {
		if err := e.email.Send(ctx, e.cfg.Email.AlertRecipients, subject, html); err != nil {
			e.log.Warn("alert email failed", zap.String("alert_id", alert.ID.String()), zap.Error(err))
		}
	}
	if err := e.slack.PostMessage(ctx, message); err != nil {
		e.log.Warn("alert slack post failed", zap.String("alert_id", alert.ID.String()), zap.Error(err))
	}
}

func (e *Evaluator) message(alert *alertdomain.Alert, amount int64) string {
	if alert.Type == alertdomain.AlertTypeAnomaly {
		return fmt.Sprintf("anomaly alert triggered: today's spend of %s is at least %d%% of the trailing 30-day average",
			formatCurrency(amount), alert.ThresholdCents)
	}
	return fmt.Sprintf("%s alert triggered: %s exceeds threshold of %s",
		alert.Type, formatCurrency(amount), formatCurrency(alert.ThresholdCents))
}

func (e *Evaluator) thresholdLabel(alert *alertdomain.Alert) string {
	if alert.Type == alertdomain.AlertTypeAnomaly {
		return fmt.Sprintf("%d%% of trailing average", alert.ThresholdCents)
	}
	return formatCurrency(alert.ThresholdCents)
}

func formatCurrency(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
