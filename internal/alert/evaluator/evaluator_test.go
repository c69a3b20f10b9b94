package evaluator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	alertrepo "github.com/devcosts/devcosts/internal/alert/repository"
	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/config"
	usagerepo "github.com/devcosts/devcosts/internal/usagerecord/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeEmail struct {
	sent     int
	lastTo   []string
	lastSubj string
	err      error
}

func (f *fakeEmail) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	_ = ctx
	_ = htmlBody
	f.sent++
	f.lastTo = to
	f.lastSubj = subject
	return f.err
}

type fakeSlack struct {
	posts    int
	lastText string
	err      error
}

func (f *fakeSlack) PostMessage(ctx context.Context, message string) error {
	_ = ctx
	f.posts++
	f.lastText = message
	return f.err
}

type evalFixture struct {
	eval  *Evaluator
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	email *fakeEmail
	slack *fakeSlack
}

func setupEvaluator(t *testing.T) *evalFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	prepareAlertSchema(t, db)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	mail := &fakeEmail{}
	hook := &fakeSlack{}

	eval := New(Params{
		Config: config.Config{
			Email: config.EmailConfig{AlertRecipients: []string{"ops@example.com"}},
		},
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fc,
		GenID:     node,
		Repo:      alertrepo.Provide(),
		UsageRepo: usagerepo.Provide(),
		Email:     mail,
		Slack:     hook,
	})

	return &evalFixture{eval: eval, db: db, node: node, clock: fc, email: mail, slack: hook}
}

func prepareAlertSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(`CREATE TABLE alerts (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		provider TEXT,
		threshold_cents BIGINT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_triggered_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE alert_history (
		id BIGINT PRIMARY KEY,
		alert_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		message TEXT NOT NULL,
		triggered_at DATETIME NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE usage_records (
		id BIGINT PRIMARY KEY,
		connection_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		date TEXT NOT NULL,
		amount_cents BIGINT NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'usd',
		raw_data JSON,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (connection_id, date)
	)`).Error)
}

func (f *evalFixture) seedAlert(t *testing.T, userID string, typ alertdomain.AlertType, provider *string, threshold int64) *alertdomain.Alert {
	t.Helper()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	alert := &alertdomain.Alert{
		ID:             f.node.Generate(),
		UserID:         userID,
		Type:           typ,
		Provider:       provider,
		ThresholdCents: threshold,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, alertrepo.Provide().Insert(context.Background(), f.db, alert))
	return alert
}

func (f *evalFixture) seedSpend(t *testing.T, userID, provider, date string, cents int64) {
	t.Helper()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Exec(
		`INSERT INTO usage_records (id, connection_id, user_id, provider, date, amount_cents, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'usd', ?, ?)`,
		f.node.Generate(), f.node.Generate(), userID, provider, date, cents, now, now,
	).Error)
}

func (f *evalFixture) historyCount(t *testing.T, alertID snowflake.ID) int {
	t.Helper()
	var count int
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM alert_history WHERE alert_id = ?`, alertID,
	).Scan(&count).Error)
	return count
}

func TestBudgetAlertFiresAtThreshold(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 5000)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 3000)
	f.seedSpend(t, "user-1", "stripe", "2026-08-20", 2000)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Triggered)

	assert.Equal(t, 1, f.historyCount(t, alert.ID))
	assert.Equal(t, 1, f.email.sent)
	assert.Equal(t, []string{"ops@example.com"}, f.email.lastTo)
	assert.Equal(t, 1, f.slack.posts)
	assert.Contains(t, f.slack.lastText, "budget alert triggered")
	assert.Contains(t, f.slack.lastText, "$50.00")

	got, err := alertrepo.Provide().FindByID(t.Context(), f.db, "user-1", alert.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastTriggeredAt)
}

func TestBudgetAlertBelowThresholdStaysQuiet(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 5000)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 4999)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)
	assert.Zero(t, f.historyCount(t, alert.ID))
	assert.Zero(t, f.email.sent)
}

func TestBudgetAlertIgnoresPreviousMonth(t *testing.T) {
	f := setupEvaluator(t)
	f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 5000)
	f.seedSpend(t, "user-1", "openai", "2026-07-31", 9000)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)
}

func TestProviderAlertScopedToProvider(t *testing.T) {
	f := setupEvaluator(t)
	provider := "openai"
	f.seedAlert(t, "user-1", alertdomain.AlertTypeProvider, &provider, 2500)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 2000)
	f.seedSpend(t, "user-1", "stripe", "2026-08-10", 9000)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)

	f.seedSpend(t, "user-1", "openai", "2026-08-20", 600)
	result, err = f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)
	assert.Contains(t, f.slack.lastText, "provider alert triggered")
}

func TestAnomalyAlertComparesTodayToTrailingAverage(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeAnomaly, nil, 200)

	// 3000 cents over the trailing window yields a 100 cent daily
	// average; the threshold of 200% puts the bar at 200 cents.
	for day := 1; day <= 30; day++ {
		date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -day).Format("2006-01-02")
		f.seedSpend(t, "user-1", "openai", date, 100)
	}
	f.seedSpend(t, "user-1", "openai", "2026-08-30", 150)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)

	f.seedSpend(t, "user-1", "stripe", "2026-08-30", 100)
	result, err = f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)
	assert.Equal(t, 1, f.historyCount(t, alert.ID))
	assert.Contains(t, f.slack.lastText, "anomaly alert triggered")
}

func TestAnomalyAlertRequiresAbsoluteFloor(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeAnomaly, nil, 200)

	// A 10 cent daily average puts the relative bar at 20 cents, but
	// 25 cents today is still below the 200 cent floor.
	for day := 1; day <= 30; day++ {
		date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -day).Format("2006-01-02")
		f.seedSpend(t, "user-1", "openai", date, 10)
	}
	f.seedSpend(t, "user-1", "openai", "2026-08-30", 25)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)
	assert.Zero(t, f.historyCount(t, alert.ID))
}

func TestAnomalyAlertNeedsHistory(t *testing.T) {
	f := setupEvaluator(t)
	f.seedAlert(t, "user-1", alertdomain.AlertTypeAnomaly, nil, 200)
	f.seedSpend(t, "user-1", "openai", "2026-08-30", 10000)

	// No trailing history means no baseline, so even a large day
	// stays quiet.
	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)
}

func TestCooldownSuppressesRetrigger(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 1000)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 5000)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)

	// An hour later the alert is still cooling down.
	f.clock.Advance(time.Hour)
	result, err = f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Triggered)
	assert.Equal(t, 1, f.historyCount(t, alert.ID))

	// Past the 24h cooldown it fires again.
	f.clock.Advance(24 * time.Hour)
	result, err = f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)
	assert.Equal(t, 2, f.historyCount(t, alert.ID))
}

func TestNotificationFailureDoesNotFailTrigger(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 1000)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 5000)
	f.email.err = fmt.Errorf("smtp down")
	f.slack.err = fmt.Errorf("webhook down")

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)
	assert.Equal(t, 1, f.historyCount(t, alert.ID))
}

func TestInactiveAlertSkipped(t *testing.T) {
	f := setupEvaluator(t)
	alert := f.seedAlert(t, "user-1", alertdomain.AlertTypeBudget, nil, 1000)
	require.NoError(t, f.db.Exec(`UPDATE alerts SET active = ? WHERE id = ?`, false, alert.ID).Error)
	f.seedSpend(t, "user-1", "openai", "2026-08-10", 5000)

	result, err := f.eval.CheckAll(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Checked)
	assert.Zero(t, result.Triggered)
}
