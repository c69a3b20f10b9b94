package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	alertrepo "github.com/devcosts/devcosts/internal/alert/repository"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type registryAdapter struct {
	id string
}

func (a *registryAdapter) ID() string          { return a.id }
func (a *registryAdapter) Name() string        { return a.id }
func (a *registryAdapter) Description() string { return "" }

func (a *registryAdapter) CredentialFields() []providerdomain.CredentialField { return nil }

func (a *registryAdapter) TestConnection(ctx context.Context, creds map[string]string) providerdomain.TestResult {
	_ = ctx
	_ = creds
	return providerdomain.TestResult{Success: true}
}

func (a *registryAdapter) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []providerdomain.UsageData {
	_ = ctx
	_ = creds
	_ = start
	_ = end
	return nil
}

func setupAlertService(t *testing.T) (alertdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

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

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     alertrepo.Provide(),
		Registry: adapters.NewRegistry(
			&registryAdapter{id: "openai"},
			adapters.NewPlaceholder("aws", "AWS", "Coming soon", nil),
		),
	})
	return svc, db
}

func TestCreateAlertValidation(t *testing.T) {
	svc, _ := setupAlertService(t)

	tests := []struct {
		name string
		req  alertdomain.CreateRequest
		want error
	}{
		{"unknown type", alertdomain.CreateRequest{UserID: "u", Type: "spike", ThresholdCents: 100}, alertdomain.ErrInvalidType},
		{"zero threshold", alertdomain.CreateRequest{UserID: "u", Type: "budget", ThresholdCents: 0}, alertdomain.ErrInvalidThreshold},
		{"negative threshold", alertdomain.CreateRequest{UserID: "u", Type: "budget", ThresholdCents: -5}, alertdomain.ErrInvalidThreshold},
		{"provider type without provider", alertdomain.CreateRequest{UserID: "u", Type: "provider", ThresholdCents: 100}, alertdomain.ErrProviderRequired},
		{"provider type with unknown provider", alertdomain.CreateRequest{UserID: "u", Type: "provider", Provider: "netlify", ThresholdCents: 100}, alertdomain.ErrInvalidProvider},
		{"provider type with placeholder provider", alertdomain.CreateRequest{UserID: "u", Type: "provider", Provider: "aws", ThresholdCents: 100}, alertdomain.ErrInvalidProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(t.Context(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateAlertNormalizesInput(t *testing.T) {
	svc, _ := setupAlertService(t)

	resp, err := svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           " Budget ",
		ThresholdCents: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, alertdomain.AlertTypeBudget, resp.Type)
	assert.True(t, resp.Active)
	assert.Nil(t, resp.Provider)

	resp, err = svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           "provider",
		Provider:       "OpenAI",
		ThresholdCents: 2000,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Provider)
	assert.Equal(t, "openai", *resp.Provider)
}

func TestUpdateAlertTogglesActiveAndThreshold(t *testing.T) {
	svc, _ := setupAlertService(t)

	created, err := svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           "budget",
		ThresholdCents: 5000,
	})
	require.NoError(t, err)

	inactive := false
	threshold := int64(7500)
	updated, err := svc.Update(t.Context(), alertdomain.UpdateRequest{
		UserID:         "user-1",
		ID:             created.ID,
		Active:         &inactive,
		ThresholdCents: &threshold,
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, int64(7500), updated.ThresholdCents)

	bad := int64(0)
	_, err = svc.Update(t.Context(), alertdomain.UpdateRequest{
		UserID:         "user-1",
		ID:             created.ID,
		ThresholdCents: &bad,
	})
	assert.ErrorIs(t, err, alertdomain.ErrInvalidThreshold)
}

func TestUpdateAlertScopedToOwner(t *testing.T) {
	svc, _ := setupAlertService(t)

	created, err := svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           "budget",
		ThresholdCents: 5000,
	})
	require.NoError(t, err)

	active := false
	_, err = svc.Update(t.Context(), alertdomain.UpdateRequest{
		UserID: "user-2",
		ID:     created.ID,
		Active: &active,
	})
	assert.ErrorIs(t, err, alertdomain.ErrNotFound)
}

func TestDeleteAlertRemovesHistory(t *testing.T) {
	svc, db := setupAlertService(t)

	created, err := svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           "budget",
		ThresholdCents: 5000,
	})
	require.NoError(t, err)

	alertID, err := alertdomain.ParseID(created.ID)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`INSERT INTO alert_history (id, alert_id, user_id, amount_cents, message, triggered_at)
		 VALUES (1, ?, 'user-1', 6000, 'budget alert triggered', ?)`,
		alertID, time.Now().UTC(),
	).Error)

	require.NoError(t, svc.Delete(t.Context(), "user-1", created.ID))

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM alert_history`).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestHistoryOrderedNewestFirst(t *testing.T) {
	svc, db := setupAlertService(t)

	created, err := svc.Create(t.Context(), alertdomain.CreateRequest{
		UserID:         "user-1",
		Type:           "budget",
		ThresholdCents: 5000,
	})
	require.NoError(t, err)

	alertID, err := alertdomain.ParseID(created.ID)
	require.NoError(t, err)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Exec(
			`INSERT INTO alert_history (id, alert_id, user_id, amount_cents, message, triggered_at)
			 VALUES (?, ?, 'user-1', ?, 'budget alert triggered', ?)`,
			i+1, alertID, (i+1)*1000, base.AddDate(0, 0, i),
		).Error)
	}

	history, err := svc.History(t.Context(), "user-1", created.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(3000), history[0].AmountCents)
	assert.Equal(t, int64(2000), history[1].AmountCents)
}
