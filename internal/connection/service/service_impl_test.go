package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	connectionrepo "github.com/devcosts/devcosts/internal/connection/repository"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
	"github.com/devcosts/devcosts/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testAdapter struct {
	id         string
	testResult providerdomain.TestResult
}

func (a *testAdapter) ID() string          { return a.id }
func (a *testAdapter) Name() string        { return a.id }
func (a *testAdapter) Description() string { return "test" }

func (a *testAdapter) CredentialFields() []providerdomain.CredentialField {
	return []providerdomain.CredentialField{
		{Name: "api_key", Label: "API Key", Type: "password", Required: true},
		{Name: "organization_id", Label: "Organization ID", Type: "text", Required: false},
	}
}

func (a *testAdapter) TestConnection(ctx context.Context, creds map[string]string) providerdomain.TestResult {
	_ = ctx
	_ = creds
	return a.testResult
}

func (a *testAdapter) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []providerdomain.UsageData {
	_ = ctx
	_ = creds
	_ = start
	_ = end
	return nil
}

func setupConnectionService(t *testing.T) (connectiondomain.Service, *gorm.DB, *vault.Vault) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE connections (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		credentials TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_synced_at DATETIME,
		last_error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, provider)
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
		updated_at DATETIME NOT NULL
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	v, err := vault.New(key)
	require.NoError(t, err)

	registry := adapters.NewRegistry(
		&testAdapter{id: "openai", testResult: providerdomain.TestResult{Success: true}},
		adapters.NewPlaceholder("aws", "AWS", "Coming soon", []providerdomain.CredentialField{
			{Name: "access_token", Label: "Access Token", Type: "password", Required: true},
		}),
	)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     connectionrepo.Provide(),
		Vault:    v,
		Registry: registry,
	})
	return svc, db, v
}

func TestCreateConnectionEncryptsCredentialsAtRest(t *testing.T) {
	svc, db, v := setupConnectionService(t)

	resp, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "OpenAI",
		Credentials: map[string]string{"api_key": "sk-secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", resp.Provider)
	assert.True(t, resp.Active)

	var stored string
	require.NoError(t, db.Raw(
		`SELECT credentials FROM connections WHERE user_id = ?`, "user-1",
	).Scan(&stored).Error)

	// The blob is nonce:tag:payload hex, never the raw key material.
	assert.NotContains(t, stored, "sk-secret")
	assert.Len(t, strings.Split(stored, ":"), 3)

	creds, err := v.DecryptCredentials(stored)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", creds["api_key"])
}

func TestCreateConnectionRejectsUnknownProvider(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	_, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "netlify",
		Credentials: map[string]string{"api_key": "x"},
	})
	assert.ErrorIs(t, err, connectiondomain.ErrInvalidProvider)
}

func TestCreateConnectionRejectsPlaceholderProvider(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	_, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "aws",
		Credentials: map[string]string{"access_token": "x"},
	})
	assert.ErrorIs(t, err, connectiondomain.ErrProviderNotActive)
}

func TestCreateConnectionRejectsMissingRequiredField(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	_, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "openai",
		Credentials: map[string]string{"organization_id": "org-1"},
	})
	assert.ErrorIs(t, err, connectiondomain.ErrMissingField)

	_, err = svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:   "user-1",
		Provider: "openai",
	})
	assert.ErrorIs(t, err, connectiondomain.ErrMissingCredentials)
}

func TestCreateConnectionRejectsDuplicateProvider(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	req := connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "openai",
		Credentials: map[string]string{"api_key": "sk-secret"},
	}
	_, err := svc.Create(t.Context(), req)
	require.NoError(t, err)

	_, err = svc.Create(t.Context(), req)
	assert.ErrorIs(t, err, connectiondomain.ErrDuplicateConnection)

	// A different user may connect the same provider.
	req.UserID = "user-2"
	_, err = svc.Create(t.Context(), req)
	require.NoError(t, err)
}

func TestListNeverExposesCredentials(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	_, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "openai",
		Credentials: map[string]string{"api_key": "sk-secret"},
	})
	require.NoError(t, err)

	list, err := svc.List(t.Context(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "openai", list[0].Provider)
}

func TestDeleteConnectionCascadesUsage(t *testing.T) {
	svc, db, _ := setupConnectionService(t)

	resp, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "openai",
		Credentials: map[string]string{"api_key": "sk-secret"},
	})
	require.NoError(t, err)

	connID, err := connectiondomain.ParseID(resp.ID)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO usage_records (id, connection_id, user_id, provider, date, amount_cents, created_at, updated_at)
		 VALUES (1, ?, 'user-1', 'openai', '2026-08-29', 100, ?, ?)`,
		connID, now, now,
	).Error)

	require.NoError(t, svc.Delete(t.Context(), "user-1", resp.ID))

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM usage_records`).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteConnectionScopedToOwner(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	resp, err := svc.Create(t.Context(), connectiondomain.CreateRequest{
		UserID:      "user-1",
		Provider:    "openai",
		Credentials: map[string]string{"api_key": "sk-secret"},
	})
	require.NoError(t, err)

	err = svc.Delete(t.Context(), "user-2", resp.ID)
	assert.ErrorIs(t, err, connectiondomain.ErrNotFound)
}

func TestTestCredentialsPassesThroughAdapterResult(t *testing.T) {
	svc, _, _ := setupConnectionService(t)

	result, err := svc.TestCredentials(t.Context(), connectiondomain.TestRequest{
		Provider:    "openai",
		Credentials: map[string]string{"api_key": "sk-bad"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = svc.TestCredentials(t.Context(), connectiondomain.TestRequest{
		Provider:    "netlify",
		Credentials: map[string]string{"api_key": "x"},
	})
	assert.ErrorIs(t, err, connectiondomain.ErrInvalidProvider)
}
