package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/notify/pdf"
	usagedomain "github.com/devcosts/devcosts/internal/usagerecord/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubUsageRepo struct {
	total     int64
	providers []usagedomain.ProviderTotal
	daily     []usagedomain.DailyTotal

	lastFrom string
	lastTo   string
}

func (s *stubUsageRepo) UpsertDay(ctx context.Context, db *gorm.DB, record *usagedomain.UsageRecord) error {
	_ = ctx
	_ = db
	_ = record
	return nil
}

func (s *stubUsageRepo) SumRange(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) (int64, error) {
	_ = ctx
	_ = db
	_ = userID
	s.lastFrom = fromDate
	s.lastTo = toDate
	return s.total, nil
}

func (s *stubUsageRepo) SumRangeByProvider(ctx context.Context, db *gorm.DB, userID, provider, fromDate, toDate string) (int64, error) {
	_ = ctx
	_ = db
	_ = userID
	_ = provider
	_ = fromDate
	_ = toDate
	return 0, nil
}

func (s *stubUsageRepo) SumByDay(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]usagedomain.DailyTotal, error) {
	_ = ctx
	_ = db
	_ = userID
	_ = fromDate
	_ = toDate
	return s.daily, nil
}

func (s *stubUsageRepo) SumByProvider(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]usagedomain.ProviderTotal, error) {
	_ = ctx
	_ = db
	_ = userID
	_ = fromDate
	_ = toDate
	return s.providers, nil
}

func (s *stubUsageRepo) ListByConnection(ctx context.Context, db *gorm.DB, connectionID int64, fromDate, toDate string) ([]usagedomain.UsageRecord, error) {
	_ = ctx
	_ = db
	_ = connectionID
	_ = fromDate
	_ = toDate
	return nil, nil
}

func newTestService(repo usagedomain.Repository, now time.Time) *Service {
	return New(Params{
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(now),
		UsageRepo: repo,
		PDF:       &pdf.NoOpProvider{},
	})
}

func TestSummaryMonthToDateWindow(t *testing.T) {
	repo := &stubUsageRepo{total: 1500}
	svc := newTestService(repo, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	summary, err := svc.Summary(t.Context(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "2026-08", summary.Month)
	assert.Equal(t, int64(1500), summary.MonthToDateCents)
	assert.Equal(t, "2026-08-01", repo.lastFrom)
	assert.Equal(t, "2026-08-30", repo.lastTo)
}

func TestSummaryLinearProjection(t *testing.T) {
	// 1500 cents over 30 of 31 days projects to 1550.
	repo := &stubUsageRepo{total: 1500}
	svc := newTestService(repo, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	summary, err := svc.Summary(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1550), summary.ProjectedCents)
}

func TestSummaryProjectionOnFirstDay(t *testing.T) {
	repo := &stubUsageRepo{total: 100}
	svc := newTestService(repo, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))

	summary, err := svc.Summary(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), summary.ProjectedCents)
}

func TestSummaryZeroSpend(t *testing.T) {
	svc := newTestService(&stubUsageRepo{}, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))

	summary, err := svc.Summary(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, summary.MonthToDateCents)
	assert.Zero(t, summary.ProjectedCents)
}
