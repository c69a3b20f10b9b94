package repository

import (
	"context"

	usagedomain "github.com/devcosts/devcosts/internal/usagerecord/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) UpsertDay(ctx context.Context, db *gorm.DB, record *usagedomain.UsageRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_records (id, connection_id, user_id, provider, date, amount_cents, currency, raw_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (connection_id, date) DO UPDATE SET
		   amount_cents = excluded.amount_cents,
		   currency = excluded.currency,
		   raw_data = excluded.raw_data,
		   updated_at = excluded.updated_at`,
		record.ID,
		record.ConnectionID,
		record.UserID,
		record.Provider,
		record.Date,
		record.AmountCents,
		record.Currency,
		record.RawData,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) SumRange(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0)
		 FROM usage_records WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID,
		fromDate,
		toDate,
	).Scan(&total).Error
	return total, err
}

func (r *repo) SumRangeByProvider(ctx context.Context, db *gorm.DB, userID, provider, fromDate, toDate string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0)
		 FROM usage_records WHERE user_id = ? AND provider = ? AND date >= ? AND date <= ?`,
		userID,
		provider,
		fromDate,
		toDate,
	).Scan(&total).Error
	return total, err
}

func (r *repo) SumByDay(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]usagedomain.DailyTotal, error) {
	var totals []usagedomain.DailyTotal
	err := db.WithContext(ctx).Raw(
		`SELECT date, COALESCE(SUM(amount_cents), 0) AS amount_cents
		 FROM usage_records WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY date ORDER BY date ASC`,
		userID,
		fromDate,
		toDate,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repo) SumByProvider(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]usagedomain.ProviderTotal, error) {
	var totals []usagedomain.ProviderTotal
	err := db.WithContext(ctx).Raw(
		`SELECT provider, COALESCE(SUM(amount_cents), 0) AS amount_cents
		 FROM usage_records WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY provider ORDER BY amount_cents DESC`,
		userID,
		fromDate,
		toDate,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repo) ListByConnection(ctx context.Context, db *gorm.DB, connectionID int64, fromDate, toDate string) ([]usagedomain.UsageRecord, error) {
	var records []usagedomain.UsageRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, connection_id, user_id, provider, date, amount_cents, currency, raw_data, created_at, updated_at
		 FROM usage_records WHERE connection_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		connectionID,
		fromDate,
		toDate,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
