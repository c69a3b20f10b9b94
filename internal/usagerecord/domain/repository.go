package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// UpsertDay inserts the record or, when the (connection, date) pair
	// already exists, replaces its amount and raw payload.
	UpsertDay(ctx context.Context, db *gorm.DB, record *UsageRecord) error

	SumRange(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) (int64, error)
	SumRangeByProvider(ctx context.Context, db *gorm.DB, userID, provider, fromDate, toDate string) (int64, error)
	SumByDay(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]DailyTotal, error)
	SumByProvider(ctx context.Context, db *gorm.DB, userID, fromDate, toDate string) ([]ProviderTotal, error)
	ListByConnection(ctx context.Context, db *gorm.DB, connectionID int64, fromDate, toDate string) ([]UsageRecord, error)
}
