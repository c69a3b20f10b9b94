package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, alert *Alert) error
	Update(ctx context.Context, db *gorm.DB, alert *Alert) error
	Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Alert, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]Alert, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Alert, error)
	SetLastTriggered(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error

	InsertHistory(ctx context.Context, db *gorm.DB, entry *AlertHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, userID string, alertID snowflake.ID, limit int) ([]AlertHistory, error)
}
