package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, conn *Connection) error
	Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Connection, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]Connection, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Connection, error)
	MarkSynced(ctx context.Context, db *gorm.DB, id snowflake.ID, syncedAt time.Time, lastError *string) error
	MarkError(ctx context.Context, db *gorm.DB, id snowflake.ID, lastError string) error
}
