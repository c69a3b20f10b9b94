package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() connectiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conn *connectiondomain.Connection) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO connections (id, user_id, provider, credentials, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conn.ID,
		conn.UserID,
		conn.Provider,
		conn.Credentials,
		conn.Active,
		conn.CreatedAt,
		conn.UpdatedAt,
	).Error
}

// Delete removes the connection together with its usage records. The
// explicit usage delete keeps sqlite test databases, which do not
// enforce the foreign key cascade, consistent with postgres.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM usage_records WHERE connection_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM connections WHERE user_id = ? AND id = ?`, userID, id).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*connectiondomain.Connection, error) {
	var conn connectiondomain.Connection
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, provider, credentials, active, last_synced_at, last_error, created_at, updated_at
		 FROM connections WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&conn).Error
	if err != nil {
		return nil, err
	}
	if conn.ID == 0 {
		return nil, nil
	}
	return &conn, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]connectiondomain.Connection, error) {
	var conns []connectiondomain.Connection
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, provider, credentials, active, last_synced_at, last_error, created_at, updated_at
		 FROM connections WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]connectiondomain.Connection, error) {
	var conns []connectiondomain.Connection
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, provider, credentials, active, last_synced_at, last_error, created_at, updated_at
		 FROM connections WHERE active = ? ORDER BY created_at ASC`,
		true,
	).Scan(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *repo) MarkSynced(ctx context.Context, db *gorm.DB, id snowflake.ID, syncedAt time.Time, lastError *string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE connections SET last_synced_at = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		syncedAt,
		lastError,
		syncedAt,
		id,
	).Error
}

func (r *repo) MarkError(ctx context.Context, db *gorm.DB, id snowflake.ID, lastError string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE connections SET last_error = ?, updated_at = ? WHERE id = ?`,
		lastError,
		time.Now().UTC(),
		id,
	).Error
}
