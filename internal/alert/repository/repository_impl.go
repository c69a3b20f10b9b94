package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() alertdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, alert *alertdomain.Alert) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO alerts (id, user_id, type, provider, threshold_cents, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.UserID,
		alert.Type,
		alert.Provider,
		alert.ThresholdCents,
		alert.Active,
		alert.CreatedAt,
		alert.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, alert *alertdomain.Alert) error {
	return db.WithContext(ctx).Exec(
		`UPDATE alerts SET threshold_cents = ?, active = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		alert.ThresholdCents,
		alert.Active,
		alert.UpdatedAt,
		alert.UserID,
		alert.ID,
	).Error
}

// Delete removes the alert and its history in one transaction. History
// is append-only while the alert lives, but an orphaned trail serves
// nobody once the rule is gone.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM alert_history WHERE alert_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM alerts WHERE user_id = ? AND id = ?`, userID, id).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*alertdomain.Alert, error) {
	var alert alertdomain.Alert
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, provider, threshold_cents, active, last_triggered_at, created_at, updated_at
		 FROM alerts WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&alert).Error
	if err != nil {
		return nil, err
	}
	if alert.ID == 0 {
		return nil, nil
	}
	return &alert, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]alertdomain.Alert, error) {
	var alerts []alertdomain.Alert
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, provider, threshold_cents, active, last_triggered_at, created_at, updated_at
		 FROM alerts WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]alertdomain.Alert, error) {
	var alerts []alertdomain.Alert
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, provider, threshold_cents, active, last_triggered_at, created_at, updated_at
		 FROM alerts WHERE active = ? ORDER BY created_at ASC`,
		true,
	).Scan(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repo) SetLastTriggered(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE alerts SET last_triggered_at = ?, updated_at = ? WHERE id = ?`,
		at,
		at,
		id,
	).Error
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *alertdomain.AlertHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO alert_history (id, alert_id, user_id, amount_cents, message, triggered_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.AlertID,
		entry.UserID,
		entry.AmountCents,
		entry.Message,
		entry.TriggeredAt,
	).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, userID string, alertID snowflake.ID, limit int) ([]alertdomain.AlertHistory, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var entries []alertdomain.AlertHistory
	err := db.WithContext(ctx).Raw(
		`SELECT id, alert_id, user_id, amount_cents, message, triggered_at
		 FROM alert_history WHERE user_id = ? AND alert_id = ?
		 ORDER BY triggered_at DESC LIMIT ?`,
		userID,
		alertID,
		limit,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
