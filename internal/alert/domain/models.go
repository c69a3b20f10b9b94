package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AlertType string

const (
	AlertTypeBudget   AlertType = "budget"
	AlertTypeProvider AlertType = "provider"
	AlertTypeAnomaly  AlertType = "anomaly"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeBudget, AlertTypeProvider, AlertTypeAnomaly:
		return true
	default:
		return false
	}
}

// Alert is a user-configured spend rule. For budget and provider
// alerts threshold_cents is an absolute monthly amount; for anomaly
// alerts it is a percentage of the trailing daily average.
type Alert struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID          string       `json:"user_id" gorm:"type:text;not null;index"`
	Type            AlertType    `json:"type" gorm:"type:text;not null"`
	Provider        *string      `json:"provider"`
	ThresholdCents  int64        `json:"threshold_cents" gorm:"not null"`
	Active          bool         `json:"active" gorm:"not null;default:true"`
	LastTriggeredAt *time.Time   `json:"last_triggered_at"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Alert) TableName() string { return "alerts" }

// AlertHistory is an append-only record of a trigger. Rows are never
// updated or deleted while their alert exists.
type AlertHistory struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	AlertID     snowflake.ID `json:"alert_id" gorm:"not null;index"`
	UserID      string       `json:"user_id" gorm:"type:text;not null;index"`
	AmountCents int64        `json:"amount_cents" gorm:"not null"`
	Message     string       `json:"message" gorm:"type:text;not null"`
	TriggeredAt time.Time    `json:"triggered_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AlertHistory) TableName() string { return "alert_history" }
