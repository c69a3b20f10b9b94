package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Connection links one user to one external provider account. The
// credentials column only ever holds vault ciphertext.
type Connection struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID       string       `json:"user_id" gorm:"type:text;not null;index:ux_connections_user_provider,priority:1"`
	Provider     string       `json:"provider" gorm:"type:text;not null;index:ux_connections_user_provider,priority:2"`
	Credentials  string       `json:"-" gorm:"type:text;not null"`
	Active       bool         `json:"active" gorm:"not null;default:true"`
	LastSyncedAt *time.Time   `json:"last_synced_at"`
	LastError    *string      `json:"last_error"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Connection) TableName() string { return "connections" }
