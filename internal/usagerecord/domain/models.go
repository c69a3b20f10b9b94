package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageRecord is one provider's spend for one day. Dates are
// YYYY-MM-DD strings so that ranges compare lexicographically and
// never shift across timezones.
type UsageRecord struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	ConnectionID snowflake.ID   `json:"connection_id" gorm:"not null;index:ux_usage_connection_date,priority:1"`
	UserID       string         `json:"user_id" gorm:"type:text;not null"`
	Provider     string         `json:"provider" gorm:"type:text;not null"`
	Date         string         `json:"date" gorm:"type:text;not null;index:ux_usage_connection_date,priority:2"`
	AmountCents  int64          `json:"amount_cents" gorm:"not null;default:0"`
	Currency     string         `json:"currency" gorm:"type:text;not null;default:usd"`
	RawData      datatypes.JSON `json:"raw_data,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// DailyTotal is an aggregated day of spend across providers.
type DailyTotal struct {
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
}

// ProviderTotal is an aggregated spend for one provider.
type ProviderTotal struct {
	Provider    string `json:"provider"`
	AmountCents int64  `json:"amount_cents"`
}
