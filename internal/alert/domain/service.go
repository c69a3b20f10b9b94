package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, userID string) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, userID, id string) error
	History(ctx context.Context, userID, id string, limit int) ([]AlertHistory, error)
}

type CreateRequest struct {
	UserID         string `json:"-"`
	Type           string `json:"type"`
	Provider       string `json:"provider"`
	ThresholdCents int64  `json:"threshold_cents"`
}

type UpdateRequest struct {
	UserID         string `json:"-"`
	ID             string `json:"-"`
	Active         *bool  `json:"active,omitempty"`
	ThresholdCents *int64 `json:"threshold_cents,omitempty"`
}

type Response struct {
	ID              string     `json:"id"`
	Type            AlertType  `json:"type"`
	Provider        *string    `json:"provider"`
	ThresholdCents  int64      `json:"threshold_cents"`
	Active          bool       `json:"active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

var (
	ErrInvalidType      = errors.New("invalid_alert_type")
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrProviderRequired = errors.New("provider_required")
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidID        = errors.New("invalid_id")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
