package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, userID string) ([]Response, error)
	GetByID(ctx context.Context, userID, id string) (*Response, error)
	Delete(ctx context.Context, userID, id string) error
	TestCredentials(ctx context.Context, req TestRequest) (*providerdomain.TestResult, error)
}

type CreateRequest struct {
	UserID      string            `json:"-"`
	Provider    string            `json:"provider"`
	Credentials map[string]string `json:"credentials"`
}

type TestRequest struct {
	Provider    string            `json:"provider"`
	Credentials map[string]string `json:"credentials"`
}

type Response struct {
	ID           string     `json:"id"`
	Provider     string     `json:"provider"`
	Active       bool       `json:"active"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	LastError    *string    `json:"last_error"`
	CreatedAt    time.Time  `json:"created_at"`
}

var (
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrProviderNotActive   = errors.New("provider_not_supported")
	ErrMissingCredentials  = errors.New("missing_credentials")
	ErrMissingField        = errors.New("missing_credential_field")
	ErrDuplicateConnection = errors.New("connection_exists")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidID           = errors.New("invalid_id")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
