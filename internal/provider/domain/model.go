package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrUnknownProvider = errors.New("unknown_provider")
	ErrMissingField    = errors.New("missing_credential_field")
)

// CredentialField describes one input the dashboard renders when a user
// connects a provider.
type CredentialField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
	HelpText    string `json:"help_text,omitempty"`
	Required    bool   `json:"required"`
}

// UsageData is one day of spend reported by a provider.
type UsageData struct {
	Date        string          `json:"date"`
	AmountCents int64           `json:"amount_cents"`
	Currency    string          `json:"currency"`
	RawData     json.RawMessage `json:"raw_data,omitempty"`
}

// TestResult reports whether a credential check against the provider's
// live API succeeded.
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Adapter integrates one external provider's billing surface.
//
// FetchUsage never returns an error: recoverable upstream failures are
// logged and yield an empty slice, so one broken provider cannot poison
// a sync batch.
type Adapter interface {
	ID() string
	Name() string
	Description() string
	CredentialFields() []CredentialField
	TestConnection(ctx context.Context, creds map[string]string) TestResult
	FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []UsageData
}
