package adapters

import (
	"context"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
)

// Placeholder is a catalog-only adapter for providers that are planned
// but not yet integrated. It is listed so users can see what is coming,
// but it never syncs.
type Placeholder struct {
	id          string
	name        string
	description string
	fields      []domain.CredentialField
}

func NewPlaceholder(id, name, description string, fields []domain.CredentialField) *Placeholder {
	return &Placeholder{id: id, name: name, description: description, fields: fields}
}

func (p *Placeholder) ID() string          { return p.id }
func (p *Placeholder) Name() string        { return p.name }
func (p *Placeholder) Description() string { return p.description }

func (p *Placeholder) CredentialFields() []domain.CredentialField {
	return p.fields
}

func (p *Placeholder) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	return domain.TestResult{Success: false, Error: "Not implemented yet"}
}

func (p *Placeholder) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	return nil
}

// Placeholders returns the planned provider catalog.
func Placeholders() []domain.Adapter {
	return []domain.Adapter{
		NewPlaceholder("google-cloud", "Google Cloud", "Google Cloud Platform billing", []domain.CredentialField{
			{Name: "service_account", Label: "Service Account JSON", Type: "textarea", Required: true},
			{Name: "billing_account_id", Label: "Billing Account ID", Type: "text", Required: true},
		}),
		NewPlaceholder("aws", "AWS", "Amazon Web Services Cost Explorer", []domain.CredentialField{
			{Name: "access_key_id", Label: "Access Key ID", Type: "text", Required: true},
			{Name: "secret_access_key", Label: "Secret Access Key", Type: "password", Required: true},
			{Name: "region", Label: "Region", Type: "text", Placeholder: "us-east-1", Required: true},
		}),
		NewPlaceholder("planetscale", "PlanetScale", "PlanetScale database usage", []domain.CredentialField{
			{Name: "api_key", Label: "API Key", Type: "password", Required: true},
			{Name: "organization_id", Label: "Organization ID", Type: "text", Required: true},
		}),
		NewPlaceholder("resend", "Resend", "Resend email API usage", []domain.CredentialField{
			{Name: "api_key", Label: "API Key", Type: "password", Required: true},
		}),
		NewPlaceholder("twilio", "Twilio", "Twilio communications usage", []domain.CredentialField{
			{Name: "account_sid", Label: "Account SID", Type: "text", Required: true},
			{Name: "auth_token", Label: "Auth Token", Type: "password", Required: true},
		}),
	}
}
