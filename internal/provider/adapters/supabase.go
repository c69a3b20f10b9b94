package adapters

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/zap"
)

const supabaseBaseURL = "https://api.supabase.com"

// Pay-as-you-go rates, cents per unit.
const (
	supabaseStorageCentsPerGB = 2.1   // $0.021/GB/month
	supabaseEgressCentsPerGB  = 9     // $0.09/GB
	supabaseCentsPerMAU       = 0.325 // $0.00325/MAU after the free tier
	supabaseFreeMAU           = 50_000
	supabaseFreeInvocations   = 500_000
	supabaseCentsPerMInvoke   = 200 // $2 per 1M invocations
)

type Supabase struct {
	client  *http.Client
	log     *zap.Logger
	baseURL string
}

func NewSupabase(client *http.Client, log *zap.Logger) *Supabase {
	return &Supabase{
		client:  client,
		log:     log.Named("adapter.supabase"),
		baseURL: supabaseBaseURL,
	}
}

func (a *Supabase) ID() string          { return "supabase" }
func (a *Supabase) Name() string        { return "Supabase" }
func (a *Supabase) Description() string { return "Supabase database and auth usage" }

func (a *Supabase) CredentialFields() []domain.CredentialField {
	return []domain.CredentialField{
		{
			Name:        "access_token",
			Label:       "Access Token",
			Type:        "password",
			Placeholder: "sbp_...",
			HelpText:    "Get your token from supabase.com/dashboard/account/tokens",
			Required:    true,
		},
		{
			Name:        "project_ref",
			Label:       "Project Reference",
			Type:        "text",
			Placeholder: "your-project-ref",
			HelpText:    "Found in your project URL: supabase.com/dashboard/project/[ref]",
			Required:    true,
		},
	}
}

func (a *Supabase) headers(creds map[string]string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + creds["access_token"],
	}
}

func (a *Supabase) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	status, _, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/projects/"+creds["project_ref"], a.headers(creds), nil)
	if err != nil {
		return domain.TestResult{Success: false, Error: "Failed to connect to Supabase"}
	}
	switch {
	case status == http.StatusUnauthorized:
		return domain.TestResult{Success: false, Error: "Invalid access token"}
	case status == http.StatusNotFound:
		return domain.TestResult{Success: false, Error: "Project not found"}
	case status != http.StatusOK:
		return domain.TestResult{Success: false, Error: "Connection failed"}
	}
	return domain.TestResult{Success: true}
}

type supabaseUsageResponse struct {
	DBSize               int64 `json:"db_size"`
	DBEgress             int64 `json:"db_egress"`
	TotalAuthUsers       int64 `json:"total_auth_users"`
	TotalFuncInvocations int64 `json:"total_func_invocations"`
}

// FetchUsage estimates the current month's charges from the project
// usage snapshot. The management API reports totals, not a daily
// series, so the estimate lands on today's date.
func (a *Supabase) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/projects/"+creds["project_ref"]+"/usage", a.headers(creds), nil)
	if err != nil {
		a.log.Warn("usage fetch failed", zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		a.log.Warn("usage fetch failed", zap.Int("status", status))
		return nil
	}

	var body supabaseUsageResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.log.Warn("usage parse failed", zap.Error(err))
		return nil
	}

	var totalCents int64
	if body.DBSize > 0 {
		gb := float64(body.DBSize) / (1 << 30)
		totalCents += int64(math.Round(gb * supabaseStorageCentsPerGB))
	}
	if body.DBEgress > 0 {
		gb := float64(body.DBEgress) / (1 << 30)
		totalCents += int64(math.Round(gb * supabaseEgressCentsPerGB))
	}
	if body.TotalAuthUsers > supabaseFreeMAU {
		billable := float64(body.TotalAuthUsers - supabaseFreeMAU)
		totalCents += int64(math.Round(billable * supabaseCentsPerMAU))
	}
	if body.TotalFuncInvocations > supabaseFreeInvocations {
		billable := float64(body.TotalFuncInvocations - supabaseFreeInvocations)
		totalCents += int64(math.Round(billable / 1_000_000 * supabaseCentsPerMInvoke))
	}

	if totalCents <= 0 {
		return nil
	}

	return []domain.UsageData{{
		Date:        time.Now().UTC().Format("2006-01-02"),
		AmountCents: totalCents,
		Currency:    "USD",
		RawData:     json.RawMessage(raw),
	}}
}
