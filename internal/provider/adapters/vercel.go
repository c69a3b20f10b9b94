package adapters

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/zap"
)

const vercelBaseURL = "https://api.vercel.com"

// Pro-plan overage rates with their included free allowances.
const (
	vercelFreeBandwidthGB     = 100
	vercelBandwidthCentsPerGB = 15
	vercelFreeInvocations     = 100_000
	vercelCentsPerInvocation  = 0.00006 * 100 // $0.60 per 1M
)

type Vercel struct {
	client  *http.Client
	log     *zap.Logger
	baseURL string
}

func NewVercel(client *http.Client, log *zap.Logger) *Vercel {
	return &Vercel{
		client:  client,
		log:     log.Named("adapter.vercel"),
		baseURL: vercelBaseURL,
	}
}

func (a *Vercel) ID() string          { return "vercel" }
func (a *Vercel) Name() string        { return "Vercel" }
func (a *Vercel) Description() string { return "Vercel hosting and serverless functions" }

func (a *Vercel) CredentialFields() []domain.CredentialField {
	return []domain.CredentialField{
		{
			Name:        "api_token",
			Label:       "API Token",
			Type:        "password",
			Placeholder: "Your Vercel API token",
			HelpText:    "Get your token from vercel.com/account/tokens",
			Required:    true,
		},
		{
			Name:        "team_id",
			Label:       "Team ID (optional)",
			Type:        "text",
			Placeholder: "team_...",
			HelpText:    "Required for team accounts",
			Required:    false,
		},
	}
}

func (a *Vercel) headers(creds map[string]string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + creds["api_token"],
	}
}

func (a *Vercel) withTeam(endpoint string, creds map[string]string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if teamID := strings.TrimSpace(creds["team_id"]); teamID != "" {
		params.Set("teamId", teamID)
	}
	if encoded := params.Encode(); encoded != "" {
		return a.baseURL + endpoint + "?" + encoded
	}
	return a.baseURL + endpoint
}

func (a *Vercel) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	status, _, err := doRequest(ctx, a.client, http.MethodGet, a.withTeam("/v2/user", creds, nil), a.headers(creds), nil)
	if err != nil {
		return domain.TestResult{Success: false, Error: "Failed to connect to Vercel"}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domain.TestResult{Success: false, Error: "Invalid API token"}
	}
	if status != http.StatusOK {
		return domain.TestResult{Success: false, Error: "Connection failed"}
	}
	return domain.TestResult{Success: true}
}

type vercelUsageResponse struct {
	Usage struct {
		Bandwidth                     int64 `json:"bandwidth"`
		ServerlessFunctionInvocations int64 `json:"serverlessFunctionInvocations"`
	} `json:"usage"`
}

// FetchUsage reports overage charges only. Vercel's usage endpoint has no
// per-day breakdown, so the whole window lands on today's date.
func (a *Vercel) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	params := url.Values{}
	params.Set("from", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("to", strconv.FormatInt(end.UnixMilli(), 10))

	status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.withTeam("/v1/usage", creds, params), a.headers(creds), nil)
	if err != nil {
		a.log.Warn("usage fetch failed", zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		a.log.Warn("usage fetch failed", zap.Int("status", status))
		return nil
	}

	var body vercelUsageResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.log.Warn("usage parse failed", zap.Error(err))
		return nil
	}

	var totalCents int64
	if body.Usage.Bandwidth > 0 {
		gbUsed := float64(body.Usage.Bandwidth) / (1 << 30)
		totalCents += int64(math.Round(math.Max(0, gbUsed-vercelFreeBandwidthGB) * vercelBandwidthCentsPerGB))
	}
	if body.Usage.ServerlessFunctionInvocations > 0 {
		billable := math.Max(0, float64(body.Usage.ServerlessFunctionInvocations-vercelFreeInvocations))
		totalCents += int64(math.Round(billable * vercelCentsPerInvocation))
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
