package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/zap"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
)

// Dated model names like claude-3-5-sonnet-20241022 resolve through the
// dashed substrings here, so the hyphenated spellings stand in for the
// dotted marketing names.
var anthropicPricing = domain.PricingTable{
	Rules: []domain.PricingRule{
		{Match: "claude-3-opus", InputPerMTok: 15, OutputPerMTok: 75},
		{Match: "claude-3-5-sonnet", InputPerMTok: 3, OutputPerMTok: 15},
		{Match: "claude-3-5-haiku", InputPerMTok: 0.8, OutputPerMTok: 4},
		{Match: "claude-3-sonnet", InputPerMTok: 3, OutputPerMTok: 15},
		{Match: "claude-3-haiku", InputPerMTok: 0.25, OutputPerMTok: 1.25},
		{Match: "claude-2", InputPerMTok: 8, OutputPerMTok: 24},
		{Match: "claude-instant", InputPerMTok: 0.8, OutputPerMTok: 2.4},
	},
	Default: domain.PricingRule{InputPerMTok: 3, OutputPerMTok: 15}, // claude-3.5-sonnet rates
}

type Anthropic struct {
	client  *http.Client
	pricer  *Pricer
	log     *zap.Logger
	baseURL string
}

func NewAnthropic(client *http.Client, pricer *Pricer, log *zap.Logger) *Anthropic {
	return &Anthropic{
		client:  client,
		pricer:  pricer,
		log:     log.Named("adapter.anthropic"),
		baseURL: anthropicBaseURL,
	}
}

func (a *Anthropic) ID() string          { return "anthropic" }
func (a *Anthropic) Name() string        { return "Anthropic" }
func (a *Anthropic) Description() string { return "Claude models for AI assistance" }

func (a *Anthropic) CredentialFields() []domain.CredentialField {
	return []domain.CredentialField{
		{
			Name:        "api_key",
			Label:       "API Key",
			Type:        "password",
			Placeholder: "sk-ant-...",
			HelpText:    "Get your API key from console.anthropic.com",
			Required:    true,
		},
	}
}

func (a *Anthropic) headers(creds map[string]string) map[string]string {
	return map[string]string{
		"x-api-key":         creds["api_key"],
		"anthropic-version": anthropicAPIVersion,
		"Content-Type":      "application/json",
	}
}

func (a *Anthropic) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	// A 1-token message is the cheapest authenticated round trip.
	payload, _ := json.Marshal(map[string]any{
		"model":      "claude-3-haiku-20240307",
		"max_tokens": 1,
		"messages": []map[string]string{
			{"role": "user", "content": "Hi"},
		},
	})

	status, raw, err := doRequest(ctx, a.client, http.MethodPost, a.baseURL+"/v1/messages", a.headers(creds), payload)
	if err != nil {
		return domain.TestResult{Success: false, Error: "Failed to connect to Anthropic"}
	}
	if status == http.StatusUnauthorized {
		return domain.TestResult{Success: false, Error: "Invalid API key"}
	}
	if status < 200 || status >= 300 {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		if body.Error.Message != "" {
			return domain.TestResult{Success: false, Error: body.Error.Message}
		}
		return domain.TestResult{Success: false, Error: "Connection failed"}
	}
	return domain.TestResult{Success: true}
}

type anthropicUsageResponse struct {
	Usage []struct {
		Date         string `json:"date"`
		Model        string `json:"model"`
		InputTokens  int64  `json:"input_tokens"`
		OutputTokens int64  `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Anthropic) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	headers := map[string]string{
		"x-api-key":         creds["api_key"],
		"anthropic-version": anthropicAPIVersion,
	}

	status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/usage", headers, nil)
	if err != nil {
		a.log.Warn("usage fetch failed", zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		a.log.Warn("usage fetch failed", zap.Int("status", status))
		return nil
	}

	var body anthropicUsageResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.log.Warn("usage parse failed", zap.Error(err))
		return nil
	}

	table := a.pricer.Table(a.ID(), anthropicPricing)
	daily := map[string]int64{}
	for _, item := range body.Usage {
		date := item.Date
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		model := item.Model
		if model == "" {
			model = "claude-3-5-sonnet"
		}
		daily[date] += table.CostCents(model, item.InputTokens, item.OutputTokens)
	}

	startDay := start.UTC().Format("2006-01-02")
	endDay := end.UTC().Format("2006-01-02")

	dates := make([]string, 0, len(daily))
	for date := range daily {
		if date >= startDay && date <= endDay {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	var usage []domain.UsageData
	for _, date := range dates {
		usage = append(usage, domain.UsageData{
			Date:        date,
			AmountCents: daily[date],
			Currency:    "USD",
		})
	}
	return usage
}
