package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/zap"
)

const openAIBaseURL = "https://api.openai.com"

// Rates are USD per 1M tokens. Ordered most-specific first because
// resolution is substring based ("gpt-4o-mini" must win over "gpt-4o").
var openAIPricing = domain.PricingTable{
	Rules: []domain.PricingRule{
		{Match: "gpt-4o-mini", InputPerMTok: 0.15, OutputPerMTok: 0.6},
		{Match: "gpt-4o", InputPerMTok: 5, OutputPerMTok: 15},
		{Match: "gpt-4-turbo", InputPerMTok: 10, OutputPerMTok: 30},
		{Match: "gpt-4-32k", InputPerMTok: 60, OutputPerMTok: 120},
		{Match: "gpt-4", InputPerMTok: 30, OutputPerMTok: 60},
		{Match: "gpt-3.5-turbo", InputPerMTok: 0.5, OutputPerMTok: 1.5},
		{Match: "text-embedding-3-small", InputPerMTok: 0.02},
		{Match: "text-embedding-3-large", InputPerMTok: 0.13},
		{Match: "whisper-1", InputPerMTok: 0.006},
		{Match: "tts-1-hd", InputPerMTok: 30},
		{Match: "tts-1", InputPerMTok: 15},
		{Match: "dall-e-3", InputPerMTok: 40},
		{Match: "dall-e-2", InputPerMTok: 20},
	},
	Default: domain.PricingRule{InputPerMTok: 5, OutputPerMTok: 15}, // gpt-4o rates
}

type OpenAI struct {
	client  *http.Client
	pricer  *Pricer
	log     *zap.Logger
	baseURL string
}

func NewOpenAI(client *http.Client, pricer *Pricer, log *zap.Logger) *OpenAI {
	return &OpenAI{
		client:  client,
		pricer:  pricer,
		log:     log.Named("adapter.openai"),
		baseURL: openAIBaseURL,
	}
}

func (a *OpenAI) ID() string          { return "openai" }
func (a *OpenAI) Name() string        { return "OpenAI" }
func (a *OpenAI) Description() string { return "GPT-4, DALL-E, Whisper, and more" }

func (a *OpenAI) CredentialFields() []domain.CredentialField {
	return []domain.CredentialField{
		{
			Name:        "api_key",
			Label:       "API Key",
			Type:        "password",
			Placeholder: "sk-...",
			HelpText:    "Get your API key from platform.openai.com",
			Required:    true,
		},
		{
			Name:        "organization_id",
			Label:       "Organization ID (optional)",
			Type:        "text",
			Placeholder: "org-...",
			HelpText:    "Required if you belong to multiple organizations",
			Required:    false,
		},
	}
}

func (a *OpenAI) headers(creds map[string]string) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + creds["api_key"],
		"Content-Type":  "application/json",
	}
	if org := strings.TrimSpace(creds["organization_id"]); org != "" {
		headers["OpenAI-Organization"] = org
	}
	return headers
}

func (a *OpenAI) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/models", a.headers(creds), nil)
	if err != nil {
		return domain.TestResult{Success: false, Error: "Failed to connect to OpenAI"}
	}
	if status != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		if body.Error.Message != "" {
			return domain.TestResult{Success: false, Error: body.Error.Message}
		}
		return domain.TestResult{Success: false, Error: "Invalid API key"}
	}
	return domain.TestResult{Success: true}
}

type openAIUsageResponse struct {
	Data []struct {
		SnapshotID            string `json:"snapshot_id"`
		NContextTokensTotal   int64  `json:"n_context_tokens_total"`
		NGeneratedTokensTotal int64  `json:"n_generated_tokens_total"`
	} `json:"data"`
}

func (a *OpenAI) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	table := a.pricer.Table(a.ID(), openAIPricing)
	headers := a.headers(creds)

	var usage []domain.UsageData
	for _, day := range eachDay(start, end) {
		status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/usage?date="+day, headers, nil)
		if err != nil {
			a.log.Warn("usage fetch failed", zap.String("date", day), zap.Error(err))
			continue
		}
		if status != http.StatusOK {
			a.log.Warn("usage fetch failed", zap.String("date", day), zap.Int("status", status))
			continue
		}

		var body openAIUsageResponse
		if err := json.Unmarshal(raw, &body); err != nil {
			a.log.Warn("usage parse failed", zap.String("date", day), zap.Error(err))
			continue
		}

		var totalCents int64
		for _, item := range body.Data {
			model := item.SnapshotID
			if model == "" {
				model = "gpt-4o"
			}
			totalCents += table.CostCents(model, item.NContextTokensTotal, item.NGeneratedTokensTotal)
		}

		if totalCents > 0 {
			usage = append(usage, domain.UsageData{
				Date:        day,
				AmountCents: totalCents,
				Currency:    "USD",
				RawData:     json.RawMessage(raw),
			})
		}
	}
	return usage
}
