package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/zap"
)

const stripeBaseURL = "https://api.stripe.com"

// Stripe tracks processing fees, not token usage: each balance
// transaction's fee is attributed to the day it was created.
type Stripe struct {
	client  *http.Client
	log     *zap.Logger
	baseURL string
}

func NewStripe(client *http.Client, log *zap.Logger) *Stripe {
	return &Stripe{
		client:  client,
		log:     log.Named("adapter.stripe"),
		baseURL: stripeBaseURL,
	}
}

func (a *Stripe) ID() string          { return "stripe" }
func (a *Stripe) Name() string        { return "Stripe" }
func (a *Stripe) Description() string { return "Stripe payment processing fees" }

func (a *Stripe) CredentialFields() []domain.CredentialField {
	return []domain.CredentialField{
		{
			Name:        "secret_key",
			Label:       "Secret Key",
			Type:        "password",
			Placeholder: "sk_live_... or sk_test_...",
			HelpText:    "Get your key from dashboard.stripe.com/apikeys",
			Required:    true,
		},
	}
}

func (a *Stripe) headers(creds map[string]string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + creds["secret_key"],
	}
}

func (a *Stripe) TestConnection(ctx context.Context, creds map[string]string) domain.TestResult {
	status, _, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/balance", a.headers(creds), nil)
	if err != nil {
		return domain.TestResult{Success: false, Error: "Failed to connect to Stripe"}
	}
	if status == http.StatusUnauthorized {
		return domain.TestResult{Success: false, Error: "Invalid API key"}
	}
	if status != http.StatusOK {
		return domain.TestResult{Success: false, Error: "Connection failed"}
	}
	return domain.TestResult{Success: true}
}

type stripeTransactionsResponse struct {
	Data []struct {
		Fee     int64 `json:"fee"`
		Created int64 `json:"created"`
	} `json:"data"`
}

func (a *Stripe) FetchUsage(ctx context.Context, creds map[string]string, start, end time.Time) []domain.UsageData {
	params := url.Values{}
	params.Set("created[gte]", strconv.FormatInt(start.Unix(), 10))
	params.Set("created[lte]", strconv.FormatInt(end.Unix(), 10))
	params.Set("limit", "100")

	status, raw, err := doRequest(ctx, a.client, http.MethodGet, a.baseURL+"/v1/balance_transactions?"+params.Encode(), a.headers(creds), nil)
	if err != nil {
		a.log.Warn("usage fetch failed", zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		a.log.Warn("usage fetch failed", zap.Int("status", status))
		return nil
	}

	var body stripeTransactionsResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.log.Warn("usage parse failed", zap.Error(err))
		return nil
	}

	daily := map[string]int64{}
	for _, txn := range body.Data {
		fee := txn.Fee
		if fee < 0 {
			fee = -fee
		}
		if fee == 0 {
			continue
		}
		date := time.Unix(txn.Created, 0).UTC().Format("2006-01-02")
		daily[date] += fee
	}

	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
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
