package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
)

type stubAdapter struct {
	id          string
	name        string
	placeholder bool
}

func (a *stubAdapter) ID() string          { return a.id }
func (a *stubAdapter) Name() string        { return a.name }
func (a *stubAdapter) Description() string { return "stub" }

func (a *stubAdapter) CredentialFields() []providerdomain.CredentialField {
	return []providerdomain.CredentialField{
		{Name: "api_key", Label: "API Key", Type: "password", Required: true},
	}
}

func (a *stubAdapter) TestConnection(ctx context.Context, credentials map[string]string) providerdomain.TestResult {
	_ = ctx
	_ = credentials
	if a.placeholder {
		return providerdomain.TestResult{Success: false, Error: "Not implemented yet"}
	}
	return providerdomain.TestResult{Success: true}
}

func (a *stubAdapter) FetchUsage(ctx context.Context, credentials map[string]string, start, end time.Time) []providerdomain.UsageData {
	_ = ctx
	_ = credentials
	_ = start
	_ = end
	return nil
}

func TestListProvidersMarksPlaceholdersUnavailable(t *testing.T) {
	srv, router := newTestServer(config.Config{})
	srv.registry = adapters.NewRegistry(
		&stubAdapter{id: "openai", name: "OpenAI"},
		adapters.NewPlaceholder("aws", "AWS", "Coming soon", nil),
	)
	router.GET("/api/providers", srv.ListProviders)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload struct {
		Data []providerResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Data) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(payload.Data))
	}

	byID := map[string]providerResponse{}
	for _, p := range payload.Data {
		byID[p.ID] = p
	}
	if !byID["openai"].Available {
		t.Fatal("expected openai to be available")
	}
	if byID["aws"].Available {
		t.Fatal("expected aws placeholder to be unavailable")
	}
}
