package adapters

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(t *testing.T, handler http.Handler) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := NewOpenAI(server.Client(), NewPricer(nil), zap.NewNop())
	adapter.baseURL = server.URL
	return adapter
}

func TestOpenAITestConnection(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		adapter := newTestOpenAI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "org-1", r.Header.Get("OpenAI-Organization"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))

		result := adapter.TestConnection(t.Context(), map[string]string{
			"api_key":         "sk-test",
			"organization_id": "org-1",
		})
		assert.True(t, result.Success)
	})

	t.Run("invalid key", func(t *testing.T) {
		adapter := newTestOpenAI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
		}))

		result := adapter.TestConnection(t.Context(), map[string]string{"api_key": "sk-bad"})
		assert.False(t, result.Success)
		assert.Equal(t, "Incorrect API key provided", result.Error)
	})

	t.Run("unreachable", func(t *testing.T) {
		adapter := NewOpenAI(&http.Client{Timeout: time.Second}, NewPricer(nil), zap.NewNop())
		adapter.baseURL = "http://127.0.0.1:1"

		result := adapter.TestConnection(t.Context(), map[string]string{"api_key": "sk-test"})
		assert.False(t, result.Success)
		assert.Equal(t, "Failed to connect to OpenAI", result.Error)
	})
}

func TestOpenAIFetchUsage(t *testing.T) {
	adapter := newTestOpenAI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/usage", r.URL.Path)
		switch r.URL.Query().Get("date") {
		case "2026-03-01":
			// 200k input + 100k output on gpt-4o is 250 cents.
			_, _ = w.Write([]byte(`{"data":[{"snapshot_id":"gpt-4o","n_context_tokens_total":200000,"n_generated_tokens_total":100000}]}`))
		case "2026-03-02":
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	usage := adapter.FetchUsage(t.Context(), map[string]string{"api_key": "sk-test"}, start, end)

	// Zero-cost and failed days are dropped.
	require.Len(t, usage, 1)
	assert.Equal(t, "2026-03-01", usage[0].Date)
	assert.Equal(t, int64(250), usage[0].AmountCents)
	assert.Equal(t, "USD", usage[0].Currency)
	assert.NotEmpty(t, usage[0].RawData)
}

func TestOpenAIFetchUsageSumsModels(t *testing.T) {
	adapter := newTestOpenAI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"snapshot_id":"gpt-4o","n_context_tokens_total":200000,"n_generated_tokens_total":100000},
			{"snapshot_id":"brand-new-model","n_context_tokens_total":200000,"n_generated_tokens_total":100000}
		]}`))
	}))

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	usage := adapter.FetchUsage(t.Context(), map[string]string{"api_key": "sk-test"}, day, day)

	// Unknown models fall back to the default (gpt-4o) rates.
	require.Len(t, usage, 1)
	assert.Equal(t, int64(500), usage[0].AmountCents)
}
