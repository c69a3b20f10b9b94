package adapters

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStripe(t *testing.T, handler http.Handler) *Stripe {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := NewStripe(server.Client(), zap.NewNop())
	adapter.baseURL = server.URL
	return adapter
}

func TestStripeTestConnection(t *testing.T) {
	adapter := newTestStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/balance", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk_test_ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"available":[]}`))
	}))

	result := adapter.TestConnection(t.Context(), map[string]string{"secret_key": "sk_test_ok"})
	assert.True(t, result.Success)

	result = adapter.TestConnection(t.Context(), map[string]string{"secret_key": "sk_test_bad"})
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid API key", result.Error)
}

func TestStripeFetchUsageGroupsFeesByDay(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	adapter := newTestStripe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/balance_transactions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("created[gte]"))
		assert.NotEmpty(t, r.URL.Query().Get("created[lte]"))

		_, _ = w.Write([]byte(`{"data":[
			{"fee":59,"created":` + unix(day1) + `},
			{"fee":-41,"created":` + unix(day1) + `},
			{"fee":0,"created":` + unix(day1) + `},
			{"fee":120,"created":` + unix(day2) + `}
		]}`))
	}))

	usage := adapter.FetchUsage(t.Context(), map[string]string{"secret_key": "sk_test_ok"}, day1.AddDate(0, 0, -1), day2)

	require.Len(t, usage, 2)
	assert.Equal(t, "2026-03-01", usage[0].Date)
	assert.Equal(t, int64(100), usage[0].AmountCents) // 59 + |−41|
	assert.Equal(t, "2026-03-02", usage[1].Date)
	assert.Equal(t, int64(120), usage[1].AmountCents)
}

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
