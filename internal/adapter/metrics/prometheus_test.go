package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"banking-ledger/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.LedgerMetrics = (*Collector)(nil)

func TestCollector_Register(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("test_ledger")
	require.NoError(t, c.Register(registry))

	// A second registration of the same collectors must fail.
	assert.Error(t, c.Register(registry))
}

func scrape(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollector_LedgerOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("test_ledger")
	require.NoError(t, c.Register(registry))

	c.AccountOpened()
	c.AccountOpened()
	c.TransferCompleted(ports.OutcomeSuccess, decimal.RequireFromString("300.5"), 10*time.Millisecond)
	c.TransferCompleted(ports.OutcomeRejected, decimal.Zero, time.Millisecond)
	c.ReversalCompleted(ports.OutcomeSuccess, 5*time.Millisecond)

	body := scrape(t, registry)
	for _, line := range []string{
		"test_ledger_accounts_opened_total 2",
		`test_ledger_transfers_total{outcome="success"} 1`,
		`test_ledger_transfers_total{outcome="rejected"} 1`,
		"test_ledger_transfer_amount_total 300.5",
		`test_ledger_reversals_total{outcome="success"} 1`,
		`test_ledger_transfer_duration_seconds_count{outcome="success"} 1`,
	} {
		assert.Contains(t, body, line)
	}
}

func TestCollector_ObserveHTTP(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("test_ledger")
	require.NoError(t, c.Register(registry))

	c.ObserveHTTP(http.MethodPost, "/api/v1/transactions", http.StatusCreated, 20*time.Millisecond)

	body := scrape(t, registry)
	assert.True(t, strings.Contains(body,
		`test_ledger_http_requests_total{method="POST",route="/api/v1/transactions",status="201"} 1`), body)
	assert.Contains(t, body, "test_ledger_http_request_duration_seconds_bucket")
}
