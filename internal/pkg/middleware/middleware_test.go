package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_Throttles(t *testing.T) {
	h := middleware.NewRateLimiter(1, 2).Middleware(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/expenses/2017-10-20", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/expenses/2017-10-20", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	h := middleware.NewRateLimiter(0, 1).Middleware(ok)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLogging_RequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	h := middleware.Chain(ok, middleware.Logging(logger)...)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
	line := buf.String()
	assert.Contains(t, line, `"request_id":"abc-123"`)
	assert.Contains(t, line, `"path":"/healthz"`)
	assert.Contains(t, line, `"status":200`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(reg)

	h := m.Instrument("/expenses", ok)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/expenses", nil))
	m.ObserveNegotiation("request", domain.FormatXML)
	m.ObserveOutcome("accepted")

	expected := `
# HELP expense_record_outcomes_total Results of record attempts (accepted, rejected, malformed, unsupported)
# TYPE expense_record_outcomes_total counter
expense_record_outcomes_total{outcome="accepted"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "expense_record_outcomes_total"))
	n, err := testutil.GatherAndCount(reg, "expense_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "expense_negotiation_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *middleware.Metrics
	m.ObserveOutcome("accepted")
	m.ObserveNegotiation("response", domain.FormatJSON)
	assert.NotNil(t, m.Instrument("/expenses", ok))
}
