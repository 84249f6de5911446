package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateSessionGauge(t *testing.T) {
	m := New(DefaultConfig("rate-service"))

	m.RecordSessionOpened("customer")
	m.RecordSessionOpened("seller")
	m.RecordSessionClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateSessionsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateSessionsOpened.WithLabelValues("rate-service", "seller")))
}

func TestStaleResponsesByReason(t *testing.T) {
	m := New(DefaultConfig("rate-service"))

	m.RecordStaleResponse("superseded")
	m.RecordStaleResponse("superseded")
	m.RecordStaleResponse("session_closed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.StaleResponsesDropped.WithLabelValues("rate-service", "superseded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StaleResponsesDropped.WithLabelValues("rate-service", "session_closed")))
}

func TestHandler_ExposesRateMetrics(t *testing.T) {
	m := New(DefaultConfig("rate-service"))
	m.RecordCourierSelection("admin", "bluedart")
	m.RecordGSTMismatch("bluedart")
	m.SetCircuitBreakerState("rate-source", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `wms_courier_selections_total{courier="bluedart",service="rate-service",surface="admin"} 1`)
	assert.Contains(t, body, `wms_rate_gst_mismatches_total{courier="bluedart",service="rate-service"} 1`)
	assert.Contains(t, body, `wms_circuit_breaker_state{name="rate-source",service="rate-service"} 2`)
}
