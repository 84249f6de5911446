package ratesource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/courier-rates/shared/pkg/resilience"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

type recordedCall struct {
	status string
}

type fakeDownstreamMetrics struct {
	calls []recordedCall
}

func (m *fakeDownstreamMetrics) RecordDownstreamRequest(downstream, operation, status string, _ time.Duration) {
	m.calls = append(m.calls, recordedCall{status: status})
}

func testQuery() domain.RateQuery {
	return domain.RateQuery{OriginPincode: "110001", DestinationPincode: "560001", WeightKg: 1.5, IsCOD: true}
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestClient(t *testing.T, baseURL string, breaker *resilience.CircuitBreaker, metrics DownstreamMetrics) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, breaker, metrics, nil)
	require.NoError(t, err)
	return client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireFetchError(t *testing.T, err error, message string) *domain.FetchError {
	t.Helper()
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	assert.Equal(t, message, fetchErr.Message)
	return fetchErr
}

const validBody = `{
	"zone": "WithinCity",
	"offers": [
		{"courierId": "bluedart", "mode": "Air - Express", "baseCharge": 150, "additionalWeightCharge": 20, "codCharge": 30, "gstPercentage": 12, "gst": 24, "total": 224},
		{"courierId": "delhivery", "mode": "Surface - Standard", "serviceMode": {"transport": "Surface", "label": "Standard", "isExpress": false}, "baseCharge": 90, "gst": 16.2, "total": 106.2}
	]
}`

func TestFetchRates_Success(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		gotQuery = map[string]string{
			"origin":      r.URL.Query().Get("origin"),
			"destination": r.URL.Query().Get("destination"),
			"weight":      r.URL.Query().Get("weight"),
			"cod":         r.URL.Query().Get("cod"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	metrics := &fakeDownstreamMetrics{}
	client := newTestClient(t, server.URL+"/", nil, metrics)

	quote, err := client.FetchRates(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"origin": "110001", "destination": "560001", "weight": "1.5", "cod": "true"}, gotQuery)
	assert.Equal(t, "WithinCity", quote.Zone)
	require.Len(t, quote.Offers, 2)

	first := quote.Offers[0]
	assert.Equal(t, "bluedart", first.CourierID)
	assert.Equal(t, 12.0, first.GSTPercentage)
	assert.Equal(t, 224.0, first.Total)
	assert.Nil(t, first.ServiceMode)

	second := quote.Offers[1]
	assert.Equal(t, domain.DefaultGSTPercentage, second.GSTPercentage)
	require.NotNil(t, second.ServiceMode)
	assert.Equal(t, "Standard", second.ServiceMode.Label)

	require.Len(t, metrics.calls, 1)
	assert.Equal(t, "success", metrics.calls[0].status)
}

func TestFetchRates_EmptyListIsValid(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"offers": [], "zone": "RestOfIndia"}`)
	client := newTestClient(t, server.URL, nil, nil)

	quote, err := client.FetchRates(context.Background(), testQuery())

	require.NoError(t, err)
	assert.NotNil(t, quote.Offers)
	assert.Empty(t, quote.Offers)
}

func TestFetchRates_ServerErrorIsNotRetried(t *testing.T) {
	server, hits := newTestServer(t, http.StatusServiceUnavailable, `{"error": "down"}`)
	metrics := &fakeDownstreamMetrics{}
	client := newTestClient(t, server.URL, nil, metrics)

	quote, err := client.FetchRates(context.Background(), testQuery())

	assert.Nil(t, quote)
	fetchErr := requireFetchError(t, err, MessageFetchFailed)
	assert.Contains(t, fetchErr.Error(), "503")
	assert.Equal(t, int32(1), hits.Load())
	require.Len(t, metrics.calls, 1)
	assert.Equal(t, "error", metrics.calls[0].status)
}

func TestFetchRates_MalformedResponses(t *testing.T) {
	tests := map[string]string{
		"invalid json":      `{"offers": [`,
		"missing offers":    `{"zone": "Metro"}`,
		"missing courierId": `{"offers": [{"mode": "Air", "baseCharge": 1, "gst": 0.18, "total": 1.18}]}`,
		"empty mode":        `{"offers": [{"courierId": "x", "mode": "", "baseCharge": 1, "gst": 0.18, "total": 1.18}]}`,
		"negative charge":   `{"offers": [{"courierId": "x", "mode": "Air", "baseCharge": -5, "gst": 0, "total": 0}]}`,
		"string total":      `{"offers": [{"courierId": "x", "mode": "Air", "baseCharge": 1, "gst": 0.18, "total": "1.18"}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server, _ := newTestServer(t, http.StatusOK, body)
			client := newTestClient(t, server.URL, nil, nil)

			_, err := client.FetchRates(context.Background(), testQuery())

			requireFetchError(t, err, MessageInvalidRates)
		})
	}
}

func TestFetchRates_UnreachableSource(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, validBody)
	url := server.URL
	server.Close()

	client := newTestClient(t, url, nil, nil)

	_, err := client.FetchRates(context.Background(), testQuery())

	requireFetchError(t, err, MessageFetchFailed)
	assert.True(t, IsOutage(err))
}

func TestFetchRates_OpenBreakerFailsFast(t *testing.T) {
	server, hits := newTestServer(t, http.StatusInternalServerError, "boom")
	breaker := resilience.NewCircuitBreaker(&resilience.CircuitBreakerConfig{
		Name:             downstreamName,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, discardLogger())
	client := newTestClient(t, server.URL, breaker, nil)

	for i := 0; i < 2; i++ {
		_, err := client.FetchRates(context.Background(), testQuery())
		requireFetchError(t, err, MessageFetchFailed)
	}

	_, err := client.FetchRates(context.Background(), testQuery())

	fetchErr := requireFetchError(t, err, MessageFetchFailed)
	assert.ErrorIs(t, fetchErr, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchRates_CancelledCallersDoNotTripBreaker(t *testing.T) {
	server, hits := newTestServer(t, http.StatusOK, validBody)
	breaker := resilience.NewCircuitBreaker(BreakerConfig(), discardLogger())
	client := newTestClient(t, server.URL, breaker, nil)

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.FetchRates(ctx, testQuery())

		requireFetchError(t, err, MessageFetchFailed)
		assert.False(t, IsOutage(err))
	}

	assert.Equal(t, gobreaker.StateClosed, breaker.State())
	assert.Zero(t, breaker.Counts().TotalFailures)
	assert.Equal(t, int32(0), hits.Load())

	quote, err := client.FetchRates(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Len(t, quote.Offers, 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBreakerConfig_OnlyOutagesTrip(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
		trips  bool
	}{
		"server error": {status: http.StatusBadGateway, body: "down", trips: true},
		"throttled":    {status: http.StatusTooManyRequests, body: "slow down", trips: true},
		"bad request":  {status: http.StatusBadRequest, body: `{"error": "unknown pincode"}`, trips: false},
		"invalid body": {status: http.StatusOK, body: `{"zone": "Metro"}`, trips: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status, tt.body)
			config := BreakerConfig()
			config.FailureThreshold = 2
			breaker := resilience.NewCircuitBreaker(config, discardLogger())
			client := newTestClient(t, server.URL, breaker, nil)

			for i := 0; i < 2; i++ {
				_, err := client.FetchRates(context.Background(), testQuery())
				require.Error(t, err)
				assert.Equal(t, tt.trips, IsOutage(err))
			}

			if tt.trips {
				assert.Equal(t, gobreaker.StateOpen, breaker.State())
			} else {
				assert.Equal(t, gobreaker.StateClosed, breaker.State())
			}
		})
	}
}
