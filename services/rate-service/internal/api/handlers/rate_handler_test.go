package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/courier-rates/shared/pkg/logging"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/application"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/infrastructure/memory"
)

type fakeSource struct {
	quote *domain.RateQuote
	err   error
}

func (f *fakeSource) FetchRates(context.Context, domain.RateQuery) (*domain.RateQuote, error) {
	return f.quote, f.err
}

type memorySink struct {
	mu       sync.Mutex
	received map[string]domain.SubmittedSelection
}

func (s *memorySink) HandleSelection(_ context.Context, selection domain.SubmittedSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received[selection.SessionID] = selection
	return nil
}

func (s *memorySink) FindBySessionID(_ context.Context, sessionID string) (*domain.SubmittedSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selection, ok := s.received[sessionID]; ok {
		return &selection, nil
	}
	return nil, nil
}

type handlerEnv struct {
	router *gin.Engine
	source *fakeSource
	sink   *memorySink
}

func newHandlerEnv() *handlerEnv {
	logger := logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "rate-service-test",
		Environment: "test",
		Version:     "test",
		Output:      io.Discard,
	})

	source := &fakeSource{quote: &domain.RateQuote{
		Offers: []domain.RateOffer{
			{CourierID: "A", Mode: "Air - Express", BaseCharge: 150, AdditionalWeightCharge: 20, GSTPercentage: 18, GST: 30.6, Total: 200.6},
			{CourierID: "B", Mode: "Surface - Standard", BaseCharge: 100, AdditionalWeightCharge: 10, CODCharge: 25, GSTPercentage: 18, GST: 24.3, Total: 159.3},
		},
		Zone: "WithinCity",
	}}
	sink := &memorySink{received: map[string]domain.SubmittedSelection{}}

	service := application.NewRateSelectionService(memory.NewSessionStore(), source, sink, nil, nil, logger).
		WithSelectionLookup(sink)
	handler := NewRateHandler(service, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return &handlerEnv{router: router, source: source, sink: sink}
}

func performRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func openSession(t *testing.T, env *handlerEnv) application.RateSessionDTO {
	t.Helper()
	resp := performRequest(env.router, http.MethodPost, "/api/v1/rate-sessions", map[string]any{
		"surface":            "customer",
		"originPincode":      "110001",
		"destinationPincode": "560001",
		"weightKg":           2,
		"isCOD":              true,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeData[application.RateSessionDTO](t, resp)
}

func TestQuoteRates(t *testing.T) {
	env := newHandlerEnv()

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rates?origin=110001&destination=560001&weight=2&sort=total&direction=desc", nil)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	quote := decodeData[application.QuoteDTO](t, resp)
	require.Len(t, quote.Offers, 2)
	assert.Equal(t, "A", quote.Offers[0].CourierID)
	assert.Equal(t, "Within City", quote.DisplayZone)
}

func TestQuoteRates_InvalidPincode(t *testing.T) {
	env := newHandlerEnv()

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rates?origin=11&destination=560001&weight=2", nil)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp)["code"])
}

func TestQuoteRates_InvalidSortField(t *testing.T) {
	env := newHandlerEnv()

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rates?origin=110001&destination=560001&weight=2&sort=eta", nil)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestQuoteRates_FetchError(t *testing.T) {
	env := newHandlerEnv()
	env.source.quote = nil
	env.source.err = domain.NewFetchError("Failed to fetch courier rates", nil)

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rates?origin=110001&destination=560001&weight=2", nil)

	require.Equal(t, http.StatusBadGateway, resp.Code)
	body := decodeError(t, resp)
	assert.Equal(t, "FETCH_ERROR", body["code"])
	assert.Equal(t, "Failed to fetch courier rates", body["message"])
}

func TestOpenSession_InvalidSurface(t *testing.T) {
	env := newHandlerEnv()

	resp := performRequest(env.router, http.MethodPost, "/api/v1/rate-sessions", map[string]any{
		"surface":            "warehouse",
		"originPincode":      "110001",
		"destinationPincode": "560001",
		"weightKg":           2,
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSessionFlow_SelectAndSubmit(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)
	assert.Equal(t, "customer", session.Surface)
	assert.Equal(t, "B", session.Offers[0].CourierID)
	assert.False(t, session.CanSubmit)

	path := "/api/v1/rate-sessions/" + session.SessionID
	resp := performRequest(env.router, http.MethodPost, path+"/selection", map[string]string{
		"courierId": "B",
		"mode":      "Surface - Standard",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	selected := decodeData[application.RateSessionDTO](t, resp)
	assert.True(t, selected.CanSubmit)
	require.NotNil(t, selected.Selection)
	assert.Equal(t, "B", selected.Selection.CourierID)

	resp = performRequest(env.router, http.MethodPost, path+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	submission := decodeData[application.SubmissionDTO](t, resp)
	assert.Equal(t, "B", submission.Courier)
	assert.Equal(t, application.ChargesDTO{ShippingCharge: 110, CODCharge: 25, GST: 24.3, Total: 159.3}, submission.Charges)

	resp = performRequest(env.router, http.MethodGet, path+"/submission", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, submission.Charges, decodeData[application.SubmissionDTO](t, resp).Charges)
}

func TestSubmit_WithoutSelection(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)

	resp := performRequest(env.router, http.MethodPost, "/api/v1/rate-sessions/"+session.SessionID+"/submit", nil)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, domain.NoSelectionMessage, body["message"])
	assert.Empty(t, env.sink.received)
}

func TestSelectOffer_MissingMode(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)

	resp := performRequest(env.router, http.MethodPost, "/api/v1/rate-sessions/"+session.SessionID+"/selection", map[string]string{
		"courierId": "B",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestToggleSort(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)
	path := "/api/v1/rate-sessions/" + session.SessionID + "/sort"

	resp := performRequest(env.router, http.MethodPost, path, map[string]string{"field": "total"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	toggled := decodeData[application.RateSessionDTO](t, resp)
	assert.Equal(t, application.SortDTO{Field: "total", Direction: "desc"}, toggled.Sort)
	assert.Equal(t, "A", toggled.Offers[0].CourierID)
}

func TestRefetchRates_ClearsSelection(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)
	path := "/api/v1/rate-sessions/" + session.SessionID

	resp := performRequest(env.router, http.MethodPost, path+"/selection", map[string]string{"courierId": "A", "mode": "Air - Express"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(env.router, http.MethodPost, path+"/refetch", map[string]any{
		"originPincode":      "110001",
		"destinationPincode": "400001",
		"weightKg":           2,
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	refetched := decodeData[application.RateSessionDTO](t, resp)
	assert.Nil(t, refetched.Selection)
	assert.Equal(t, "400001", refetched.Query.DestinationPincode)
}

func TestDismissSession(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)
	path := "/api/v1/rate-sessions/" + session.SessionID

	resp := performRequest(env.router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "closed", decodeData[application.RateSessionDTO](t, resp).Status)

	resp = performRequest(env.router, http.MethodPost, path+"/selection", map[string]string{"courierId": "A", "mode": "Air - Express"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	env := newHandlerEnv()

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rate-sessions/RS-missing", nil)

	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, resp)["code"])
}

func TestGetSubmission_NotSubmitted(t *testing.T) {
	env := newHandlerEnv()
	session := openSession(t, env)

	resp := performRequest(env.router, http.MethodGet, "/api/v1/rate-sessions/"+session.SessionID+"/submission", nil)

	require.Equal(t, http.StatusNotFound, resp.Code)
}
