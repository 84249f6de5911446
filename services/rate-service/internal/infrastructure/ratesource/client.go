package ratesource

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/courier-rates/shared/pkg/logging"
	"github.com/wms-platform/courier-rates/shared/pkg/resilience"
	"github.com/wms-platform/courier-rates/shared/pkg/tracing"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// Messages shown to the user when a fetch fails
const (
	MessageFetchFailed  = "Failed to fetch courier rates"
	MessageInvalidRates = "Received invalid courier rates"
)

const (
	downstreamName = "rate-source"
	operationName  = "GET /rates"
	schemaURL      = "https://schemas.wms-platform.io/rates/response.json"
	maxBodyBytes   = 1 << 20
)

//go:embed rates_schema.json
var ratesSchema []byte

var tracer = otel.Tracer("rate-service/ratesource")

// DownstreamMetrics records calls to the rate source. *metrics.Metrics satisfies it.
type DownstreamMetrics interface {
	RecordDownstreamRequest(downstream, operation, status string, duration time.Duration)
}

// outageError marks a failure that says the rate source is down or overloaded
type outageError struct {
	err error
}

func (e *outageError) Error() string { return e.err.Error() }

func (e *outageError) Unwrap() error { return e.err }

// IsOutage reports whether err means the rate source itself failed. A caller that gave
// up, a rejected request and a malformed answer are not outages.
func IsOutage(err error) bool {
	var outage *outageError
	return errors.As(err, &outage)
}

// BreakerConfig returns the circuit breaker settings for the rate source. Only outages
// count toward tripping it.
func BreakerConfig() *resilience.CircuitBreakerConfig {
	config := resilience.DefaultCircuitBreakerConfig(downstreamName)
	config.IsSuccessful = func(err error) bool {
		return !IsOutage(err)
	}
	return config
}

// Config holds rate source client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the external courier rates API. A failed call is reported once and
// never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	schema     *jsonschema.Schema
	breaker    *resilience.CircuitBreaker
	metrics    DownstreamMetrics
	logger     *logging.Logger
}

// NewClient creates a new rate source client. breaker, metrics and logger may be nil.
func NewClient(config Config, breaker *resilience.CircuitBreaker, metrics DownstreamMetrics, logger *logging.Logger) (*Client, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		schema:     schema,
		breaker:    breaker,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(ratesSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rates schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add rates schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rates schema: %w", err)
	}
	return schema, nil
}

// FetchRates implements domain.RateSource. Every failure is a *domain.FetchError.
func (c *Client) FetchRates(ctx context.Context, query domain.RateQuery) (*domain.RateQuote, error) {
	var (
		quote *domain.RateQuote
		err   error
	)
	if c.breaker != nil {
		quote, err = resilience.Execute(ctx, c.breaker, func(ctx context.Context) (*domain.RateQuote, error) {
			return c.fetch(ctx, query)
		})
	} else {
		quote, err = c.fetch(ctx, query)
	}

	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, domain.NewFetchError(MessageFetchFailed, err)
	}
	return quote, nil
}

func (c *Client) fetch(ctx context.Context, query domain.RateQuery) (*domain.RateQuote, error) {
	start := time.Now()
	endpoint := c.baseURL + "/rates?" + encodeQuery(query)

	ctx, span := tracer.Start(ctx, downstreamName+".FetchRates",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", http.MethodGet),
			attribute.String("http.url", endpoint),
			attribute.String("rates.origin", query.OriginPincode),
			attribute.String("rates.destination", query.DestinationPincode),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.fail(span, start, MessageFetchFailed, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	// Inject trace context into outgoing request headers
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(span, start, MessageFetchFailed, transportFailure(ctx, fmt.Errorf("request failed: %w", err)))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(span, start, MessageFetchFailed, transportFailure(ctx, fmt.Errorf("failed to read response: %w", err)))
	}

	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("rate source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, c.fail(span, start, MessageFetchFailed, &outageError{err: statusErr})
		}
		return nil, c.fail(span, start, MessageFetchFailed, statusErr)
	}

	quote, err := c.decode(body)
	if err != nil {
		return nil, c.fail(span, start, MessageInvalidRates, err)
	}

	span.SetAttributes(attribute.Int("rates.offers", len(quote.Offers)))
	span.SetStatus(codes.Ok, "")
	c.record("success", start)
	return quote, nil
}

func (c *Client) decode(body []byte) (*domain.RateQuote, error) {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("malformed rates response: %w", err)
	}
	if err := c.schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("rates response does not match schema: %w", err)
	}

	var payload ratesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}

	return payload.toQuote(), nil
}

// transportFailure is an outage unless the caller's context ended first
func transportFailure(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return &outageError{err: err}
}

func (c *Client) fail(span trace.Span, start time.Time, message string, err error) error {
	tracing.RecordError(span, err)
	c.record("error", start)

	if c.logger != nil {
		c.logger.WithError(err).Warn("Rate source call failed",
			"downstream", downstreamName,
			"operation", operationName,
		)
	}
	return domain.NewFetchError(message, err)
}

func (c *Client) record(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordDownstreamRequest(downstreamName, operationName, status, time.Since(start))
	}
}

func encodeQuery(query domain.RateQuery) string {
	values := url.Values{}
	values.Set("origin", query.OriginPincode)
	values.Set("destination", query.DestinationPincode)
	values.Set("weight", strconv.FormatFloat(query.WeightKg, 'f', -1, 64))
	values.Set("cod", strconv.FormatBool(query.IsCOD))
	return values.Encode()
}
