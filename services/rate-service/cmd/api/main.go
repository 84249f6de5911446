package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/wms-platform/courier-rates/shared/pkg/cloudevents"
	"github.com/wms-platform/courier-rates/shared/pkg/kafka"
	"github.com/wms-platform/courier-rates/shared/pkg/logging"
	"github.com/wms-platform/courier-rates/shared/pkg/metrics"
	"github.com/wms-platform/courier-rates/shared/pkg/middleware"
	"github.com/wms-platform/courier-rates/shared/pkg/mongodb"
	"github.com/wms-platform/courier-rates/shared/pkg/resilience"
	"github.com/wms-platform/courier-rates/shared/pkg/tracing"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/api/handlers"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/application"
	rateKafka "github.com/wms-platform/courier-rates/services/rate-service/internal/infrastructure/kafka"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/infrastructure/memory"
	mongoRepo "github.com/wms-platform/courier-rates/services/rate-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/infrastructure/ratesource"
)

const (
	serviceName      = "rate-service"
	minSweepInterval = time.Second
)

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting rate-service API")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return err
	}

	// Tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	producer := kafka.NewInstrumentedProducer(kafka.NewProducer(config.Kafka), m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Rate source behind a circuit breaker
	breakerConfig := ratesource.BreakerConfig()
	breakerConfig.OnStateChange = func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
	breaker := resilience.NewCircuitBreaker(breakerConfig, logger.Logger)

	source, err := ratesource.NewClient(config.RateSource, breaker, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create rate source client")
		return err
	}

	surfaces, err := application.LoadSurfaceDefaults(config.SurfacesFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load surface defaults", "path", config.SurfacesFile)
		return err
	}

	// Submitted selections are recorded before they are announced
	selections := mongoRepo.NewSelectionRepository(mongoClient.Database(), m, logger)
	publisher := rateKafka.NewSelectionPublisher(producer, cloudevents.NewEventFactory(cloudevents.SourceRateService))
	sink := application.FanOutSink{selections, publisher}

	rateService := application.NewRateSelectionService(
		memory.NewSessionStore(),
		source,
		sink,
		surfaces,
		m,
		logger,
	).WithSelectionLookup(selections)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepIdleSessions(sweepCtx, rateService, config.SessionTTL, logger)

	rateHandler := handlers.NewRateHandler(rateService, logger)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	rateHandler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

func sweepIdleSessions(ctx context.Context, service *application.RateSelectionService, ttl time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(sweepInterval(ttl))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.SweepIdle(ctx, ttl); err != nil {
				logger.WithError(err).Warn("Failed to sweep idle rate sessions")
			}
		}
	}
}

// sweepInterval is half the session ttl, never below minSweepInterval
func sweepInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 2; interval >= minSweepInterval {
		return interval
	}
	return minSweepInterval
}

// Config holds application configuration
type Config struct {
	ServerAddr   string
	SessionTTL   time.Duration
	SurfacesFile string
	MongoDB      *mongodb.Config
	Kafka        *kafka.Config
	RateSource   ratesource.Config
}

func loadConfig() (*Config, error) {
	sourceTimeout, err := time.ParseDuration(getEnv("RATE_SOURCE_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}
	sessionTTL, err := time.ParseDuration(getEnv("RATE_SESSION_TTL", "30m"))
	if err != nil {
		return nil, err
	}
	if sessionTTL <= 0 {
		return nil, errors.New("RATE_SESSION_TTL must be positive")
	}

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8030"),
		SessionTTL:   sessionTTL,
		SurfacesFile: getEnv("RATE_SURFACES_FILE", ""),
		MongoDB:      mongoConfig,
		Kafka:        kafkaConfig,
		RateSource: ratesource.Config{
			BaseURL: getEnv("RATE_SOURCE_URL", "http://localhost:8031"),
			Timeout: sourceTimeout,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
