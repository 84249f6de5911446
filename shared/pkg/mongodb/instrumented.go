package mongodb

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// OperationRecorder receives the outcome of every instrumented operation.
// *metrics.Metrics satisfies it.
type OperationRecorder interface {
	RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration)
}

// Instrument runs fn inside a client span and reports its outcome to rec, which may be nil.
func Instrument(ctx context.Context, rec OperationRecorder, collection, operation string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("mongodb").Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBOperationKey.String(operation),
			attribute.String("db.mongodb.collection", collection),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if rec != nil {
		rec.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
	}

	return err
}
