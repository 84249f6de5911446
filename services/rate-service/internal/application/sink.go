package application

import (
	"context"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// SelectionSink receives submitted courier selections
type SelectionSink interface {
	HandleSelection(ctx context.Context, selection domain.SubmittedSelection) error
}

// SelectionSinkFunc adapts a function to SelectionSink
type SelectionSinkFunc func(ctx context.Context, selection domain.SubmittedSelection) error

// HandleSelection calls f
func (f SelectionSinkFunc) HandleSelection(ctx context.Context, selection domain.SubmittedSelection) error {
	return f(ctx, selection)
}

// FanOutSink hands a selection to each sink in order and stops at the first failure.
// Sinks must tolerate seeing the same session twice, since a failed submit can be
// retried.
type FanOutSink []SelectionSink

// HandleSelection implements SelectionSink
func (s FanOutSink) HandleSelection(ctx context.Context, selection domain.SubmittedSelection) error {
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.HandleSelection(ctx, selection); err != nil {
			return err
		}
	}
	return nil
}

// SelectionLookup reads back recorded selections
type SelectionLookup interface {
	FindBySessionID(ctx context.Context, sessionID string) (*domain.SubmittedSelection, error)
}
