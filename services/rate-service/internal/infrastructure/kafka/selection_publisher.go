package kafka

import (
	"context"
	"fmt"

	"github.com/wms-platform/courier-rates/shared/pkg/cloudevents"
	sharedKafka "github.com/wms-platform/courier-rates/shared/pkg/kafka"
	"github.com/wms-platform/courier-rates/shared/pkg/logging"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// EventPublisher publishes CloudEvents. *kafka.InstrumentedProducer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}

// SelectionPublisher announces submitted selections as courier-selected CloudEvents
type SelectionPublisher struct {
	publisher EventPublisher
	factory   *cloudevents.EventFactory
	topic     string
}

// NewSelectionPublisher creates a publisher writing to the rates events topic
func NewSelectionPublisher(publisher EventPublisher, factory *cloudevents.EventFactory) *SelectionPublisher {
	return &SelectionPublisher{
		publisher: publisher,
		factory:   factory,
		topic:     sharedKafka.Topics.RatesEvents,
	}
}

// HandleSelection publishes the selection. The event is keyed by session, so a retried
// submit lands on the same partition.
func (p *SelectionPublisher) HandleSelection(ctx context.Context, selection domain.SubmittedSelection) error {
	event := p.factory.CreateCourierSelectedEvent(ctx, toEventData(selection), string(selection.Surface), correlationID(ctx))

	if err := p.publisher.PublishEvent(ctx, p.topic, event); err != nil {
		return fmt.Errorf("failed to publish courier selection: %w", err)
	}
	return nil
}

func toEventData(selection domain.SubmittedSelection) cloudevents.CourierSelectedData {
	return cloudevents.CourierSelectedData{
		SessionID: selection.SessionID,
		Courier:   selection.Courier,
		Mode:      selection.Mode,
		Charges: cloudevents.ChargesPayload{
			ShippingCharge: selection.Charges.ShippingCharge,
			CODCharge:      selection.Charges.CODCharge,
			GST:            selection.Charges.GST,
			Total:          selection.Charges.Total,
		},
		OriginPincode:      selection.Query.OriginPincode,
		DestinationPincode: selection.Query.DestinationPincode,
		WeightKg:           selection.Query.WeightKg,
		IsCOD:              selection.Query.IsCOD,
		SubmittedAt:        selection.SubmittedAt,
	}
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}
