package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}
}

// CreateCourierSelectedEvent creates a CourierSelected event keyed by the rate session
func (f *EventFactory) CreateCourierSelectedEvent(
	ctx context.Context,
	data CourierSelectedData,
	surface string,
	correlationID string,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, CourierSelected, "rate-session/"+data.SessionID, data)
	event.Surface = surface
	event.CorrelationID = correlationID
	return event
}
