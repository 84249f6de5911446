package cloudevents

import (
	"time"
)

// Event types emitted by the rate service
const (
	CourierSelected = "wms.rates.courier-selected"
)

// Source constants for event sources
const (
	SourceRateService = "/wms/rate-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	CorrelationID string `json:"wmscorrelationid,omitempty"`
	Surface       string `json:"wmssurface,omitempty"`

	// W3C trace context, carried as extension attributes
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// CourierSelectedData is the payload handed to the host application when a
// courier rate is submitted
type CourierSelectedData struct {
	SessionID          string         `json:"sessionId"`
	Courier            string         `json:"courier"`
	Mode               string         `json:"mode"`
	Charges            ChargesPayload `json:"charges"`
	OriginPincode      string         `json:"originPincode"`
	DestinationPincode string         `json:"destinationPincode"`
	WeightKg           float64        `json:"weightKg"`
	IsCOD              bool           `json:"isCOD"`
	SubmittedAt        time.Time      `json:"submittedAt"`
}

// ChargesPayload is the fee breakdown of a submitted selection
type ChargesPayload struct {
	ShippingCharge float64 `json:"shippingCharge"`
	CODCharge      float64 `json:"codCharge"`
	GST            float64 `json:"gst"`
	Total          float64 `json:"total"`
}
