package application

import "time"

// RateQueryDTO represents the parameters a rate list was fetched with
type RateQueryDTO struct {
	OriginPincode      string  `json:"originPincode"`
	DestinationPincode string  `json:"destinationPincode"`
	WeightKg           float64 `json:"weightKg"`
	IsCOD              bool    `json:"isCOD"`
}

// ServiceModeDTO represents the display form of a mode
type ServiceModeDTO struct {
	Transport string `json:"transport,omitempty"`
	Label     string `json:"label"`
	IsExpress bool   `json:"isExpress"`
}

// RateOfferDTO represents one courier offer in responses
type RateOfferDTO struct {
	CourierID              string         `json:"courierId"`
	Mode                   string         `json:"mode"`
	ServiceMode            ServiceModeDTO `json:"serviceMode"`
	BaseCharge             float64        `json:"baseCharge"`
	AdditionalWeightCharge float64        `json:"additionalWeightCharge"`
	ShippingCharge         float64        `json:"shippingCharge"`
	CODCharge              float64        `json:"codCharge"`
	GSTPercentage          float64        `json:"gstPercentage"`
	GST                    float64        `json:"gst"`
	Total                  float64        `json:"total"`
	GSTMismatch            bool           `json:"gstMismatch"`
	Selected               bool           `json:"selected"`
}

// SortDTO represents the active sort column
type SortDTO struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// QuoteDTO represents a sorted rate list without a session
type QuoteDTO struct {
	Offers      []RateOfferDTO `json:"offers"`
	Zone        string         `json:"zone"`
	DisplayZone string         `json:"displayZone"`
	Sort        SortDTO        `json:"sort"`
}

// SelectionDTO represents the selected (courier, mode) pair
type SelectionDTO struct {
	CourierID string `json:"courierId"`
	Mode      string `json:"mode"`
}

// RateSessionDTO represents the current view of a rate session
type RateSessionDTO struct {
	SessionID       string         `json:"sessionId"`
	Surface         string         `json:"surface"`
	Status          string         `json:"status"`
	Query           RateQueryDTO   `json:"query"`
	Offers          []RateOfferDTO `json:"offers"`
	Zone            string         `json:"zone"`
	DisplayZone     string         `json:"displayZone"`
	Sort            SortDTO        `json:"sort"`
	SelectionStatus string         `json:"selectionStatus"`
	Selection       *SelectionDTO  `json:"selection,omitempty"`
	FetchError      string         `json:"fetchError,omitempty"`
	Loading         bool           `json:"loading"`
	CanSubmit       bool           `json:"canSubmit"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ChargesDTO represents the fee breakdown of a selection
type ChargesDTO struct {
	ShippingCharge float64 `json:"shippingCharge"`
	CODCharge      float64 `json:"codCharge"`
	GST            float64 `json:"gst"`
	Total          float64 `json:"total"`
}

// SubmissionDTO represents the payload handed over on submit
type SubmissionDTO struct {
	SessionID   string     `json:"sessionId"`
	Courier     string     `json:"courier"`
	Mode        string     `json:"mode"`
	Charges     ChargesDTO `json:"charges"`
	SubmittedAt time.Time  `json:"submittedAt"`
}
