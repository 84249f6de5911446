package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// CourierSelectedEvent is raised when a session hands its selection over
type CourierSelectedEvent struct {
	SessionID   string           `json:"sessionId"`
	Surface     Surface          `json:"surface"`
	Query       RateQuery        `json:"query"`
	Selection   CourierSelection `json:"selection"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

func (e *CourierSelectedEvent) EventType() string    { return "wms.rates.courier-selected" }
func (e *CourierSelectedEvent) OccurredAt() time.Time { return e.SubmittedAt }

// SelectionClearedEvent is raised when an active selection is dropped
type SelectionClearedEvent struct {
	SessionID string    `json:"sessionId"`
	Courier   string    `json:"courier"`
	Mode      string    `json:"mode"`
	Reason    string    `json:"reason"`
	ClearedAt time.Time `json:"clearedAt"`
}

func (e *SelectionClearedEvent) EventType() string    { return "wms.rates.selection-cleared" }
func (e *SelectionClearedEvent) OccurredAt() time.Time { return e.ClearedAt }

// Reasons a selection is cleared
const (
	ClearReasonQueryChanged = "query_changed"
	ClearReasonFetchFailed  = "fetch_failed"
	ClearReasonOfferGone    = "offer_gone"
	ClearReasonDismissed    = "dismissed"
)
