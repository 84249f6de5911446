package application

import "github.com/wms-platform/courier-rates/services/rate-service/internal/domain"

// QuoteRatesQuery represents a one-off rate lookup without a session
type QuoteRatesQuery struct {
	Query     domain.RateQuery
	Field     string
	Direction string
}

// OpenSessionCommand represents the command to open a rate selection dialog
type OpenSessionCommand struct {
	Surface   string
	Query     domain.RateQuery
	Field     string
	Direction string
}

// RefetchRatesCommand represents the command to reload a session's rates
type RefetchRatesCommand struct {
	SessionID string
	Query     domain.RateQuery
}

// ToggleSortCommand represents a click on a rate table header
type ToggleSortCommand struct {
	SessionID string
	Field     string
}

// SelectOfferCommand represents the command to pick one offer
type SelectOfferCommand struct {
	SessionID string
	CourierID string
	Mode      string
}

// SubmitSelectionCommand represents the command to hand the selection over
type SubmitSelectionCommand struct {
	SessionID string
}

// DismissSessionCommand represents the command to close the dialog
type DismissSessionCommand struct {
	SessionID string
}

// GetSessionQuery represents the query to get a session by ID
type GetSessionQuery struct {
	SessionID string
}

// GetSubmissionQuery represents the query for the recorded selection of a session
type GetSubmissionQuery struct {
	SessionID string
}
