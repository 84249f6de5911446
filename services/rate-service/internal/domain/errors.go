package domain

import "errors"

// NoSelectionMessage is shown when the user tries to continue without picking a rate
const NoSelectionMessage = "Please select a courier before continuing"

// ValidationError is a user-facing rejection. State is left unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FetchError means the rate source failed or answered with malformed data. Message is
// suitable for display.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError creates a FetchError
func NewFetchError(message string, err error) *FetchError {
	return &FetchError{Message: message, Err: err}
}

// PreconditionError marks internal misuse of the selection core
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// Domain errors
var (
	ErrNoSelection      = &ValidationError{Message: NoSelectionMessage}
	ErrOfferNotFound    = &ValidationError{Message: "selected courier and mode are not in the current rate list"}
	ErrAmbiguousOffer   = &ValidationError{Message: "selected courier and mode match more than one rate"}
	ErrAlreadySubmitted = &ValidationError{Message: "courier selection has already been submitted"}
	ErrSessionClosed    = &ValidationError{Message: "rate session is closed"}
	ErrRatesLoading     = &ValidationError{Message: "rates are still loading"}
	ErrInvalidSortField = &ValidationError{Message: "sort field must be one of: courier, mode, shipping, gst, total"}
	ErrInvalidSortDir   = &ValidationError{Message: "sort direction must be asc or desc"}
	ErrInvalidSurface   = &ValidationError{Message: "surface must be one of: customer, seller, admin"}
	ErrInvalidRateQuery = &ValidationError{Message: "origin, destination and a positive weight are required"}
	ErrMissingOffer     = &PreconditionError{Message: "fee composition requires a resolved rate offer"}
	ErrSessionNotFound  = errors.New("rate session not found")
)
