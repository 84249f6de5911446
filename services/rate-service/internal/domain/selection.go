package domain

import "time"

// SelectionStatus is the state of a courier selection
type SelectionStatus string

const (
	NoSelection SelectionStatus = "no_selection"
	Selected    SelectionStatus = "selected"
	Submitted   SelectionStatus = "submitted"
	Cleared     SelectionStatus = "cleared"
)

// CourierSelection is what a submitted selection hands to its caller
type CourierSelection struct {
	Courier string       `json:"courier" bson:"courier"`
	Mode    string       `json:"mode" bson:"mode"`
	Charges FeeBreakdown `json:"charges" bson:"charges"`
}

// SubmitFunc receives the selection on submit. A non-nil error keeps the selection
// in the Selected state.
type SubmitFunc func(CourierSelection) error

// Selection tracks the single active (courier, mode) choice of one rate list.
// Cleared behaves like NoSelection; Submitted is terminal.
type Selection struct {
	status SelectionStatus
	key    OfferKey
}

// NewSelection starts with nothing selected
func NewSelection() *Selection {
	return &Selection{status: NoSelection}
}

// Status returns the current state
func (s *Selection) Status() SelectionStatus {
	return s.status
}

// Key returns the selected pair, if any
func (s *Selection) Key() (OfferKey, bool) {
	if s.status == Selected || s.status == Submitted {
		return s.key, true
	}
	return OfferKey{}, false
}

// HasSelection reports whether an offer is selected and not yet submitted
func (s *Selection) HasSelection() bool {
	return s.status == Selected
}

// Select records the (courierID, mode) pair, replacing any earlier choice. The pair
// must match exactly one offer.
func (s *Selection) Select(offers []RateOffer, courierID, mode string) error {
	if s.status == Submitted {
		return ErrAlreadySubmitted
	}

	key := OfferKey{CourierID: courierID, Mode: mode}
	switch len(FindOffers(offers, key)) {
	case 0:
		return ErrOfferNotFound
	case 1:
	default:
		return ErrAmbiguousOffer
	}

	s.key = key
	s.status = Selected
	return nil
}

// Submit composes the fee breakdown of the selected offer and passes it to fn.
// Without a selection it returns ErrNoSelection and fn is not called.
func (s *Selection) Submit(offers []RateOffer, fn SubmitFunc) (*CourierSelection, error) {
	switch s.status {
	case Selected:
	case Submitted:
		return nil, ErrAlreadySubmitted
	default:
		return nil, ErrNoSelection
	}

	var offer *RateOffer
	if matches := FindOffers(offers, s.key); len(matches) == 1 {
		offer = &matches[0]
	}

	charges, err := ComposeFees(offer)
	if err != nil {
		return nil, err
	}

	selection := CourierSelection{
		Courier: s.key.CourierID,
		Mode:    s.key.Mode,
		Charges: charges,
	}

	if fn != nil {
		if err := fn(selection); err != nil {
			return nil, err
		}
	}

	s.status = Submitted
	return &selection, nil
}

// Clear drops the selection. It reports whether something was selected. A submitted
// selection stays submitted.
func (s *Selection) Clear() bool {
	if s.status == Submitted {
		return false
	}
	had := s.status == Selected
	s.key = OfferKey{}
	s.status = Cleared
	return had
}

// Revalidate clears the selection when it no longer matches exactly one offer
func (s *Selection) Revalidate(offers []RateOffer) bool {
	if s.status != Selected {
		return false
	}
	if len(FindOffers(offers, s.key)) == 1 {
		return false
	}
	return s.Clear()
}

// SubmittedSelection is a courier selection together with the session it came from
type SubmittedSelection struct {
	CourierSelection `bson:",inline"`

	SessionID   string    `json:"sessionId" bson:"sessionId"`
	Surface     Surface   `json:"surface" bson:"surface"`
	Query       RateQuery `json:"query" bson:"query"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}
