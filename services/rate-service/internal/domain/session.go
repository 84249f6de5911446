package domain

import (
	"errors"
	"time"
)

// Surface is the portal a rate session is opened from
type Surface string

const (
	SurfaceCustomer Surface = "customer"
	SurfaceSeller   Surface = "seller"
	SurfaceAdmin    Surface = "admin"
)

// ParseSurface parses a surface name
func ParseSurface(v string) (Surface, error) {
	switch s := Surface(v); s {
	case SurfaceCustomer, SurfaceSeller, SurfaceAdmin:
		return s, nil
	}
	return "", ErrInvalidSurface
}

// SessionStatus represents whether a session still accepts changes
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// RateSession is one rate selection dialog: the offer list of the latest fetch, how it
// is sorted, and what the user picked from it.
type RateSession struct {
	ID         string
	Surface    Surface
	Query      RateQuery
	Offers     []RateOffer
	Zone       string
	Sort       SortState
	Selection  *Selection
	FetchError string
	Generation uint64
	Loading    bool
	Status     SessionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time

	domainEvents []DomainEvent
}

// NewRateSession creates an open session with nothing fetched yet
func NewRateSession(id string, surface Surface, sort SortState) *RateSession {
	now := time.Now().UTC()
	return &RateSession{
		ID:        id,
		Surface:   surface,
		Offers:    []RateOffer{},
		Sort:      sort,
		Selection: NewSelection(),
		Status:    SessionOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsClosed reports whether the session was dismissed
func (s *RateSession) IsClosed() bool {
	return s.Status == SessionClosed
}

// BeginFetch starts a fetch for query and returns its generation. Only the answer
// for the latest generation is applied. A query that differs from the previous one
// drops the selection.
func (s *RateSession) BeginFetch(query RateQuery) (uint64, error) {
	if s.IsClosed() {
		return 0, ErrSessionClosed
	}
	if err := query.Validate(); err != nil {
		return 0, err
	}

	if s.Generation > 0 && query != s.Query {
		s.clearSelection(ClearReasonQueryChanged)
	}

	s.Generation++
	s.Query = query
	s.Offers = []RateOffer{}
	s.Zone = ""
	s.FetchError = ""
	s.Loading = true
	s.touch()

	return s.Generation, nil
}

// ApplyQuote stores the answer of fetch generation gen. It returns false and changes
// nothing when the session is closed or a newer fetch has started.
func (s *RateSession) ApplyQuote(gen uint64, quote *RateQuote) bool {
	if !s.accepts(gen) {
		return false
	}

	offers := []RateOffer{}
	zone := ""
	if quote != nil {
		offers = append(offers, quote.Offers...)
		zone = quote.Zone
	}

	s.Offers = offers
	s.Zone = zone
	s.FetchError = ""
	s.Loading = false

	if key, ok := s.Selection.Key(); ok && s.Selection.Revalidate(offers) {
		s.addClearedEvent(key, ClearReasonOfferGone)
	}

	s.touch()
	return true
}

// ApplyFetchError records a failed fetch of generation gen. The list is emptied so
// nothing can be submitted until a later fetch succeeds.
func (s *RateSession) ApplyFetchError(gen uint64, err error) bool {
	if !s.accepts(gen) {
		return false
	}

	message := "failed to fetch courier rates"
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		message = fetchErr.Message
	} else if err != nil {
		message = err.Error()
	}

	s.Offers = []RateOffer{}
	s.Zone = ""
	s.FetchError = message
	s.Loading = false
	s.clearSelection(ClearReasonFetchFailed)
	s.touch()
	return true
}

func (s *RateSession) accepts(gen uint64) bool {
	return !s.IsClosed() && gen == s.Generation && s.Loading
}

// ToggleSort applies a header click on field
func (s *RateSession) ToggleSort(field SortField) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}
	if !field.Valid() {
		return ErrInvalidSortField
	}

	s.Sort = s.Sort.Toggle(field)
	s.touch()
	return nil
}

// SortedOffers returns the offers in the current sort order
func (s *RateSession) SortedOffers() []RateOffer {
	return SortOffers(s.Offers, s.Sort)
}

// DisplayZone returns the zone formatted for display
func (s *RateSession) DisplayZone() string {
	return HumanizeZone(s.Zone)
}

// Select marks the offer identified by (courierID, mode)
func (s *RateSession) Select(courierID, mode string) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}
	if err := s.Selection.Select(s.Offers, courierID, mode); err != nil {
		return err
	}

	s.touch()
	return nil
}

// CanSubmit reports whether Submit would reach the callback
func (s *RateSession) CanSubmit() bool {
	return !s.IsClosed() && !s.Loading && len(s.Offers) > 0 && s.Selection.HasSelection()
}

// Submit hands the selected offer and its fee breakdown to fn. The selection only
// becomes submitted when fn succeeds.
func (s *RateSession) Submit(fn SubmitFunc) (*CourierSelection, error) {
	return s.SubmitAt(time.Now().UTC(), fn)
}

// SubmitAt is Submit with the submission time supplied by the caller. The raised
// event and the session's UpdatedAt both carry at.
func (s *RateSession) SubmitAt(at time.Time, fn SubmitFunc) (*CourierSelection, error) {
	if s.IsClosed() {
		return nil, ErrSessionClosed
	}
	if s.Loading && s.Selection.HasSelection() {
		return nil, ErrRatesLoading
	}

	selection, err := s.Selection.Submit(s.Offers, fn)
	if err != nil {
		return nil, err
	}

	s.UpdatedAt = at
	s.addDomainEvent(&CourierSelectedEvent{
		SessionID:   s.ID,
		Surface:     s.Surface,
		Query:       s.Query,
		Selection:   *selection,
		SubmittedAt: at,
	})

	return selection, nil
}

// Dismiss closes the dialog. Answers still in flight are dropped when they arrive.
func (s *RateSession) Dismiss() bool {
	if s.IsClosed() {
		return false
	}

	s.clearSelection(ClearReasonDismissed)
	s.Status = SessionClosed
	s.Loading = false
	s.touch()
	return true
}

func (s *RateSession) clearSelection(reason string) {
	key, ok := s.Selection.Key()
	if s.Selection.Clear() && ok {
		s.addClearedEvent(key, reason)
	}
}

func (s *RateSession) addClearedEvent(key OfferKey, reason string) {
	s.addDomainEvent(&SelectionClearedEvent{
		SessionID: s.ID,
		Courier:   key.CourierID,
		Mode:      key.Mode,
		Reason:    reason,
		ClearedAt: time.Now().UTC(),
	})
}

func (s *RateSession) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// addDomainEvent adds a domain event
func (s *RateSession) addDomainEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// GetDomainEvents returns all domain events
func (s *RateSession) GetDomainEvents() []DomainEvent {
	return s.domainEvents
}

// ClearDomainEvents clears all domain events
func (s *RateSession) ClearDomainEvents() {
	s.domainEvents = nil
}
