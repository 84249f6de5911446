package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedErrors "github.com/wms-platform/courier-rates/shared/pkg/errors"
	"github.com/wms-platform/courier-rates/shared/pkg/logging"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

const rateSourceName = "rate-source"

// Reasons a rate source answer is discarded
const (
	staleSuperseded    = "superseded"
	staleSessionClosed = "session_closed"
	staleSessionGone   = "session_gone"
)

// Metrics records rate selection activity
type Metrics interface {
	RecordRateOffers(count int)
	RecordSessionOpened(surface string)
	RecordSessionClosed()
	RecordStaleResponse(reason string)
	RecordCourierSelection(surface, courier string)
	RecordGSTMismatch(courier string)
}

type noopMetrics struct{}

func (noopMetrics) RecordRateOffers(int)                  {}
func (noopMetrics) RecordSessionOpened(string)            {}
func (noopMetrics) RecordSessionClosed()                  {}
func (noopMetrics) RecordStaleResponse(string)            {}
func (noopMetrics) RecordCourierSelection(string, string) {}
func (noopMetrics) RecordGSTMismatch(string)              {}

// RateSelectionService handles courier rate lookups and selection sessions
type RateSelectionService struct {
	sessions domain.SessionRepository
	source   domain.RateSource
	sink     SelectionSink
	lookup   SelectionLookup
	surfaces *SurfaceDefaults
	metrics  Metrics
	logger   *logging.Logger
	newID    func() string
}

// NewRateSelectionService creates a new RateSelectionService
func NewRateSelectionService(
	sessions domain.SessionRepository,
	source domain.RateSource,
	sink SelectionSink,
	surfaces *SurfaceDefaults,
	metrics Metrics,
	logger *logging.Logger,
) *RateSelectionService {
	if surfaces == nil {
		surfaces = DefaultSurfaceDefaults()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &RateSelectionService{
		sessions: sessions,
		source:   source,
		sink:     sink,
		surfaces: surfaces,
		metrics:  metrics,
		logger:   logger.WithComponent("rate-selection"),
		newID:    func() string { return "RS-" + uuid.NewString() },
	}
}

// WithSelectionLookup sets where recorded selections are read back from
func (s *RateSelectionService) WithSelectionLookup(lookup SelectionLookup) *RateSelectionService {
	s.lookup = lookup
	return s
}

// Quote fetches rates once and returns them sorted, without opening a session
func (s *RateSelectionService) Quote(ctx context.Context, query QuoteRatesQuery) (*QuoteDTO, error) {
	state, err := parseSort(query.Field, query.Direction, domain.NewSortState(domain.SortByTotal))
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	if err := query.Query.Validate(); err != nil {
		return nil, s.mapError(ctx, err)
	}

	quote, err := s.fetchRates(ctx, query.Query)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	return ToQuoteDTO(quote, state), nil
}

// OpenSession opens a rate dialog for a surface and loads its first rate list
func (s *RateSelectionService) OpenSession(ctx context.Context, cmd OpenSessionCommand) (*RateSessionDTO, error) {
	surface, err := domain.ParseSurface(cmd.Surface)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	state, err := parseSort(cmd.Field, cmd.Direction, s.surfaces.SortFor(surface))
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	if err := cmd.Query.Validate(); err != nil {
		return nil, s.mapError(ctx, err)
	}

	session := domain.NewRateSession(s.newID(), surface, state)
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.WithError(err).Error("Failed to create rate session", "surface", surface)
		return nil, fmt.Errorf("failed to create rate session: %w", err)
	}

	s.metrics.RecordSessionOpened(string(surface))
	s.logger.WithContext(ctx).Info("Opened rate session", "sessionId", session.ID, "surface", surface)

	if err := s.refresh(ctx, session.ID, cmd.Query); err != nil {
		return nil, s.mapError(ctx, err)
	}

	return s.GetSession(ctx, GetSessionQuery{SessionID: session.ID})
}

// Refetch reloads the rates of a session. New parameters drop the selection.
func (s *RateSelectionService) Refetch(ctx context.Context, cmd RefetchRatesCommand) (*RateSessionDTO, error) {
	if err := s.refresh(ctx, cmd.SessionID, cmd.Query); err != nil {
		return nil, s.mapError(ctx, err)
	}

	return s.GetSession(ctx, GetSessionQuery{SessionID: cmd.SessionID})
}

// GetSession returns the current view of a session
func (s *RateSelectionService) GetSession(ctx context.Context, query GetSessionQuery) (*RateSessionDTO, error) {
	var dto *RateSessionDTO
	err := s.sessions.View(ctx, query.SessionID, func(session *domain.RateSession) error {
		dto = ToRateSessionDTO(session)
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	return dto, nil
}

// ToggleSort applies a header click to the session's rate table
func (s *RateSelectionService) ToggleSort(ctx context.Context, cmd ToggleSortCommand) (*RateSessionDTO, error) {
	field, err := domain.ParseSortField(cmd.Field)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	return s.mutate(ctx, cmd.SessionID, func(session *domain.RateSession) error {
		return session.ToggleSort(field)
	})
}

// SelectOffer selects one (courier, mode) offer of the session
func (s *RateSelectionService) SelectOffer(ctx context.Context, cmd SelectOfferCommand) (*RateSessionDTO, error) {
	dto, err := s.mutate(ctx, cmd.SessionID, func(session *domain.RateSession) error {
		return session.Select(cmd.CourierID, cmd.Mode)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Debug("Selected courier offer",
		"sessionId", cmd.SessionID,
		"courierId", cmd.CourierID,
		"mode", cmd.Mode,
	)
	return dto, nil
}

// Submit hands the selected offer and its charges to the selection sink. When the
// sink fails the selection stays active and the submit can be retried.
func (s *RateSelectionService) Submit(ctx context.Context, cmd SubmitSelectionCommand) (*SubmissionDTO, error) {
	var submitted domain.SubmittedSelection
	err := s.sessions.Update(ctx, cmd.SessionID, func(session *domain.RateSession) error {
		defer s.drainEvents(ctx, session)

		submittedAt := time.Now().UTC()
		_, err := session.SubmitAt(submittedAt, func(selection domain.CourierSelection) error {
			submitted = domain.SubmittedSelection{
				CourierSelection: selection,
				SessionID:        session.ID,
				Surface:          session.Surface,
				Query:            session.Query,
				SubmittedAt:      submittedAt,
			}
			if s.sink == nil {
				return nil
			}
			if err := s.sink.HandleSelection(ctx, submitted); err != nil {
				return fmt.Errorf("failed to hand over courier selection: %w", err)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	s.metrics.RecordCourierSelection(string(submitted.Surface), submitted.Courier)
	s.logger.WithContext(ctx).Info("Submitted courier selection",
		"sessionId", submitted.SessionID,
		"courierId", submitted.Courier,
		"mode", submitted.Mode,
		"total", submitted.Charges.Total,
	)
	return ToSubmissionDTO(submitted), nil
}

// GetSubmission returns the selection recorded for a session. It outlives the session
// itself.
func (s *RateSelectionService) GetSubmission(ctx context.Context, query GetSubmissionQuery) (*SubmissionDTO, error) {
	if s.lookup == nil {
		return nil, sharedErrors.ErrNotFound("courier selection")
	}

	submitted, err := s.lookup.FindBySessionID(ctx, query.SessionID)
	if err != nil {
		s.logger.WithContext(ctx).WithSession(query.SessionID).WithError(err).Error("Failed to load courier selection")
		return nil, fmt.Errorf("failed to load courier selection: %w", err)
	}
	if submitted == nil {
		return nil, sharedErrors.ErrNotFoundWithID("courier selection", query.SessionID)
	}

	return ToSubmissionDTO(*submitted), nil
}

// Dismiss closes the dialog. Rates still being fetched for it are discarded on arrival.
func (s *RateSelectionService) Dismiss(ctx context.Context, cmd DismissSessionCommand) (*RateSessionDTO, error) {
	var closed bool
	dto, err := s.mutate(ctx, cmd.SessionID, func(session *domain.RateSession) error {
		closed = session.Dismiss()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closed {
		s.metrics.RecordSessionClosed()
		s.logger.WithContext(ctx).Info("Dismissed rate session", "sessionId", cmd.SessionID)
	}
	return dto, nil
}

// SweepIdle removes sessions untouched for longer than ttl
func (s *RateSelectionService) SweepIdle(ctx context.Context, ttl time.Duration) (int, error) {
	removed, err := s.sessions.DeleteIdleSince(ctx, time.Now().UTC().Add(-ttl))

	for _, session := range removed {
		if !session.IsClosed() {
			s.metrics.RecordSessionClosed()
		}
	}

	if len(removed) > 0 {
		s.logger.Info("Swept idle rate sessions", "count", len(removed), "ttl", ttl.String())
	}
	if err != nil {
		return len(removed), fmt.Errorf("failed to sweep rate sessions: %w", err)
	}
	return len(removed), nil
}

// refresh runs one fetch for a session. The rate source is called without holding the
// session, and the answer is applied only if no newer fetch started meanwhile.
func (s *RateSelectionService) refresh(ctx context.Context, sessionID string, query domain.RateQuery) error {
	var gen uint64
	err := s.sessions.Update(ctx, sessionID, func(session *domain.RateSession) error {
		defer s.drainEvents(ctx, session)

		g, err := session.BeginFetch(query)
		gen = g
		return err
	})
	if err != nil {
		return err
	}

	quote, fetchErr := s.fetchRates(ctx, query)

	var applied, closed bool
	err = s.sessions.Update(ctx, sessionID, func(session *domain.RateSession) error {
		defer s.drainEvents(ctx, session)

		if fetchErr != nil {
			applied = session.ApplyFetchError(gen, fetchErr)
		} else {
			applied = session.ApplyQuote(gen, quote)
		}
		closed = session.IsClosed()
		return nil
	})

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.dropStale(ctx, sessionID, gen, staleSessionGone)
	case err != nil:
		return err
	case !applied && closed:
		s.dropStale(ctx, sessionID, gen, staleSessionClosed)
	case !applied:
		s.dropStale(ctx, sessionID, gen, staleSuperseded)
	}

	return nil
}

func (s *RateSelectionService) fetchRates(ctx context.Context, query domain.RateQuery) (*domain.RateQuote, error) {
	start := time.Now()
	quote, err := s.source.FetchRates(ctx, query)

	offers := 0
	if quote != nil {
		offers = len(quote.Offers)
	}
	s.logger.RateFetch(ctx, query.OriginPincode, query.DestinationPincode, offers, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	if quote == nil {
		quote = &domain.RateQuote{}
	}

	s.metrics.RecordRateOffers(offers)
	s.auditOffers(ctx, quote.Offers)
	return quote, nil
}

func (s *RateSelectionService) auditOffers(ctx context.Context, offers []domain.RateOffer) {
	for _, offer := range offers {
		audit := domain.AuditGST(offer)
		if audit.Consistent {
			continue
		}

		s.metrics.RecordGSTMismatch(offer.CourierID)
		s.logger.WithContext(ctx).Warn("GST amount disagrees with gstPercentage",
			"courierId", offer.CourierID,
			"mode", offer.Mode,
			"gstPercentage", offer.GSTPercentage,
			"expected", audit.Expected.String(),
			"actual", audit.Actual.String(),
		)
	}
}

func (s *RateSelectionService) mutate(ctx context.Context, sessionID string, fn func(*domain.RateSession) error) (*RateSessionDTO, error) {
	var dto *RateSessionDTO
	err := s.sessions.Update(ctx, sessionID, func(session *domain.RateSession) error {
		defer s.drainEvents(ctx, session)

		if err := fn(session); err != nil {
			return err
		}
		dto = ToRateSessionDTO(session)
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	return dto, nil
}

func (s *RateSelectionService) dropStale(ctx context.Context, sessionID string, gen uint64, reason string) {
	s.metrics.RecordStaleResponse(reason)
	s.logger.WithContext(ctx).WithSession(sessionID).Debug("Dropped stale rate response",
		"generation", gen,
		"reason", reason,
	)
}

func (s *RateSelectionService) drainEvents(ctx context.Context, session *domain.RateSession) {
	for _, event := range session.GetDomainEvents() {
		data := map[string]any{"sessionId": session.ID}
		switch e := event.(type) {
		case *domain.SelectionClearedEvent:
			data["courierId"] = e.Courier
			data["mode"] = e.Mode
			data["reason"] = e.Reason
		case *domain.CourierSelectedEvent:
			data["courierId"] = e.Selection.Courier
			data["mode"] = e.Selection.Mode
			data["surface"] = string(e.Surface)
			data["submittedAt"] = e.SubmittedAt.Format(time.RFC3339Nano)
		}
		s.logger.Event(ctx, event.EventType(), data)
	}
	session.ClearDomainEvents()
}

// mapError turns domain errors into API errors
func (s *RateSelectionService) mapError(ctx context.Context, err error) error {
	var (
		validationErr   *domain.ValidationError
		fetchErr        *domain.FetchError
		preconditionErr *domain.PreconditionError
	)

	switch {
	case err == nil:
		return nil
	case sharedErrors.IsAppError(err):
		return err
	case errors.Is(err, domain.ErrSessionNotFound):
		return sharedErrors.ErrNotFound("rate session")
	case errors.As(err, &validationErr):
		return sharedErrors.ErrValidation(validationErr.Message)
	case errors.As(err, &fetchErr):
		return sharedErrors.ErrFetch(rateSourceName, fetchErr.Message).Wrap(err)
	case errors.As(err, &preconditionErr):
		s.logger.WithContext(ctx).WithError(err).Error("Rate selection precondition violated")
		return sharedErrors.ErrPrecondition(preconditionErr.Message).Wrap(err)
	default:
		return err
	}
}

func parseSort(field, direction string, fallback domain.SortState) (domain.SortState, error) {
	if field == "" && direction == "" {
		return fallback, nil
	}

	state := fallback
	if field != "" {
		f, err := domain.ParseSortField(field)
		if err != nil {
			return domain.SortState{}, err
		}
		state.Field = f
	}

	dir, err := domain.ParseSortDirection(direction)
	if err != nil {
		return domain.SortState{}, err
	}
	state.Direction = dir
	return state, nil
}
